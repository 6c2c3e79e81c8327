package sender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"iperf_drain/internal/shared"
	"iperf_drain/internal/shared/logger"
	"iperf_drain/internal/shared/protocol"
)

// Config describes one send run against a drain server.
type Config struct {
	Address   string        // host:port of the server
	Amount    int64         // payload bytes after the header
	BufferLen int           // size of each write
	Socks5    string        // optional SOCKS5 proxy host:port
	Timeout   time.Duration // dial timeout
}

// Result is what the sender observed. Echoed counts bytes the server wrote
// back before closing, which for a drain server is always zero.
type Result struct {
	HeaderBytes  int64
	PayloadBytes int64
	Echoed       int64
}

// Send writes a client header followed by cfg.Amount bytes, half-closes and
// waits for the server's FIN.
func Send(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.BufferLen <= 0 {
		return nil, errors.New("buffer length must be positive")
	}
	if cfg.Amount < 0 {
		return nil, errors.New("amount must not be negative")
	}

	raw, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	conn := shared.NewCountedConn(raw)
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	res := &Result{}
	header := &protocol.ClientHeader{
		NumThreads: 1,
		Port:       int32(portOf(cfg.Address)),
		BufferLen:  int32(cfg.BufferLen),
		Amount:     int32(min(cfg.Amount, math.MaxInt32)),
	}
	if err := protocol.WriteClientHeader(conn, header); err != nil {
		return res, err
	}
	res.HeaderBytes = protocol.ClientHeaderSize

	buf := make([]byte, cfg.BufferLen)
	for written := int64(0); written < cfg.Amount; {
		chunk := buf
		if left := cfg.Amount - written; left < int64(len(chunk)) {
			chunk = chunk[:left]
		}
		n, err := conn.Write(chunk)
		written += int64(n)
		res.PayloadBytes = conn.Sent() - res.HeaderBytes
		if err != nil {
			return res, fmt.Errorf("write payload: %w", err)
		}
	}

	ok, err := conn.CloseWrite()
	if !ok {
		logger.Debug().Str("addr", cfg.Address).Msg("Connection cannot half-close, closing without waiting for server FIN")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("close write side: %w", err)
	}

	_, err = io.Copy(io.Discard, conn)
	res.Echoed = conn.Received()
	if err != nil {
		return res, fmt.Errorf("wait for server close: %w", err)
	}
	logger.Debug().Str("addr", cfg.Address).Int64("bytes", res.PayloadBytes).Msg("Send completed")
	return res, nil
}

func dial(ctx context.Context, cfg Config) (net.Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	direct := &net.Dialer{Timeout: timeout}
	if cfg.Socks5 == "" {
		conn, err := direct.DialContext(ctx, "tcp", cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
		}
		return conn, nil
	}

	d, err := proxy.SOCKS5("tcp", cfg.Socks5, nil, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support context")
	}
	conn, err := cd.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s via socks5 %s: %w", cfg.Address, cfg.Socks5, err)
	}
	return conn, nil
}

func portOf(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(p)
	return port
}
