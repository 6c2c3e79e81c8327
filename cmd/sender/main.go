package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iperf_drain/internal/sender"
	"iperf_drain/internal/shared/logger"
	"iperf_drain/internal/shared/types"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5001", "Drain server address")
	amount := flag.Int64("amount", 10<<20, "Payload bytes to send")
	bufLen := flag.Int("len", 8<<10, "Size of each write")
	socks := flag.String("socks5", "", "Optional SOCKS5 proxy host:port")
	timeout := flag.Duration("timeout", 10*time.Second, "Dial timeout")
	level := flag.String("log", "info", "Log level")
	flag.Parse()

	_ = logger.Init(types.LogConf{Level: *level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sender.Send(ctx, sender.Config{
		Address:   *addr,
		Amount:    *amount,
		BufferLen: *bufLen,
		Socks5:    *socks,
		Timeout:   *timeout,
	})
	if err != nil {
		logger.Error().Err(err).Str("addr", *addr).Msg("Send failed")
		stop()
		os.Exit(1)
	}
	logger.Info().Str("addr", *addr).Int64("payload_bytes", res.PayloadBytes).
		Int64("echoed_bytes", res.Echoed).Msg("Send finished, server closed the connection")
}
