package tcp

import (
	"net"
	"sync/atomic"
	"time"

	"iperf_drain/internal/shared/types"
)

// Conn wraps an accepted *net.TCPConn with the close/release split the drain
// routine needs: Close only sends FIN, Release frees the descriptor once the
// kernel has finished the close handshake.
type Conn struct {
	c           *net.TCPConn
	recvTimeout time.Duration
	released    atomic.Bool
}

var _ types.Conn = (*Conn)(nil)

func newConn(c *net.TCPConn, recvTimeout time.Duration) *Conn {
	return &Conn{c: c, recvTimeout: recvTimeout}
}

// Recv reads the next chunk. A zero recvTimeout blocks forever.
func (c *Conn) Recv(buf []byte) (int, error) {
	if c.recvTimeout > 0 {
		if err := c.c.SetReadDeadline(time.Now().Add(c.recvTimeout)); err != nil {
			return 0, err
		}
	}
	return c.c.Read(buf)
}

// Close half-closes the write side.
func (c *Conn) Close() error {
	return c.c.CloseWrite()
}

// Release returns types.ErrTeardownInProgress while our FIN is unacknowledged.
func (c *Conn) Release() error {
	if c.released.Load() {
		return nil
	}
	if pending, err := teardownPending(c.c); err == nil && pending {
		return types.ErrTeardownInProgress
	}
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	return c.c.Close()
}

// Abort resets the connection. Used on shutdown and when release gives up.
// Safe to call from another goroutine while Recv is blocked.
func (c *Conn) Abort() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	_ = c.c.SetLinger(0)
	return c.c.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.c.RemoteAddr()
}
