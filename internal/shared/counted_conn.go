package shared

import (
	"net"
	"sync/atomic"
)

// CountedConn 是一个 net.Conn 的包装器，原子地统计发送和接收的字节数。
type CountedConn struct {
	net.Conn
	sent     atomic.Int64
	received atomic.Int64
}

// NewCountedConn 创建一个新的 CountedConn 实例。
func NewCountedConn(conn net.Conn) *CountedConn {
	return &CountedConn{Conn: conn}
}

// Read 从底层连接读取数据，并增加接收计数。
func (c *CountedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.received.Add(int64(n))
	}
	return n, err
}

// Write 将数据写入底层连接，并增加发送计数。
func (c *CountedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.sent.Add(int64(n))
	}
	return n, err
}

// CloseWrite half-closes the underlying connection when it supports it.
// It reports false when the wrapped connection cannot half-close.
func (c *CountedConn) CloseWrite() (bool, error) {
	hc, ok := c.Conn.(interface{ CloseWrite() error })
	if !ok {
		return false, nil
	}
	return true, hc.CloseWrite()
}

func (c *CountedConn) Sent() int64     { return c.sent.Load() }
func (c *CountedConn) Received() int64 { return c.received.Load() }
