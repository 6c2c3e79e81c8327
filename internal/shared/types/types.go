package types

import (
	"errors"
	"net"
)

// ErrTeardownInProgress is returned by Conn.Release while the transport has not yet
// finished the close handshake. It is a transient condition, callers retry.
var ErrTeardownInProgress = errors.New("connection teardown in progress")

// Listener 是监听 socket 的抽象。Server 独占持有它。
type Listener interface {
	// Accept blocks until the next inbound connection is available.
	Accept() (Conn, error)
	Addr() net.Addr
	// Release closes the listening socket and frees it. Safe to call more than once.
	Release() error
}

// Conn 是一个已接受连接的抽象，生命周期内由 drain 例程独占。
type Conn interface {
	// Recv blocks until the next chunk of data arrives and copies it into buf.
	Recv(buf []byte) (int, error)
	// Close sends our FIN. The descriptor stays allocated until Release succeeds.
	Close() error
	// Release deallocates the connection, or returns ErrTeardownInProgress.
	Release() error
	// Abort tears the connection down immediately without waiting for the peer.
	Abort() error
	RemoteAddr() net.Addr
}

// ListenFunc creates, binds and puts a listening socket into LISTEN state.
type ListenFunc func(cfg ServerConf) (Listener, error)

// ServerState is the lifecycle of the listening socket.
type ServerState int

const (
	StateCreated ServerState = iota
	StateListening
	StateAccepting
	StateConnectionInProgress
	StateReleased
)

func (s ServerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateListening:
		return "listening"
	case StateAccepting:
		return "accepting"
	case StateConnectionInProgress:
		return "connection_in_progress"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// ListenerInfo holds the runtime listening info of the server.
type ListenerInfo struct {
	Address string
	Port    int
}
