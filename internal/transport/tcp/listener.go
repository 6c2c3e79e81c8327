package tcp

import (
	"fmt"
	"net"
	"sync"
	"time"

	"iperf_drain/internal/shared/config"
	"iperf_drain/internal/shared/types"
)

// Stage identifies which step of listening-socket setup failed.
type Stage string

const (
	StageCreate Stage = "create"
	StageBind   Stage = "bind"
	StageListen Stage = "listen"
)

// StageError 记录 socket 建立过程中失败的阶段
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s listening socket: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Listener is a TCP listening socket bound to every local IPv4 address.
type Listener struct {
	ln          *net.TCPListener
	recvTimeout time.Duration
	closeOnce   sync.Once
	closeErr    error
}

var _ types.Listener = (*Listener)(nil)

// Listen creates the socket, binds it to 0.0.0.0:port and moves it to LISTEN.
// It satisfies types.ListenFunc. Nothing is leaked when any step fails.
func Listen(conf types.ServerConf) (types.Listener, error) {
	ln, err := openListener(conf.Port, conf.RecvBuffer)
	if err != nil {
		return nil, err
	}
	return &Listener{
		ln:          ln,
		recvTimeout: config.RecvTimeout(conf),
	}, nil
}

// Accept blocks until a peer completes the handshake.
func (l *Listener) Accept() (types.Conn, error) {
	c, err := l.ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	return newConn(c, l.recvTimeout), nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Release closes the listening socket. Later calls return the first result.
func (l *Listener) Release() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.ln.Close()
	})
	return l.closeErr
}
