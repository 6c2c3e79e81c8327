package drain

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"iperf_drain/internal/shared/types"
)

// fakeConn is a scripted connection: it hands out chunks, then either returns
// endErr or blocks until aborted. Release reports teardownRounds
// ErrTeardownInProgress results before succeeding.
type fakeConn struct {
	mu             sync.Mutex
	chunks         [][]byte
	endErr         error
	block          chan struct{}
	teardownRounds int

	closeCalls   int
	releaseCalls int
	abortCalls   int
	aborted      bool
	released     bool
}

func newFakeConn(endErr error, chunks ...[]byte) *fakeConn {
	return &fakeConn{chunks: chunks, endErr: endErr}
}

func (c *fakeConn) Recv(buf []byte) (int, error) {
	c.mu.Lock()
	if len(c.chunks) > 0 {
		n := copy(buf, c.chunks[0])
		if n < len(c.chunks[0]) {
			c.chunks[0] = c.chunks[0][n:]
		} else {
			c.chunks = c.chunks[1:]
		}
		c.mu.Unlock()
		return n, nil
	}
	block := c.block
	aborted := c.aborted
	c.mu.Unlock()

	if block != nil && !aborted {
		<-block
		return 0, net.ErrClosed
	}
	if aborted {
		return 0, net.ErrClosed
	}
	return 0, c.endErr
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	return nil
}

func (c *fakeConn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseCalls++
	if c.aborted || c.released {
		return nil
	}
	if c.teardownRounds > 0 {
		c.teardownRounds--
		return types.ErrTeardownInProgress
	}
	c.released = true
	return nil
}

func (c *fakeConn) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortCalls++
	if !c.aborted {
		c.aborted = true
		if c.block != nil {
			close(c.block)
		}
	}
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 40000}
}

type connCounts struct {
	closeCalls   int
	releaseCalls int
	abortCalls   int
	aborted      bool
	released     bool
}

func (c *fakeConn) snapshot() connCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return connCounts{
		closeCalls:   c.closeCalls,
		releaseCalls: c.releaseCalls,
		abortCalls:   c.abortCalls,
		aborted:      c.aborted,
		released:     c.released,
	}
}

// fakeListener hands out queued connections; once the queue is closed Accept
// returns acceptErr.
type fakeListener struct {
	conns       chan types.Conn
	acceptErr   error
	closed      chan struct{}
	closeOnce   sync.Once
	mu          sync.Mutex
	acceptCalls int
	releases    int
}

func newFakeListener(acceptErr error) *fakeListener {
	return &fakeListener{
		conns:     make(chan types.Conn, 16),
		acceptErr: acceptErr,
		closed:    make(chan struct{}),
	}
}

func (l *fakeListener) Accept() (types.Conn, error) {
	l.mu.Lock()
	l.acceptCalls++
	l.mu.Unlock()
	select {
	case <-l.closed:
		return nil, net.ErrClosed
	case c, ok := <-l.conns:
		if !ok {
			return nil, l.acceptErr
		}
		return c, nil
	}
}

func (l *fakeListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4zero, Port: types.DefaultPort}
}

func (l *fakeListener) Release() error {
	l.mu.Lock()
	l.releases++
	l.mu.Unlock()
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *fakeListener) counts() (acceptCalls, releases int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acceptCalls, l.releases
}

func listenWith(l types.Listener, err error) types.ListenFunc {
	return func(types.ServerConf) (types.Listener, error) {
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}

// sleepRecorder counts release delays without sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
}

func (r *sleepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delays)
}

// syncBuffer guards log output written by the serving goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Str("component", "drain").Logger()
}

func testConfig() *types.Config {
	cfg := types.DefaultConfig()
	cfg.BufferSize = 64
	return cfg
}
