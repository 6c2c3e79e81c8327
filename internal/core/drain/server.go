package drain

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"iperf_drain/internal/shared/config"
	"iperf_drain/internal/shared/types"
)

// Server owns one listening socket and serves inbound connections strictly one
// at a time: accept, drain until the peer closes, close, release, repeat.
type Server struct {
	cfg    *types.Config
	listen types.ListenFunc
	opts   *serverOptions
	log    zerolog.Logger

	releaseDelay time.Duration
	buf          []byte

	mu           sync.Mutex
	state        types.ServerState
	listener     types.Listener
	listenerInfo *types.ListenerInfo
	active       types.Conn
	closing      bool
	closeOnce    sync.Once
}

// New builds a server that has not opened its socket yet.
func New(cfg *types.Config, listen types.ListenFunc, opts ...Option) *Server {
	o := defaultServerOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Server{
		cfg:          cfg,
		listen:       listen,
		opts:         o,
		log:          o.logger,
		releaseDelay: config.ReleaseDelay(cfg),
		buf:          make([]byte, cfg.BufferSize),
		state:        types.StateCreated,
	}
}

// InitializeListener creates, binds and listens without blocking.
// On failure nothing stays allocated and the server is Released.
func (s *Server) InitializeListener() (*types.ListenerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return nil, ErrServerClosed
	}
	if s.listener != nil {
		return nil, ErrAlreadyInitialized
	}

	ln, err := s.listen(s.cfg.ServerConf)
	if err != nil {
		s.state = types.StateReleased
		s.log.Error().Err(err).Int("port", s.cfg.Port).Msg("Drain server failed to set up listening socket")
		return nil, fmt.Errorf("drain server failed to listen on port %d: %w", s.cfg.Port, err)
	}
	s.listener = ln
	s.state = types.StateListening

	info := &types.ListenerInfo{Address: ln.Addr().String()}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		info.Address = tcpAddr.IP.String()
		info.Port = tcpAddr.Port
	}
	s.listenerInfo = info
	s.log.Info().Str("listen_addr", ln.Addr().String()).Msg(">>> Drain server is listening.")
	return info, nil
}

// Serve runs the accept loop until Accept fails or ctx is cancelled.
// The listening socket is always released before Serve returns. A shutdown
// requested through ctx or Close returns nil.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return ErrNotInitialized
	}

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()
	defer s.releaseListener()

	for {
		s.setState(types.StateAccepting)
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				s.log.Info().Msg("Drain listener is closing.")
				return nil
			}
			s.log.Error().Err(err).Msg("Drain server failed to accept connection, stopping")
			return fmt.Errorf("accept: %w", err)
		}

		if !s.setActive(conn) {
			_ = conn.Abort()
			return nil
		}
		res := s.serveConn(conn)
		s.clearActive()

		if s.opts.onSession != nil {
			s.opts.onSession(res)
		}
	}
}

// Run is the whole task body: set up the listening socket, then serve.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.InitializeListener(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Close stops accepting and aborts the connection being drained, if any.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		ln := s.listener
		active := s.active
		s.mu.Unlock()

		if ln != nil {
			if err := ln.Release(); err != nil {
				s.log.Debug().Err(err).Msg("Listener release returned error")
			}
		}
		if active != nil {
			s.log.Info().Msg("Aborting in-flight connection for shutdown.")
			_ = active.Abort()
		}
	})
}

// State reports where the listening socket is in its lifecycle.
func (s *Server) State() types.ServerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// GetListenerInfo returns the bound address, nil before InitializeListener.
func (s *Server) GetListenerInfo() *types.ListenerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenerInfo
}

func (s *Server) releaseListener() {
	s.mu.Lock()
	ln := s.listener
	s.state = types.StateReleased
	s.mu.Unlock()

	if err := ln.Release(); err != nil {
		s.log.Debug().Err(err).Msg("Listener release returned error")
	}
}

func (s *Server) setState(st types.ServerState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Server) setActive(conn types.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.active = conn
	s.state = types.StateConnectionInProgress
	return true
}

func (s *Server) clearActive() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
