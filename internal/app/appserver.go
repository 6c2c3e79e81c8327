package app

import (
	"context"
	"errors"
	"sync"

	"iperf_drain/internal/core/drain"
	"iperf_drain/internal/shared/logger"
	"iperf_drain/internal/shared/types"
	"iperf_drain/internal/transport/tcp"
)

// AppServer is the application's main struct. It owns exactly one drain
// server and its lifecycle.
type AppServer struct {
	cfg    *types.Config
	server *drain.Server

	mu     sync.Mutex
	cancel context.CancelFunc

	waitGroup sync.WaitGroup
	stopOnce  sync.Once
}

// New creates an AppServer on the TCP transport.
func New(cfg *types.Config, opts ...drain.Option) *AppServer {
	return NewWithListener(cfg, tcp.Listen, opts...)
}

// NewWithListener creates an AppServer on an arbitrary transport.
func NewWithListener(cfg *types.Config, listen types.ListenFunc, opts ...drain.Option) *AppServer {
	return &AppServer{
		cfg:    cfg,
		server: drain.New(cfg, listen, opts...),
	}
}

// Run is the server's entry point. It blocks until ctx is cancelled or the task
// terminates on its own (setup or accept failure).
func (s *AppServer) Run(ctx context.Context) error {
	logger.Info().Int("port", s.cfg.Port).Msg("Starting iperf drain server...")

	err := s.server.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Drain task terminated")
		return err
	}
	logger.Info().Msg("Drain task stopped")
	return nil
}

// StartBackground sets up the listening socket synchronously and serves in a
// goroutine. It returns the bound port, which matters when port 0 was asked for.
func (s *AppServer) StartBackground() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return 0, errors.New("server is already running")
	}

	info, err := s.server.InitializeListener()
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()
		if err := s.server.Serve(ctx); err != nil {
			logger.Error().Err(err).Msg("Drain task terminated")
		}
	}()

	return info.Port, nil
}

// Stop gracefully shuts down the server and waits for the serving goroutine.
func (s *AppServer) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.server.Close()
		s.waitGroup.Wait()
		logger.Debug().Msg("AppServer stopped")
	})
}

// State exposes the listening socket lifecycle.
func (s *AppServer) State() types.ServerState {
	return s.server.State()
}

// GetListenerInfo returns the bound address, nil before the server started.
func (s *AppServer) GetListenerInfo() *types.ListenerInfo {
	return s.server.GetListenerInfo()
}
