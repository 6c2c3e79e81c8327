package drain

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"iperf_drain/internal/shared/logger"
)

type serverOptions struct {
	logger     zerolog.Logger
	sleep      func(time.Duration)
	newTraceID func() string
	onSession  func(SessionResult)
}

func defaultServerOptions() *serverOptions {
	return &serverOptions{
		logger:     logger.WithComponent("drain"),
		sleep:      time.Sleep,
		newTraceID: uuid.NewString,
	}
}

type Option func(*serverOptions)

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithSleep replaces the delay used between release attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *serverOptions) {
		o.sleep = sleep
	}
}

// WithTraceIDs replaces the per-session trace id generator.
func WithTraceIDs(gen func() string) Option {
	return func(o *serverOptions) {
		o.newTraceID = gen
	}
}

// WithSessionHook registers a callback run after every session is released,
// before the next Accept.
func WithSessionHook(fn func(SessionResult)) Option {
	return func(o *serverOptions) {
		o.onSession = fn
	}
}
