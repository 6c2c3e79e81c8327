package drain

import (
	"errors"
	"io"
	"net"
	"os"
)

var (
	// ErrNotInitialized is returned by Serve when InitializeListener was not called.
	ErrNotInitialized = errors.New("drain server: listener not initialized")
	// ErrAlreadyInitialized is returned by a second InitializeListener call.
	ErrAlreadyInitialized = errors.New("drain server: listener already initialized")
	// ErrServerClosed is returned by InitializeListener after Close.
	ErrServerClosed = errors.New("drain server: closed")
)

// RecvErrorKind classifies why a drain loop stopped. Only KindPeerClosed is a
// normal completion; every kind ends the current session and nothing else.
type RecvErrorKind int

const (
	KindNone RecvErrorKind = iota
	KindPeerClosed
	KindOutOfMemory
	KindInvalidArgument
	KindInvalidState
	KindTimeout
	KindOther
)

func (k RecvErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPeerClosed:
		return "peer_closed"
	case KindOutOfMemory:
		return "out_of_memory"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Code returns the numeric error code written to the log. The numbering follows
// the lwIP err_t values an embedded iperf sink reports.
func (k RecvErrorKind) Code() int {
	switch k {
	case KindNone:
		return 0
	case KindPeerClosed:
		return -15
	case KindOutOfMemory:
		return -1
	case KindInvalidArgument:
		return -16
	case KindInvalidState:
		return -11
	case KindTimeout:
		return -3
	default:
		return -13
	}
}

// ClassifyRecvError maps a receive error onto the drain taxonomy.
func ClassifyRecvError(err error) RecvErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, io.EOF) {
		return KindPeerClosed
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, net.ErrClosed) {
		return KindInvalidState
	}
	for _, e := range errnoKinds {
		if errors.Is(err, e.errno) {
			return e.kind
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindOther
}
