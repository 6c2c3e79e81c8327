package drain

import (
	"errors"

	"github.com/rs/zerolog"

	"iperf_drain/internal/shared/types"
)

// SessionResult describes one served connection after it has been released.
type SessionResult struct {
	TraceID         string
	Remote          string
	Bytes           int64
	Kind            RecvErrorKind
	Err             error
	ReleaseAttempts int
	Aborted         bool // release stopped waiting and reset the connection
}

// Normal reports whether the peer ended the session with a graceful close.
func (r SessionResult) Normal() bool {
	return r.Kind == KindPeerClosed
}

// serveConn drains conn, closes our side and waits until the transport lets
// the connection go. conn is released when it returns.
func (s *Server) serveConn(conn types.Conn) SessionResult {
	res := SessionResult{TraceID: s.opts.newTraceID()}
	if addr := conn.RemoteAddr(); addr != nil {
		res.Remote = addr.String()
	}
	l := s.log.With().Str("trace_id", res.TraceID).Str("client_ip", res.Remote).Logger()

	l.Info().Msg("Iperf: started")

	res.Bytes, res.Err = drainConn(conn, s.buf)
	res.Kind = ClassifyRecvError(res.Err)
	if res.Normal() {
		l.Info().Int64("bytes", res.Bytes).Msg("Iperf: finished")
	} else {
		l.Error().Err(res.Err).Int("code", res.Kind.Code()).Str("kind", res.Kind.String()).
			Int64("bytes", res.Bytes).Msgf("ERROR: recv=%d", res.Kind.Code())
	}

	// FIN
	if err := conn.Close(); err != nil {
		l.Debug().Err(err).Msg("Sending FIN failed")
	}

	res.ReleaseAttempts, res.Aborted = s.releaseConn(conn, l)
	return res
}

// drainConn receives and discards until the first error. Bytes delivered
// together with an error still count.
func drainConn(conn types.Conn, buf []byte) (int64, error) {
	var total int64
	for {
		n, err := conn.Recv(buf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}

// releaseConn retries Release with a fixed delay until the transport reports
// the teardown complete. With max_release_attempts unset it never gives up.
func (s *Server) releaseConn(conn types.Conn, l zerolog.Logger) (attempts int, aborted bool) {
	maxAttempts := s.cfg.MaxReleaseAttempts
	for {
		attempts++
		err := conn.Release()
		if err == nil {
			if attempts > 1 {
				l.Debug().Int("attempts", attempts).Msg("Connection released after teardown wait")
			}
			return attempts, false
		}
		if !errors.Is(err, types.ErrTeardownInProgress) {
			l.Warn().Err(err).Int("attempt", attempts).Msg("Connection release failed, retrying")
		}

		if maxAttempts > 0 && attempts >= maxAttempts {
			l.Error().Int("attempts", attempts).Msg("Teardown never completed, aborting connection")
			if err := conn.Abort(); err != nil {
				l.Debug().Err(err).Msg("Abort failed")
			}
			return attempts, true
		}
		if s.isClosing() {
			_ = conn.Abort()
			return attempts, true
		}
		s.opts.sleep(s.releaseDelay)
	}
}
