//go:build !linux && !darwin

package tcp

import (
	"fmt"
	"net"
)

// openListener falls back to the standard listener. Create, bind and listen happen in
// one call here, so every failure is reported as a bind failure.
func openListener(port, _ int) (*net.TCPListener, error) {
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, &StageError{Stage: StageBind, Err: fmt.Errorf("listen on port %d: %w", port, err)}
	}
	return ln, nil
}
