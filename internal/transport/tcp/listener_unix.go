//go:build linux || darwin

package tcp

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// openListener walks socket -> bind -> listen by hand so that each failure is
// reported with its own stage, then hands the descriptor to the Go netpoller.
func openListener(port, recvBuf int) (*net.TCPListener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, &StageError{Stage: StageCreate, Err: err}
	}
	unix.CloseOnExec(fd)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if recvBuf > 0 {
		// accepted sockets inherit SO_RCVBUF from the listener
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, recvBuf); err != nil {
			unix.Close(fd)
			return nil, &StageError{Stage: StageCreate, Err: fmt.Errorf("set SO_RCVBUF: %w", err)}
		}
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return nil, &StageError{Stage: StageBind, Err: err}
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, &StageError{Stage: StageListen, Err: err}
	}

	// net.FileListener dups the descriptor, our copy is closed either way.
	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp-listener:%d", port))
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, &StageError{Stage: StageListen, Err: err}
	}
	tl, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, &StageError{Stage: StageListen, Err: fmt.Errorf("unexpected listener type %T", ln)}
	}
	return tl, nil
}
