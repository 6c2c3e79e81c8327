//go:build linux

package tcp

import (
	"net"

	"golang.org/x/sys/unix"
)

// Linux TCP states as reported in tcp_info.tcpi_state (include/net/tcp_states.h).
const (
	tcpFinWait1 = 4
	tcpClosing  = 11
	tcpLastAck  = 9
)

// teardownPending reports whether our FIN is still waiting for the peer's ACK.
func teardownPending(c *net.TCPConn) (bool, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return false, err
	}
	var info *unix.TCPInfo
	var infoErr error
	if err := raw.Control(func(fd uintptr) {
		info, infoErr = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	}); err != nil {
		return false, err
	}
	if infoErr != nil {
		return false, infoErr
	}
	switch info.State {
	case tcpFinWait1, tcpClosing, tcpLastAck:
		return true, nil
	}
	return false, nil
}
