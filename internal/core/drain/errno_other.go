//go:build !unix

package drain

import "syscall"

var errnoKinds = []struct {
	errno error
	kind  RecvErrorKind
}{
	{syscall.ENOMEM, KindOutOfMemory},
	{syscall.ENOBUFS, KindOutOfMemory},
	{syscall.EINVAL, KindInvalidArgument},
	{syscall.ENOTCONN, KindInvalidState},
	{syscall.ETIMEDOUT, KindTimeout},
}
