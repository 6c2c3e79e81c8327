//go:build unix

package drain

import "golang.org/x/sys/unix"

// connection resets fall through to KindOther on purpose
var errnoKinds = []struct {
	errno error
	kind  RecvErrorKind
}{
	{unix.ENOMEM, KindOutOfMemory},
	{unix.ENOBUFS, KindOutOfMemory},
	{unix.EINVAL, KindInvalidArgument},
	{unix.EBADF, KindInvalidArgument},
	{unix.ENOTCONN, KindInvalidState},
	{unix.EPIPE, KindInvalidState},
	{unix.ETIMEDOUT, KindTimeout},
}
