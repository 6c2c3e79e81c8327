package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iperf_drain/internal/shared/types"
)

func listenEphemeral(t *testing.T, conf types.ServerConf) *Listener {
	t.Helper()
	l, err := Listen(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })
	return l.(*Listener)
}

func dial(t *testing.T, l *Listener) *net.TCPConn {
	t.Helper()
	port := l.Addr().(*net.TCPAddr).Port
	c, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c.(*net.TCPConn)
}

func TestListen_PortInUseFailsAtBind(t *testing.T) {
	first := listenEphemeral(t, types.ServerConf{})
	port := first.Addr().(*net.TCPAddr).Port

	_, err := Listen(types.ServerConf{Port: port})
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageBind, stageErr.Stage)
}

func TestListener_ReleaseIsIdempotent(t *testing.T) {
	l, err := Listen(types.ServerConf{})
	require.NoError(t, err)

	require.NoError(t, l.Release())
	assert.NoError(t, l.Release())

	_, err = l.Accept()
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestConn_DrainCloseRelease(t *testing.T) {
	l := listenEphemeral(t, types.ServerConf{RecvBuffer: 64 << 10})
	peer := dial(t, l)

	c, err := l.Accept()
	require.NoError(t, err)

	_, err = peer.Write(make([]byte, 3000))
	require.NoError(t, err)
	require.NoError(t, peer.CloseWrite())

	buf := make([]byte, 512)
	total := 0
	for {
		n, err := c.Recv(buf)
		total += n
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
	assert.Equal(t, 3000, total)

	require.NoError(t, c.Close())

	// the peer sees our FIN and nothing else
	n, err := peer.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	deadline := time.Now().Add(5 * time.Second)
	for {
		err := c.Release()
		if err == nil {
			break
		}
		require.ErrorIs(t, err, types.ErrTeardownInProgress)
		require.True(t, time.Now().Before(deadline), "teardown never completed")
		time.Sleep(10 * time.Millisecond)
	}
	assert.NoError(t, c.Release())
	assert.NoError(t, c.Abort())
}

func TestConn_RecvTimeout(t *testing.T) {
	l := listenEphemeral(t, types.ServerConf{RecvTimeoutMs: 50})
	dial(t, l)

	c, err := l.Accept()
	require.NoError(t, err)
	defer c.Abort()

	_, err = c.Recv(make([]byte, 16))
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}

func TestConn_AbortUnblocksRecv(t *testing.T) {
	l := listenEphemeral(t, types.ServerConf{})
	dial(t, l)

	c, err := l.Accept()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Recv(make([]byte, 16))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Abort())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not return after Abort")
	}
}
