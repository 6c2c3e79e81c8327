package mobile

import (
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIni = `
[server]
port = 0

[drain]
release_delay_ms = 5

[log]
level = error
`

func queryStatus(t *testing.T) StatusData {
	t.Helper()
	raw, err := QueryStatus()
	require.NoError(t, err)
	var st StatusData
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	return st
}

func TestStartStopDrain(t *testing.T) {
	defer StopDrain()

	assert.False(t, queryStatus(t).Running)

	port, err := StartDrain(testIni)
	require.NoError(t, err)
	require.NotZero(t, port)

	_, err = StartDrain(testIni)
	assert.Error(t, err, "second start must be rejected")

	st := queryStatus(t)
	assert.True(t, st.Running)
	assert.Equal(t, port, st.Port)

	c, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 2*time.Second)
	require.NoError(t, err)
	c.Close()

	StopDrain()
	st = queryStatus(t)
	assert.False(t, st.Running)
	assert.Equal(t, "released", st.State)

	// can be started again after a stop
	port, err = StartDrain(testIni)
	require.NoError(t, err)
	assert.NotZero(t, port)
}

func TestStartDrain_BadIni(t *testing.T) {
	_, err := StartDrain("[server]\nport = -5\n")
	assert.Error(t, err)
	assert.False(t, queryStatus(t).Running)
}
