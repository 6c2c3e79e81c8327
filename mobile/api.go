package mobile

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"iperf_drain/internal/app"
	"iperf_drain/internal/shared/config"
	"iperf_drain/internal/shared/logger"
	"iperf_drain/internal/shared/types"
)

var (
	// 全局变量，用于持有当前唯一运行的 AppServer 实例
	activeAppServer *app.AppServer
	instanceMutex   sync.Mutex
)

// StatusData 定义了返回给宿主应用的状态结构
type StatusData struct {
	Running bool   `json:"running"`
	State   string `json:"state"`
	Port    int    `json:"port"`
}

// StartDrain starts the drain server in the background from in-memory ini
// content and returns the bound port. Port 0 in the ini picks a free port.
func StartDrain(iniContent string) (port int, err error) {
	// Defer a panic handler to convert panics into errors, which is safer for CGo boundaries.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go core panic: %v\n\n%s", r, debug.Stack())
			port = 0
		}
	}()

	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if activeAppServer != nil {
		return 0, fmt.Errorf("service is already running")
	}

	cfg := types.DefaultConfig()
	if err := config.LoadIniBytes(cfg, []byte(iniContent)); err != nil {
		return 0, err
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		return 0, fmt.Errorf("failed to initialize logger: %w", err)
	}

	appServer := app.New(cfg)
	port, err = appServer.StartBackground()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start drain server")
		return 0, err
	}

	activeAppServer = appServer
	logger.Debug().Int("port", port).Msgf("Drain server started, listening on port %d", port)
	return port, nil
}

// StopDrain stops the running server, if any.
func StopDrain() {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if activeAppServer != nil {
		activeAppServer.Stop()
		activeAppServer = nil
	}
}

// QueryStatus returns the server status as a JSON object.
func QueryStatus() (statusJson string, err error) {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	status := StatusData{State: types.StateReleased.String()}
	if activeAppServer != nil {
		status.Running = true
		status.State = activeAppServer.State().String()
		if info := activeAppServer.GetListenerInfo(); info != nil {
			status.Port = info.Port
		}
	}

	data, err := json.Marshal(status)
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}
