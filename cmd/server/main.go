package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"iperf_drain/internal/app"
	"iperf_drain/internal/shared/config"
	"iperf_drain/internal/shared/logger"
	"iperf_drain/internal/shared/types"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	port := flag.Int("port", -1, "Override the listening port")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "iperf.ini")

	// 1. 加载 .ini 配置, 文件缺失时使用默认值
	cfg := types.DefaultConfig()
	if err := config.LoadIni(cfg, iniPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		os.Exit(1)
	}
	if *port >= 0 {
		cfg.Port = *port
	}

	// 2. 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// 3. 运行直到收到信号或任务自行终止
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg).Run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
