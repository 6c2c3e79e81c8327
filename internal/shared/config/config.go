package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
	"iperf_drain/internal/shared/types"
)

// LoadIni 加载 iperf.ini 配置文件。文件不存在时保留默认值。
// cfg 应该已经由 types.DefaultConfig 填充好默认值。
func LoadIni(cfg *types.Config, fileName string) error {
	if fileName != "" {
		if _, err := os.Stat(fileName); err == nil {
			iniFile, err := ini.Load(fileName)
			if err != nil {
				return err
			}
			if err := iniFile.MapTo(cfg); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config file: %w", err)
		}
	}
	applyEnv(cfg)
	return Validate(cfg)
}

// LoadIniBytes maps in-memory ini content onto cfg. Used by the embedded entry point.
func LoadIniBytes(cfg *types.Config, content []byte) error {
	iniFile, err := ini.Load(content)
	if err != nil {
		return fmt.Errorf("failed to parse ini content: %w", err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map ini content to config struct: %w", err)
	}
	return Validate(cfg)
}

// Validate rejects values the server cannot run with.
func Validate(cfg *types.Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.BufferSize <= 0 {
		return errors.New("buffer_size must be positive")
	}
	if cfg.RecvBuffer < 0 {
		return errors.New("recv_buffer must not be negative")
	}
	if cfg.RecvTimeoutMs < 0 {
		return errors.New("recv_timeout_ms must not be negative")
	}
	if cfg.ReleaseDelayMs <= 0 {
		return errors.New("release_delay_ms must be positive")
	}
	if cfg.MaxReleaseAttempts < 0 {
		return errors.New("max_release_attempts must not be negative")
	}
	return nil
}

// ReleaseDelay returns the sleep between two release attempts.
func ReleaseDelay(cfg *types.Config) time.Duration {
	return time.Duration(cfg.ReleaseDelayMs) * time.Millisecond
}

// RecvTimeout returns the per-receive timeout, zero meaning none.
func RecvTimeout(conf types.ServerConf) time.Duration {
	return time.Duration(conf.RecvTimeoutMs) * time.Millisecond
}

func applyEnv(cfg *types.Config) {
	overrideFromEnvInt(&cfg.Port, "IPERF_PORT")
	if level := os.Getenv("IPERF_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
