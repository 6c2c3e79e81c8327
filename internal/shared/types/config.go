package types

// ServerConf 包含监听与接收相关的配置
type ServerConf struct {
	Port          int `ini:"port"`            // 监听端口, 0 表示动态分配
	BufferSize    int `ini:"buffer_size"`     // 每次 Recv 使用的缓冲区大小 (字节)
	RecvBuffer    int `ini:"recv_buffer"`     // SO_RCVBUF, 0 表示使用系统默认值
	RecvTimeoutMs int `ini:"recv_timeout_ms"` // 单次 Recv 超时, 0 表示无限等待
}

// DrainConf controls connection teardown.
type DrainConf struct {
	ReleaseDelayMs     int `ini:"release_delay_ms"`
	MaxReleaseAttempts int `ini:"max_release_attempts"` // 0 = retry forever
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config 是 drain 服务的统一配置结构体
type Config struct {
	ServerConf `ini:"server"`
	DrainConf  `ini:"drain"`
	LogConf    `ini:"log"`
}

const (
	DefaultPort           = 5001
	DefaultBufferSize     = 8 << 10
	DefaultReleaseDelayMs = 50
)

// DefaultConfig returns the configuration used when no ini file is present.
func DefaultConfig() *Config {
	return &Config{
		ServerConf: ServerConf{
			Port:       DefaultPort,
			BufferSize: DefaultBufferSize,
		},
		DrainConf: DrainConf{
			ReleaseDelayMs: DefaultReleaseDelayMs,
		},
		LogConf: LogConf{
			Level: "info",
		},
	}
}
