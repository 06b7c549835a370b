package config

import "dserver/internal/channel"

const (
	defaultConfigPath     = "~/.config/dserver/config.toml"
	defaultSocketName     = "@daemon-test.sock"
	defaultBacklog        = 10
	defaultPollIntervalMS = 1
	defaultRunDir         = "~/.local/state/dserver"
	defaultLogDir         = "~/.local/share/dserver/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRetentionDays  = 30

	minBufferSize     = 16
	maxBufferSize     = 64 * 1024
	maxPollIntervalMS = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			SocketName:     defaultSocketName,
			Backlog:        defaultBacklog,
			PollIntervalMS: defaultPollIntervalMS,
			BufferSize:     channel.DefaultBufferSize,
		},
		Paths: Paths{
			RunDir: defaultRunDir,
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
