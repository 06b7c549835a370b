package config

import (
	"errors"
	"fmt"

	"dserver/internal/channel"
	"dserver/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, err := channel.NormalizeName(c.Server.SocketName); err != nil {
		return fmt.Errorf("server.socket_name %q must be 1-%d bytes after the optional @", c.Server.SocketName, channel.MaxNameLen)
	}
	if c.Server.Backlog <= 0 {
		return errors.New("server.backlog must be positive")
	}
	if c.Server.PollIntervalMS < 1 || c.Server.PollIntervalMS > maxPollIntervalMS {
		return fmt.Errorf("server.poll_interval_ms must be between 1 and %d", maxPollIntervalMS)
	}
	if c.Server.BufferSize < minBufferSize || c.Server.BufferSize > maxBufferSize {
		return fmt.Errorf("server.buffer_size must be between %d and %d", minBufferSize, maxBufferSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
