package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvSocket   = "DSERVER_SOCKET"
	EnvLogLevel = "DSERVER_LOG_LEVEL"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv(EnvSocket); ok && strings.TrimSpace(value) != "" {
		c.Server.SocketName = value
	}
	c.Server.SocketName = strings.TrimSpace(c.Server.SocketName)
	if c.Server.SocketName == "" {
		c.Server.SocketName = defaultSocketName
	}
	if !strings.HasPrefix(c.Server.SocketName, "@") {
		c.Server.SocketName = "@" + c.Server.SocketName
	}
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.RunDir) == "" {
		c.Paths.RunDir = defaultRunDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.RunDir, err = expandPath(c.Paths.RunDir); err != nil {
		return fmt.Errorf("paths.run_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
