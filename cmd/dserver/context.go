package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"dserver/internal/channel"
	"dserver/internal/config"
	"dserver/internal/daemonctl"
	"dserver/internal/logging"
)

type commandContext struct {
	socketFlag   *string
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(socketFlag, configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		socketFlag:   socketFlag,
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the configuration once and applies the --socket override.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if c.socketFlag != nil {
			if socket := strings.TrimSpace(*c.socketFlag); socket != "" {
				name, err := channel.NormalizeName(socket)
				if err != nil {
					c.configErr = fmt.Errorf("--socket: %w", err)
					return
				}
				cfg.Server.SocketName = name
			}
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) resolvedLogLevel(cfg *config.Config) (string, error) {
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			if !logging.ValidLevel(level) {
				return "", fmt.Errorf("--log-level %q must be debug, info, warn, or error", level)
			}
			return strings.ToLower(level), nil
		}
	}
	if cfg != nil {
		return cfg.Logging.Level, nil
	}
	return "info", nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, daemonctl.ErrDaemonNotRunning), errors.Is(err, channel.ErrConnectionRefused):
		return fmt.Errorf("connect to daemon: nothing is listening on %s; start it with `dserver -d`", socket)
	case errors.Is(err, channel.ErrInvalidAddress):
		return fmt.Errorf("connect to daemon: %s is not a valid socket name", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func wrapBindError(err error, socket string) error {
	switch {
	case errors.Is(err, channel.ErrAddressInUse):
		return fmt.Errorf("start daemon: %s is already in use; stop the running daemon with `dserver -c STOP`", socket)
	case errors.Is(err, channel.ErrInvalidAddress):
		return fmt.Errorf("start daemon: %s is not a valid socket name", socket)
	default:
		return fmt.Errorf("start daemon: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
