package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dserver/internal/channel"
	"dserver/internal/daemonctl"
	"dserver/internal/daemonrun"
	"dserver/internal/server"
)

// runConnect sends one message and prints the reply on its own line.
func runConnect(cmd *cobra.Command, ctx *commandContext, message string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	socket := cfg.Server.SocketName
	reply, err := daemonctl.Request(socket, message, cfg.Server.BufferSize)
	if err != nil {
		if errors.Is(err, daemonctl.ErrEmptyMessage) {
			return fmt.Errorf("--connect: %w", err)
		}
		return wrapDialError(err, socket)
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// runDemonize binds the listener before detaching so address conflicts are
// reported by the invoking process and clients can connect as soon as it
// returns.
func runDemonize(cmd *cobra.Command, ctx *commandContext, foreground bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	level, err := ctx.resolvedLogLevel(cfg)
	if err != nil {
		return err
	}

	socket := cfg.Server.SocketName
	ln, err := server.Bind(socket, cfg.Server.Backlog, channel.WithBufferSize(cfg.Server.BufferSize))
	if err != nil {
		return wrapBindError(err, socket)
	}

	if foreground {
		return daemonrun.Run(cmd.Context(), cfg, ln, daemonrun.Options{LogLevel: level})
	}

	defer ln.Close()
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	pid, err := daemonctl.Detach(executable, ln, daemonctl.LaunchOptions{
		ConfigPath: ctx.configFlagValue(),
		SocketName: socket,
		LogLevel:   level,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dserver started on %s (pid %d)\n", socket, pid)
	return nil
}
