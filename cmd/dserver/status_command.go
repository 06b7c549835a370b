package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dserver/internal/config"
	"dserver/internal/daemonctl"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a daemon is serving the configured socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderStatus("dserver", collectStatus(cfg), colorize))
			return nil
		},
	}
}

func collectStatus(cfg *config.Config) []statusLine {
	socket := cfg.Server.SocketName
	lines := make([]statusLine, 0, 4)

	running, err := daemonctl.Probe(socket)
	switch {
	case err != nil:
		lines = append(lines, statusLine{"Socket", statusError, fmt.Sprintf("%s: %v", socket, err)})
	case running:
		lines = append(lines, statusLine{"Socket", statusOK, socket + " accepting connections"})
	default:
		lines = append(lines, statusLine{"Socket", statusWarn, socket + " not listening (start with `dserver -d`)"})
	}

	pid, pidErr := daemonctl.ReadPID(cfg.PIDPath())
	switch {
	case pidErr != nil:
		lines = append(lines, statusLine{"Process", statusError, pidErr.Error()})
	case pid == 0:
		lines = append(lines, statusLine{"Process", statusInfo, "no pid file"})
	case daemonctl.ProcessAlive(pid):
		lines = append(lines, statusLine{"Process", statusOK, fmt.Sprintf("pid %d", pid)})
	default:
		lines = append(lines, statusLine{"Process", statusWarn, fmt.Sprintf("stale pid file (pid %d not running)", pid)})
	}

	held, lockErr := daemonctl.LockHeld(cfg.LockPath())
	switch {
	case lockErr != nil:
		lines = append(lines, statusLine{"Lock", statusError, lockErr.Error()})
	case held:
		lines = append(lines, statusLine{"Lock", statusOK, "held: " + yesNo(held)})
	default:
		lines = append(lines, statusLine{"Lock", statusInfo, "held: " + yesNo(held)})
	}

	lines = append(lines, statusLine{"Logs", statusInfo, cfg.CurrentLogPath()})
	return lines
}
