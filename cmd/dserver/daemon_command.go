package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dserver/internal/channel"
	"dserver/internal/daemonctl"
	"dserver/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var listenFD int
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the dserver daemon on an inherited listener (internal)",
		Hidden:       true,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			level, err := ctx.resolvedLogLevel(cfg)
			if err != nil {
				return err
			}
			ln, err := channel.FromFD(listenFD, channel.WithBufferSize(cfg.Server.BufferSize))
			if err != nil {
				return fmt.Errorf("adopt listener on fd %d: %w", listenFD, err)
			}
			return daemonrun.Run(cmd.Context(), cfg, ln, daemonrun.Options{
				LogLevel: level,
				Detached: true,
			})
		},
	}
	cmd.Flags().IntVar(&listenFD, "listen-fd", daemonctl.ListenFD, "Inherited listening socket descriptor")
	return cmd
}
