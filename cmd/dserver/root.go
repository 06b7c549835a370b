package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var socketFlag string
	var configFlag string
	var logLevelFlag string
	var demonize bool
	var foreground bool
	var message string

	ctx := newCommandContext(&socketFlag, &configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "dserver",
		Short:         "Local control daemon on an abstract unix socket",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() || shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case cmd.Flags().Changed("connect"):
				return runConnect(cmd, ctx, message)
			case demonize:
				return runDemonize(cmd, ctx, foreground)
			case foreground:
				return fmt.Errorf("--foreground requires --demonize")
			default:
				return cmd.Help()
			}
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&demonize, "demonize", "d", false, "demonize application")
	flags.StringVarP(&message, "connect", "c", "", "connect to daemon and send `MSG`")
	flags.BoolVar(&foreground, "foreground", false, "with --demonize, serve in the current process")
	rootCmd.MarkFlagsMutuallyExclusive("demonize", "connect")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&socketFlag, "socket", "", "Abstract socket name (default from config)")
	persistent.StringVar(&configFlag, "config", "", "Configuration file path")
	persistent.StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%s: %w\nTry '%s --help' for more information", cmd.Root().Name(), err, cmd.CommandPath())
	})

	rootCmd.AddCommand(newDaemonRunCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
