package cmd

import (
	"io"
	"log/slog"
	"os"
	"time"

	"nathanbeddoewebdev/tsm/cmd/commands/audit"
	"nathanbeddoewebdev/tsm/cmd/commands/auth"
	"nathanbeddoewebdev/tsm/cmd/commands/cache"
	cfgcmd "nathanbeddoewebdev/tsm/cmd/commands/config"
	"nathanbeddoewebdev/tsm/cmd/commands/dashboard"
	"nathanbeddoewebdev/tsm/cmd/commands/server"
	"nathanbeddoewebdev/tsm/cmd/commands/status"
	"nathanbeddoewebdev/tsm/cmd/commands/website"
	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/config"
	"nathanbeddoewebdev/tsm/internal/logger"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd(logCloser *io.Closer) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "tsm",
		Short: "A terminal client for The Server Monitor",
		Long: `tsm is a terminal client for The Server Monitor. It lists and inspects
monitored servers and websites, adds and removes them, and runs a live
dashboard that keeps everything refreshed.

Quick start:
  tsm auth login                   # Sign in with your account
  tsm server list                  # List monitored servers
  tsm website list                 # List monitored websites
  tsm dashboard                    # Open the live dashboard`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			*logCloser = initLogging(cmd, debug)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "Log at debug level and mirror log output to stderr")

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(server.NewCommand())
	cmd.AddCommand(website.NewCommand())
	cmd.AddCommand(status.NewCommand())
	cmd.AddCommand(dashboard.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(audit.NewCommand())
	cmd.AddCommand(cache.NewCommand())

	wrapAudited(cmd)

	return cmd
}

func initLogging(cmd *cobra.Command, debug bool) io.Closer {
	level := slog.LevelInfo
	if cfg, err := config.Load(); err == nil {
		level = cfg.Level()
	}

	opts := logger.Options{Level: level}
	if debug {
		opts.Level = slog.LevelDebug
		// The dashboard owns the terminal; its records stay in the file.
		if cmd.Name() != "dashboard" {
			opts.Stderr = cmd.ErrOrStderr()
		}
	}
	return logger.Init(opts)
}

// wrapAudited replaces the RunE of every annotated command with one that
// records the outcome once the command returns.
func wrapAudited(cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		wrapAudited(child)
	}
	if cmd.Annotations[auditlog.Annotation] == "" || cmd.RunE == nil {
		return
	}

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		err := run(cmd, args)
		recorder := auditlog.DefaultRecorder(slog.Default())
		recorder.Record(cmd.Context(), auditlog.Event{
			Command: cmd.CommandPath(),
			Args:    os.Args[1:],
			Meta:    auditlog.MetadataFromContext(cmd.Context()),
			Start:   start,
			Err:     err,
		})
		return err
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var logCloser io.Closer
	var root = rootCmd(&logCloser)
	err := root.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
