// Package main is the entry point for the fancyjob CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flemzord/fancyjob/internal/config"
	"github.com/flemzord/fancyjob/internal/svc"
	"github.com/flemzord/fancyjob/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the CLI and reports failures on stderr exactly once
// (RunE errors are silenced inside cobra).
func run(args []string, stderr io.Writer) int {
	root := rootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fancyjob",
		Short:         "Increment a counter, push it to git, and self-schedule random daily runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduleOnly, _ := cmd.Flags().GetBool("schedule")
			if scheduleOnly {
				return a.Reschedule(cmd.Context())
			}
			return a.Update(cmd.Context())
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.Flags().Bool("schedule", false, "Only reschedule random runs; do not bump the counter or push")

	root.AddCommand(versionCmd(), configCmd(), initCmd(), daemonCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("fancyjob %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			fmt.Printf("Configuration OK\n")
			fmt.Printf("  counter: %s\n", cfg.Counter.Path)
			fmt.Printf("  weights: %v\n", cfg.Schedule.Weights)
			fmt.Printf("  hours:   %v\n", cfg.Schedule.CandidateHours())
			return nil
		},
	})
	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the in-process scheduler in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.Daemon(ctx)
		},
	}
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service <install|uninstall|start|stop|restart>",
		Short: "Manage the daemon as a system service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return svc.Control(args[0], cfgPath)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:    "run",
		Short:  "Entry point used by the service manager",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cfgPath, _ := cmd.Flags().GetString("config")
			return svc.Run(a.Daemon, cfgPath)
		},
	})
	return cmd
}

// buildApp wires an App from the root flags.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	levelName, _ := cmd.Flags().GetString("log-level")

	level, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}

	return app.New(app.RunParams{
		ConfigPath: cfgPath,
		Version:    version,
		LogLevel:   level,
	})
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
