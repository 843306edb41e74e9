package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/flemzord/fancyjob/internal/config"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create a fancyjob.yaml in the current directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			const path = "fancyjob.yaml"
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists; remove it first", path)
			}

			var (
				counterPath = "number.txt"
				gitDir      = "."
				quietHours  = true
				afterUpdate = false
				listen      string
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Counter file").
						Description("Plain-text file holding the number to increment").
						Value(&counterPath),
					huh.NewInput().
						Title("Git repository directory").
						Value(&gitDir),
					huh.NewConfirm().
						Title("Keep a quiet window (no runs 02:00–05:59)?").
						Value(&quietHours),
					huh.NewConfirm().
						Title("Reschedule after every update run?").
						Description("Off relies on fixed anchor crontab entries instead").
						Value(&afterUpdate),
					huh.NewInput().
						Title("Daemon status address (empty to disable)").
						Placeholder("127.0.0.1:8978").
						Value(&listen),
				),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("init aborted: %w", err)
			}

			content := renderConfig(counterPath, gitDir, quietHours, afterUpdate, listen)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func renderConfig(counterPath, gitDir string, quietHours, afterUpdate bool, listen string) string {
	var b strings.Builder

	b.WriteString("version: \"1\"\n\n")
	fmt.Fprintf(&b, "counter:\n  path: %s\n\n", counterPath)
	fmt.Fprintf(&b, "git:\n  dir: %s\n\n", gitDir)

	b.WriteString("schedule:\n")
	fmt.Fprintf(&b, "  weights: %s\n", intList(config.DefaultWeights))
	if !quietHours {
		b.WriteString("  quiet_hours:\n    disabled: true\n")
	}
	if afterUpdate {
		b.WriteString("  after_update: true\n")
	}

	if listen != "" {
		fmt.Fprintf(&b, "\ndaemon:\n  listen: %s\n", listen)
	}

	return b.String()
}

func intList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
