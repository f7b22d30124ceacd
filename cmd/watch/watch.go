// Package watch provides the "sheetsplit watch" CLI commands for drop-folder splitting.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/split"
	w "github.com/klytics/sheetsplit/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Split every workbook dropped into a folder",
		Long: `Watch directories for new or modified .xlsx files and run a saved split
job on each. Results are written next to the input as <name>.split.xlsx.

Example:
  sheetsplit watch start ./inbox --job region.yaml
  sheetsplit watch status
  sheetsplit watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		jobFile   string
		pattern   string
		recursive bool
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "start <directory> [directory...]",
		Short: "Start watching directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			job, err := split.LoadJob(jobFile)
			if err != nil {
				return err
			}
			if pattern != "" {
				if _, err := filepath.Match(pattern, ""); err != nil {
					return fmt.Errorf("invalid --pattern %q: %w", pattern, err)
				}
			}

			absJob, _ := filepath.Abs(jobFile)
			wc := w.Config{
				Directories: args,
				Pattern:     pattern,
				JobFile:     absJob,
				Recursive:   recursive,
				Debounce:    debounce,
			}

			watcher, err := w.New(wc)
			if err != nil {
				return err
			}

			sp := split.New(xlsx.Codec{}, job.Options(cfg.SplitOptions()))
			handler := w.SplitHandler(sp, job)
			stdout := cmd.OutOrStdout()
			watcher.Handler = func(ctx context.Context, path string) (string, error) {
				out, err := handler(ctx, path)
				if err != nil {
					output.Failure(stdout, "%s: %s", filepath.Base(path), err)
					return "", err
				}
				output.Success(stdout, "%s → %s", filepath.Base(path), filepath.Base(out))
				return out, nil
			}

			// Write PID
			stateDir := w.DefaultStateDir()
			if err := w.WritePIDFile(stateDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
			}
			defer w.RemovePIDFile(stateDir)

			// Save config for status command
			w.SaveConfig(stateDir, wc)

			fmt.Fprintf(stdout, "Watching %s for .xlsx files (key: %s)\n", strings.Join(args, ", "), job.Key)
			fmt.Fprintln(stdout, "Press Ctrl+C to stop")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Handle signals
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(stdout, "\nStopping watcher...")
				cancel()
			}()

			return watcher.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&jobFile, "job", "", "Job YAML file with key and columns (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only process files whose name matches this glob")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Debounce interval in milliseconds")
	cmd.MarkFlagRequired("job")

	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := w.DefaultStateDir()
			pid, err := w.ReadPIDFile(stateDir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(stateDir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}

			w.RemovePIDFile(stateDir)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("watch stop", map[string]any{
					"stopped": true,
					"pid":     pid,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := w.DefaultStateDir()
			out := cmd.OutOrStdout()

			pid, err := w.ReadPIDFile(stateDir)
			running := err == nil

			// Check if process is actually running
			if running {
				process, err := os.FindProcess(pid)
				if err != nil {
					running = false
				} else {
					// Signal 0 checks for existence
					err = process.Signal(syscall.Signal(0))
					if err != nil {
						running = false
						w.RemovePIDFile(stateDir)
					}
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")

			if !running {
				if jsonOut {
					return output.PrintJSON("watch status", map[string]any{"running": false})
				}
				fmt.Fprintln(out, "Watcher is not running")
				return nil
			}

			wc, _ := w.LoadConfig(stateDir)

			status := map[string]any{
				"running": true,
				"pid":     pid,
			}
			if wc != nil {
				status["directories"] = wc.Directories
				status["job"] = wc.JobFile
				status["pattern"] = wc.Pattern
				status["recursive"] = wc.Recursive
			}

			if jsonOut {
				return output.PrintJSON("watch status", status)
			}

			fmt.Fprintf(out, "Watcher is running (PID %d)\n", pid)
			if wc != nil {
				fmt.Fprintf(out, "  Directories: %s\n", strings.Join(wc.Directories, ", "))
				fmt.Fprintf(out, "  Job:         %s\n", wc.JobFile)
				if wc.Pattern != "" {
					fmt.Fprintf(out, "  Pattern:     %s\n", wc.Pattern)
				}
				fmt.Fprintf(out, "  Recursive:   %v\n", wc.Recursive)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the last watcher configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			wc, err := w.LoadConfig(w.DefaultStateDir())
			if err != nil {
				return fmt.Errorf("no watcher configuration found (run 'sheetsplit watch start' first)")
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(wc)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directories: %s\n", strings.Join(wc.Directories, ", "))
			fmt.Fprintf(out, "Job:         %s\n", wc.JobFile)
			fmt.Fprintf(out, "Pattern:     %s\n", wc.Pattern)
			fmt.Fprintf(out, "Recursive:   %v\n", wc.Recursive)
			fmt.Fprintf(out, "Debounce:    %dms\n", wc.Debounce)

			if job, err := split.LoadJob(wc.JobFile); err == nil {
				data, _ := job.Marshal()
				fmt.Fprintf(out, "\n%s", data)
			}
			return nil
		},
	}
}
