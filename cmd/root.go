// Package cmd contains all CLI commands for the sheetsplit binary.
package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/cmd/columns"
	"github.com/klytics/sheetsplit/cmd/completion"
	cmdconfig "github.com/klytics/sheetsplit/cmd/config"
	"github.com/klytics/sheetsplit/cmd/serve"
	cmdshell "github.com/klytics/sheetsplit/cmd/shell"
	cmdsplit "github.com/klytics/sheetsplit/cmd/split"
	"github.com/klytics/sheetsplit/cmd/version"
	cmdwatch "github.com/klytics/sheetsplit/cmd/watch"
	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/logging"
	"github.com/klytics/sheetsplit/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	configFile string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetsplit",
		Short: "Split a spreadsheet into one sheet per key value",
		Long: `sheetsplit partitions the rows of a workbook by the values of a key column
and writes one worksheet per distinct value, keeping only the columns you pick.

  sheetsplit columns sales.xlsx
  sheetsplit split sales.xlsx --by Region --columns Rep,Amount
  sheetsplit shell sales.xlsx`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				config.SetFile(configFile)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			level := cfg.Log.Level
			if verbose {
				level = "debug"
			}
			logging.Setup(level, cfg.Log.Format)

			if noColor || !cfg.Output.Color {
				color.NoColor = true
			}
			if jsonOutput {
				// Spinners and colored status lines stay off the JSON stream.
				os.Setenv("SHEETSPLIT_JSON", "true")
			}
			return nil
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.sheetsplit/config.yaml)")

	// Register subcommands
	rootCmd.AddCommand(columns.NewCommand())
	rootCmd.AddCommand(cmdsplit.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand())
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	code := output.ExitCode(err)
	if jsonOutput {
		output.PrintJSONError(cmd.CommandPath(), err, code)
	} else {
		output.Failure(os.Stderr, "%s", err)
	}
	os.Exit(code)
}
