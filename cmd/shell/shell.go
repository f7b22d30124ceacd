// Package shell provides the "sheetsplit shell" interactive REPL command.
package shell

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	shellpkg "github.com/klytics/sheetsplit/internal/shell"
	"github.com/klytics/sheetsplit/internal/split"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var (
		evalCmd string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "shell [file.xlsx]",
		Short: "Start an interactive split session",
		Long: `Start an interactive REPL that holds one workbook and a column selection.

Open a file, choose the key column, pick output columns in order, preview the
plan and export. Tab completion works for commands and column names.

Example:
  sheetsplit shell sales.xlsx
  sheetsplit shell sales.xlsx --eval "key Region; select Rep Amount; export"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = cfg.Split.Output
			}

			session, err := shellpkg.NewSession(split.New(xlsx.Codec{}, cfg.SplitOptions()), outPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if len(args) == 1 {
				msg, err := session.Open(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}

			if evalCmd != "" {
				for _, line := range strings.Split(evalCmd, ";") {
					if strings.TrimSpace(line) == "" {
						continue
					}
					output, err := session.Eval(ctx, line)
					if err != nil {
						return err
					}
					if output != "" {
						fmt.Fprint(cmd.OutOrStdout(), output)
						if !strings.HasSuffix(output, "\n") {
							fmt.Fprintln(cmd.OutOrStdout())
						}
					}
				}
				return nil
			}
			return session.Run(ctx, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run ';'-separated session commands and exit")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Default export path (default from split.output)")
	return cmd
}
