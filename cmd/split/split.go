// Package split provides the "sheetsplit split" command.
package split

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/config"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/progress"
	"github.com/klytics/sheetsplit/internal/split"
)

// Result is the JSON payload of the split command.
type Result struct {
	Output string `json:"output,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
	*split.Result
}

// NewCommand returns the split command.
func NewCommand() *cobra.Command {
	var (
		key        string
		columns    []string
		allColumns bool
		outPath    string
		jobFile    string
		saveJob    string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "split <file.xlsx>",
		Short: "Write one sheet per key value",
		Long: `Groups the rows of the first sheet by the key column and writes one
worksheet per distinct key value. Each sheet holds the chosen output columns
in the order given, followed by the key column. Rows without a key value land
in the "uncategorized" sheet.

Example:
  sheetsplit split sales.xlsx --by Region --columns Rep,Amount
  sheetsplit split sales.xlsx --by Region --all-columns -o by-region.xlsx
  sheetsplit split sales.xlsx --job region.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			file := args[0]

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			job := &split.Job{}
			if jobFile != "" {
				if job, err = split.LoadJob(jobFile); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("by") {
				job.Key = key
			}
			if cmd.Flags().Changed("columns") {
				job.Columns = columns
			}
			if allColumns {
				job.AllColumns = true
			}

			dest := cfg.Split.Output
			if job.Output != "" {
				dest = job.Output
			}
			if cmd.Flags().Changed("output") {
				dest = outPath
			}
			dest = ensureXLSX(dest)

			req := job.Request()
			if err := split.Validate(true, req); err != nil {
				return err
			}

			data, err := readInput(file)
			if err != nil {
				return err
			}

			if saveJob != "" {
				if err := writeJob(job, saveJob); err != nil {
					return err
				}
			}

			sp := split.New(xlsx.Codec{}, job.Options(cfg.SplitOptions()))

			if dryRun {
				res, err := plan(sp, data, req)
				if err != nil {
					return withSource(err, file)
				}
				if jsonFlag {
					return output.PrintJSON("split", Result{DryRun: true, Result: res})
				}
				printPlan(cmd.OutOrStdout(), res)
				return nil
			}

			var (
				res *split.Result
				out []byte
			)
			err = progress.Step("Splitting "+file, "Split "+file, func() error {
				var err error
				res, out, err = sp.Split(cmd.Context(), data, req)
				return err
			})
			if err != nil {
				return withSource(err, file)
			}

			if err := os.WriteFile(dest, out, 0644); err != nil {
				return fmt.Errorf("could not write %s: %w", dest, err)
			}

			if jsonFlag {
				return output.PrintJSON("split", Result{Output: dest, Result: res})
			}
			output.Success(cmd.OutOrStdout(), "done — wrote %d sheets to %s", len(res.Sheets), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "by", "k", "", "Key column to group rows by")
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Output columns, in order (repeat or comma-separate)")
	cmd.Flags().BoolVar(&allColumns, "all-columns", false, "Export every column")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default from split.output)")
	cmd.Flags().StringVar(&jobFile, "job", "", "Load key and columns from a job YAML file")
	cmd.Flags().StringVar(&saveJob, "save-job", "", "Save the effective key and columns as a job YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the sheets that would be written without writing")

	return cmd
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("could not read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s — check that the path is correct", file)
		}
		return nil, fmt.Errorf("could not read %s: %w", file, err)
	}
	return data, nil
}

func plan(sp *split.Splitter, data []byte, req split.Request) (*split.Result, error) {
	t, err := sp.Codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return split.Plan(t, req, sp.Options)
}

func printPlan(w io.Writer, res *split.Result) {
	headerStyle := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	headerStyle.Fprintf(w, "Columns: %s\n", strings.Join(res.Columns, ", "))
	for _, s := range res.Summary {
		fmt.Fprintf(w, "  %-31s %6d rows\n", s.Sheet, s.Rows)
	}
	dim.Fprintf(w, "%d sheets, %d rows (dry run, nothing written)\n", len(res.Summary), res.Rows)
}

func writeJob(job *split.Job, path string) error {
	data, err := job.Marshal()
	if err != nil {
		return fmt.Errorf("could not encode job: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write job %s: %w", path, err)
	}
	return nil
}

// withSource names the input file in decode errors.
func withSource(err error, file string) error {
	var de *xlsx.DecodeError
	if errors.As(err, &de) && file != "-" {
		de.Source = file
	}
	return err
}

func ensureXLSX(path string) string {
	if path == "" {
		path = "split-result.xlsx"
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		path += ".xlsx"
	}
	return path
}
