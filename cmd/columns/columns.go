// Package columns provides the "sheetsplit columns" command.
package columns

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/progress"
	"github.com/klytics/sheetsplit/internal/split"
	"github.com/klytics/sheetsplit/internal/table"
)

// Result is the JSON payload of the columns command.
type Result struct {
	File    string   `json:"file"`
	Sheet   string   `json:"sheet"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`

	Sample []map[string]table.Value `json:"sample,omitempty"`
}

// NewCommand returns the columns command.
func NewCommand() *cobra.Command {
	var sample int

	cmd := &cobra.Command{
		Use:   "columns <file.xlsx>",
		Short: "List the columns a workbook can be split by",
		Long:  "Decodes the first sheet of an .xlsx file and lists its columns in header order. Pass '-' to read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			file := "-"
			if len(args) == 1 {
				file = args[0]
			}

			t, err := Decode(file)
			if err != nil {
				return err
			}
			cols := split.Preview(t)

			if jsonFlag {
				res := Result{File: file, Sheet: t.Sheet, Columns: cols, Rows: len(t.Rows)}
				for i := 0; i < sample && i < len(t.Rows); i++ {
					res.Sample = append(res.Sample, t.Rows[i].Map())
				}
				return output.PrintJSON("columns", res)
			}

			w := cmd.OutOrStdout()
			printColumns(w, t, cols)
			if sample > 0 {
				printSample(w, t, cols, sample)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&sample, "sample", "n", 0, "Also print the first N data rows")

	return cmd
}

// Decode reads file (or stdin for "-") under a spinner.
func Decode(file string) (*table.Table, error) {
	var t *table.Table
	err := progress.Step("Reading "+file, "Read "+file, func() error {
		var err error
		if file == "-" {
			t, err = xlsx.DecodeReader(os.Stdin)
			return err
		}
		t, err = xlsx.DecodeFile(file)
		return err
	})
	return t, err
}

func printColumns(w io.Writer, t *table.Table, cols []string) {
	headerStyle := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	headerStyle.Fprintf(w, "Sheet: %s\n", t.Sheet)
	if len(cols) == 0 {
		dim.Fprintln(w, "  (no data rows)")
		return
	}
	for i, c := range cols {
		fmt.Fprintf(w, "  %3d  %s\n", i+1, c)
	}
	dim.Fprintf(w, "%d columns, %d rows\n", len(cols), len(t.Rows))
}

func printSample(w io.Writer, t *table.Table, cols []string, n int) {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}

	widths := make([]int, len(cols))
	cells := make([][]string, n)
	for i, c := range cols {
		widths[i] = utf8.RuneCountInString(c)
	}
	for r := 0; r < n; r++ {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			s, _ := table.Stringify(t.Rows[r].Get(c))
			s = clip(s, 40)
			cells[r][i] = s
			if n := utf8.RuneCountInString(s); n > widths[i] {
				widths[i] = n
			}
		}
	}

	fmt.Fprintln(w)
	bold := color.New(color.Bold)
	for i, c := range cols {
		bold.Fprintf(w, "%-*s  ", widths[i], c)
	}
	fmt.Fprintln(w)
	for _, row := range cells {
		for i, s := range row {
			fmt.Fprintf(w, "%-*s  ", widths[i], s)
		}
		fmt.Fprintln(w)
	}
}

// clip shortens s to at most max runes, marking the cut with "...".
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
