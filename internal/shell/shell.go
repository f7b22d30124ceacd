// Package shell provides the interactive sheetsplit REPL.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetsplit/internal/split"
)

// Session manages one interactive split: a loaded file and the column
// selection built against it.
type Session struct {
	Splitter       *split.Splitter
	Sel            split.Selection
	Output         string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of session commands for completion.
	KnownCommands []string
}

// NewSession creates a new interactive session that exports to output.
func NewSession(sp *split.Splitter, output string) (*Session, error) {
	if sp == nil {
		return nil, fmt.Errorf("shell needs a splitter")
	}
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".sheetsplit", "shell_history")

	// Ensure parent dir exists
	os.MkdirAll(filepath.Dir(histFile), 0755)

	return &Session{
		Splitter:    sp,
		Output:      output,
		HistoryFile: histFile,
		StartTime:   time.Now(),
		KnownCommands: []string{
			"open", "columns", "key", "select", "unselect",
			"all", "clear", "status", "plan", "export",
			"help", "history", "exit", "quit",
		},
	}, nil
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context, stdout, stderr io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetsplit> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    completer{s},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(stdout, "sheetsplit interactive shell")
	fmt.Fprintln(stdout, "Type 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(stdout)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.CommandHistory = append(s.CommandHistory, line)

		switch line {
		case "exit", "quit":
			elapsed := time.Since(s.StartTime)
			fmt.Fprintf(stdout, "\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(elapsed))
			return nil
		case "history":
			for i, cmd := range s.CommandHistory {
				fmt.Fprintf(stdout, "  %d  %s\n", i+1, cmd)
			}
		default:
			output, err := s.Eval(ctx, line)
			if output != "" {
				fmt.Fprint(stdout, output)
				if !strings.HasSuffix(output, "\n") {
					fmt.Fprintln(stdout)
				}
			}
			if err != nil {
				fmt.Fprintf(stderr, "Error: %s\n", err)
			}
		}
	}

	return nil
}

// Eval runs a single session command and returns its output. The session
// status is updated with the outcome of every command that changes state.
func (s *Session) Eval(ctx context.Context, command string) (string, error) {
	args, err := splitArgs(command)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}

	name, rest := args[0], args[1:]
	switch name {
	case "open":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: open <file.xlsx>")
		}
		return s.Open(ctx, rest[0])
	case "columns":
		return s.columns(), nil
	case "key":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: key <column>")
		}
		return s.update(s.Sel.SetKey(rest[0]), fmt.Sprintf("key column: %s", rest[0]))
	case "select":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: select <column>...")
		}
		return s.update(s.Sel.Select(rest...), s.selectedLine())
	case "unselect":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: unselect <column>...")
		}
		return s.update(s.Sel.Unselect(rest...), s.selectedLine())
	case "all":
		return s.update(s.Sel.SelectAll(), s.selectedLine())
	case "clear":
		return s.update(s.Sel.ClearAll(), s.selectedLine())
	case "status":
		return s.status(), nil
	case "plan":
		return s.plan()
	case "export":
		out := s.Output
		if len(rest) > 0 {
			out = rest[0]
		}
		return s.export(ctx, out)
	case "help":
		return helpText, nil
	}
	return "", fmt.Errorf("unknown command %q (type 'help')", name)
}

// Open resets the selection and loads path.
func (s *Session) Open(ctx context.Context, path string) (string, error) {
	// Derived selections never outlive the file they were made against.
	s.Sel.Reset(path)

	data, err := os.ReadFile(path)
	if err != nil {
		s.Sel.Status = err.Error()
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	t, cols, err := s.Splitter.Load(ctx, data)
	if err != nil {
		s.Sel.Status = err.Error()
		return "", err
	}
	s.Sel.Load(path, data, t)
	s.Sel.Status = fmt.Sprintf("loaded %s: %d columns, %d rows", filepath.Base(path), len(cols), len(t.Rows))
	return s.Sel.Status, nil
}

func (s *Session) update(err error, ok string) (string, error) {
	if err != nil {
		s.Sel.Status = err.Error()
		return "", err
	}
	s.Sel.Status = ok
	return ok, nil
}

func (s *Session) columns() string {
	if len(s.Sel.Columns) == 0 {
		return "no columns loaded, open a file first"
	}
	var b strings.Builder
	for _, c := range s.Sel.Columns {
		mark := "   "
		switch {
		case c == s.Sel.Key:
			mark = "key"
		case s.Sel.OrderOf(c) > 0:
			mark = fmt.Sprintf("%3d", s.Sel.OrderOf(c))
		}
		fmt.Fprintf(&b, "  [%s] %s\n", mark, c)
	}
	return b.String()
}

func (s *Session) selectedLine() string {
	if len(s.Sel.Selected) == 0 {
		return "selected: (none)"
	}
	return "selected: " + strings.Join(s.Sel.Selected, ", ")
}

func (s *Session) status() string {
	var b strings.Builder
	file := s.Sel.File
	if file == "" {
		file = "(none)"
	}
	key := s.Sel.Key
	if key == "" {
		key = "(none)"
	}
	fmt.Fprintf(&b, "file:     %s\n", file)
	fmt.Fprintf(&b, "key:      %s\n", key)
	fmt.Fprintf(&b, "%s\n", s.selectedLine())
	fmt.Fprintf(&b, "output:   %s\n", s.Output)
	if s.Sel.Status != "" {
		fmt.Fprintf(&b, "status:   %s\n", s.Sel.Status)
	}
	return b.String()
}

func (s *Session) plan() (string, error) {
	res, err := split.Plan(s.Sel.Table, s.Sel.Request(), s.Splitter.Options)
	if err != nil {
		return "", s.fail(err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "columns: %s\n", strings.Join(res.Columns, ", "))
	for _, sum := range res.Summary {
		fmt.Fprintf(&b, "  %-31s %6d rows  (key %q)\n", sum.Sheet, sum.Rows, sum.Key)
	}
	fmt.Fprintf(&b, "%d sheets, %d rows\n", len(res.Summary), res.Rows)
	return b.String(), nil
}

func (s *Session) export(ctx context.Context, out string) (string, error) {
	if err := split.Validate(s.Sel.HasFile(), s.Sel.Request()); err != nil {
		return "", s.fail(err)
	}
	res, data, err := s.Splitter.Split(ctx, s.Sel.Data, s.Sel.Request())
	if err != nil {
		return "", s.fail(err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", s.fail(fmt.Errorf("could not write %s: %w", out, err))
	}
	s.Sel.Status = fmt.Sprintf("done — wrote %d sheets to %s", len(res.Sheets), out)
	return s.Sel.Status, nil
}

func (s *Session) fail(err error) error {
	switch {
	case errors.Is(err, split.ErrNoFile), errors.Is(err, split.ErrNoKeyColumn), errors.Is(err, split.ErrNoOutputColumns):
		s.Sel.Status = split.ValidationMessage
	default:
		s.Sel.Status = err.Error()
	}
	return err
}

// Complete returns tab-completion candidates for the given input. Column
// arguments complete against the loaded file's columns.
func (s *Session) Complete(input string) []string {
	trimmed := strings.TrimLeft(input, " ")
	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	// Complete top-level command
	if len(parts) == 1 && !strings.HasSuffix(trimmed, " ") {
		return matchPrefix(s.KnownCommands, parts[0])
	}

	switch parts[0] {
	case "key", "select", "unselect":
	default:
		return nil
	}
	prefix := ""
	if !strings.HasSuffix(trimmed, " ") {
		prefix = parts[len(parts)-1]
	}
	return matchPrefix(s.Sel.Columns, prefix)
}

// completer adapts Complete to readline's suffix-based contract.
type completer struct{ s *Session }

func (c completer) Do(line []rune, pos int) ([][]rune, int) {
	input := string(line[:pos])
	prefix := ""
	if !strings.HasSuffix(input, " ") {
		if f := strings.Fields(input); len(f) > 0 {
			prefix = f[len(f)-1]
		}
	}
	var out [][]rune
	for _, m := range c.s.Complete(input) {
		out = append(out, []rune(m[len(prefix):]+" "))
	}
	return out, len([]rune(prefix))
}

func matchPrefix(items []string, prefix string) []string {
	var matches []string
	for _, it := range items {
		if strings.HasPrefix(it, prefix) {
			matches = append(matches, it)
		}
	}
	sort.Strings(matches)
	return matches
}

// splitArgs splits a command line on spaces, keeping double- or
// single-quoted runs together so column names may contain spaces.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

const helpText = `Session commands:

  open <file.xlsx>        load a workbook (resets the selection)
  columns                 list columns with key and order badges
  key <column>            choose the key column
  select <column>...      add output columns in order
  unselect <column>...    remove output columns
  all                     select every column, key first
  clear                   keep only the key column
  status                  show file, key, selection and last status
  plan                    preview the sheets an export would write
  export [path]           write the split workbook
  history                 show command history
  exit                    leave the shell

Quote column names that contain spaces: select "Unit Price"
`

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
