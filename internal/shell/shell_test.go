package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/split"
	"github.com/klytics/sheetsplit/internal/table"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	cols := []string{"Region", "Amt", "Unit Price"}
	rows := []table.Row{
		table.NewRow(cols, []table.Value{"East", 10.0, 1.5}),
		table.NewRow(cols, []table.Value{"West", 20.0, 2.5}),
		table.NewRow(cols, []table.Value{"East", 5.0, 3.0}),
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	if err := xlsx.WriteFile([]table.Sheet{{Name: "Data", Columns: cols, Rows: rows}}, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(split.New(xlsx.Codec{}, split.Options{}), filepath.Join(t.TempDir(), "split-result.xlsx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func eval(t *testing.T, s *Session, line string) string {
	t.Helper()
	out, err := s.Eval(context.Background(), line)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", line, err)
	}
	return out
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t)
	if len(s.CommandHistory) != 0 {
		t.Errorf("expected empty history, got %d entries", len(s.CommandHistory))
	}
	if s.HistoryFile == "" {
		t.Error("expected history file path to be set")
	}
	if len(s.KnownCommands) == 0 {
		t.Error("expected known commands to be populated")
	}
}

func TestNewSessionNeedsSplitter(t *testing.T) {
	if _, err := NewSession(nil, "out.xlsx"); err == nil {
		t.Error("expected error without a splitter")
	}
}

func TestEvalOpenAndColumns(t *testing.T) {
	s := newTestSession(t)
	out := eval(t, s, "open "+writeFixture(t))
	if !strings.Contains(out, "3 columns, 3 rows") {
		t.Errorf("unexpected open output: %q", out)
	}
	if diff := cmp.Diff([]string{"Region", "Amt", "Unit Price"}, s.Sel.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	eval(t, s, "key Region")
	eval(t, s, `select Amt "Unit Price"`)
	cols := eval(t, s, "columns")
	for _, want := range []string{"[key] Region", "[  1] Amt", "[  2] Unit Price"} {
		if !strings.Contains(cols, want) {
			t.Errorf("columns output missing %q:\n%s", want, cols)
		}
	}
}

func TestEvalOpenResetsSelection(t *testing.T) {
	s := newTestSession(t)
	path := writeFixture(t)
	eval(t, s, "open "+path)
	eval(t, s, "key Region")
	eval(t, s, "select Amt")

	if _, err := s.Eval(context.Background(), "open /nonexistent/other.xlsx"); err == nil {
		t.Fatal("expected error opening a missing file")
	}
	if s.Sel.Key != "" || len(s.Sel.Selected) != 0 || len(s.Sel.Columns) != 0 {
		t.Errorf("selection survived a new open: %+v", s.Sel)
	}
	if s.Sel.File != "/nonexistent/other.xlsx" {
		t.Errorf("File = %q", s.Sel.File)
	}
}

func TestEvalSelectNeedsKey(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "open "+writeFixture(t))
	if _, err := s.Eval(context.Background(), "select Amt"); err == nil {
		t.Error("expected error selecting before a key is chosen")
	}
}

func TestEvalAllAndClear(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "open "+writeFixture(t))
	eval(t, s, "key Amt")
	eval(t, s, "all")
	if diff := cmp.Diff([]string{"Amt", "Region", "Unit Price"}, s.Sel.Selected); diff != "" {
		t.Errorf("select all mismatch (-want +got):\n%s", diff)
	}
	eval(t, s, "clear")
	if diff := cmp.Diff([]string{"Amt"}, s.Sel.Selected); diff != "" {
		t.Errorf("clear mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalPlan(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "open "+writeFixture(t))
	eval(t, s, "key Region")
	eval(t, s, "select Amt")
	out := eval(t, s, "plan")
	if !strings.Contains(out, "columns: Amt, Region") {
		t.Errorf("plan should list the key column last: %q", out)
	}
	if !strings.Contains(out, "2 sheets, 3 rows") {
		t.Errorf("unexpected plan summary: %q", out)
	}
}

func TestEvalExport(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "open "+writeFixture(t))
	eval(t, s, "key Region")
	eval(t, s, "select Amt")

	out := eval(t, s, "export")
	if !strings.Contains(out, "wrote 2 sheets") {
		t.Errorf("unexpected export output: %q", out)
	}
	if _, err := os.Stat(s.Output); err != nil {
		t.Fatalf("export did not write %s: %v", s.Output, err)
	}

	tbl, err := xlsx.DecodeFile(s.Output)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Sheet != "East" || len(tbl.Rows) != 2 {
		t.Errorf("unexpected first sheet: %q with %d rows", tbl.Sheet, len(tbl.Rows))
	}
}

func TestEvalExportValidation(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Eval(context.Background(), "export")
	if !errors.Is(err, split.ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	if s.Sel.Status != split.ValidationMessage {
		t.Errorf("Status = %q, want validation message", s.Sel.Status)
	}
	if _, err := os.Stat(s.Output); !os.IsNotExist(err) {
		t.Error("no file should be written on validation failure")
	}

	eval(t, s, "open "+writeFixture(t))
	eval(t, s, "key Region")
	eval(t, s, "clear")
	s.Sel.Selected = nil
	if _, err := s.Eval(context.Background(), "export"); !errors.Is(err, split.ErrNoOutputColumns) {
		t.Errorf("expected ErrNoOutputColumns, got %v", err)
	}
}

func TestEvalUnknownCommand(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval(context.Background(), "frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestEvalEmpty(t *testing.T) {
	s := newTestSession(t)
	if out := eval(t, s, "   "); out != "" {
		t.Errorf("expected empty output, got: %q", out)
	}
}

func TestEvalStatus(t *testing.T) {
	s := newTestSession(t)
	out := eval(t, s, "status")
	if !strings.Contains(out, "file:     (none)") {
		t.Errorf("unexpected status: %q", out)
	}
}

func TestCompleteTopLevel(t *testing.T) {
	s := newTestSession(t)
	if diff := cmp.Diff([]string{"open"}, s.Complete("op")); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"select", "status"}, s.Complete("s")); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteColumns(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "open "+writeFixture(t))
	if diff := cmp.Diff([]string{"Region"}, s.Complete("key Re")); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}
	if got := s.Complete("select "); len(got) != 3 {
		t.Errorf("expected every column, got %v", got)
	}
	if got := s.Complete("plan "); got != nil {
		t.Errorf("plan takes no arguments, got %v", got)
	}
}

func TestCompleterSuffixes(t *testing.T) {
	s := newTestSession(t)
	line := []rune("exp")
	cands, n := completer{s}.Do(line, len(line))
	if n != 3 || len(cands) != 1 || string(cands[0]) != "ort " {
		t.Errorf("Do = %q, %d", cands, n)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"select a b", []string{"select", "a", "b"}},
		{`select "Unit Price" b`, []string{"select", "Unit Price", "b"}},
		{"key 'Sales Rep'", []string{"key", "Sales Rep"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.in)
		if err != nil {
			t.Fatalf("splitArgs(%q): %v", tt.in, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("splitArgs(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
	if _, err := splitArgs(`select "open`); err == nil {
		t.Error("expected error for unterminated quote")
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(30e9); got != "30s" {
		t.Errorf("got %q", got)
	}
	if got := formatDuration(90e9); got != "1m 30s" {
		t.Errorf("got %q", got)
	}
}
