package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/output"
	"github.com/klytics/sheetsplit/internal/table"
)

// run executes the root command in-process and returns stdout and the error.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHEETSPLIT_NO_PROGRESS", "1")

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return stdout.String(), err
}

func fixture(t *testing.T) string {
	t.Helper()
	cols := []string{"Region", "Rep", "Amt"}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	err := xlsx.WriteFile([]table.Sheet{{Name: "Data", Columns: cols, Rows: []table.Row{
		table.NewRow(cols, []table.Value{"East", "ann", 10.0}),
		table.NewRow(cols, []table.Value{"West", "bob", 20.0}),
		table.NewRow(cols, []table.Value{nil, "cy", 5.0}),
		table.NewRow(cols, []table.Value{"East", "dee", 7.0}),
	}}}, path)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllCommandsExist(t *testing.T) {
	stdout, err := run(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, cmd := range []string{"columns", "split", "shell", "serve", "watch", "config", "completion", "version"} {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("command %q not found in --help output", cmd)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	stdout, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "sheetsplit ") {
		t.Errorf("unexpected version output: %q", stdout)
	}
}

func TestColumns(t *testing.T) {
	stdout, err := run(t, "columns", fixture(t), "--sample", "2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Sheet: Data", "1  Region", "3  Amt", "3 columns, 4 rows", "ann"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("columns output missing %q:\n%s", want, stdout)
		}
	}
}

func TestSplitWritesWorkbook(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.xlsx")
	stdout, err := run(t, "split", fixture(t), "--by", "Region", "--columns", "Amt,Rep", "-o", out)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if !strings.Contains(stdout, "wrote 3 sheets") {
		t.Errorf("unexpected output: %q", stdout)
	}

	tbl, err := xlsx.DecodeFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Sheet != "East" {
		t.Errorf("first sheet = %q, want East", tbl.Sheet)
	}
	if diff := cmp.Diff([]string{"Amt", "Rep", "Region"}, tbl.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if len(tbl.Rows) != 2 {
		t.Errorf("East should hold 2 rows, got %d", len(tbl.Rows))
	}
}

func TestSplitDryRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.xlsx")
	stdout, err := run(t, "split", fixture(t), "--by", "Region", "--all-columns", "-o", out, "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Columns: Rep, Amt, Region", "East", "uncategorized", "3 sheets, 4 rows"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("dry run output missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("dry run must not write the output file")
	}
}

func TestSplitJobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.yaml")
	input := fixture(t)

	if _, err := run(t, "split", input, "--by", "Rep", "--columns", "Amt", "--save-job", job, "--dry-run"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(job); err != nil {
		t.Fatalf("job file not written: %v", err)
	}

	out := filepath.Join(dir, "by-rep.xlsx")
	if _, err := run(t, "split", input, "--job", job, "-o", out); err != nil {
		t.Fatalf("split with job failed: %v", err)
	}
	tbl, err := xlsx.DecodeFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Sheet != "ann" {
		t.Errorf("first sheet = %q, want ann", tbl.Sheet)
	}
}

func TestSplitValidationExitCode(t *testing.T) {
	_, err := run(t, "split", fixture(t), "--columns", "Amt")
	if err == nil {
		t.Fatal("expected validation error without --by")
	}
	if code := output.ExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}
}

func TestSplitDecodeExitCode(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.xlsx")
	os.WriteFile(bad, []byte("not a workbook"), 0644)

	_, err := run(t, "split", bad, "--by", "Region", "--columns", "Amt")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if code := output.ExitCode(err); code != output.ExitSystemError {
		t.Errorf("exit code = %d, want %d", code, output.ExitSystemError)
	}
	if !strings.Contains(err.Error(), bad) {
		t.Errorf("error should name the input file: %v", err)
	}
}

func TestSplitWriteFailureExitCode(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "out.xlsx")

	_, err := run(t, "split", fixture(t), "--by", "Region", "--columns", "Amt", "-o", out)
	if err == nil {
		t.Fatal("expected write error for a missing output directory")
	}
	if code := output.ExitCode(err); code != output.ExitSystemError {
		t.Errorf("exit code = %d, want %d", code, output.ExitSystemError)
	}
}

func TestSplitMissingInputExitCode(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.xlsx")

	_, err := run(t, "split", missing, "--by", "Region", "--columns", "Amt")
	if err == nil {
		t.Fatal("expected error for a missing input file")
	}
	if code := output.ExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}
}

func TestShellEval(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shell.xlsx")
	stdout, err := run(t, "shell", fixture(t), "-o", out, "--eval", "key Region; select Rep; plan; export")
	if err != nil {
		t.Fatalf("shell --eval failed: %v", err)
	}
	if !strings.Contains(stdout, "wrote 3 sheets to "+out) {
		t.Errorf("unexpected shell output:\n%s", stdout)
	}
}

func TestConfigPath(t *testing.T) {
	stdout, err := run(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(stdout), filepath.Join(".sheetsplit", "config.yaml")) {
		t.Errorf("unexpected config path: %q", stdout)
	}
}

func TestConfigEnv(t *testing.T) {
	stdout, err := run(t, "config", "env")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `export SHEETSPLIT_SPLIT_OUTPUT="split-result.xlsx"`) {
		t.Errorf("unexpected env output:\n%s", stdout)
	}
}

func TestWatchStatusNotRunning(t *testing.T) {
	stdout, err := run(t, "watch", "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "not running") {
		t.Errorf("unexpected status: %q", stdout)
	}
}

func TestWatchStartNeedsJob(t *testing.T) {
	if _, err := run(t, "watch", "start", t.TempDir()); err == nil {
		t.Error("expected error without --job")
	}
}

func TestAllCommandsHaveHelp(t *testing.T) {
	for _, args := range [][]string{
		{"columns", "--help"},
		{"split", "--help"},
		{"shell", "--help"},
		{"serve", "--help"},
		{"watch", "start", "--help"},
		{"config", "show", "--help"},
	} {
		if _, err := run(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}
