package split

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseJob(t *testing.T) {
	data := []byte(`
key: Region
columns: [Amt, Owner]
output: by-region.xlsx
bucket: other
unnamed: blank
`)
	j, err := ParseJob(data)
	if err != nil {
		t.Fatal(err)
	}
	if j.Key != "Region" || len(j.Columns) != 2 || j.Output != "by-region.xlsx" {
		t.Errorf("unexpected job: %+v", j)
	}

	opts := j.Options(Options{Bucket: DefaultBucket, Placeholder: DefaultPlaceholder})
	if opts.Bucket != "other" || opts.Placeholder != "blank" {
		t.Errorf("options = %+v", opts)
	}

	req := j.Request()
	if req.Key != "Region" || req.Columns[1] != "Owner" {
		t.Errorf("request = %+v", req)
	}
}

func TestParseJobValidation(t *testing.T) {
	tests := map[string]string{
		"missing key":     "columns: [A]\n",
		"missing columns": "key: A\n",
		"bad yaml":        "key: [unterminated\n",
	}
	for name, data := range tests {
		if _, err := ParseJob([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseJobAllColumns(t *testing.T) {
	j, err := ParseJob([]byte("key: A\nall_columns: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !j.Request().AllColumns {
		t.Error("expected AllColumns")
	}
}

func TestLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	j := &Job{Key: "Region", Columns: []string{"Amt"}}
	data, err := j.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadJob(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Key != "Region" {
		t.Errorf("Key = %q", got.Key)
	}

	_, err = LoadJob(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}
