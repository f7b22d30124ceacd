// Package xlsx decodes and encodes .xlsx workbooks for the split engine.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsplit/internal/table"
)

// DecodeError reports input that could not be read as a workbook.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	hint := "is this a valid .xlsx file?"
	if strings.EqualFold(filepath.Ext(e.Source), ".xls") {
		hint = "legacy .xls files are not supported, re-save it as .xlsx"
	}
	return fmt.Sprintf("could not read %s (%s): %v", e.Source, hint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Codec adapts this package to the split engine's decoder/encoder contract.
type Codec struct{}

// Decode implements the decoder half of Codec.
func (Codec) Decode(data []byte) (*table.Table, error) { return Decode(data) }

// Encode implements the encoder half of Codec.
func (Codec) Encode(sheets []table.Sheet) ([]byte, error) { return Encode(sheets) }

// DecodeFile reads the first sheet of an .xlsx file.
func DecodeFile(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	t, err := Decode(data)
	var de *DecodeError
	if errors.As(err, &de) {
		de.Source = path
	}
	return t, err
}

// DecodeReader reads all of r and decodes it.
func DecodeReader(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read input: %w", err)
	}
	return Decode(data)
}

// Decode reads the first sheet of an in-memory workbook. Row 1 is the header;
// every following non-blank row becomes a table.Row carrying every header
// column, with blank cells as nil.
func Decode(data []byte) (*table.Table, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Source: "input", Err: fmt.Errorf("empty file")}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Source: "input", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Source: "input", Err: fmt.Errorf("workbook has no sheets")}
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Source: "input", Err: fmt.Errorf("sheet %q: %w", name, err)}
	}

	t := &table.Table{Sheet: name}
	if len(raw) == 0 {
		return t, nil
	}

	width := 0
	for _, r := range raw {
		if len(r) > width {
			width = len(r)
		}
	}
	t.Columns = headerNames(raw[0], width)

	for i := 1; i < len(raw); i++ {
		cells := raw[i]
		if isBlank(cells) {
			continue
		}
		vals := make([]table.Value, width)
		for c, s := range cells {
			if s == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, i+1)
			if err != nil {
				return nil, &DecodeError{Source: "input", Err: err}
			}
			ct, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, &DecodeError{Source: "input", Err: fmt.Errorf("cell %s: %w", ref, err)}
			}
			vals[c] = cellValue(s, ct)
		}
		t.Rows = append(t.Rows, table.NewRow(t.Columns, vals))
	}

	return t, nil
}

// headerNames turns the header row into unique column names. Blank headers
// become __EMPTY, __EMPTY_1, ...; repeats get a _1, _2 suffix.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	next := make(map[string]int)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(header) {
			base = header[i]
		}
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		for used[name] {
			next[base]++
			name = fmt.Sprintf("%s_%d", base, next[base])
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func cellValue(raw string, ct excelize.CellType) table.Value {
	switch ct {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
