package split

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/klytics/sheetsplit/internal/logging"
	"github.com/klytics/sheetsplit/internal/table"
)

// Request describes one export: the key column and the output columns.
type Request struct {
	Key        string   `json:"key"`
	Columns    []string `json:"columns,omitempty"`
	AllColumns bool     `json:"all_columns,omitempty"`
}

// Normalize trims names and drops repeated selections, keeping first order.
func (r Request) Normalize() Request {
	out := Request{Key: strings.TrimSpace(r.Key), AllColumns: r.AllColumns}
	seen := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out.Columns = append(out.Columns, c)
	}
	return out
}

// Validate checks the preconditions of an export before any decoding.
func Validate(hasFile bool, r Request) error {
	r = r.Normalize()
	switch {
	case !hasFile:
		return &ValidationError{Err: ErrNoFile, Message: ValidationMessage}
	case r.Key == "":
		return &ValidationError{Err: ErrNoKeyColumn, Message: ValidationMessage}
	case len(r.Columns) == 0 && !r.AllColumns:
		return &ValidationError{Err: ErrNoOutputColumns, Message: ValidationMessage}
	}
	return nil
}

// SheetSummary reports how one group became a sheet.
type SheetSummary struct {
	Key   string `json:"key"`
	Sheet string `json:"sheet"`
	Rows  int    `json:"rows"`
}

// Result is an assembled output workbook, ready for the encoder.
type Result struct {
	Columns []string       `json:"columns"`
	Sheets  []table.Sheet  `json:"-"`
	Summary []SheetSummary `json:"sheets"`
	Rows    int            `json:"rows"`
}

// Options tune names the engine generates.
type Options struct {
	Bucket      string
	Placeholder string
}

// Plan groups, projects and names the rows of t. It does no I/O.
func Plan(t *table.Table, r Request, opts Options) (*Result, error) {
	if err := Validate(t != nil, r); err != nil {
		return nil, err
	}
	r = r.Normalize()

	selected := r.Columns
	if r.AllColumns {
		selected = allColumns(t.Columns, r.Key)
	}

	if len(t.Columns) > 0 {
		known := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			known[c] = true
		}
		if !known[r.Key] {
			return nil, invalid(ErrUnknownColumn, "key column %q not found — available columns: %v", r.Key, t.Columns)
		}
		for _, c := range selected {
			if !known[c] {
				return nil, invalid(ErrUnknownColumn, "output column %q not found — available columns: %v", c, t.Columns)
			}
		}
	}

	if len(t.Rows) == 0 {
		return nil, invalid(ErrNoRows, "the first sheet has no data rows")
	}

	cols := EffectiveColumns(selected, r.Key)
	namer := NewNamer()
	res := &Result{Columns: cols}

	for _, g := range GroupBy(t.Rows, r.Key, opts.Bucket) {
		if len(g.Rows) == 0 {
			continue
		}
		name := namer.Unique(SanitizeSheetName(g.Key, opts.Placeholder))
		res.Sheets = append(res.Sheets, table.Sheet{
			Name:    name,
			Columns: cols,
			Rows:    Project(g.Rows, cols),
		})
		res.Summary = append(res.Summary, SheetSummary{Key: g.Key, Sheet: name, Rows: len(g.Rows)})
		res.Rows += len(g.Rows)
	}
	return res, nil
}

// allColumns mirrors "select all": the key first, then every other column.
func allColumns(columns []string, key string) []string {
	out := []string{key}
	for _, c := range columns {
		if c != key {
			out = append(out, c)
		}
	}
	return out
}

// Preview returns the column list offered for selection: the keys of the
// first row, or nothing for a table without rows.
func Preview(t *table.Table) []string {
	if t == nil || len(t.Rows) == 0 {
		return []string{}
	}
	return t.Rows[0].Columns()
}

// Codec is the external spreadsheet decoder/encoder.
type Codec interface {
	Decode(data []byte) (*table.Table, error)
	Encode(sheets []table.Sheet) ([]byte, error)
}

// Splitter runs the load and export actions against a Codec.
type Splitter struct {
	Codec   Codec
	Options Options
}

// New returns a Splitter using codec.
func New(codec Codec, opts Options) *Splitter {
	return &Splitter{Codec: codec, Options: opts}
}

// Load decodes data and returns the table and its selectable columns.
func (s *Splitter) Load(ctx context.Context, data []byte) (*table.Table, []string, error) {
	t, err := s.Codec.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	logging.FromContext(ctx).Debug("workbook loaded",
		slog.String("sheet", t.Sheet),
		slog.Int("columns", len(t.Columns)),
		slog.Int("rows", len(t.Rows)))
	return t, Preview(t), nil
}

// Split validates r, decodes data, plans the output and encodes it. On any
// error no bytes are returned.
func (s *Splitter) Split(ctx context.Context, data []byte, r Request) (*Result, []byte, error) {
	if err := Validate(len(data) > 0, r); err != nil {
		return nil, nil, err
	}

	t, err := s.Codec.Decode(data)
	if err != nil {
		return nil, nil, err
	}

	res, err := Plan(t, r, s.Options)
	if err != nil {
		return nil, nil, err
	}

	out, err := s.Codec.Encode(res.Sheets)
	if err != nil {
		return nil, nil, &EncodeError{Err: err}
	}

	logging.FromContext(ctx).Info("split complete",
		slog.String("key", r.Key),
		slog.Int("sheets", len(res.Sheets)),
		slog.Int("rows", res.Rows),
		slog.Int("bytes", len(out)))
	return res, out, nil
}

// IsValidation reports whether err is a user-correctable ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
