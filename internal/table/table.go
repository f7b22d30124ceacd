// Package table holds the in-memory row model shared by the spreadsheet codec
// and the split engine.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a scalar cell value: nil (absent), string, float64, int or bool.
type Value = any

// Row is an ordered mapping from column name to cell value.
// Rows are treated as immutable once built.
type Row struct {
	cols []string
	vals map[string]Value
}

// NewRow builds a row from parallel column and value slices. A repeated
// column keeps its first position and its last value. Values beyond the
// column list are ignored; missing values are absent.
func NewRow(cols []string, vals []Value) Row {
	r := Row{
		cols: make([]string, 0, len(cols)),
		vals: make(map[string]Value, len(cols)),
	}
	for i, c := range cols {
		var v Value
		if i < len(vals) {
			v = vals[i]
		}
		if _, dup := r.vals[c]; !dup {
			r.cols = append(r.cols, c)
		}
		r.vals[c] = v
	}
	return r
}

// Columns returns the row's column names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Get returns the value for col, or nil when the column is missing.
func (r Row) Get(col string) Value {
	return r.vals[col]
}

// Has reports whether the row carries col at all.
func (r Row) Has(col string) bool {
	_, ok := r.vals[col]
	return ok
}

// Len returns the number of columns in the row.
func (r Row) Len() int { return len(r.cols) }

// Values returns the row's values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.cols))
	for i, c := range r.cols {
		out[i] = r.vals[c]
	}
	return out
}

// Project returns a new row restricted to cols, in that order. Columns the
// row does not carry map to nil.
func (r Row) Project(cols []string) Row {
	vals := make([]Value, len(cols))
	for i, c := range cols {
		vals[i] = r.vals[c]
	}
	return NewRow(cols, vals)
}

// Map returns the row as a plain map, mostly for JSON output.
func (r Row) Map() map[string]Value {
	out := make(map[string]Value, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

// Table is a decoded worksheet: the header and the data rows below it.
type Table struct {
	Sheet   string
	Columns []string
	Rows    []Row
}

// Sheet is one named output worksheet.
type Sheet struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"-"`
}

// Stringify converts a cell value to its group-key form. The boolean result is
// false for missing, nil and empty-string values.
func Stringify(v Value) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return formatNumber(x), true
	case float32:
		return formatNumber(float64(x)), true
	default:
		return fmt.Sprint(x), true
	}
}

// formatNumber renders whole numbers without a fraction (42, not 42.0) and
// falls back to exponent form for very large or very small magnitudes. The
// exponent carries no leading zeros: 1e-7, 1e+21.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		i := strings.IndexByte(s, 'e')
		mant, sign, exp := s[:i], s[i+1], strings.TrimLeft(s[i+2:], "0")
		return mant + "e" + string(sign) + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
