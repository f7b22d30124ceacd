package split

import (
	"fmt"

	"github.com/klytics/sheetsplit/internal/table"
)

// Selection is the mutable state behind one interactive split: the loaded
// file, its columns, the chosen key column and the ordered output columns.
// It is owned by a single control flow and never shared.
type Selection struct {
	File     string
	Data     []byte
	Table    *table.Table
	Columns  []string
	Key      string
	Selected []string
	Status   string
}

// Reset clears every derived selection and records file as the current
// input. Call it before decoding a newly chosen file.
func (s *Selection) Reset(file string) {
	*s = Selection{File: file}
}

// Load resets the selection and installs a decoded file.
func (s *Selection) Load(file string, data []byte, t *table.Table) {
	s.Reset(file)
	s.Data = data
	s.Table = t
	s.Columns = Preview(t)
}

// HasFile reports whether a file is loaded.
func (s *Selection) HasFile() bool {
	return s.File != "" && len(s.Data) > 0
}

// SetKey chooses the key column and adds it to the selection.
func (s *Selection) SetKey(col string) error {
	if err := s.checkColumn(col); err != nil {
		return err
	}
	s.Key = col
	if !s.IsSelected(col) {
		s.Selected = append(s.Selected, col)
	}
	return nil
}

// Select appends columns to the output selection in the given order.
func (s *Selection) Select(cols ...string) error {
	for _, c := range cols {
		if err := s.Toggle(c, true); err != nil {
			return err
		}
	}
	return nil
}

// Unselect removes columns from the output selection.
func (s *Selection) Unselect(cols ...string) error {
	for _, c := range cols {
		if err := s.Toggle(c, false); err != nil {
			return err
		}
	}
	return nil
}

// Toggle checks or unchecks one output column. Output columns can only be
// edited once a key column is chosen, and the key itself is fixed.
func (s *Selection) Toggle(col string, on bool) error {
	if s.Key == "" {
		return fmt.Errorf("choose a key column first")
	}
	if err := s.checkColumn(col); err != nil {
		return err
	}
	if col == s.Key {
		return fmt.Errorf("%q is the key column and is always exported", col)
	}

	if on {
		if !s.IsSelected(col) {
			s.Selected = append(s.Selected, col)
		}
		return nil
	}
	kept := s.Selected[:0]
	for _, c := range s.Selected {
		if c != col {
			kept = append(kept, c)
		}
	}
	s.Selected = kept
	return nil
}

// SelectAll selects the key column followed by every other column.
func (s *Selection) SelectAll() error {
	if s.Key == "" {
		return fmt.Errorf("choose a key column first")
	}
	s.Selected = allColumns(s.Columns, s.Key)
	return nil
}

// ClearAll drops every output column except the key.
func (s *Selection) ClearAll() error {
	if s.Key == "" {
		return fmt.Errorf("choose a key column first")
	}
	s.Selected = []string{s.Key}
	return nil
}

// IsSelected reports whether col is in the output selection.
func (s *Selection) IsSelected(col string) bool {
	for _, c := range s.Selected {
		if c == col {
			return true
		}
	}
	return false
}

// OrderOf returns the 1-based output position of col among the non-key
// selections, or 0 when col is the key or not selected.
func (s *Selection) OrderOf(col string) int {
	if col == s.Key {
		return 0
	}
	n := 0
	for _, c := range s.Selected {
		if c == s.Key {
			continue
		}
		n++
		if c == col {
			return n
		}
	}
	return 0
}

// Request returns the export request for the current selection.
func (s *Selection) Request() Request {
	cols := make([]string, len(s.Selected))
	copy(cols, s.Selected)
	return Request{Key: s.Key, Columns: cols}
}

func (s *Selection) checkColumn(col string) error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("no columns loaded — open a file first")
	}
	for _, c := range s.Columns {
		if c == col {
			return nil
		}
	}
	return fmt.Errorf("column %q not found — available columns: %v", col, s.Columns)
}
