package split

import "github.com/klytics/sheetsplit/internal/table"

// EffectiveColumns returns the output columns for a key: the selection with
// the key removed, then the key appended last.
func EffectiveColumns(selected []string, key string) []string {
	cols := make([]string, 0, len(selected)+1)
	for _, c := range selected {
		if c != key {
			cols = append(cols, c)
		}
	}
	return append(cols, key)
}

// Project copies rows keeping only cols, in that order. A column a source row
// does not carry becomes an explicit nil.
func Project(rows []table.Row, cols []string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Project(cols)
	}
	return out
}
