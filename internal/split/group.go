// Package split partitions decoded rows by a key column and turns each
// partition into a named, column-projected output sheet.
package split

import "github.com/klytics/sheetsplit/internal/table"

// DefaultBucket is the group that collects rows whose key value is missing,
// nil or the empty string.
const DefaultBucket = "uncategorized"

// Group is the set of rows sharing one stringified key value.
type Group struct {
	Key  string
	Rows []table.Row
}

// GroupBy partitions rows by the stringified value of the key column.
// Groups appear in the order their key is first seen and keep the relative
// input order of their rows. Rows without a key value go to bucket
// (DefaultBucket when bucket is empty).
func GroupBy(rows []table.Row, key, bucket string) []Group {
	if bucket == "" {
		bucket = DefaultBucket
	}

	index := make(map[string]int)
	var groups []Group
	for _, row := range rows {
		k, ok := table.Stringify(row.Get(key))
		if !ok {
			k = bucket
		}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}
