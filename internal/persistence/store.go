package persistence

import (
	"context"
	"maps"
)

// Record is a flat key/value object as stored in a collection.
type Record map[string]string

// Store loads and replaces whole ordered collections addressed by a logical name.
//
// A missing collection is not an error: Read returns an empty slice. Write
// replaces the entire collection atomically.
type Store interface {
	Read(ctx context.Context, name string) ([]Record, error)
	Write(ctx context.Context, name string, records []Record) error
}

// CloneRecords deep-copies a collection.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, record := range records {
		out[i] = maps.Clone(record)
		if out[i] == nil {
			out[i] = Record{}
		}
	}
	return out
}
