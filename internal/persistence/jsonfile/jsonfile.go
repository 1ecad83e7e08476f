package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/example/room-calendar/internal/persistence"
)

// Store keeps each collection as a JSON array file under a data directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file backing the named collection.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Read loads the named collection. A missing file yields an empty collection.
func (s *Store) Read(ctx context.Context, name string) ([]persistence.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistence.ReadError(name, err)
	}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return []persistence.Record{}, nil
	}
	if err != nil {
		return nil, persistence.ReadError(name, err)
	}

	records, err := decode(data)
	if err != nil {
		return nil, persistence.ReadError(name, err)
	}
	return records, nil
}

// Write replaces the named collection by writing a temporary file and renaming it.
func (s *Store) Write(ctx context.Context, name string, records []persistence.Record) error {
	if err := ctx.Err(); err != nil {
		return persistence.WriteError(name, err)
	}

	if records == nil {
		records = []persistence.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return persistence.WriteError(name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return persistence.WriteError(name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return persistence.WriteError(name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return persistence.WriteError(name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return persistence.WriteError(name, err)
	}
	if err := tmp.Close(); err != nil {
		return persistence.WriteError(name, err)
	}

	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		return persistence.WriteError(name, err)
	}
	return nil
}

// decode accepts an array of flat objects. Numbers and booleans are kept in
// their textual form; nulls are dropped.
func decode(data []byte) ([]persistence.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []persistence.Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	records := make([]persistence.Record, 0, len(raw))
	for i, object := range raw {
		record := make(persistence.Record, len(object))
		for key, value := range object {
			switch v := value.(type) {
			case nil:
				continue
			case string:
				record[key] = v
			case json.Number:
				record[key] = v.String()
			case bool:
				record[key] = strconv.FormatBool(v)
			default:
				return nil, fmt.Errorf("record %d: field %q is not a flat value", i, key)
			}
		}
		records = append(records, record)
	}
	return records, nil
}
