package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/room-calendar/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	store_name   TEXT PRIMARY KEY,
	record_count INTEGER NOT NULL,
	checksum     TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	store_name TEXT NOT NULL,
	position   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (store_name, position),
	FOREIGN KEY (store_name) REFERENCES collections(store_name) ON DELETE CASCADE
);
`

// ErrChecksumMismatch reports a collection whose rows no longer match the
// checksum recorded at write time.
var ErrChecksumMismatch = errors.New("sqlite: collection checksum mismatch")

// Store persists record collections in a SQLite database.
type Store struct {
	pool *ConnectionPool
	now  func() time.Time
}

// Open connects to the database at dsn using DefaultConfig.
func Open(dsn string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(dsn))
}

// OpenWithConfig connects using explicit connection settings.
func OpenWithConfig(config Config) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Store{pool: pool, now: now}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Migrate creates the collection tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.DB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", MapError(err))
	}
	return nil
}

// Read loads the named collection in stored order.
func (s *Store) Read(ctx context.Context, name string) ([]persistence.Record, error) {
	var records []persistence.Record
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var count int
		var checksum string
		err := tx.QueryRowContext(ctx,
			`SELECT record_count, checksum FROM collections WHERE store_name = ?`, name,
		).Scan(&count, &checksum)
		if errors.Is(err, sql.ErrNoRows) {
			records = []persistence.Record{}
			return nil
		}
		if err != nil {
			return MapError(err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT payload FROM records WHERE store_name = ? ORDER BY position ASC`, name)
		if err != nil {
			return MapError(err)
		}
		defer rows.Close()

		payloads := make([]string, 0, count)
		for rows.Next() {
			var payload string
			if err := rows.Scan(&payload); err != nil {
				return MapError(err)
			}
			payloads = append(payloads, payload)
		}
		if err := rows.Err(); err != nil {
			return MapError(err)
		}

		if len(payloads) != count || digest(payloads) != checksum {
			return ErrChecksumMismatch
		}

		records = make([]persistence.Record, 0, len(payloads))
		for i, payload := range payloads {
			var record persistence.Record
			if err := json.Unmarshal([]byte(payload), &record); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			if record == nil {
				record = persistence.Record{}
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, persistence.ReadError(name, err)
	}
	return records, nil
}

// Write replaces the named collection in a single transaction.
func (s *Store) Write(ctx context.Context, name string, records []persistence.Record) error {
	payloads := make([]string, len(records))
	for i, record := range records {
		if record == nil {
			record = persistence.Record{}
		}
		encoded, err := json.Marshal(record)
		if err != nil {
			return persistence.WriteError(name, fmt.Errorf("record %d: %w", i, err))
		}
		payloads[i] = string(encoded)
	}

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE store_name = ?`, name); err != nil {
			return MapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections (store_name, record_count, checksum, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(store_name) DO UPDATE SET
			   record_count = excluded.record_count,
			   checksum = excluded.checksum,
			   updated_at = excluded.updated_at`,
			name, len(payloads), digest(payloads), s.now().UTC().Format(time.RFC3339),
		); err != nil {
			return MapError(err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (store_name, position, payload) VALUES (?, ?, ?)`)
		if err != nil {
			return MapError(err)
		}
		defer stmt.Close()

		for i, payload := range payloads {
			if _, err := stmt.ExecContext(ctx, name, i, payload); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return persistence.WriteError(name, err)
	}
	return nil
}

// UpdatedAt returns when the named collection was last written.
func (s *Store) UpdatedAt(ctx context.Context, name string) (time.Time, bool, error) {
	var stamp string
	err := s.pool.DB().QueryRowContext(ctx,
		`SELECT updated_at FROM collections WHERE store_name = ?`, name).Scan(&stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, MapError(err)
	}
	updated, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse updated_at: %w", err)
	}
	return updated, true, nil
}

func digest(payloads []string) string {
	h, _ := blake2b.New256(nil)
	for _, payload := range payloads {
		h.Write([]byte(payload))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
