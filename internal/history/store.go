package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"birdnest/internal/config"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	bucketHistory = "history"
	bucketMeta    = "meta"
	keyLastOp     = "last_operation"

	// keyLayout is fixed width so byte order matches time order.
	keyLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store manages operation history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// OpenDefault opens the history database in the data directory.
func OpenDefault() (*Store, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return Open(config.HistoryPath())
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketHistory)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketMeta)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record saves a new history entry.
func (s *Store) Record(entry *Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return fmt.Errorf("history bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		key := []byte(entry.Timestamp.UTC().Format(keyLayout))
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}

		if metaBucket := tx.Bucket([]byte(bucketMeta)); metaBucket != nil {
			_ = metaBucket.Put([]byte(keyLastOp), key) //nolint:errcheck
		}

		return nil
	})
}

// view runs fn against the history bucket in a read transaction.
func (s *Store) view(fn func(b *bbolt.Bucket) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

// List returns the most recent history entries, newest first. Entries that
// fail to decode are skipped.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.view(func(b *bbolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(entries) < limit); k, v = c.Prev() {
			var e Entry
			if json.Unmarshal(v, &e) == nil {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}

// Get retrieves a specific entry by ID.
func (s *Store) Get(id string) (*Entry, error) {
	var found *Entry
	err := s.view(func(b *bbolt.Bucket) error {
		return b.ForEach(func(_, v []byte) error {
			var e Entry
			if found == nil && json.Unmarshal(v, &e) == nil && e.ID == id {
				found = &e
			}
			return nil
		})
	})
	if err == nil && found == nil {
		err = fmt.Errorf("entry not found: %s", id)
	}
	return found, err
}

// Last returns the most recent entry, or nil when the history is empty.
func (s *Store) Last() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// LastReversible returns the most recent successful install, remove or purge.
func (s *Store) LastReversible() (*Entry, error) {
	entries, err := s.List(50)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].CanRollback() {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no reversible operations found")
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	var count int
	err := s.view(func(b *bbolt.Bucket) error {
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Clear removes all history entries.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketHistory)); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketHistory))
		return err
	})
}

// Prune removes entries older than maxAge and returns how many were deleted.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := []byte(time.Now().Add(-maxAge).UTC().Format(keyLayout))
	var deleted int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		if b == nil {
			return nil
		}

		// keys are UTC timestamps, so everything before the cutoff key is older
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && string(k) < string(cutoff); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})

	return deleted, err
}
