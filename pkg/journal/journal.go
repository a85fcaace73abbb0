// Package journal keeps an append-only record of triggered commands.
//
// Each time the dispatch loop fires the configured command, one entry is
// written: when, which path, which mutation, and the command that ran. The
// journal is an audit trail only; nothing in the watch machinery reads it
// back, and disabling it changes no behavior.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/autorun-labs/autorun/pkg/logger"
)

var bucketTriggers = []byte("triggers") // sequence -> Entry

// Entry is one recorded trigger.
type Entry struct {
	// Time the trigger fired.
	Time time.Time `json:"time"`

	// Path the event resolved to.
	Path string `json:"path"`

	// Op is the mutation-type name, e.g. "IN_MODIFY".
	Op string `json:"op"`

	// Command that was run.
	Command string `json:"command"`
}

// Journal records triggers and reads them back on demand.
type Journal interface {
	// Append records one trigger.
	Append(e Entry) error

	// Recent returns up to n entries, newest first.
	Recent(n int) ([]Entry, error)

	// Close releases the underlying storage.
	Close() error
}

// boltJournal implements Journal using BoltDB.
type boltJournal struct {
	db     *bolt.DB
	logger logger.Logger
}

// Open creates or opens a journal database at path, creating parent
// directories as needed.
func Open(path string, log logger.Logger) (Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketTriggers)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close journal after initialization error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to create triggers bucket: %w", err)
	}

	log.Debug("trigger journal opened", "path", path)

	return &boltJournal{
		db:     db,
		logger: log,
	}, nil
}

// Append implements Journal.Append.
func (j *boltJournal) Append(e Entry) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTriggers)

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		if putErr := b.Put(key, data); putErr != nil {
			return fmt.Errorf("failed to store entry: %w", putErr)
		}

		return nil
	})
}

// Recent implements Journal.Recent.
func (j *boltJournal) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	var entries []Entry

	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketTriggers).Cursor()

		for k, v := c.Last(); k != nil && len(entries) < n; k, v = c.Prev() {
			var e Entry
			if unmarshalErr := json.Unmarshal(v, &e); unmarshalErr != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", unmarshalErr)
			}
			entries = append(entries, e)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Close implements Journal.Close.
func (j *boltJournal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("failed to close journal database: %w", err)
	}
	return nil
}

// noopJournal implements Journal without storage. Used when the journal is
// disabled.
type noopJournal struct{}

// Noop returns a journal that records nothing.
func Noop() Journal {
	return noopJournal{}
}

// Append implements Journal.Append.
func (noopJournal) Append(Entry) error { return nil }

// Recent implements Journal.Recent.
func (noopJournal) Recent(int) ([]Entry, error) { return nil, nil }

// Close implements Journal.Close.
func (noopJournal) Close() error { return nil }
