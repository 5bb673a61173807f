// Package restore keeps an append-only log of rename batches and reverts
// them. Records are written before any file moves and are never deleted.
package restore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFileMode = 0600
	dbDirMode  = 0755

	defaultDBFile = "restore.db"
	lockTimeout   = 2 * time.Second
)

var (
	batchesBucket = []byte("batches")
	recordsBucket = []byte("records")
	// latest holds the newest record per entry, keyed batchID/entryID
	latestBucket = []byte("latest")
)

var (
	ErrBatchNotFound     = errors.New("batch not found")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrEmptyBatch        = errors.New("batch has no mappings")
	ErrRestoreInProgress = errors.New("restore already in progress")
	ErrCorruptLog        = errors.New("restore log is corrupt")
)

// Kind of file a record moved
type Kind string

const (
	KindVideo    Kind = "video"
	KindSubtitle Kind = "subtitle"
)

// Status of a log entry. The latest record for an entry decides its status.
type Status string

const (
	StatusRecorded      Status = "recorded"
	StatusApplied       Status = "applied"
	StatusFailed        Status = "failed"
	StatusRestored      Status = "restored"
	StatusUnrestorable  Status = "unrestorable"
	StatusRestoreFailed Status = "restore_failed"
)

// restorable statuses may still have a file sitting at NewPath
func (s Status) restorable() bool {
	return s == StatusRecorded || s == StatusApplied || s == StatusRestoreFailed
}

// Mapping is one planned move
type Mapping struct {
	Kind         Kind
	OriginalPath string
	NewPath      string
}

// Record is one append-only log line
type Record struct {
	Seq          uint64    `json:"seq"`
	BatchID      string    `json:"batch_id"`
	EntryID      int       `json:"entry_id"`
	Timestamp    time.Time `json:"timestamp"`
	Kind         Kind      `json:"kind"`
	OriginalPath string    `json:"original_path"`
	NewPath      string    `json:"new_path"`
	Status       Status    `json:"status"`
	Fingerprint  uint64    `json:"fingerprint"`
	Reason       string    `json:"reason,omitempty"`
}

// Batch is the header of one recorded rename run
type Batch struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   int       `json:"entries"`
}

// Store is the bbolt-backed restore log
type Store struct {
	db   *bolt.DB
	path string

	mu     sync.Mutex
	active map[string]bool

	now func() time.Time
}

// DefaultPath returns ~/.local/share/ezrename/restore.db, honoring
// XDG_DATA_HOME when set.
func DefaultPath() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "ezrename", defaultDBFile), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "ezrename", defaultDBFile), nil
}

// Open opens (or creates) the log at path. Another process holding the
// file lock makes Open fail after a short timeout.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create restore log directory: %w", err)
	}

	db, err := bolt.Open(path, dbFileMode, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open restore log: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{batchesBucket, recordsBucket, latestBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize restore log: %w", err)
	}

	return &Store{
		db:     db,
		path:   path,
		active: make(map[string]bool),
		now:    time.Now,
	}, nil
}

// Close releases the database file
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

func newBatchID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// recordKey is batchID, a separator, then the big-endian sequence number,
// so a prefix seek walks one batch in append order.
func recordKey(batchID string, seq uint64) []byte {
	key := make([]byte, 0, len(batchID)+9)
	key = append(key, batchID...)
	key = append(key, '/')
	return binary.BigEndian.AppendUint64(key, seq)
}

func recordPrefix(batchID string) []byte {
	return append([]byte(batchID), '/')
}

// RecordBatch persists every mapping as a recorded entry under a fresh
// batch id. Nothing is written if any original cannot be fingerprinted.
func (s *Store) RecordBatch(mappings []Mapping) (Batch, error) {
	if len(mappings) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	fingerprints := make([]uint64, len(mappings))
	for i, m := range mappings {
		fp, err := Fingerprint(m.OriginalPath)
		if err != nil {
			return Batch{}, err
		}
		fingerprints[i] = fp
	}

	batch, err := s.writeBatch(mappings, fingerprints, StatusRecorded)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to record batch: %w", err)
	}
	return batch, nil
}

// ImportBatch records moves that already happened outside the log, such as
// rows read back from an exported TSV. Entries are stored as applied and
// fingerprinted at their new path; a file missing there gets no
// fingerprint and is reported unrestorable on restore.
func (s *Store) ImportBatch(mappings []Mapping) (Batch, error) {
	if len(mappings) == 0 {
		return Batch{}, ErrEmptyBatch
	}

	fingerprints := make([]uint64, len(mappings))
	for i, m := range mappings {
		if fp, err := Fingerprint(m.NewPath); err == nil {
			fingerprints[i] = fp
		}
	}

	batch, err := s.writeBatch(mappings, fingerprints, StatusApplied)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to import batch: %w", err)
	}
	return batch, nil
}

func (s *Store) writeBatch(mappings []Mapping, fingerprints []uint64, status Status) (Batch, error) {
	now := s.now()
	batch := Batch{ID: newBatchID(now), CreatedAt: now, Entries: len(mappings)}

	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(batch)
		if err != nil {
			return err
		}
		if err := tx.Bucket(batchesBucket).Put([]byte(batch.ID), data); err != nil {
			return err
		}

		for i, m := range mappings {
			rec := Record{
				BatchID:      batch.ID,
				EntryID:      i + 1,
				Timestamp:    now,
				Kind:         m.Kind,
				OriginalPath: m.OriginalPath,
				NewPath:      m.NewPath,
				Status:       status,
				Fingerprint:  fingerprints[i],
			}
			if err := putRecord(tx, &rec); err != nil {
				return err
			}
		}
		return nil
	})
	return batch, err
}

func putRecord(tx *bolt.Tx, rec *Record) error {
	b := tx.Bucket(recordsBucket)
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	rec.Seq = seq

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := b.Put(recordKey(rec.BatchID, seq), data); err != nil {
		return err
	}
	return tx.Bucket(latestBucket).Put(recordKey(rec.BatchID, uint64(rec.EntryID)), data)
}

// appendStatus writes a new record for an entry, copying its paths
func (s *Store) appendStatus(prev Record, status Status, reason string) (Record, error) {
	rec := prev
	rec.Timestamp = s.now()
	rec.Status = status
	rec.Reason = reason

	err := s.db.Update(func(tx *bolt.Tx) error {
		return putRecord(tx, &rec)
	})
	if err != nil {
		return rec, fmt.Errorf("failed to append %s record: %w", status, err)
	}
	return rec, nil
}

// MarkApplied records the outcome of moving one entry. A nil moveErr marks
// it applied, anything else marks it failed with the error as reason.
func (s *Store) MarkApplied(batchID string, entryID int, moveErr error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(batchesBucket).Get([]byte(batchID)) == nil {
			return fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
		}

		data := tx.Bucket(latestBucket).Get(recordKey(batchID, uint64(entryID)))
		if data == nil {
			return fmt.Errorf("%w: %s #%d", ErrEntryNotFound, batchID, entryID)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("%w: %s #%d: %v", ErrCorruptLog, batchID, entryID, err)
		}

		rec.Timestamp = s.now()
		rec.Status = StatusApplied
		rec.Reason = ""
		if moveErr != nil {
			rec.Status = StatusFailed
			rec.Reason = moveErr.Error()
		}
		return putRecord(tx, &rec)
	})
}

// Batch returns one batch header
func (s *Store) Batch(batchID string) (Batch, error) {
	var batch Batch
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(batchesBucket).Get([]byte(batchID))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
		}
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("%w: batch %s: %v", ErrCorruptLog, batchID, err)
		}
		return nil
	})
	return batch, err
}

// Batches lists every recorded batch, newest first
func (s *Store) Batches() ([]Batch, error) {
	var batches []Batch
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(batchesBucket).ForEach(func(k, v []byte) error {
			var b Batch
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("%w: batch %s: %v", ErrCorruptLog, k, err)
			}
			batches = append(batches, b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].CreatedAt.After(batches[j].CreatedAt)
		}
		return batches[i].ID > batches[j].ID
	})
	return batches, nil
}

// History returns every record of a batch in append order
func (s *Store) History(batchID string) ([]Record, error) {
	if _, err := s.Batch(batchID); err != nil {
		return nil, err
	}

	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := recordPrefix(batchID)
		c := tx.Bucket(recordsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrCorruptLog, batchID, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Entries folds a batch's history into the current state of each entry,
// ordered by entry id.
func (s *Store) Entries(batchID string) ([]Record, error) {
	history, err := s.History(batchID)
	if err != nil {
		return nil, err
	}

	latest := make(map[int]Record)
	for _, rec := range history {
		latest[rec.EntryID] = rec
	}

	entries := make([]Record, 0, len(latest))
	for _, rec := range latest {
		entries = append(entries, rec)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryID < entries[j].EntryID
	})
	return entries, nil
}
