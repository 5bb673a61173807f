package restore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

// fingerprintBytes is how much of a file's head is hashed
const fingerprintBytes = 64 * 1024

var renameFunc = os.Rename

// Fingerprint hashes a file's size and first 64 KiB. It identifies the file
// across a rename without reading whole videos.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	h := xxhash.New()
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(info.Size()))
	h.Write(size[:])

	if _, err := io.CopyN(h, f, fingerprintBytes); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.Sum64(), nil
}

// Report summarizes one restore call
type Report struct {
	BatchID          string
	Restored         []Record
	Unrestorable     []Record
	Failed           []Record
	NothingToRestore bool
}

func (s *Store) acquire(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[batchID] {
		return fmt.Errorf("%w: %s", ErrRestoreInProgress, batchID)
	}
	s.active[batchID] = true
	return nil
}

func (s *Store) release(batchID string) {
	s.mu.Lock()
	delete(s.active, batchID)
	s.mu.Unlock()
}

// Restore moves every restorable entry of a batch back to its original path,
// newest entry first. Entries that cannot be moved back are marked
// unrestorable and left in the log. Cancellation is checked between entries;
// the report covers what was done before it.
func (s *Store) Restore(ctx context.Context, batchID string) (Report, error) {
	report := Report{BatchID: batchID}

	if err := s.acquire(batchID); err != nil {
		return report, err
	}
	defer s.release(batchID)

	entries, err := s.Entries(batchID)
	if err != nil {
		return report, err
	}

	var candidates []Record
	for _, e := range entries {
		if e.Status.restorable() {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		report.NothingToRestore = true
		return report, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EntryID > candidates[j].EntryID
	})

	for _, e := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if reason := s.checkRestorable(e); reason != "" {
			rec, err := s.appendStatus(e, StatusUnrestorable, reason)
			if err != nil {
				return report, err
			}
			log.Warn().Str("batch", batchID).Str("path", e.NewPath).Str("reason", reason).Msg("entry cannot be restored")
			report.Unrestorable = append(report.Unrestorable, rec)
			continue
		}

		if moveErr := renameFunc(e.NewPath, e.OriginalPath); moveErr != nil {
			rec, err := s.appendStatus(e, StatusRestoreFailed, moveErr.Error())
			if err != nil {
				return report, err
			}
			log.Error().Err(moveErr).Str("batch", batchID).Str("path", e.NewPath).Msg("restore failed")
			report.Failed = append(report.Failed, rec)
			continue
		}

		rec, err := s.appendStatus(e, StatusRestored, "")
		if err != nil {
			return report, err
		}
		log.Debug().Str("from", e.NewPath).Str("to", e.OriginalPath).Msg("restored")
		report.Restored = append(report.Restored, rec)
	}

	return report, nil
}

// checkRestorable returns why an entry cannot move back, or ""
func (s *Store) checkRestorable(e Record) string {
	if _, err := os.Stat(e.NewPath); err != nil {
		return "file missing at new path"
	}

	fp, err := Fingerprint(e.NewPath)
	if err != nil {
		return err.Error()
	}
	if fp != e.Fingerprint {
		return "file changed since rename"
	}

	// after a case-only rename on a case-insensitive filesystem the
	// original path resolves to the renamed file itself
	if orig, err := os.Stat(e.OriginalPath); err == nil {
		cur, err := os.Stat(e.NewPath)
		if err != nil || !os.SameFile(orig, cur) {
			return "original path is occupied"
		}
	}
	return ""
}
