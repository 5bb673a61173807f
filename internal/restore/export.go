package restore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var tsvHeader = []string{"TYPE", "OLD_PATH", "NEW_PATH"}

// ExportTSV writes a batch as TYPE, OLD_PATH, NEW_PATH rows. Entries that
// were never moved (failed, restored) are left out.
func (s *Store) ExportTSV(batchID string, w io.Writer) error {
	entries, err := s.Entries(batchID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(tsvHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	for _, e := range entries {
		if e.Status == StatusFailed || e.Status == StatusRestored {
			continue
		}
		if err := cw.Write([]string{string(e.Kind), e.OriginalPath, e.NewPath}); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTSV parses rows written by ExportTSV. The header row and blank lines
// are skipped, as are rows whose type is neither video nor subtitle.
func ReadTSV(r io.Reader) ([]Mapping, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var mappings []Mapping
	for n := 1; ; n++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read backup: %w", err)
		}
		if n == 1 && strings.EqualFold(row[0], tsvHeader[0]) {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("backup row %d: expected %d columns, got %d", n, len(tsvHeader), len(row))
		}

		kind := Kind(strings.TrimSpace(row[0]))
		if kind != KindVideo && kind != KindSubtitle {
			continue
		}
		if row[1] == "" || row[2] == "" {
			return nil, fmt.Errorf("backup row %d: empty path", n)
		}
		mappings = append(mappings, Mapping{Kind: kind, OriginalPath: row[1], NewPath: row[2]})
	}
	return mappings, nil
}
