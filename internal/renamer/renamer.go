// Package renamer executes a rename plan, recording every move in the
// restore log before touching the filesystem.
package renamer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Nomadcxx/ezrename/internal/planner"
	"github.com/Nomadcxx/ezrename/internal/restore"
	"github.com/Nomadcxx/ezrename/internal/scanner"
)

var (
	ErrTargetTaken      = errors.New("target already exists")
	ErrVideoNotRenamed  = errors.New("video rename failed")
	ErrNothingToApply   = errors.New("plan has no planned entries")
	errCancelledPending = errors.New("cancelled before rename")
)

var renameFunc = os.Rename

// Recorder is the part of the restore log the executor needs
type Recorder interface {
	RecordBatch(mappings []restore.Mapping) (restore.Batch, error)
	MarkApplied(batchID string, entryID int, err error) error
}

// RenameResult tracks a single file move
type RenameResult struct {
	OldPath string
	NewPath string
	Kind    restore.Kind
	Success bool
	Error   string
}

type Options struct {
	DryRun   bool
	Progress *scanner.ProgressReporter
}

type move struct {
	entryID int
	mapping restore.Mapping
	// index of the video move this subtitle depends on, -1 for videos
	video int
}

func collectMoves(plan planner.Plan) []move {
	var moves []move
	for _, e := range plan.Planned() {
		videoIdx := len(moves)
		moves = append(moves, move{
			entryID: len(moves) + 1,
			mapping: restore.Mapping{Kind: restore.KindVideo, OriginalPath: e.Source, NewPath: e.Target},
			video:   -1,
		})
		if e.SubtitleSource != "" && e.SubtitleTarget != "" && e.SubtitleSource != e.SubtitleTarget {
			moves = append(moves, move{
				entryID: len(moves) + 1,
				mapping: restore.Mapping{Kind: restore.KindSubtitle, OriginalPath: e.SubtitleSource, NewPath: e.SubtitleTarget},
				video:   videoIdx,
			})
		}
	}
	return moves
}

// Apply records the plan's planned entries as one batch, then renames each
// video followed by its subtitle. Failures are recorded and do not stop the
// run. A dry run records nothing and returns an empty batch id.
func Apply(ctx context.Context, plan planner.Plan, rec Recorder, opts Options) ([]RenameResult, string, error) {
	moves := collectMoves(plan)
	if len(moves) == 0 {
		return nil, "", ErrNothingToApply
	}

	pr := opts.Progress
	results := make([]RenameResult, len(moves))

	if opts.DryRun {
		for i, m := range moves {
			results[i] = RenameResult{OldPath: m.mapping.OriginalPath, NewPath: m.mapping.NewPath, Kind: m.mapping.Kind, Success: true}
		}
		pr.Complete(fmt.Sprintf("Dry run: %d renames planned", len(moves)))
		return results, "", nil
	}

	mappings := make([]restore.Mapping, len(moves))
	for i, m := range moves {
		mappings[i] = m.mapping
	}
	batch, err := rec.RecordBatch(mappings)
	if err != nil {
		return nil, "", fmt.Errorf("failed to record rename batch: %w", err)
	}

	pr.Start(len(moves), fmt.Sprintf("Renaming %d files...", len(moves)))
	log.Info().Str("batch", batch.ID).Int("files", len(moves)).Msg("applying rename batch")

	var cancelErr error
	for i, m := range moves {
		var moveErr error
		switch {
		case cancelErr != nil:
			moveErr = errCancelledPending
		case ctx.Err() != nil:
			cancelErr = ctx.Err()
			moveErr = errCancelledPending
		case m.video >= 0 && !results[m.video].Success:
			moveErr = ErrVideoNotRenamed
		default:
			moveErr = renameOne(m.mapping.OriginalPath, m.mapping.NewPath)
		}

		results[i] = RenameResult{
			OldPath: m.mapping.OriginalPath,
			NewPath: m.mapping.NewPath,
			Kind:    m.mapping.Kind,
			Success: moveErr == nil,
		}
		if moveErr != nil {
			results[i].Error = moveErr.Error()
			if !errors.Is(moveErr, errCancelledPending) {
				pr.LogError(moveErr, fmt.Sprintf("Failed to rename: %s", filepath.Base(m.mapping.OriginalPath)))
			}
		}

		if err := rec.MarkApplied(batch.ID, m.entryID, moveErr); err != nil {
			return results, batch.ID, fmt.Errorf("failed to update restore log: %w", err)
		}
		pr.Update(i+1, fmt.Sprintf("Renamed %s", filepath.Base(m.mapping.NewPath)))
	}

	if cancelErr != nil {
		return results, batch.ID, cancelErr
	}

	pr.Complete(fmt.Sprintf("Rename complete: %d/%d succeeded", Succeeded(results), len(results)))
	return results, batch.ID, nil
}

// renameOne re-checks the target right before moving; the plan may be
// stale. A case-only rename may find its own source at the target.
func renameOne(from, to string) error {
	if target, err := os.Lstat(to); err == nil {
		source, err := os.Lstat(from)
		if err != nil || !os.SameFile(source, target) {
			return fmt.Errorf("%w: %s", ErrTargetTaken, to)
		}
	}
	return renameFunc(from, to)
}

// Succeeded counts successful results
func Succeeded(results []RenameResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
