package renamer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nomadcxx/ezrename/internal/planner"
	"github.com/Nomadcxx/ezrename/internal/restore"
)

func openStore(t *testing.T) *restore.Store {
	t.Helper()
	s, err := restore.Open(filepath.Join(t.TempDir(), "restore.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(filepath.Base(path)), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func testPlan(dir string) planner.Plan {
	return planner.Plan{Entries: []planner.Entry{
		{
			Source:         filepath.Join(dir, "show.s01e01.mkv"),
			Target:         filepath.Join(dir, "Show - S01E01 - Pilot.mkv"),
			SubtitleSource: filepath.Join(dir, "show.s01e01.srt"),
			SubtitleTarget: filepath.Join(dir, "Show - S01E01 - Pilot.srt"),
			Status:         planner.StatusPlanned,
		},
		{
			Source: filepath.Join(dir, "show.s01e02.mkv"),
			Target: filepath.Join(dir, "Show - S01E02 - Second.mkv"),
			Status: planner.StatusPlanned,
		},
		{
			Source: filepath.Join(dir, "notes.txt"),
			Status: planner.StatusSkipped,
			Reason: "no episode marker",
		},
	}}
}

func TestApplyRenamesAndRecords(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(dir)
	touch(t, plan.Entries[0].Source)
	touch(t, plan.Entries[0].SubtitleSource)
	touch(t, plan.Entries[1].Source)

	store := openStore(t)
	results, batchID, err := Apply(context.Background(), plan, store, Options{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if batchID == "" {
		t.Fatal("expected a batch id")
	}
	if len(results) != 3 || Succeeded(results) != 3 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[1].Kind != restore.KindSubtitle {
		t.Errorf("subtitle should follow its video, got %s", results[1].Kind)
	}
	for _, r := range results {
		if exists(r.OldPath) || !exists(r.NewPath) {
			t.Errorf("%s was not moved", r.OldPath)
		}
	}

	entries, err := store.Entries(batchID)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Status != restore.StatusApplied {
			t.Errorf("entry %d status = %s", e.EntryID, e.Status)
		}
	}

	report, err := store.Restore(context.Background(), batchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Restored) != 3 {
		t.Fatalf("expected 3 restored, got %+v", report)
	}
	for _, r := range results {
		if !exists(r.OldPath) {
			t.Errorf("%s was not restored", r.OldPath)
		}
	}
}

func TestApplyDryRun(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(dir)
	touch(t, plan.Entries[0].Source)

	store := openStore(t)
	results, batchID, err := Apply(context.Background(), plan, store, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if batchID != "" {
		t.Errorf("dry run should not record a batch, got %s", batchID)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 previewed moves, got %d", len(results))
	}
	if !exists(plan.Entries[0].Source) {
		t.Error("dry run moved a file")
	}
	if batches, _ := store.Batches(); len(batches) != 0 {
		t.Errorf("dry run wrote %d batches", len(batches))
	}
}

func TestApplyNothingPlanned(t *testing.T) {
	plan := planner.Plan{Entries: []planner.Entry{{Source: "/x", Status: planner.StatusConflict}}}
	if _, _, err := Apply(context.Background(), plan, openStore(t), Options{}); !errors.Is(err, ErrNothingToApply) {
		t.Errorf("expected ErrNothingToApply, got %v", err)
	}
}

func TestApplyTargetTakenSinceScan(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(dir)
	touch(t, plan.Entries[0].Source)
	touch(t, plan.Entries[0].SubtitleSource)
	touch(t, plan.Entries[1].Source)
	touch(t, plan.Entries[0].Target)

	store := openStore(t)
	results, batchID, err := Apply(context.Background(), plan, store, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if results[0].Success || results[1].Success {
		t.Errorf("video and its subtitle should both fail: %+v", results[:2])
	}
	if !results[2].Success {
		t.Errorf("independent entry should still be renamed: %+v", results[2])
	}
	if !exists(plan.Entries[0].SubtitleSource) {
		t.Error("subtitle moved without its video")
	}

	entries, _ := store.Entries(batchID)
	if entries[0].Status != restore.StatusFailed || entries[1].Status != restore.StatusFailed || entries[2].Status != restore.StatusApplied {
		t.Errorf("unexpected statuses: %s %s %s", entries[0].Status, entries[1].Status, entries[2].Status)
	}
}

func TestApplyCaseVariantTargetTaken(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "show - s01e01 - pilot.mkv")
	target := filepath.Join(dir, "Show - S01E01 - Pilot.mkv")
	touch(t, src)
	if exists(target) {
		t.Skip("filesystem is case-insensitive")
	}
	if err := os.WriteFile(target, []byte("unrelated"), 0644); err != nil {
		t.Fatal(err)
	}

	plan := planner.Plan{Entries: []planner.Entry{{Source: src, Target: target, Status: planner.StatusPlanned}}}
	results, _, err := Apply(context.Background(), plan, openStore(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Success {
		t.Fatal("rename over a different file should fail")
	}

	data, _ := os.ReadFile(target)
	if string(data) != "unrelated" {
		t.Errorf("target was overwritten: %q", data)
	}
	if !exists(src) {
		t.Error("source should stay in place")
	}
}

func TestApplyRenameError(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(dir)
	touch(t, plan.Entries[0].Source)
	touch(t, plan.Entries[0].SubtitleSource)
	touch(t, plan.Entries[1].Source)

	renameFunc = func(from, to string) error {
		if from == plan.Entries[1].Source {
			return errors.New("read-only file system")
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { renameFunc = os.Rename })

	results, _, err := Apply(context.Background(), plan, openStore(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if Succeeded(results) != 2 || results[2].Error != "read-only file system" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestApplyCancelled(t *testing.T) {
	dir := t.TempDir()
	plan := testPlan(dir)
	touch(t, plan.Entries[0].Source)
	touch(t, plan.Entries[0].SubtitleSource)
	touch(t, plan.Entries[1].Source)

	ctx, cancel := context.WithCancel(context.Background())
	renameFunc = func(from, to string) error {
		cancel()
		return os.Rename(from, to)
	}
	t.Cleanup(func() { renameFunc = os.Rename })

	store := openStore(t)
	results, batchID, err := Apply(ctx, plan, store, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if Succeeded(results) != 1 {
		t.Errorf("only the first move should have run: %+v", results)
	}

	entries, _ := store.Entries(batchID)
	for _, e := range entries[1:] {
		if e.Status != restore.StatusFailed {
			t.Errorf("pending entry %d should be failed, got %s", e.EntryID, e.Status)
		}
	}
}
