package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/ezrename/internal/engine"
	"github.com/Nomadcxx/ezrename/internal/planner"
	"github.com/Nomadcxx/ezrename/internal/renamer"
	"github.com/Nomadcxx/ezrename/internal/restore"
)

const (
	arrow        = " -> "
	detailsWidth = 80
)

// PreviewOptions controls RenderPlan
type PreviewOptions struct {
	ShowSkipped bool
	// FullPaths prints whole paths instead of base names
	FullPaths bool
	// Details adds airdates and episode summaries under each rename
	Details bool
}

func displayPath(path string, full bool) string {
	if full {
		return path
	}
	return filepath.Base(path)
}

// RenderPlan renders planned renames, then conflicts, then (optionally)
// skipped files
func RenderPlan(plan planner.Plan, opts PreviewOptions) string {
	var b strings.Builder

	planned := plan.Planned()
	if len(planned) > 0 {
		b.WriteString(TitleStyle.Render(fmt.Sprintf("PLANNED (%d)", len(planned))))
		b.WriteString("\n")
		for _, e := range planned {
			b.WriteString(FormatStatusOK(displayPath(e.Source, opts.FullPaths) + arrow + displayPath(e.Target, opts.FullPaths)))
			b.WriteString("\n")
			if e.SubtitleTarget != "" {
				b.WriteString("     " + MutedStyle.Render(displayPath(e.SubtitleSource, opts.FullPaths)+arrow+displayPath(e.SubtitleTarget, opts.FullPaths)))
				b.WriteString("\n")
			}
			if opts.Details {
				b.WriteString(renderDetails(e))
			}
		}
	}

	conflicts := plan.Conflicts()
	if len(conflicts) > 0 {
		b.WriteString(TitleStyle.Render(fmt.Sprintf("CONFLICTS (%d)", len(conflicts))))
		b.WriteString("\n")
		for _, e := range conflicts {
			b.WriteString(FormatStatusFail(displayPath(e.Source, opts.FullPaths) + arrow + displayPath(e.Target, opts.FullPaths)))
			b.WriteString("\n")
			b.WriteString("     " + ErrorStyle.Render(e.Reason))
			b.WriteString("\n")
		}
	}

	skipped := plan.Skipped()
	if opts.ShowSkipped && len(skipped) > 0 {
		b.WriteString(TitleStyle.Render(fmt.Sprintf("SKIPPED (%d)", len(skipped))))
		b.WriteString("\n")
		for _, e := range skipped {
			b.WriteString(FormatStatusInfo(displayPath(e.Source, opts.FullPaths) + "  " + MutedStyle.Render(e.Reason)))
			b.WriteString("\n")
		}
	}

	if len(plan.Entries) == 0 {
		b.WriteString(MutedStyle.Render("No video files found."))
		b.WriteString("\n")
	}

	return b.String()
}

func renderDetails(e planner.Entry) string {
	var b strings.Builder
	if e.Airdate != "" {
		b.WriteString(InfoStyle.PaddingLeft(5).Render("aired " + e.Airdate))
		b.WriteString("\n")
	}
	if e.Summary != "" {
		b.WriteString(MutedStyle.PaddingLeft(5).Width(detailsWidth).Render(e.Summary))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderScanSummary renders the counts of a scan
func RenderScanSummary(stats engine.Stats) string {
	parts := []string{
		StatStyle.Render(fmt.Sprint(stats.Files)) + " files",
		StatStyle.Render(fmt.Sprint(stats.Planned)) + " planned",
		StatStyle.Render(fmt.Sprint(stats.Skipped)) + " skipped",
		StatStyle.Render(fmt.Sprint(stats.Conflicts)) + " conflicts",
	}
	line := strings.Join(parts, MutedStyle.Render(" | "))

	var notes []string
	if stats.Ambiguous > 0 {
		notes = append(notes, FormatStatusWarn(fmt.Sprintf("%d shows need a selection (rerun with --interactive or --pick)", stats.Ambiguous)))
	}
	if stats.NotFound > 0 {
		notes = append(notes, FormatStatusWarn(fmt.Sprintf("%d shows not found", stats.NotFound)))
	}
	if stats.Failed > 0 {
		notes = append(notes, FormatStatusFail(fmt.Sprintf("%d lookups failed", stats.Failed)))
	}
	if len(notes) == 0 {
		return line + "\n"
	}
	return line + "\n" + strings.Join(notes, "\n") + "\n"
}

// RenderAmbiguous lists each guess with its candidates and the --pick
// argument that selects them
func RenderAmbiguous(ambiguous []engine.AmbiguousShow) string {
	var b strings.Builder
	for _, amb := range ambiguous {
		b.WriteString(FormatStatusWarn(fmt.Sprintf("%q matches %d shows (%d files)", amb.Guess, len(amb.Candidates), len(amb.Files))))
		b.WriteString("\n")
		for _, c := range amb.Candidates {
			b.WriteString(fmt.Sprintf("     --pick %s  %s\n",
				StatStyle.Render(fmt.Sprintf("%q", amb.Guess+"="+c.ID)),
				MutedStyle.Render(c.Label())))
		}
	}
	return b.String()
}

// RenderResults renders executed (or dry-run) moves
func RenderResults(results []renamer.RenameResult) string {
	var b strings.Builder
	for _, r := range results {
		line := filepath.Base(r.OldPath) + arrow + filepath.Base(r.NewPath)
		if r.Success {
			b.WriteString(FormatStatusOK(line))
		} else {
			b.WriteString(FormatStatusFail(line + "  " + ErrorStyle.Render(r.Error)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderRestoreReport renders the outcome of a restore
func RenderRestoreReport(report restore.Report) string {
	if report.NothingToRestore {
		return FormatStatusInfo(fmt.Sprintf("Nothing to restore in batch %s", report.BatchID)) + "\n"
	}

	var b strings.Builder
	for _, r := range report.Restored {
		b.WriteString(FormatStatusOK(filepath.Base(r.NewPath) + arrow + filepath.Base(r.OriginalPath)))
		b.WriteString("\n")
	}
	for _, r := range report.Unrestorable {
		b.WriteString(FormatStatusWarn(filepath.Base(r.NewPath) + "  " + MutedStyle.Render(r.Reason)))
		b.WriteString("\n")
	}
	for _, r := range report.Failed {
		b.WriteString(FormatStatusFail(filepath.Base(r.NewPath) + "  " + ErrorStyle.Render(r.Reason)))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Restored %d, unrestorable %d, failed %d\n",
		len(report.Restored), len(report.Unrestorable), len(report.Failed)))
	return b.String()
}

// RenderBatches renders the batch list, newest first
func RenderBatches(batches []restore.Batch) string {
	if len(batches) == 0 {
		return MutedStyle.Render("No rename batches recorded.") + "\n"
	}
	var b strings.Builder
	for _, batch := range batches {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			StatStyle.Render(batch.ID),
			batch.CreatedAt.Local().Format(time.DateTime),
			MutedStyle.Render(fmt.Sprintf("%d files", batch.Entries))))
	}
	return b.String()
}

// RenderEntries renders the current state of a batch's entries
func RenderEntries(entries []restore.Record) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%3d  %-14s %-8s %s%s%s\n",
			e.EntryID, e.Status, e.Kind,
			filepath.Base(e.OriginalPath), arrow, filepath.Base(e.NewPath)))
		if e.Reason != "" {
			b.WriteString("     " + MutedStyle.Render(e.Reason) + "\n")
		}
	}
	return b.String()
}
