// Package planner builds deterministic rename plans from parsed files and
// resolved episodes. It never mutates the filesystem.
package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nomadcxx/ezrename/internal/resolver"
	"github.com/Nomadcxx/ezrename/internal/scanner"
)

// Status of a plan entry
type Status string

const (
	StatusPlanned  Status = "planned"
	StatusSkipped  Status = "skipped"
	StatusConflict Status = "conflict"
)

const (
	ReasonAlreadyNamed    = "already named correctly"
	ReasonUnresolved      = "unresolved"
	ReasonTargetExists    = "target already exists"
	ReasonDuplicateTarget = "duplicate target"
)

// Item is one parsed file and whatever the resolvers found for it. An item
// with a SkipReason or without matches is planned as skipped.
type Item struct {
	Parsed     scanner.ParsedFilename
	Matches    []resolver.EpisodeMatch
	SkipReason string
}

// Entry is one row of a rename plan. Subtitle fields are set only when the
// video has a subtitle sibling; the subtitle always moves with its video.
type Entry struct {
	Source         string
	Target         string
	SubtitleSource string
	SubtitleTarget string
	Status         Status
	Reason         string

	Show     string
	Season   int
	Episodes []int
	Title    string
	// Airdate of the first episode; Summary of every episode the
	// provider described, one paragraph each
	Airdate string
	Summary string
}

// sameFile tells a case-only rename apart from a real collision
var sameFile scanner.SameFile = scanner.OSSameFile

// Plan is an ordered set of entries, sorted by source path
type Plan struct {
	Entries []Entry
}

// Build turns items into a plan. exists is only used for read-only checks.
func Build(items []Item, exists scanner.FileExists) Plan {
	if exists == nil {
		exists = scanner.OSFileExists
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Parsed.Path < sorted[j].Parsed.Path
	})

	claimed := make(map[string]string)
	plan := Plan{Entries: make([]Entry, 0, len(sorted))}

	for _, item := range sorted {
		entry := planEntry(item, exists, claimed)
		plan.Entries = append(plan.Entries, entry)
	}

	return plan
}

func targetKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

func planEntry(item Item, exists scanner.FileExists, claimed map[string]string) Entry {
	p := item.Parsed
	entry := Entry{
		Source:         p.Path,
		SubtitleSource: p.SubtitlePath,
		Season:         p.Season,
		Episodes:       p.Episodes,
		Status:         StatusSkipped,
	}

	if item.SkipReason != "" || len(item.Matches) == 0 {
		entry.Reason = item.SkipReason
		if entry.Reason == "" {
			entry.Reason = ReasonUnresolved
		}
		return entry
	}

	entry.Show = item.Matches[0].Show.Name
	entry.Title = EpisodeTitle(item.Matches)
	entry.Airdate, entry.Summary = episodeDetails(item.Matches)

	ext := filepath.Ext(p.Path)
	name := FormatName(entry.Show, p.Season, p.Episodes, entry.Title, ext)
	entry.Target = filepath.Join(filepath.Dir(p.Path), name)

	if p.SubtitlePath != "" {
		entry.SubtitleTarget = strings.TrimSuffix(entry.Target, ext) + filepath.Ext(p.SubtitlePath)
	}

	if entry.Target == entry.Source {
		entry.Reason = ReasonAlreadyNamed
		claimed[targetKey(entry.Target)] = entry.Source
		return entry
	}

	if reason := collision(entry.Source, entry.Target, exists, claimed); reason != "" {
		entry.Status = StatusConflict
		entry.Reason = reason
		return entry
	}
	if entry.SubtitleTarget != "" && entry.SubtitleTarget != entry.SubtitleSource {
		if reason := collision(entry.SubtitleSource, entry.SubtitleTarget, exists, claimed); reason != "" {
			entry.Status = StatusConflict
			entry.Reason = "subtitle " + reason
			return entry
		}
	}

	entry.Status = StatusPlanned
	claimed[targetKey(entry.Target)] = entry.Source
	if entry.SubtitleTarget != "" {
		claimed[targetKey(entry.SubtitleTarget)] = entry.SubtitleSource
	}
	return entry
}

func episodeDetails(matches []resolver.EpisodeMatch) (airdate, summary string) {
	var parts []string
	for _, m := range matches {
		if airdate == "" {
			airdate = m.Airdate
		}
		if m.Summary != "" {
			parts = append(parts, m.Summary)
		}
	}
	return airdate, strings.Join(parts, "\n")
}

// collision returns a conflict reason, or "" when target is free. A target
// that is the source file itself (a case-only rename on a case-insensitive
// filesystem) is a rename, not a collision.
func collision(source, target string, exists scanner.FileExists, claimed map[string]string) string {
	if other, ok := claimed[targetKey(target)]; ok {
		return fmt.Sprintf("%s (also planned for %s)", ReasonDuplicateTarget, filepath.Base(other))
	}
	if exists(target) && !(strings.EqualFold(source, target) && sameFile(source, target)) {
		return ReasonTargetExists
	}
	return ""
}

func (p Plan) filter(status Status) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Planned returns entries safe to apply
func (p Plan) Planned() []Entry { return p.filter(StatusPlanned) }

// Skipped returns entries that need no rename or could not be resolved
func (p Plan) Skipped() []Entry { return p.filter(StatusSkipped) }

// Conflicts returns entries that need manual resolution
func (p Plan) Conflicts() []Entry { return p.filter(StatusConflict) }

// Counts returns the planned, skipped and conflict totals
func (p Plan) Counts() (planned, skipped, conflicts int) {
	for _, e := range p.Entries {
		switch e.Status {
		case StatusPlanned:
			planned++
		case StatusSkipped:
			skipped++
		case StatusConflict:
			conflicts++
		}
	}
	return planned, skipped, conflicts
}

// CanProceed reports whether there is anything to apply
func (p Plan) CanProceed() bool {
	planned, _, _ := p.Counts()
	return planned > 0
}
