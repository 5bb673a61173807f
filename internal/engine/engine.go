// Package engine wires parsing, show and episode resolution, and planning
// into a single scan.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Nomadcxx/ezrename/internal/lookup"
	"github.com/Nomadcxx/ezrename/internal/planner"
	"github.com/Nomadcxx/ezrename/internal/resolver"
	"github.com/Nomadcxx/ezrename/internal/scanner"
)

const (
	ReasonNoMarker     = "no episode marker"
	ReasonNoShowName   = "no show name"
	ReasonAmbiguous    = "awaiting show selection"
	ReasonShowNotFound = "show not found"
	ReasonLookupFailed = "lookup failed"
)

// Options is a copied snapshot of the settings a scan needs
type Options struct {
	CustomNoise    []string
	FormatOnly     bool
	FolderFallback bool
	// ShowOverride replaces every parsed guess when set
	ShowOverride string
}

// Decisions maps a show guess to the candidate id the user picked. Keys are
// normalized, so "The.Office" and "the office" share a decision.
type Decisions map[string]string

func (d Decisions) Set(guess, showID string) {
	d[scanner.NormalizeName(guess)] = showID
}

func (d Decisions) Get(guess string) (string, bool) {
	id, ok := d[scanner.NormalizeName(guess)]
	return id, ok
}

// AmbiguousShow is a guess that needs the user to pick a candidate
type AmbiguousShow struct {
	Guess      string
	Files      []string
	Candidates []lookup.ShowCandidate
}

// Failure is a per-file lookup error. The rest of the scan continues.
type Failure struct {
	Path  string
	Guess string
	Err   error
}

type Stats struct {
	Files     int
	Parsed    int
	Unparsed  int
	Resolved  int
	Ambiguous int
	NotFound  int
	Failed    int
	Planned   int
	Skipped   int
	Conflicts int
}

// Result of one scan
type Result struct {
	Plan      planner.Plan
	Unparsed  []string
	Ambiguous []AmbiguousShow
	NotFound  []string
	Failures  []Failure
	Stats     Stats
}

// Engine runs scans. Show matches and episode catalogs are cached across
// scans so a rescan after disambiguation does not repeat lookups.
type Engine struct {
	provider lookup.Provider
	opts     Options
	parser   *scanner.Parser
	exists   scanner.FileExists

	matches  map[string]resolver.Match
	catalogs map[string]*resolver.Catalog
}

func New(provider lookup.Provider, opts Options, exists scanner.FileExists) *Engine {
	if exists == nil {
		exists = scanner.OSFileExists
	}
	parser := scanner.NewParser(opts.CustomNoise, exists)
	parser.FolderFallback = opts.FolderFallback

	return &Engine{
		provider: provider,
		opts:     opts,
		parser:   parser,
		exists:   exists,
		matches:  make(map[string]resolver.Match),
		catalogs: make(map[string]*resolver.Catalog),
	}
}

// scanState accumulates per-scan bookkeeping
type scanState struct {
	result    *Result
	ambiguous map[string]int
	notFound  map[string]bool
}

// Scan parses files, resolves shows and episodes, and builds a plan.
// Lookups run one at a time. A cancelled scan returns ctx.Err() and no
// result.
func (e *Engine) Scan(ctx context.Context, files []string, decisions Decisions, pr *scanner.ProgressReporter) (*Result, error) {
	st := &scanState{
		result:    &Result{},
		ambiguous: make(map[string]int),
		notFound:  make(map[string]bool),
	}
	st.result.Stats.Files = len(files)

	pr.StageUpdate("scanning", fmt.Sprintf("Scanning %d files...", len(files)))
	pr.Start(len(files), "Identifying episodes...")

	items := make([]planner.Item, 0, len(files))
	for i, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		item, err := e.scanFile(ctx, path, decisions, st)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		pr.Update(i+1, fmt.Sprintf("Scanned %s", filepath.Base(path)))
	}

	pr.StageUpdate("planning", "Building rename plan...")
	plan := planner.Build(items, e.exists)
	st.result.Plan = plan

	s := &st.result.Stats
	s.Planned, s.Skipped, s.Conflicts = plan.Counts()
	s.Ambiguous = len(st.result.Ambiguous)
	s.NotFound = len(st.result.NotFound)
	s.Failed = len(st.result.Failures)

	pr.Complete(fmt.Sprintf("Scan complete: %d planned, %d skipped, %d conflicts", s.Planned, s.Skipped, s.Conflicts))
	return st.result, nil
}

// scanFile returns the plan item for one file. Only context errors are
// returned; lookup failures are recorded on the result.
func (e *Engine) scanFile(ctx context.Context, path string, decisions Decisions, st *scanState) (planner.Item, error) {
	res := st.result

	parsed, ok := e.parser.Parse(path)
	if !ok {
		res.Unparsed = append(res.Unparsed, path)
		res.Stats.Unparsed++
		return planner.Item{Parsed: scanner.ParsedFilename{Path: path}, SkipReason: ReasonNoMarker}, nil
	}
	res.Stats.Parsed++

	guess := parsed.ShowGuess
	if e.opts.ShowOverride != "" {
		guess = e.opts.ShowOverride
	}
	item := planner.Item{Parsed: parsed}
	if guess == "" {
		item.SkipReason = ReasonNoShowName
		return item, nil
	}

	if e.opts.FormatOnly {
		item.Matches = formatOnlyMatches(guess, parsed)
		res.Stats.Resolved++
		return item, nil
	}

	match, err := e.resolveShow(ctx, guess, decisions)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return item, ctxErr
		}
		res.Failures = append(res.Failures, Failure{Path: path, Guess: guess, Err: err})
		item.SkipReason = ReasonLookupFailed
		return item, nil
	}

	switch match.Kind {
	case resolver.Ambiguous:
		idx, seen := st.ambiguous[match.Guess]
		if !seen {
			idx = len(res.Ambiguous)
			st.ambiguous[match.Guess] = idx
			res.Ambiguous = append(res.Ambiguous, AmbiguousShow{Guess: match.Guess, Candidates: match.Candidates})
		}
		res.Ambiguous[idx].Files = append(res.Ambiguous[idx].Files, path)
		item.SkipReason = fmt.Sprintf("%s: %s", ReasonAmbiguous, guess)
		return item, nil

	case resolver.NotFound:
		if !st.notFound[guess] {
			st.notFound[guess] = true
			res.NotFound = append(res.NotFound, guess)
		}
		item.SkipReason = fmt.Sprintf("%s: %s", ReasonShowNotFound, guess)
		return item, nil
	}

	cat, err := e.catalog(ctx, match.Show)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return item, ctxErr
		}
		res.Failures = append(res.Failures, Failure{Path: path, Guess: guess, Err: err})
		item.SkipReason = ReasonLookupFailed
		return item, nil
	}

	res.Stats.Resolved++
	item.Matches = cat.Resolve(parsed.Season, parsed.Episodes)
	log.Debug().Str("file", filepath.Base(path)).Str("show", match.Show.Name).Int("season", parsed.Season).Ints("episodes", parsed.Episodes).Msg("resolved")
	return item, nil
}

func formatOnlyMatches(guess string, parsed scanner.ParsedFilename) []resolver.EpisodeMatch {
	show := lookup.ShowCandidate{Name: scanner.DisplayName(guess)}
	out := make([]resolver.EpisodeMatch, 0, len(parsed.Episodes))
	for _, n := range parsed.Episodes {
		out = append(out, resolver.EpisodeMatch{
			Show:    show,
			Season:  parsed.Season,
			Episode: n,
			Title:   parsed.ExistingTitle,
		})
	}
	return out
}

// resolveShow caches the classified match per normalized guess and applies
// a stored decision to ambiguous results. Errors are not cached.
func (e *Engine) resolveShow(ctx context.Context, guess string, decisions Decisions) (resolver.Match, error) {
	key := scanner.NormalizeName(guess)

	match, ok := e.matches[key]
	if !ok {
		var err error
		match, err = resolver.ResolveShow(ctx, e.provider, guess)
		if err != nil {
			return match, err
		}
		e.matches[key] = match
	}

	if match.Kind != resolver.Ambiguous || decisions == nil {
		return match, nil
	}
	id, ok := decisions.Get(guess)
	if !ok {
		return match, nil
	}
	chosen, err := match.Choose(id)
	if err != nil {
		return match, err
	}
	return chosen, nil
}

func (e *Engine) catalog(ctx context.Context, show lookup.ShowCandidate) (*resolver.Catalog, error) {
	if cat, ok := e.catalogs[show.ID]; ok {
		return cat, nil
	}
	cat, err := resolver.LoadCatalog(ctx, e.provider, show)
	if err != nil {
		return nil, err
	}
	e.catalogs[show.ID] = cat
	return cat, nil
}

// IsUnknownCandidate reports whether a failure came from a stale decision
func IsUnknownCandidate(err error) bool {
	return errors.Is(err, resolver.ErrUnknownCandidate)
}
