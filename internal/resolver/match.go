// Package resolver turns show-name guesses into show identities and
// episode numbers into titles.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Nomadcxx/ezrename/internal/lookup"
	"github.com/Nomadcxx/ezrename/internal/scanner"
)

// MatchKind is the outcome of a show lookup
type MatchKind int

const (
	NotFound MatchKind = iota
	Resolved
	Ambiguous
)

func (k MatchKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// ErrUnknownCandidate is returned by Choose for an id not in the match
var ErrUnknownCandidate = errors.New("unknown show candidate")

// Match is the result of resolving one guess. Show is set when Kind is
// Resolved; Candidates is set when Kind is Ambiguous.
type Match struct {
	Kind       MatchKind
	Guess      string
	Show       lookup.ShowCandidate
	Candidates []lookup.ShowCandidate
}

// Choose resumes an ambiguous (or resolved) match with the caller's pick
func (m Match) Choose(id string) (Match, error) {
	pool := m.Candidates
	if m.Kind == Resolved {
		pool = []lookup.ShowCandidate{m.Show}
	}
	for _, c := range pool {
		if c.ID == id {
			return Match{Kind: Resolved, Guess: m.Guess, Show: c}, nil
		}
	}
	return m, fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
}

// ResolveShow searches for guess and classifies the result. A provider
// failure is returned as an error and never reported as NotFound.
func ResolveShow(ctx context.Context, p lookup.Provider, guess string) (Match, error) {
	candidates, err := p.Search(ctx, guess)
	if err != nil {
		return Match{Guess: guess}, fmt.Errorf("failed to search for %q: %w", guess, err)
	}
	return Classify(guess, candidates), nil
}

// Classify applies the match policy to a candidate list:
// no candidates is NotFound, one candidate is Resolved, several resolve
// only when exactly one has the guess's normalized name. Everything else is
// Ambiguous, ranked for display.
func Classify(guess string, candidates []lookup.ShowCandidate) Match {
	candidates = dedupe(candidates)

	switch len(candidates) {
	case 0:
		return Match{Kind: NotFound, Guess: guess}
	case 1:
		return Match{Kind: Resolved, Guess: guess, Show: candidates[0]}
	}

	norm := scanner.NormalizeName(guess)
	var exact []lookup.ShowCandidate
	for _, c := range candidates {
		if scanner.NormalizeName(c.Name) == norm {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return Match{Kind: Resolved, Guess: guess, Show: exact[0]}
	}

	log.Debug().Str("guess", guess).Int("candidates", len(candidates)).Msg("ambiguous show match")
	return Match{Kind: Ambiguous, Guess: guess, Candidates: rank(guess, candidates)}
}

func dedupe(candidates []lookup.ShowCandidate) []lookup.ShowCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]lookup.ShowCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// rank orders candidates exact-name first, then by similarity. Provider
// order breaks ties.
func rank(guess string, candidates []lookup.ShowCandidate) []lookup.ShowCandidate {
	norm := scanner.NormalizeName(guess)
	type scored struct {
		c     lookup.ShowCandidate
		exact bool
		score float64
	}

	items := make([]scored, len(candidates))
	for i, c := range candidates {
		items[i] = scored{
			c:     c,
			exact: scanner.NormalizeName(c.Name) == norm,
			score: scanner.SimilarityRatio(guess, c.Name),
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].exact != items[j].exact {
			return items[i].exact
		}
		return items[i].score > items[j].score
	})

	out := make([]lookup.ShowCandidate, len(items))
	for i, it := range items {
		out[i] = it.c
	}
	return out
}
