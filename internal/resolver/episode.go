package resolver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Nomadcxx/ezrename/internal/lookup"
)

// EpisodeMatch pairs a resolved show with one episode number. Title is
// empty when the provider has no entry for the number.
type EpisodeMatch struct {
	Show    lookup.ShowCandidate
	Season  int
	Episode int
	Title   string
	Summary string
	Airdate string
}

// HasTitle reports whether the provider knew this episode
func (e EpisodeMatch) HasTitle() bool {
	return e.Title != ""
}

// DisplayTitle falls back to "Episode <n>" when the title is unknown
func (e EpisodeMatch) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return "Episode " + strconv.Itoa(e.Episode)
}

type episodeKey struct {
	season, number int
}

// Catalog is one show's episode list, fetched once and indexed
type Catalog struct {
	Show     lookup.ShowCandidate
	episodes map[episodeKey]lookup.Episode
}

// NewCatalog indexes an already fetched episode list
func NewCatalog(show lookup.ShowCandidate, episodes []lookup.Episode) *Catalog {
	c := &Catalog{
		Show:     show,
		episodes: make(map[episodeKey]lookup.Episode, len(episodes)),
	}
	for _, ep := range episodes {
		key := episodeKey{ep.Season, ep.Number}
		// keep the first listing if the provider repeats a number
		if _, ok := c.episodes[key]; !ok {
			c.episodes[key] = ep
		}
	}
	return c
}

// LoadCatalog fetches the show's episode list with a single request
func LoadCatalog(ctx context.Context, p lookup.Provider, show lookup.ShowCandidate) (*Catalog, error) {
	episodes, err := p.Episodes(ctx, show.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episodes for %s: %w", show.Name, err)
	}
	return NewCatalog(show, episodes), nil
}

// Len returns the number of indexed episodes
func (c *Catalog) Len() int {
	return len(c.episodes)
}

// Resolve returns one match per requested number, in request order
func (c *Catalog) Resolve(season int, numbers []int) []EpisodeMatch {
	out := make([]EpisodeMatch, 0, len(numbers))
	for _, n := range numbers {
		m := EpisodeMatch{Show: c.Show, Season: season, Episode: n}
		if ep, ok := c.episodes[episodeKey{season, n}]; ok {
			m.Title = ep.Title
			m.Summary = ep.Summary
			m.Airdate = ep.Airdate
		}
		out = append(out, m)
	}
	return out
}

// ResolveEpisodes is the one-shot form of LoadCatalog + Resolve
func ResolveEpisodes(ctx context.Context, p lookup.Provider, show lookup.ShowCandidate, season int, numbers []int) ([]EpisodeMatch, error) {
	cat, err := LoadCatalog(ctx, p, show)
	if err != nil {
		return nil, err
	}
	return cat.Resolve(season, numbers), nil
}
