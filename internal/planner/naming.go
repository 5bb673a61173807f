package planner

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Nomadcxx/ezrename/internal/resolver"
)

var (
	illegalCharsRegex = regexp.MustCompile(`[\\/<>|?*"„“”\x00-\x1f]`)
	spaceRunRegex     = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes s safe as a file name on common filesystems
func SanitizeFilename(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, ":", " -")
	s = spaceRunRegex.ReplaceAllString(s, " ")
	s = illegalCharsRegex.ReplaceAllString(s, "")
	s = spaceRunRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, " .")
}

// EpisodeMarker formats S01E02, or S01E01-E03 for a multi-episode file
func EpisodeMarker(season int, episodes []int) string {
	if len(episodes) == 0 {
		return fmt.Sprintf("S%02d", season)
	}
	marker := fmt.Sprintf("S%02dE%02d", season, episodes[0])
	if last := episodes[len(episodes)-1]; len(episodes) > 1 && last != episodes[0] {
		marker += fmt.Sprintf("-E%02d", last)
	}
	return marker
}

// EpisodeTitle joins the known titles of the matches with " & ". When no
// title is known it falls back to "Episode N" (or "Episodes N-M").
func EpisodeTitle(matches []resolver.EpisodeMatch) string {
	var titles []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if m.Title == "" || seen[m.Title] {
			continue
		}
		seen[m.Title] = true
		titles = append(titles, m.Title)
	}
	if len(titles) > 0 {
		return strings.Join(titles, " & ")
	}

	switch len(matches) {
	case 0:
		return ""
	case 1:
		return matches[0].DisplayTitle()
	default:
		return fmt.Sprintf("Episodes %d-%d", matches[0].Episode, matches[len(matches)-1].Episode)
	}
}

// FormatName builds "<Show> - S01E02 - <Title><ext>", sanitized
func FormatName(show string, season int, episodes []int, title, ext string) string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(show); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, EpisodeMarker(season, episodes))
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}
	return SanitizeFilename(strings.Join(parts, " - ")) + ext
}
