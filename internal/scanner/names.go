package scanner

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ordinalRegex     = regexp.MustCompile(`(?i)^(\d+)(st|nd|rd|th)$`)
	normalizeStrip   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	collapseSpaceRgx = regexp.MustCompile(`\s+`)
	upperWordRegex   = regexp.MustCompile(`^[\p{Lu}\d]{2,}$`)
)

// DisplayName turns a guessed show name into a presentable title.
// Upper-case words (USA, FBI) and ordinals (9th) are left alone.
func DisplayName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	caser := cases.Title(language.English)
	words := strings.Split(s, " ")
	for i, w := range words {
		switch {
		case upperWordRegex.MatchString(w):
			continue
		case ordinalRegex.MatchString(w):
			words[i] = strings.ToLower(w)
		default:
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}

// NormalizeName lower-cases, drops punctuation and collapses whitespace.
// "The Office (US)" and "the office us" normalize to the same string.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "&", " and ")
	name = normalizeStrip.ReplaceAllString(name, " ")
	name = collapseSpaceRgx.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// SimilarityRatio returns 0..1 where 1 means identical after normalization
func SimilarityRatio(s1, s2 string) float64 {
	a, b := []rune(NormalizeName(s1)), []rune(NormalizeName(s2))
	if string(a) == string(b) {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}

	distance := levenshteinDistance(a, b)
	return (float64(longer) - float64(distance)) / float64(longer)
}

// levenshteinDistance calculates edit distance between two rune slices
func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
