package scanner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// maxEpisodeSpan bounds E01-E99 style ranges
const maxEpisodeSpan = 20

// SubtitleExts are tried in order; the first existing sibling wins
var SubtitleExts = []string{".srt", ".ass", ".ssa", ".vtt", ".sub"}

var (
	// S01E02, S01 E02, S01.E02, S01E02E03, S01E02-E03, S01E02-03
	episodeSERegex = regexp.MustCompile(
		`(?i)(?:^|[^a-z0-9])(s\s*(\d{1,2})\s*[-._ ]*e\s*(\d{1,3})((?:[-._ ]*e\s*\d{1,3}|-\d{1,3})*))(?:$|[^a-z0-9])`)
	// 1x02, 1×02, 1x02-03, 1x02x03. Extra numbers must touch their
	// separator so "1x02 - 9 Lives" and "1x02 x264" stay single episodes.
	episodeXRegex = regexp.MustCompile(
		`(?i)(?:^|[^a-z0-9])((\d{1,2})\s*[x×]\s*(\d{1,3})((?:[-x×]\d{1,3})*))(?:$|[^a-z0-9])`)
	codecSuffixRegex = regexp.MustCompile(`(?i)[x×]26[45]`)

	episodeNumberRegex = regexp.MustCompile(`\d{1,3}`)
	rangeSepRegex      = regexp.MustCompile(`(?i)^-\s*e?\s*\d`)
	seasonFolderRegex  = regexp.MustCompile(`(?i)^(season|series|staffel|saison)?[\s._-]*s?\d{1,2}$|^specials$`)
	seasonTokenRegex   = regexp.MustCompile(`(?i)^(s\d{1,2}|season)$`)
	parenBlockRegex    = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]`)
	titleSplitRegex    = regexp.MustCompile(`[\s._]+`)
)

// FileExists is the read-only existence check the parser and planner use
type FileExists func(path string) bool

// OSFileExists stats the path on the local filesystem
func OSFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SameFile reports whether two paths name one file on disk
type SameFile func(a, b string) bool

// OSSameFile compares device and inode. Two spellings of a path only match
// on a case-insensitive filesystem.
func OSSameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// ParsedFilename is what one video filename tells us
type ParsedFilename struct {
	Path          string
	Season        int
	Episodes      []int
	ShowGuess     string
	ExistingTitle string
	SubtitlePath  string
	MarkerEnd     int
}

// FirstEpisode returns the lowest episode number
func (p ParsedFilename) FirstEpisode() int {
	if len(p.Episodes) == 0 {
		return 0
	}
	return p.Episodes[0]
}

// IsMultiEpisode reports whether the file covers more than one episode
func (p ParsedFilename) IsMultiEpisode() bool {
	return len(p.Episodes) > 1
}

// Parser extracts season/episode markers and show guesses from filenames.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	Filter *NoiseFilter
	Exists FileExists
	// ReleaseTags adds torrent-style resolution/codec/source tags found in
	// each filename to that file's noise set
	ReleaseTags bool
	// FolderFallback guesses the show from parent directories when the
	// filename has nothing before the marker
	FolderFallback bool
}

// NewParser returns a parser using the built-in noise list plus custom tokens
func NewParser(customNoise []string, exists FileExists) *Parser {
	if exists == nil {
		exists = OSFileExists
	}
	return &Parser{
		Filter:      NewNoiseFilter(customNoise),
		Exists:      exists,
		ReleaseTags: true,
	}
}

type markerMatch struct {
	start, end int
	season     int
	episodes   []int
}

// findMarker prefers an SxxEyy marker and falls back to NxNN; within a
// pattern the leftmost match wins.
func findMarker(stem string) (markerMatch, bool) {
	for _, rx := range []*regexp.Regexp{episodeSERegex, episodeXRegex} {
		loc := rx.FindStringSubmatchIndex(stem)
		if loc == nil {
			continue
		}

		season, err := strconv.Atoi(stem[loc[4]:loc[5]])
		if err != nil {
			continue
		}
		first, err := strconv.Atoi(stem[loc[6]:loc[7]])
		if err != nil {
			continue
		}

		end := loc[3]
		var suffix string
		if loc[8] >= 0 {
			suffix = stem[loc[8]:loc[9]]
		}
		// 1x02x264 is an episode followed by a codec tag
		if rx == episodeXRegex {
			if cut := codecSuffixRegex.FindStringIndex(suffix); cut != nil {
				suffix = suffix[:cut[0]]
				end = loc[8] + cut[0]
			}
		}

		return markerMatch{
			start:    loc[2],
			end:      end,
			season:   season,
			episodes: expandEpisodes(first, suffix),
		}, true
	}
	return markerMatch{}, false
}

// expandEpisodes turns the text after the first episode number into the
// full list. A hyphen before the last number makes it a range.
func expandEpisodes(first int, suffix string) []int {
	episodes := []int{first}
	if suffix == "" {
		return episodes
	}

	nums := episodeNumberRegex.FindAllStringIndex(suffix, -1)
	for i, loc := range nums {
		n, err := strconv.Atoi(suffix[loc[0]:loc[1]])
		if err != nil {
			continue
		}

		prev := episodes[len(episodes)-1]
		isLast := i == len(nums)-1
		isRange := isLast && len(nums) == 1 && rangeSepRegex.MatchString(strings.TrimLeft(suffix[:loc[1]], " ._"))
		if isRange && n > prev && n-prev <= maxEpisodeSpan {
			for e := prev + 1; e <= n; e++ {
				episodes = append(episodes, e)
			}
			continue
		}
		episodes = append(episodes, n)
	}

	return uniqueSorted(episodes)
}

func uniqueSorted(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Parse reads one video path. The boolean is false when the name carries
// no season/episode marker; that is a skip, not an error.
func (p *Parser) Parse(path string) (ParsedFilename, bool) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	m, ok := findMarker(stem)
	if !ok {
		return ParsedFilename{}, false
	}

	filter := p.Filter
	if filter == nil {
		filter = NewNoiseFilter(nil)
	}
	if p.ReleaseTags {
		if extra := ReleaseNoise(base); len(extra) > 0 {
			filter = filter.WithExtra(extra)
		}
	}

	parsed := ParsedFilename{
		Path:      path,
		Season:    m.season,
		Episodes:  m.episodes,
		ShowGuess: strings.Join(filter.Filter(Tokenize(stem[:m.start])), " "),
		MarkerEnd: m.end,
	}
	parsed.ExistingTitle = existingTitle(stem[m.end:], filter)

	if parsed.ShowGuess == "" && p.FolderFallback {
		parsed.ShowGuess = folderGuess(path, filter)
	}

	parsed.SubtitlePath = p.findSubtitle(path)

	return parsed, true
}

// findSubtitle looks for <stem><ext> next to the video
func (p *Parser) findSubtitle(path string) string {
	exists := p.Exists
	if exists == nil {
		exists = OSFileExists
	}
	stemPath := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range SubtitleExts {
		candidate := stemPath + ext
		if candidate != path && exists(candidate) {
			return candidate
		}
	}
	return ""
}

// folderGuess falls back to the nearest parent directory that is not a
// season folder, for layouts like "Show/Season 1/S01E02.mkv".
func folderGuess(path string, filter *NoiseFilter) string {
	dir := filepath.Dir(path)
	for i := 0; i < 2; i++ {
		name := filepath.Base(dir)
		if name == "." || name == string(filepath.Separator) || name == "" {
			return ""
		}
		if !seasonFolderRegex.MatchString(strings.TrimSpace(name)) {
			var kept []string
			for _, tok := range filter.Filter(Tokenize(name)) {
				if !seasonTokenRegex.MatchString(tok) {
					kept = append(kept, tok)
				}
			}
			return strings.Join(kept, " ")
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// existingTitle pulls an episode title out of the text after the marker,
// stopping at the first release tag.
func existingTitle(tail string, filter *NoiseFilter) string {
	tail = strings.TrimLeft(tail, " -._")
	tail = parenBlockRegex.ReplaceAllString(tail, "")

	var words []string
	for _, w := range titleSplitRegex.Split(tail, -1) {
		if w == "" {
			continue
		}
		if isReleaseWord(w, filter) {
			break
		}
		words = append(words, w)
	}

	title := strings.Trim(strings.Join(words, " "), " -._")
	return collapseSpaceRgx.ReplaceAllString(title, " ")
}

func isReleaseWord(w string, filter *NoiseFilter) bool {
	if filter.IsNoise(w) {
		return true
	}
	// "x264-GROUP" style words
	for _, part := range Tokenize(w) {
		if filter.IsNoise(part) {
			return true
		}
	}
	return false
}
