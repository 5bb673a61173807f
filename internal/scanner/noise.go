package scanner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cehbz/torrentname"
)

// defaultNoiseTokens are release tags that never belong in a show name
var defaultNoiseTokens = []string{
	// resolutions
	"1080p", "2160p", "1440p", "720p", "480p", "4k", "uhd",
	// sources
	"web", "webrip", "webdl", "web-dl", "hdrip", "bdrip", "brrip",
	"bluray", "blu-ray", "hdtv", "dvdrip", "dvdscr", "remux",
	// streaming services
	"amzn", "amazon", "nf", "netflix", "dsnp", "disney", "hmax", "hbo",
	"paramount", "atvp", "appletv", "appletv+", "itv", "bbc", "hulu", "max",
	// edition flags
	"extended", "proper", "repack", "internal", "imax",
	// video codecs
	"x264", "h264", "x265", "h265", "hevc", "xvid", "av1", "10bit",
	// audio
	"aac", "ddp5", "ddp5.1", "dd5.1", "eac3", "dts", "truehd", "atmos",
	// release groups
	"galaxytv", "eztv", "rartv", "rarbg", "ntb", "tbs", "sva",
	// language and subtitle tags
	"chs", "chs.eng", "sub", "subs", "dub", "dual", "multi",
}

var (
	resolutionTokenRegex = regexp.MustCompile(`(?i)^\d{3,4}[pi]$`)
	bracketTokenRegex    = regexp.MustCompile(`^\[.*\]$`)
	tokenRegex           = regexp.MustCompile(`\[[^\]]*\]|[^\s._\-\[\]()]+`)
	tokenListSplitRegex  = regexp.MustCompile(`[,\s]+`)
	delimiterSplitRegex  = regexp.MustCompile(`[\s._\-]+`)
)

// NoiseFilter removes release noise from token sequences. The zero value
// filters nothing but brackets and resolutions; use NewNoiseFilter.
type NoiseFilter struct {
	single   map[string]struct{}
	compound [][]string
}

// NewNoiseFilter returns the built-in token list united with custom tokens
func NewNoiseFilter(custom []string) *NoiseFilter {
	nf := &NoiseFilter{single: make(map[string]struct{})}
	nf.add(defaultNoiseTokens)
	nf.add(custom)
	return nf
}

// WithExtra returns a copy of the filter that also treats tokens as noise
func (nf *NoiseFilter) WithExtra(tokens []string) *NoiseFilter {
	out := &NoiseFilter{single: make(map[string]struct{}, len(nf.single)+len(tokens))}
	for tok := range nf.single {
		out.single[tok] = struct{}{}
	}
	out.compound = append(out.compound, nf.compound...)
	out.add(tokens)
	return out
}

func (nf *NoiseFilter) add(tokens []string) {
	for _, raw := range tokens {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok == "" {
			continue
		}
		nf.single[tok] = struct{}{}

		// tags like "web-dl" or "dd5.1" are split by Tokenize, so also
		// match them as a run of consecutive tokens
		parts := delimiterSplitRegex.Split(tok, -1)
		parts = compact(parts)
		if len(parts) > 1 {
			nf.compound = append(nf.compound, parts)
		}
	}
	sort.SliceStable(nf.compound, func(i, j int) bool {
		return len(nf.compound[i]) > len(nf.compound[j])
	})
}

// Tokens returns the filter's single-token set, sorted
func (nf *NoiseFilter) Tokens() []string {
	out := make([]string, 0, len(nf.single))
	for tok := range nf.single {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// IsNoise reports whether one token is noise on its own
func (nf *NoiseFilter) IsNoise(token string) bool {
	if token == "" {
		return true
	}
	if bracketTokenRegex.MatchString(token) || resolutionTokenRegex.MatchString(token) {
		return true
	}
	if nf == nil {
		return false
	}
	_, ok := nf.single[strings.ToLower(token)]
	return ok
}

// Filter returns tokens with every noise token removed. Filtering runs
// until nothing else can be removed, so filtering its own output is a no-op.
func (nf *NoiseFilter) Filter(tokens []string) []string {
	out := append([]string(nil), tokens...)
	for {
		next := nf.filterOnce(out)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

func (nf *NoiseFilter) filterOnce(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if n := nf.compoundAt(tokens, i); n > 0 {
			i += n
			continue
		}
		if !nf.IsNoise(tokens[i]) {
			out = append(out, tokens[i])
		}
		i++
	}
	return out
}

func (nf *NoiseFilter) compoundAt(tokens []string, i int) int {
	if nf == nil {
		return 0
	}
	for _, seq := range nf.compound {
		if i+len(seq) > len(tokens) {
			continue
		}
		matched := true
		for j, part := range seq {
			if strings.ToLower(tokens[i+j]) != part {
				matched = false
				break
			}
		}
		if matched {
			return len(seq)
		}
	}
	return 0
}

// Tokenize splits a filename fragment on dots, underscores, hyphens,
// whitespace and parentheses. Square-bracket groups stay whole.
func Tokenize(s string) []string {
	return tokenRegex.FindAllString(s, -1)
}

// ParseTokenList splits user input such as "GROUP, 10bit ntb" into tokens
func ParseTokenList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokenListSplitRegex.Split(s, -1) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// ReleaseNoise returns the resolution, codec and source tags a release
// name parser finds in name, lower-cased and split into tokens.
func ReleaseNoise(name string) []string {
	parsed := torrentname.Parse(name)
	if parsed == nil {
		return nil
	}

	var out []string
	for _, tag := range []string{parsed.Resolution, parsed.Codec, parsed.Source} {
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "?" {
			continue
		}
		out = append(out, strings.ToLower(tag))
	}
	return out
}

func compact(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
