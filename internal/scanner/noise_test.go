package scanner

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Show.Name.1080p", []string{"Show", "Name", "1080p"}},
		{"Show_Name - x264", []string{"Show", "Name", "x264"}},
		{"[Some Group] Show Name", []string{"[Some Group]", "Show", "Name"}},
		{"Doctor.Who.(2005)", []string{"Doctor", "Who", "2005"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNoiseFilterFilter(t *testing.T) {
	nf := NewNoiseFilter([]string{"GROUP"})

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"resolution and codec", []string{"Show", "Name", "1080p", "x264", "GROUP"}, []string{"Show", "Name"}},
		{"case insensitive", []string{"Show", "HEVC", "WebRip"}, []string{"Show"}},
		{"bracket group", []string{"[EZTV]", "Show"}, []string{"Show"}},
		{"unlisted resolution shape", []string{"Show", "576i"}, []string{"Show"}},
		{"compound tag split by tokenizer", []string{"Show", "WEB", "DL", "DD5", "1"}, []string{"Show"}},
		{"all noise", []string{"720p", "hdtv"}, []string{}},
		{"nothing to remove", []string{"Breaking", "Bad"}, []string{"Breaking", "Bad"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nf.Filter(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Filter(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNoiseFilterIdempotent(t *testing.T) {
	nf := NewNoiseFilter([]string{"custom"})

	inputs := [][]string{
		Tokenize("Show.Name.2160p.WEB-DL.DDP5.1.Atmos.custom"),
		{"dd5", "x264", "1", "Show"},
		{"Show", "chs", "x265", "eng"},
		Tokenize("[GROUP] The.Show.720p"),
	}

	for _, input := range inputs {
		once := nf.Filter(input)
		twice := nf.Filter(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("filter not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestNoiseFilterCustomTokensAreUnion(t *testing.T) {
	nf := NewNoiseFilter([]string{" MyGroup ", "10BIT"})

	for _, tok := range []string{"mygroup", "MYGROUP", "10bit", "1080p", "x264"} {
		if !nf.IsNoise(tok) {
			t.Errorf("expected %q to be noise", tok)
		}
	}

	if nf.IsNoise("Show") {
		t.Error("expected Show not to be noise")
	}
}

func TestNoiseFilterWithExtraDoesNotMutate(t *testing.T) {
	base := NewNoiseFilter(nil)
	extended := base.WithExtra([]string{"Pilot"})

	if base.IsNoise("pilot") {
		t.Error("WithExtra modified the original filter")
	}
	if !extended.IsNoise("pilot") {
		t.Error("expected extended filter to treat pilot as noise")
	}
}

func TestParseTokenList(t *testing.T) {
	got := ParseTokenList("GROUP, 10bit  ntb,,group\tFoo")
	want := []string{"group", "10bit", "ntb", "foo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTokenList = %q, want %q", got, want)
	}

	if got := ParseTokenList("   "); len(got) != 0 {
		t.Errorf("expected no tokens from blank input, got %q", got)
	}
}

func TestNoiseFilterTokensSorted(t *testing.T) {
	tokens := NewNoiseFilter([]string{"zzz"}).Tokens()
	if len(tokens) == 0 {
		t.Fatal("expected built-in tokens")
	}
	for i := 1; i < len(tokens); i++ {
		if strings.Compare(tokens[i-1], tokens[i]) > 0 {
			t.Fatalf("tokens not sorted at %d: %q > %q", i, tokens[i-1], tokens[i])
		}
	}
}
