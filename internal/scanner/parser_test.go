package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func noFiles(string) bool { return false }

func filesIn(paths ...string) FileExists {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func plainParser(custom ...string) *Parser {
	return &Parser{Filter: NewNoiseFilter(custom), Exists: noFiles}
}

func TestParseMarkers(t *testing.T) {
	p := plainParser("GROUP")

	tests := []struct {
		file     string
		season   int
		episodes []int
		guess    string
	}{
		{"Show.Name.S01E02.1080p.x264-GROUP.mkv", 1, []int{2}, "Show Name"},
		{"show_name_s03e10_720p.mp4", 3, []int{10}, "show name"},
		{"Show Name - S01 E05 - Title.mkv", 1, []int{5}, "Show Name"},
		{"Show.Name.S1.E7.mkv", 1, []int{7}, "Show Name"},
		{"Show Name 1x02.avi", 1, []int{2}, "Show Name"},
		{"Show Name 2×11 Title.mkv", 2, []int{11}, "Show Name"},
		{"[EZTV] The.Show.S10E100.HDTV.mkv", 10, []int{100}, "The Show"},
		{"Show.S00E01.Special.mkv", 0, []int{1}, "Show"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := p.Parse(filepath.Join("/media/tv", tt.file))
			if !ok {
				t.Fatalf("expected %q to parse", tt.file)
			}
			if got.Season != tt.season {
				t.Errorf("season = %d, want %d", got.Season, tt.season)
			}
			if !reflect.DeepEqual(got.Episodes, tt.episodes) {
				t.Errorf("episodes = %v, want %v", got.Episodes, tt.episodes)
			}
			if got.ShowGuess != tt.guess {
				t.Errorf("guess = %q, want %q", got.ShowGuess, tt.guess)
			}
		})
	}
}

func TestParseMultiEpisode(t *testing.T) {
	p := plainParser()

	tests := []struct {
		file     string
		episodes []int
	}{
		{"Show.S01E01E02.mkv", []int{1, 2}},
		{"Show.S01E01-E02.mkv", []int{1, 2}},
		{"Show.S01E01-E03.mkv", []int{1, 2, 3}},
		{"Show.S01E04-05.mkv", []int{4, 5}},
		{"Show 1x02-03.mkv", []int{2, 3}},
		{"Show 1x02x03.mkv", []int{2, 3}},
		{"Show.S01E02-720p.mkv", []int{2}},
		{"Show Name 1x02 x264 GROUP.mkv", []int{2}},
		{"Show Name 1x05 - 9 Lives.mkv", []int{5}},
		{"Show Name 1x02 - 100 Days.mkv", []int{2}},
		{"Show.Name.1x02x264.mkv", []int{2}},
		{"Show.Name.S01E02 - 9 Lives.mkv", []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := p.Parse(tt.file)
			if !ok {
				t.Fatalf("expected %q to parse", tt.file)
			}
			if !reflect.DeepEqual(got.Episodes, tt.episodes) {
				t.Errorf("episodes = %v, want %v", got.Episodes, tt.episodes)
			}
			if got.IsMultiEpisode() != (len(tt.episodes) > 1) {
				t.Errorf("IsMultiEpisode = %v for %v", got.IsMultiEpisode(), got.Episodes)
			}
		})
	}
}

func TestParseSEPreferredOverX(t *testing.T) {
	p := plainParser()

	got, ok := p.Parse("Show 2x03 S01E04.mkv")
	if !ok {
		t.Fatal("expected parse")
	}
	if got.Season != 1 || got.FirstEpisode() != 4 {
		t.Errorf("expected SxxEyy marker to win, got S%dE%d", got.Season, got.FirstEpisode())
	}
}

func TestParseEarliestMarkerWins(t *testing.T) {
	p := plainParser()

	got, ok := p.Parse("Show S01E02 then S03E04.mkv")
	if !ok {
		t.Fatal("expected parse")
	}
	if got.Season != 1 || got.FirstEpisode() != 2 {
		t.Errorf("expected first marker, got S%dE%d", got.Season, got.FirstEpisode())
	}
}

func TestParseSkip(t *testing.T) {
	p := plainParser()

	for _, file := range []string{
		"Unrelated.File.txt",
		"Movie.2019.1080p.BluRay.x264.mkv",
		"Concert.1920x1080.mkv",
		"Episode 5.mkv",
		"ShowS01E02.mkv",
	} {
		if got, ok := p.Parse(file); ok {
			t.Errorf("expected %q to be skipped, got %+v", file, got)
		}
	}
}

func TestParseGuessFreeOfNoise(t *testing.T) {
	custom := []string{"GROUP", "NTb"}
	p := plainParser(custom...)

	files := []string{
		"Show.Name.2160p.WEB-DL.DDP5.1.S02E03.mkv",
		"Show Name [GROUP] 720p S02E03.mkv",
		"Show.Name.HEVC.x265.NTb.S02E03.mkv",
	}

	noise := NewNoiseFilter(custom)
	for _, file := range files {
		got, ok := p.Parse(file)
		if !ok {
			t.Fatalf("expected %q to parse", file)
		}
		if got.Season != 2 || got.FirstEpisode() != 3 {
			t.Errorf("%q: got S%dE%d", file, got.Season, got.FirstEpisode())
		}
		for _, tok := range strings.Fields(got.ShowGuess) {
			if noise.IsNoise(tok) {
				t.Errorf("%q: guess %q still contains noise token %q", file, got.ShowGuess, tok)
			}
		}
		if got.ShowGuess != "Show Name" {
			t.Errorf("%q: guess = %q, want %q", file, got.ShowGuess, "Show Name")
		}
	}
}

func TestParseSubtitleSibling(t *testing.T) {
	video := "/media/tv/Show.Name.S01E02.1080p.x264-GROUP.mkv"
	srt := "/media/tv/Show.Name.S01E02.1080p.x264-GROUP.srt"
	ass := "/media/tv/Show.Name.S01E02.1080p.x264-GROUP.ass"

	p := &Parser{Filter: NewNoiseFilter(nil), Exists: filesIn(srt, ass)}
	got, ok := p.Parse(video)
	if !ok {
		t.Fatal("expected parse")
	}
	if got.SubtitlePath != srt {
		t.Errorf("subtitle = %q, want %q", got.SubtitlePath, srt)
	}

	p.Exists = filesIn(ass)
	got, _ = p.Parse(video)
	if got.SubtitlePath != ass {
		t.Errorf("subtitle = %q, want %q", got.SubtitlePath, ass)
	}

	p.Exists = noFiles
	got, _ = p.Parse(video)
	if got.SubtitlePath != "" {
		t.Errorf("expected no subtitle, got %q", got.SubtitlePath)
	}
}

func TestParseSubtitleOnDisk(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "Show.S01E01.mkv")
	srt := filepath.Join(dir, "Show.S01E01.srt")
	for _, f := range []string{video, srt} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := NewParser(nil, nil).Parse(video)
	if !ok {
		t.Fatal("expected parse")
	}
	if got.SubtitlePath != srt {
		t.Errorf("subtitle = %q, want %q", got.SubtitlePath, srt)
	}
}

func TestParseExistingTitle(t *testing.T) {
	p := plainParser("GROUP")

	tests := []struct {
		file  string
		title string
	}{
		{"Show - S01E02 - The Pilot.mkv", "The Pilot"},
		{"Show.S01E02.The.Pilot.720p.HDTV.x264.mkv", "The Pilot"},
		{"Show.S01E02.The.Pilot.(Part.1).WEB.mkv", "The Pilot"},
		{"Show.S01E02.1080p.x264-GROUP.mkv", ""},
		{"Show.S01E02.Title.x264-GROUP.mkv", "Title"},
		{"Show Name 1x05 - 9 Lives.mkv", "9 Lives"},
		{"Show Name 1x02 - 100 Days.mkv", "100 Days"},
		{"Show Name 1x02 x264 GROUP.mkv", ""},
		{"Show.Name.1x02x264.mkv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := p.Parse(tt.file)
			if !ok {
				t.Fatal("expected parse")
			}
			if got.ExistingTitle != tt.title {
				t.Errorf("title = %q, want %q", got.ExistingTitle, tt.title)
			}
		})
	}
}

func TestParseFolderFallback(t *testing.T) {
	p := plainParser()
	p.FolderFallback = true

	tests := []struct {
		path  string
		guess string
	}{
		{"/media/tv/Breaking Bad/Season 1/S01E02.mkv", "Breaking Bad"},
		{"/media/tv/Breaking.Bad.S01.1080p/S01E02.mkv", "Breaking Bad"},
		{"/media/tv/The Wire/s01e01 - Pilot.mkv", "The Wire"},
	}

	for _, tt := range tests {
		got, ok := p.Parse(tt.path)
		if !ok {
			t.Fatalf("expected %q to parse", tt.path)
		}
		if got.ShowGuess != tt.guess {
			t.Errorf("%q: guess = %q, want %q", tt.path, got.ShowGuess, tt.guess)
		}
	}

	p.FolderFallback = false
	got, _ := p.Parse("/media/tv/The Wire/S01E01.mkv")
	if got.ShowGuess != "" {
		t.Errorf("expected empty guess without fallback, got %q", got.ShowGuess)
	}
}

func TestNewParserRecoversExample(t *testing.T) {
	p := NewParser([]string{"GROUP"}, noFiles)

	got, ok := p.Parse("/tv/Show.Name.S01E02.1080p.x264-GROUP.mkv")
	if !ok {
		t.Fatal("expected parse")
	}
	if got.ShowGuess != "Show Name" || got.Season != 1 || got.FirstEpisode() != 2 {
		t.Errorf("got %+v", got)
	}
}
