package ui_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nomadcxx/ezrename/internal/engine"
	"github.com/Nomadcxx/ezrename/internal/lookup"
	"github.com/Nomadcxx/ezrename/internal/ui"
)

func ambiguousShows() []engine.AmbiguousShow {
	return []engine.AmbiguousShow{
		{
			Guess: "Doctor Who",
			Files: []string{"/tv/Doctor.Who.S01E01.mkv"},
			Candidates: []lookup.ShowCandidate{
				{ID: "210", Name: "Doctor Who", Premiered: "2005-03-26", Network: "BBC One"},
				{ID: "766", Name: "Doctor Who", Premiered: "1963-11-23", Network: "BBC One"},
			},
		},
		{
			Guess: "Shameless",
			Files: []string{"/tv/Shameless.S01E01.mkv"},
			Candidates: []lookup.ShowCandidate{
				{ID: "150", Name: "Shameless", Premiered: "2011-01-09"},
				{ID: "151", Name: "Shameless", Premiered: "2004-01-13"},
			},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m ui.PickerModel, keys ...string) (ui.PickerModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var ret tea.Model
		ret, cmd = m.Update(key(k))
		m = ret.(ui.PickerModel)
	}
	return m, cmd
}

func TestPickerChoosesEachGuess(t *testing.T) {
	m := ui.NewPickerModel(ambiguousShows())

	m, _ = press(t, m, "enter")
	if cur, ok := m.Current(); !ok || cur.Guess != "Shameless" {
		t.Fatalf("expected to move to the next guess, got %+v", cur)
	}

	m, cmd := press(t, m, "down", "enter")
	if !m.Done() {
		t.Fatal("picker should be done after the last guess")
	}
	if cmd == nil {
		t.Error("expected quit after the last guess")
	}

	d := m.Decisions()
	if id, _ := d.Get("doctor who"); id != "210" {
		t.Errorf("Doctor Who -> %q, want 210", id)
	}
	if id, _ := d.Get("Shameless"); id != "151" {
		t.Errorf("Shameless -> %q, want 151", id)
	}
	if m.Aborted() {
		t.Error("completed picker should not be aborted")
	}
}

func TestPickerSkip(t *testing.T) {
	m := ui.NewPickerModel(ambiguousShows())
	m, _ = press(t, m, "s", "enter")

	d := m.Decisions()
	if _, ok := d.Get("Doctor Who"); ok {
		t.Error("skipped guess should have no decision")
	}
	if _, ok := d.Get("Shameless"); !ok {
		t.Error("second guess should be decided")
	}
}

func TestPickerQuit(t *testing.T) {
	m := ui.NewPickerModel(ambiguousShows())
	m, cmd := press(t, m, "enter", "q")

	if !m.Aborted() {
		t.Error("q should abort")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if len(m.Decisions()) != 1 {
		t.Errorf("earlier decisions should be kept, got %v", m.Decisions())
	}
}

func TestPickerViewAndResize(t *testing.T) {
	m := ui.NewPickerModel(ambiguousShows())
	ret, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = ret.(ui.PickerModel)

	if m.View() == "" {
		t.Error("expected a rendered picker")
	}
}

func TestPickerEmpty(t *testing.T) {
	m := ui.NewPickerModel(nil)
	if !m.Done() {
		t.Error("empty picker should be done")
	}
	if m.Init() == nil {
		t.Error("empty picker should quit on init")
	}

	d, err := ui.PickShows(nil)
	if err != nil || len(d) != 0 {
		t.Errorf("PickShows(nil) = %v, %v", d, err)
	}
}

func TestCandidateItem(t *testing.T) {
	item := ui.CandidateItem{Candidate: lookup.ShowCandidate{ID: "210", Name: "Doctor Who", Premiered: "2005-03-26", Network: "BBC One"}}
	if item.Title() != "Doctor Who" || item.FilterValue() != "Doctor Who" {
		t.Errorf("unexpected title %q", item.Title())
	}
	if want := "premiered 2005 · BBC One · id 210"; item.Description() != want {
		t.Errorf("Description() = %q, want %q", item.Description(), want)
	}
}
