package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/ezrename/internal/engine"
	"github.com/Nomadcxx/ezrename/internal/lookup"
)

// ErrPickerAborted is returned when the user quits before answering every
// ambiguous show. Decisions made so far are still returned.
var ErrPickerAborted = errors.New("show selection aborted")

// CandidateItem is one show in the picker list
type CandidateItem struct {
	Candidate lookup.ShowCandidate
}

func (i CandidateItem) Title() string { return i.Candidate.Name }
func (i CandidateItem) Description() string {
	var parts []string
	if y := i.Candidate.Year(); y != "" {
		parts = append(parts, "premiered "+y)
	}
	if i.Candidate.Network != "" {
		parts = append(parts, i.Candidate.Network)
	}
	parts = append(parts, "id "+i.Candidate.ID)
	return strings.Join(parts, " · ")
}
func (i CandidateItem) FilterValue() string { return i.Candidate.Name }

// PickerModel walks the user through each ambiguous guess in turn
type PickerModel struct {
	queue     []engine.AmbiguousShow
	idx       int
	list      list.Model
	decisions engine.Decisions
	aborted   bool
	width     int
	height    int
}

func newDelegate() list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(Colors.Background).
		Background(Colors.Accent).
		Bold(true)
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().
		Foreground(Colors.Background).
		Background(Colors.AccentDeep)
	delegate.Styles.NormalTitle = lipgloss.NewStyle().
		Foreground(Colors.Foreground)
	delegate.Styles.NormalDesc = lipgloss.NewStyle().
		Foreground(Colors.Muted)
	return delegate
}

func newCandidateList(amb engine.AmbiguousShow, width, height int) list.Model {
	items := make([]list.Item, len(amb.Candidates))
	for i, c := range amb.Candidates {
		items[i] = CandidateItem{Candidate: c}
	}

	l := list.New(items, newDelegate(), width, height)
	l.Title = fmt.Sprintf("WHICH SHOW IS %q?", amb.Guess)
	l.Styles.Title = TitleStyle
	l.SetShowHelp(false)
	return l
}

// NewPickerModel creates a picker over every ambiguous guess
func NewPickerModel(ambiguous []engine.AmbiguousShow) PickerModel {
	m := PickerModel{
		queue:     ambiguous,
		decisions: engine.Decisions{},
		width:     80,
		height:    20,
	}
	if len(ambiguous) > 0 {
		m.list = newCandidateList(ambiguous[0], m.width-4, m.listHeight())
	}
	return m
}

func (m PickerModel) listHeight() int {
	// header (2) + files line (2) + footer (2)
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	return h
}

func (m PickerModel) Init() tea.Cmd {
	if m.Done() {
		return tea.Quit
	}
	return nil
}

// Done reports whether every guess has been answered or skipped
func (m PickerModel) Done() bool {
	return m.idx >= len(m.queue)
}

// Decisions returns the picks so far, keyed by guess
func (m PickerModel) Decisions() engine.Decisions {
	return m.decisions
}

// Aborted reports whether the user quit early
func (m PickerModel) Aborted() bool {
	return m.aborted
}

// Current returns the guess being asked about
func (m PickerModel) Current() (engine.AmbiguousShow, bool) {
	if m.Done() {
		return engine.AmbiguousShow{}, false
	}
	return m.queue[m.idx], true
}

func (m PickerModel) advance() (tea.Model, tea.Cmd) {
	m.idx++
	if m.Done() {
		return m, tea.Quit
	}
	m.list = newCandidateList(m.queue[m.idx], m.width-4, m.listHeight())
	return m, nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.Done() {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit

		case "enter":
			item, ok := m.list.SelectedItem().(CandidateItem)
			if !ok {
				return m, nil
			}
			m.decisions.Set(m.queue[m.idx].Guess, item.Candidate.ID)
			return m.advance()

		case "s":
			return m.advance()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, m.listHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	amb, ok := m.Current()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(FormatHeader(fmt.Sprintf("SHOW SELECTION %d/%d", m.idx+1, len(m.queue))))
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%d files share this guess", len(amb.Files))))
	b.WriteString("\n")
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(FormatFooter(
		FormatKeybinding("enter", "choose"),
		FormatKeybinding("s", "skip"),
		FormatKeybinding("/", "filter"),
		FormatKeybinding("q", "quit"),
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// PickShows runs the picker full screen and returns the decisions made
func PickShows(ambiguous []engine.AmbiguousShow, opts ...tea.ProgramOption) (engine.Decisions, error) {
	if len(ambiguous) == 0 {
		return engine.Decisions{}, nil
	}

	final, err := tea.NewProgram(NewPickerModel(ambiguous), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run show picker: %w", err)
	}

	m := final.(PickerModel)
	if m.Aborted() {
		return m.Decisions(), ErrPickerAborted
	}
	return m.Decisions(), nil
}
