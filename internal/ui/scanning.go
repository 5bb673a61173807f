package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nomadcxx/ezrename/internal/engine"
	"github.com/Nomadcxx/ezrename/internal/scanner"
)

// ScanFunc runs a scan, reporting on progress. The channel is closed by
// the model once the function returns.
type ScanFunc func(ctx context.Context, progress chan<- scanner.ScanProgress) (*engine.Result, error)

type scanDoneMsg struct {
	result *engine.Result
	err    error
}

// ScanningModel shows live progress while a scan runs. Error and critical
// updates raise an alert that stays until dismissed with Enter.
type ScanningModel struct {
	scan   ScanFunc
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan scanner.ScanProgress

	width        int
	height       int
	percent      float64
	currentPhase string
	message      string
	alert        string

	done   bool
	result *engine.Result
	err    error
}

// NewScanningModel creates a new scanning screen
func NewScanningModel(parent context.Context, scan ScanFunc) ScanningModel {
	ctx, cancel := context.WithCancel(parent)
	return ScanningModel{
		scan:   scan,
		ctx:    ctx,
		cancel: cancel,
		ch:     make(chan scanner.ScanProgress, 64),
	}
}

// Init starts the scan
func (m ScanningModel) Init() tea.Cmd {
	return tea.Batch(m.runScan, m.waitForProgress)
}

func (m ScanningModel) runScan() tea.Msg {
	res, err := m.scan(m.ctx, m.ch)
	close(m.ch)
	return scanDoneMsg{result: res, err: err}
}

func (m ScanningModel) waitForProgress() tea.Msg {
	p, ok := <-m.ch
	if !ok {
		return nil
	}
	return p
}

// SetSize sets the screen size without a WindowSizeMsg
func (m *ScanningModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// AlertMessage returns the alert being shown, or ""
func (m ScanningModel) AlertMessage() string {
	return m.alert
}

// Result returns the scan outcome once finished
func (m ScanningModel) Result() (*engine.Result, error) {
	return m.result, m.err
}

func (m ScanningModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			if m.err == nil && !m.done {
				m.err = context.Canceled
			}
			return m, tea.Quit
		case "enter":
			if m.alert != "" {
				m.alert = ""
				if m.done {
					return m, tea.Quit
				}
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case scanner.ScanProgress:
		m.percent = msg.Percentage
		m.currentPhase = msg.Stage
		m.message = msg.Message
		if msg.Severity == "error" || msg.Severity == "critical" {
			m.alert = msg.Message
		}
		return m, m.waitForProgress

	case scanDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		if m.alert != "" {
			return m, nil
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the scanning screen
func (m ScanningModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var content strings.Builder
	content.WriteString(FormatASCIIHeader())
	content.WriteString("\n\n")

	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(m.width - 8)

	content.WriteString(center.Bold(true).Foreground(Colors.Accent).Render("SCANNING"))
	content.WriteString("\n\n")

	if m.currentPhase != "" {
		content.WriteString(center.Foreground(Colors.Info).Render(strings.ToUpper(m.currentPhase) + "  " + m.message))
		content.WriteString("\n\n")
	}

	filled := int(m.percent / 2)
	if filled > 50 {
		filled = 50
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 50-filled)
	content.WriteString(center.Foreground(Colors.Accent).Render(fmt.Sprintf("[%s] %.1f%%", bar, m.percent)))
	content.WriteString("\n\n")

	if m.alert != "" {
		alertBox := lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Error).
			Padding(0, 1)
		content.WriteString(alertBox.Render(FormatStatusFail(m.alert) + "\n" + MutedStyle.Render("Press Enter to dismiss")))
		content.WriteString("\n\n")
	}

	content.WriteString(MutedStyle.Render("Press Ctrl+C to cancel") + "\n")

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width - 4).Render(content.String())
}

// RunScan runs scan behind the progress screen and returns its result
func RunScan(ctx context.Context, scan ScanFunc, opts ...tea.ProgramOption) (*engine.Result, error) {
	model := NewScanningModel(ctx, scan)
	defer model.cancel()

	final, err := tea.NewProgram(model, opts...).Run()

	// an interrupted scan may still be sending; let it finish
	go func() {
		for range model.ch {
		}
	}()

	if err != nil {
		return nil, fmt.Errorf("failed to run scan screen: %w", err)
	}
	return final.(ScanningModel).Result()
}
