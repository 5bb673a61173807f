package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Nomadcxx/ezrename/internal/engine"
	"github.com/Nomadcxx/ezrename/internal/scanner"
)

func TestScanningRunsScanAndForwardsProgress(t *testing.T) {
	want := &engine.Result{Stats: engine.Stats{Files: 3}}
	scan := func(ctx context.Context, ch chan<- scanner.ScanProgress) (*engine.Result, error) {
		pr := scanner.NewProgressReporter(ch, "scan")
		pr.Start(3, "starting")
		return want, nil
	}

	m := NewScanningModel(context.Background(), scan)
	done := m.runScan()

	msg := m.waitForProgress()
	p, ok := msg.(scanner.ScanProgress)
	if !ok || p.Message != "starting" {
		t.Fatalf("expected forwarded progress, got %#v", msg)
	}
	if m.waitForProgress() != nil {
		t.Error("channel should be closed after the scan returns")
	}

	ret, cmd := m.Update(done)
	final := ret.(ScanningModel)
	res, err := final.Result()
	if err != nil || res != want {
		t.Errorf("Result() = %v, %v", res, err)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("finished scan without alert should quit")
	}
}

func TestScanningWaitsForAlertDismissal(t *testing.T) {
	m := NewScanningModel(context.Background(), nil)
	m.SetSize(100, 30)

	ret, _ := m.Update(scanner.ScanProgress{Severity: "critical", Message: "boom"})
	ret, cmd := ret.(ScanningModel).Update(scanDoneMsg{err: errors.New("boom")})
	if cmd != nil {
		t.Fatal("should wait for the alert to be dismissed")
	}

	ret, cmd = ret.(ScanningModel).Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("dismissing the alert after completion should quit")
	}
	if _, err := ret.(ScanningModel).Result(); err == nil {
		t.Error("scan error should be kept")
	}
}
