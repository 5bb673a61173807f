package scanner

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ScanProgress represents real-time scan progress
type ScanProgress struct {
	Operation  string  // "scan", "apply", "restore"
	Stage      string  // "parsing", "resolving", "planning", "complete"
	Severity   string  // "progress", "debug", "info", "warn", "error", "critical"
	Current    int     // Current file/item number
	Total      int     // Total files/items
	Percentage float64 // 0-100
	Message    string  // Human-readable status

	// Statistics
	FilesProcessed    int
	ErrorsEncountered int

	// Optional list of error messages
	Errors []string

	// Timing
	StartTime      time.Time
	ElapsedSeconds int
}

// ProgressReporter helps send progress updates. A nil reporter or a nil
// channel is valid and only logs.
type ProgressReporter struct {
	ch        chan<- ScanProgress
	operation string
	stage     string
	startTime time.Time
	total     int
	current   int
	level     LogLevel

	filesProcessed    int
	errorsEncountered int
	errors            []string
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(ch chan<- ScanProgress, operation string) *ProgressReporter {
	return &ProgressReporter{
		ch:        ch,
		operation: operation,
		stage:     "scanning",
		startTime: time.Now(),
		level:     GetDefaultLogLevel(),
	}
}

// SetLogLevel overrides the default level for this reporter
func (pr *ProgressReporter) SetLogLevel(level LogLevel) {
	if pr == nil {
		return
	}
	pr.level = level
}

// Start sends initial progress with total count
func (pr *ProgressReporter) Start(total int, message string) {
	if pr == nil {
		return
	}
	pr.total = total
	pr.current = 0
	pr.emit("info", message)
}

// Update sends progress update
func (pr *ProgressReporter) Update(current int, message string) {
	if pr == nil {
		return
	}
	pr.current = current
	pr.filesProcessed = current
	pr.emit("progress", message)
}

// StageUpdate switches the reported stage
func (pr *ProgressReporter) StageUpdate(stage, message string) {
	if pr == nil {
		return
	}
	pr.stage = stage
	pr.Send("info", message)
}

// Send emits a message if its severity passes the reporter's level
func (pr *ProgressReporter) Send(severity, message string) {
	if pr == nil || !pr.level.allows(severity) {
		return
	}
	pr.emit(severity, message)
}

// SendSeverityImmediate emits regardless of level
func (pr *ProgressReporter) SendSeverityImmediate(severity, message string) {
	if pr == nil {
		return
	}
	pr.emit(severity, message)
}

// LogError records a per-item failure and reports it
func (pr *ProgressReporter) LogError(err error, message string) {
	if pr == nil {
		return
	}
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	pr.errorsEncountered++
	pr.errors = append(pr.errors, msg)
	pr.emit("error", msg)
}

// LogCritical reports a failure that stops the operation
func (pr *ProgressReporter) LogCritical(err error, message string) {
	if pr == nil {
		return
	}
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	pr.errorsEncountered++
	pr.errors = append(pr.errors, msg)
	pr.emit("critical", msg)
}

// Errors returns the messages passed to LogError and LogCritical
func (pr *ProgressReporter) Errors() []string {
	if pr == nil {
		return nil
	}
	return append([]string(nil), pr.errors...)
}

// Complete sends completion message
func (pr *ProgressReporter) Complete(message string) {
	if pr == nil {
		return
	}
	pr.stage = "complete"
	pr.current = pr.total
	pr.emit("info", message)
}

func (pr *ProgressReporter) emit(severity, message string) {
	percentage := 0.0
	if pr.total > 0 {
		percentage = (float64(pr.current) / float64(pr.total)) * 100.0
	}
	if pr.stage == "complete" {
		percentage = 100.0
	}

	switch severity {
	case "error", "critical":
		log.Error().Str("operation", pr.operation).Str("stage", pr.stage).Msg(message)
	case "warn":
		log.Warn().Str("operation", pr.operation).Str("stage", pr.stage).Msg(message)
	case "info":
		log.Info().Str("operation", pr.operation).Str("stage", pr.stage).Msg(message)
	default:
		log.Debug().Str("operation", pr.operation).Str("stage", pr.stage).Msg(message)
	}

	if pr.ch == nil {
		return
	}

	pr.ch <- ScanProgress{
		Operation:         pr.operation,
		Stage:             pr.stage,
		Severity:          severity,
		Current:           pr.current,
		Total:             pr.total,
		Percentage:        percentage,
		Message:           message,
		FilesProcessed:    pr.filesProcessed,
		ErrorsEncountered: pr.errorsEncountered,
		Errors:            append([]string(nil), pr.errors...),
		StartTime:         pr.startTime,
		ElapsedSeconds:    int(time.Since(pr.startTime).Seconds()),
	}
}
