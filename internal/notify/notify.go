// Package notify carries user-facing notifications from the layers that call
// the record store up to whoever presents them.
package notify

import (
	"sync"

	"automation-console/backend/internal/metrics"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Reporter receives notifications meant for the user.
type Reporter interface {
	Report(level Level, message string)
}

// Logger is the subset of the application logger used by LogReporter.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Notice is one recorded notification.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Recorder collects notifications so they can be returned with a response.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	next    Reporter
}

// NewRecorder creates a Recorder that also forwards to next when non-nil.
func NewRecorder(next Reporter) *Recorder {
	return &Recorder{next: next}
}

// Report records the notification.
func (r *Recorder) Report(level Level, message string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
	r.mu.Unlock()
	if r.next != nil {
		r.next.Report(level, message)
	}
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// LogReporter writes notifications to the application log.
type LogReporter struct {
	logger Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(logger Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the notification at the matching level.
func (l *LogReporter) Report(level Level, message string) {
	metrics.ObserveReport(string(level))
	switch level {
	case LevelError:
		l.logger.Error(message, "notice", level)
	case LevelWarning:
		l.logger.Warn(message, "notice", level)
	default:
		l.logger.Info(message, "notice", level)
	}
}

// Discard drops every notification.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Level, string) {}
