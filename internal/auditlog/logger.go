// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auditlog writes the append-only step trace of a search session.
// One structured log file is written per session; entries are JSON lines a
// human can still read. Logging failures never propagate to the caller: a
// failed write must not abort the search.
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// summaryLimit caps the result summary stored per step.
const summaryLimit = 400

// Logger records agent steps for one session. A nil *Logger is valid and
// discards everything, so callers can run without a sink.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	log    zerolog.Logger
	path   string
	lastTS time.Time
}

// New creates the session log file <dir>/session-<id>.log and returns a
// Logger writing to it. When console is true entries are echoed to stderr
// in zerolog's console format.
func New(dir, sessionID string, console bool) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "session-"+sessionID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening session log %s: %w", path, err)
	}

	var w zerolog.LevelWriter = zerolog.MultiLevelWriter(f)
	if console {
		w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	l := &Logger{
		file: f,
		log:  zerolog.New(w).With().Str("session", sessionID).Logger(),
		path: path,
	}
	l.log.Info().Time("ts", time.Now()).Msg("session started")
	return l, nil
}

// Path returns the session log file path, or "" for a nil logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends one agent step. It never returns an error; write failures
// are swallowed so the orchestrator keeps running.
func (l *Logger) Record(step types.AgentStep) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	// Keep timestamps monotonic even if the wall clock steps backwards.
	ts := step.Timestamp
	if ts.Before(l.lastTS) {
		ts = l.lastTS
	}
	l.lastTS = ts

	args := step.Arguments
	if len(args) == 0 {
		args = []byte("{}")
	}

	l.log.Info().
		Int("step", step.Index).
		Str("tool", step.Tool).
		RawJSON("arguments", args).
		Bool("is_error", step.IsError).
		Time("ts", ts).
		Msg(truncate(step.ResultSummary, summaryLimit))
}

// Event appends a session-level marker (start, completion, failure).
func (l *Logger) Event(name, detail string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Info().Str("event", name).Time("ts", time.Now()).Msg(truncate(detail, summaryLimit))
}

// Close flushes and closes the session file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
