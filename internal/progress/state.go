// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package progress

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Tracker folds the events of a single request into a summary.
type Tracker struct {
	// Stages preserves the order in which states were entered
	Stages []string
	// Degraded maps a stage to the reason it degraded
	Degraded map[string]string
	// Intent is the last intent reported
	Intent string
	// Answer is set by EventFinished
	Answer string

	started  time.Time
	finished time.Time
	mu       sync.Mutex
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{Degraded: make(map[string]string)}
}

// Observe records ev. It satisfies Observer when passed as t.Observe.
func (t *Tracker) Observe(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.Intent != "" {
		t.Intent = ev.Intent
	}
	switch ev.Type {
	case EventStarted:
		t.started = ev.At
	case EventStage:
		t.Stages = append(t.Stages, ev.To)
	case EventDegraded:
		t.Degraded[ev.From] = ev.Message
	case EventFinished:
		t.Answer = ev.Message
		t.finished = ev.At
	}
}

// Done reports whether the request reached its final answer.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.finished.IsZero()
}

// HasDegraded reports whether any stage degraded.
func (t *Tracker) HasDegraded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Degraded) > 0
}

// Path returns the visited states joined by arrows.
func (t *Tracker) Path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.Stages, " → ")
}

// Elapsed returns the time between start and finish, or zero if either is missing.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() || t.finished.IsZero() {
		return 0
	}
	return t.finished.Sub(t.started)
}

// RenderState holds the spinner line state for the progress display.
type RenderState struct {
	// FrameIdx is the current animation frame index for spinners
	FrameIdx int
	// MaxLineLen tracks the maximum line length to prevent flickering
	MaxLineLen int
	mu         sync.Mutex
}

// IncrementFrame advances the animation frame index.
func (rs *RenderState) IncrementFrame() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.FrameIdx++
}

// FormatLine pads line to the longest line seen so far so a shorter update
// fully overwrites the previous one.
func (rs *RenderState) FormatLine(line string) string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	n := utf8.RuneCountInString(line)
	if n > rs.MaxLineLen {
		rs.MaxLineLen = n
	}
	if pad := rs.MaxLineLen - n; pad > 0 {
		return line + strings.Repeat(" ", pad)
	}
	return line
}
