// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package intent classifies user text into a coarse execution branch and
// decides whether a write request carries enough detail to be generated.
// Both checks are pure keyword heuristics with no I/O.
package intent

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Intent is the execution branch a request is eligible for.
type Intent string

const (
	Unknown Intent = "unknown"
	Read    Intent = "read"
	Write   Intent = "write"
)

// writeKeywords mark scheduling or modification requests. Matched as substrings
// of the lower-cased text so "booking" and "rescheduled" count.
var writeKeywords = []string{
	"book", "appointment", "schedule", "reschedule", "edit", "change", "update", "cancel",
	"patient", "time:", "reason:",
}

var (
	temporalWords = map[string]bool{
		"at": true, "on": true, "am": true, "pm": true,
		"today": true, "tomorrow": true, "tonight": true, "noon": true, "midnight": true, "morning": true,
		"afternoon": true, "evening": true, "next": true,
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true, "saturday": true, "sunday": true,
		"january": true, "february": true, "march": true, "april": true, "june": true, "july": true,
		"august": true, "september": true, "october": true, "november": true, "december": true,
	}
	reWord      = regexp.MustCompile(`[a-z0-9:]+`)
	reYear      = regexp.MustCompile(`^20\d\d$`)
	reClock     = regexp.MustCompile(`^\d{1,2}(:\d{2})?(am|pm)$|^\d{1,2}:\d{2}$`)
	reSlashDate = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(/\d{2,4})?\b`)
	reDay       = regexp.MustCompile(`^\d{1,2}(st|nd|rd|th)?$`)
)

// Classify maps text to Write when it mentions a scheduling keyword and to
// Read otherwise. Empty text is Read.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, k := range writeKeywords {
		if strings.Contains(lower, k) {
			return Write
		}
	}
	return Read
}

// HasTemporalMarker reports whether text names a date or time.
func HasTemporalMarker(text string) bool {
	lower := strings.ToLower(text)
	if reSlashDate.MatchString(lower) {
		return true
	}
	words := reWord.FindAllString(lower, -1)
	for i, w := range words {
		if temporalWords[w] || reYear.MatchString(w) || reClock.MatchString(w) {
			return true
		}
		if w == "may" && nextToDay(words, i) {
			return true
		}
	}
	return false
}

// nextToDay reports whether a day number such as "3" or "3rd" sits beside
// words[i]. "May" counts as a month only then.
func nextToDay(words []string, i int) bool {
	return (i > 0 && reDay.MatchString(words[i-1])) ||
		(i+1 < len(words) && reDay.MatchString(words[i+1]))
}

// HasMinimumFields reports whether a request may proceed to generation.
// Only writes are checked; they need a temporal marker.
func HasMinimumFields(text string, in Intent) bool {
	if in != Write {
		return true
	}
	return HasTemporalMarker(text)
}

// Classifier wraps Classify and records each decision.
type Classifier struct {
	log *zap.Logger
}

// NewClassifier creates a Classifier logging to logger.
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{log: logger.Named("classifier")}
}

// Classify classifies text and logs the decision.
func (c *Classifier) Classify(text string) Intent {
	in := Classify(text)
	c.log.Info("classified intent", zap.String("intent", string(in)))
	return in
}

// HasMinimumFields applies the completeness guard and logs a short-circuit.
func (c *Classifier) HasMinimumFields(text string, in Intent) bool {
	ok := HasMinimumFields(text, in)
	if !ok {
		c.log.Info("missing time information, skipping query generation")
	}
	return ok
}
