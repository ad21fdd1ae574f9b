// Package alerts builds the scam alert feed: three simulated source providers,
// an aggregator that merges and ranks their output, and a static fallback list.
package alerts

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Alert is one reported security or scam incident.
type Alert struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AmountLost  string    `json:"amount_lost"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	Severity    Severity  `json:"severity"`
	Link        string    `json:"link"`
}

func (a Alert) validate() error {
	if a.Title == "" {
		return fmt.Errorf("alert from %q has empty title", a.Source)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("alert %q has invalid severity %q", a.Title, a.Severity)
	}
	return nil
}

func minutesAgo(now time.Time, minutes int) time.Time {
	return now.Add(-time.Duration(minutes) * time.Minute)
}
