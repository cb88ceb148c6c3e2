package events

import "time"

// BuildFinished is published after every daemon build, whatever the outcome.
type BuildFinished struct {
	BuildID       string        `json:"build_id"`
	Outcome       string        `json:"outcome"`
	DocumentCount int           `json:"document_count"`
	FindingCount  int           `json:"finding_count"`
	Duration      time.Duration `json:"duration"`
	Timestamp     time.Time     `json:"timestamp"`
}

// BrokenReference is published once per error-severity finding.
type BrokenReference struct {
	BuildID   string    `json:"build_id"`
	Docname   string    `json:"docname"`
	Line      int       `json:"line,omitempty"`
	Rule      string    `json:"rule"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
