// Package ui is the operator surface: a Bubble Tea progress display fed by
// an event channel, and the three serialized prompt hooks (§6.3). Workers
// publish events and block on prompt replies; they never render directly.
package ui

import "time"

// EventType classifies a progress event.
type EventType int

const (
	// EventStarted: a worker began processing an entry.
	EventStarted EventType = iota
	// EventProgress: per-asset progress within an entry.
	EventProgress
	// EventScraped: entry completed with a record (full scrape or update).
	EventScraped
	// EventMediaOnly: entry completed by filling media gaps only.
	EventMediaOnly
	// EventSkipped: the evaluator decided no work was needed.
	EventSkipped
	// EventNotFound: the Provider has no record for the entry.
	EventNotFound
	// EventFailed: entry exhausted its retries.
	EventFailed
	// EventMessage: free-form one-line notice (conflicts, warnings).
	EventMessage
)

// Event is one progress update from the engine.
type Event struct {
	Type  EventType
	Entry string

	MediaDone    int
	MediaFailed  int
	MediaMissing int
	MediaTotal   int
	CurrentMedia string

	CacheHit bool
	Err      error
	Message  string
}

// Stats is the live counters the display polls each frame.
type Stats struct {
	APICalls      int
	TotalWait     time.Duration
	RateExceeded  int
	DailyUsed     int
	DailyCap      int
	CallsPerSec   float64
	ActiveWorkers int
}

// StatsFunc supplies Stats on demand.
type StatsFunc func() Stats
