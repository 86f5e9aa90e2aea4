package store

import (
	"time"

	"github.com/abhisek/chatcompare/internal/llm"
)

// QueryOpts configures call-event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	RunUUID string    // only calls made by this run
	Model   string    // only calls to this model
	From    time.Time // timestamp >= From
}

// CallRecord is a stored model-call event.
type CallRecord struct {
	ID int64
	llm.CallEvent
}

// ModelUsage aggregates call events for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}
