package audit

import (
	"context"
	"time"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Entry is one settled mutation recorded in the local activity journal.
type Entry struct {
	ID        int64          `json:"id" yaml:"id"`
	Context   string         `json:"context" yaml:"context"`
	Actor     string         `json:"actor" yaml:"actor"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Operation string         `json:"operation" yaml:"operation"`
	Tags      []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Outcome   string         `json:"outcome" yaml:"outcome"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
	RequestID string         `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	Duration  time.Duration  `json:"durationMs" yaml:"durationMs"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type Filter struct {
	Context   string
	Operation string
	Since     *time.Time
	Limit     int
	Offset    int
}

type QueryResult struct {
	Entries []Entry
	Total   int
	Limit   int
	Offset  int
}

type Logger interface {
	Log(ctx context.Context, entry Entry) error
	Query(ctx context.Context, filter Filter) (QueryResult, error)
}
