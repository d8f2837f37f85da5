package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/ayatskii/panel-sub002/internal/db"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
	// Matches the strftime default on activity_log.created_at.
	activityTimestampLayout = "2006-01-02T15:04:05.000Z"
)

type SQLiteLogger struct {
	db *sql.DB
}

func NewSQLiteLogger(db *sql.DB) (*SQLiteLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &SQLiteLogger{db: db}, nil
}

func (l *SQLiteLogger) Log(ctx context.Context, entry Entry) error {
	operation := strings.TrimSpace(entry.Operation)
	if operation == "" {
		return fmt.Errorf("operation is required")
	}
	contextName := strings.TrimSpace(entry.Context)
	if contextName == "" {
		return fmt.Errorf("context is required")
	}
	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		actor = "local"
	}
	outcome := entry.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	metadataJSON := "{}"
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		metadataJSON = string(b)
	}

	q := dbpkg.NewQueries(l.db)
	_, err := q.InsertActivity(ctx, dbpkg.ActivityRow{
		Context:      contextName,
		Actor:        actor,
		Operation:    operation,
		Tags:         strings.Join(entry.Tags, ","),
		Outcome:      outcome,
		ErrorMessage: entry.Error,
		RequestID:    entry.RequestID,
		DurationMS:   entry.Duration.Milliseconds(),
		MetadataJSON: metadataJSON,
	})
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (l *SQLiteLogger) Query(ctx context.Context, filter Filter) (QueryResult, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	params := dbpkg.ListActivityParams{
		Context:   filter.Context,
		Operation: filter.Operation,
		Limit:     limit,
		Offset:    offset,
	}
	if filter.Since != nil {
		params.Since = filter.Since.UTC().Format(activityTimestampLayout)
	}

	rows, total, err := dbpkg.NewQueries(l.db).ListActivity(ctx, params)
	if err != nil {
		return QueryResult{}, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		ts, err := parseActivityTimestamp(row.CreatedAt)
		if err != nil {
			return QueryResult{}, fmt.Errorf("parse activity timestamp %q: %w", row.CreatedAt, err)
		}
		e := Entry{
			ID:        row.ID,
			Context:   row.Context,
			Actor:     row.Actor,
			Timestamp: ts,
			Operation: row.Operation,
			Outcome:   row.Outcome,
			Error:     row.ErrorMessage,
			RequestID: row.RequestID,
			Duration:  time.Duration(row.DurationMS) * time.Millisecond,
		}
		if row.Tags != "" {
			e.Tags = strings.Split(row.Tags, ",")
		}
		if raw := strings.TrimSpace(row.MetadataJSON); raw != "" && raw != "{}" {
			meta := map[string]any{}
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				return QueryResult{}, fmt.Errorf("parse activity metadata json: %w", err)
			}
			e.Metadata = meta
		}
		entries = append(entries, e)
	}
	return QueryResult{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}

func parseActivityTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(activityTimestampLayout, raw); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
