package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a state key has no value.
var ErrNotFound = errors.New("not found")

type queryer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db queryer
}

func NewQueries(db queryer) *Queries {
	return &Queries{db: db}
}

func (q *Queries) GetState(ctx context.Context, contextName, key string) (StateRow, error) {
	var out StateRow
	err := q.db.QueryRowContext(ctx, `SELECT context, key, value, updated_at FROM client_state WHERE context = ? AND key = ?`, contextName, key).
		Scan(&out.Context, &out.Key, &out.Value, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return out, fmt.Errorf("get state %s/%s: %w", contextName, key, ErrNotFound)
	}
	if err != nil {
		return out, fmt.Errorf("get state %s/%s: %w", contextName, key, err)
	}
	return out, nil
}

func (q *Queries) PutState(ctx context.Context, contextName, key, value string) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO client_state(context, key, value) VALUES(?, ?, ?)
ON CONFLICT(context, key) DO UPDATE SET
    value = excluded.value,
    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`, contextName, key, value)
	if err != nil {
		return fmt.Errorf("put state %s/%s: %w", contextName, key, err)
	}
	return nil
}

func (q *Queries) DeleteState(ctx context.Context, contextName, key string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM client_state WHERE context = ? AND key = ?`, contextName, key); err != nil {
		return fmt.Errorf("delete state %s/%s: %w", contextName, key, err)
	}
	return nil
}

func (q *Queries) InsertActivity(ctx context.Context, in ActivityRow) (int64, error) {
	metadata := strings.TrimSpace(in.MetadataJSON)
	if metadata == "" {
		metadata = "{}"
	}
	res, err := q.db.ExecContext(ctx, `
INSERT INTO activity_log(context, actor, operation, tags, outcome, error_message, request_id, duration_ms, metadata_json)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Context, in.Actor, in.Operation, in.Tags, in.Outcome, in.ErrorMessage, in.RequestID, in.DurationMS, metadata)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert activity: read last insert id: %w", err)
	}
	return id, nil
}

// ListActivity returns rows newest first plus the total matching count.
func (q *Queries) ListActivity(ctx context.Context, p ListActivityParams) ([]ActivityRow, int, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if v := strings.TrimSpace(p.Context); v != "" {
		where = append(where, "context = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(p.Operation); v != "" {
		where = append(where, "operation = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(p.Since); v != "" {
		where = append(where, "created_at >= ?")
		args = append(args, v)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT id, context, actor, operation, tags, outcome, error_message, request_id, duration_ms, metadata_json, created_at
FROM activity_log
WHERE `+clause+`
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []ActivityRow{}
	for rows.Next() {
		var r ActivityRow
		if err := rows.Scan(&r.ID, &r.Context, &r.Actor, &r.Operation, &r.Tags, &r.Outcome, &r.ErrorMessage, &r.RequestID, &r.DurationMS, &r.MetadataJSON, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activity: %w", err)
	}
	return out, total, nil
}

// DeleteContext drops every state value and journal row recorded for a context.
func (q *Queries) DeleteContext(ctx context.Context, contextName string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM client_state WHERE context = ?`, contextName); err != nil {
		return fmt.Errorf("delete context state: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM activity_log WHERE context = ?`, contextName); err != nil {
		return fmt.Errorf("delete context activity: %w", err)
	}
	return nil
}
