package migrations

const activityLogSchemaSQL = `
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    context TEXT NOT NULL,
    actor TEXT NOT NULL,
    operation TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '',
    outcome TEXT NOT NULL,
    error_message TEXT NOT NULL DEFAULT '',
    request_id TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL DEFAULT 0,
    metadata_json TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_activity_log_context_created
    ON activity_log(context, created_at DESC, id DESC);

CREATE INDEX IF NOT EXISTS idx_activity_log_operation
    ON activity_log(operation);
`
