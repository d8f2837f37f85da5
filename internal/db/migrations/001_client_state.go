package migrations

// client_state persists small values per context (the refresh token lives here).
const clientStateSchemaSQL = `
CREATE TABLE IF NOT EXISTS client_state (
    context TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    PRIMARY KEY (context, key)
);
`
