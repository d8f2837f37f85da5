// Package migrations holds the schema of the local state database. Each
// migration's version is its position in the list, starting at 1.
package migrations

type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

var ordered = []struct{ name, sql string }{
	{"client_state", clientStateSchemaSQL},
	{"activity_log", activityLogSchemaSQL},
}

// All returns the migrations in the order they must run.
func All() []Migration {
	out := make([]Migration, len(ordered))
	for i, m := range ordered {
		out[i] = Migration{Version: i + 1, Name: m.name, UpSQL: m.sql}
	}
	return out
}
