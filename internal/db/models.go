package db

type StateRow struct {
	Context   string
	Key       string
	Value     string
	UpdatedAt string
}

type ActivityRow struct {
	ID           int64
	Context      string
	Actor        string
	Operation    string
	Tags         string
	Outcome      string
	ErrorMessage string
	RequestID    string
	DurationMS   int64
	MetadataJSON string
	CreatedAt    string
}

type ListActivityParams struct {
	Context   string
	Operation string
	Since     string
	Limit     int
	Offset    int
}
