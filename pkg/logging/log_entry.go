package logging

// LogEntry represents a structured log record with fields relevant to
// ensemble training runs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Run-specific fields
	MemberTag  string // Population member the record belongs to
	Generation int    // Generation ordinal, -1 when outside a generation

	// General structured data
	Fields map[string]interface{}
}
