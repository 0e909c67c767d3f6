package logger

// Standard field names for structured logging. Use these constants instead
// of raw strings so log queries stay consistent.
const (
	// Jobs
	FieldLabel  = "label"
	FieldPath   = "path"
	FieldSource = "source"
	FieldStatus = "status"
	FieldPID    = "pid"

	// Commands
	FieldCommand   = "command"
	FieldArgs      = "args"
	FieldOperation = "operation"
	FieldSubject   = "subject"
	FieldExitCode  = "exit_code"
	FieldStderr    = "stderr"

	// Timing
	FieldDurationMS = "duration_ms"

	// Counts
	FieldCount = "count"

	// Config
	FieldConfigFile = "config_file"
)
