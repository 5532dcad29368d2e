package constants

const (
	// ContextKeyUserID is the gin context key holding the authenticated local user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyIdentity holds the verified identity claims for the request.
	ContextKeyIdentity = "identity"
	// ContextKeyTaskID and ContextKeySubtaskID hold the path IDs parsed by RequireTaskID.
	ContextKeyTaskID    = "task_id"
	ContextKeySubtaskID = "subtask_id"
	// ContextKeyRequestID holds the per-request correlation ID.
	ContextKeyRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Preferences defaults
const (
	DefaultWorkHoursPerDay  = 8.0
	DefaultBufferPercent    = 20
	DefaultCautionThreshold = 80
	DefaultTimezone         = "UTC"
	MaxWorkHoursPerDay      = 24.0
)

// Estimate assistant
const (
	MaxAnalyzedSubtasks  = 8
	MaxAnalyzeInputChars = 4000
)
