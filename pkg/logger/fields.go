package logger

import "go.uber.org/zap"

// Context keys recognized by colorConsoleEncoder.EncodeEntry for the
// short bracketed prefix it prepends to console lines.
const (
	stepNameKey   = "step_name"
	uniqueIDKey   = "unique_id"
	cacheStateKey = "cache_state"
	formatNameKey = "format_name"
)

// CacheState names where a step's result came from, for log lines emitted
// around a cache lookup.
type CacheState string

const (
	CacheHit   CacheState = "hit"
	CacheMiss  CacheState = "miss"
	CacheWrite CacheState = "write"
)

// StepField tags a log entry with the step's human-readable name, shown as
// "[S:name]" in the console prefix.
func StepField(name string) zap.Field {
	return zap.String(stepNameKey, name)
}

// UniqueIDField tags a log entry with a step instance's content-addressed
// unique_id, shown as "[U:...]" in the console prefix.
func UniqueIDField(uniqueID string) zap.Field {
	return zap.String(uniqueIDKey, uniqueID)
}

// CacheStateField records whether a step's result was a cache hit, miss, or
// a newly computed value being written, shown as "[C:...]" in the console
// prefix.
func CacheStateField(state CacheState) zap.Field {
	return zap.String(cacheStateKey, string(state))
}

// FormatField names the format.Format used to serialize a cached result,
// shown as "[F:...]" in the console prefix.
func FormatField(name string) zap.Field {
	return zap.String(formatNameKey, name)
}
