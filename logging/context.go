package logging

import "context"

type debugModeKeyType int

const debugModeKey = debugModeKeyType(iota)

// EnableDebugMode returns a context under which CDebugw and CWarnw log whatever the logger level.
// It is used to trace single simulation runs and loops without turning on debug logs globally.
func EnableDebugMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugModeKey, true)
}

// IsDebugMode returns whether ctx has debug logging enabled.
func IsDebugMode(ctx context.Context) bool {
	on, _ := ctx.Value(debugModeKey).(bool)
	return on
}
