package settings

import "time"

// ApplyEvent describes one layer being applied onto a target scope during
// Stack.Resolve or Stack.Finalize.
type ApplyEvent struct {
	RunID    string
	Scope    string
	Target   string
	Flags    int
	Values   int
	Duration time.Duration
	Err      error
	// NotifyErr holds the activity hook error for this layer, if any. Hook
	// failures never fail the apply itself.
	NotifyErr error
}

// ApplyLogger records apply events.
type ApplyLogger interface {
	LogApply(ApplyEvent)
}

// ApplyLoggerFunc adapts a function to ApplyLogger.
type ApplyLoggerFunc func(ApplyEvent)

// LogApply implements ApplyLogger.
func (f ApplyLoggerFunc) LogApply(event ApplyEvent) {
	if f != nil {
		f(event)
	}
}

type noopApplyLogger struct{}

func (noopApplyLogger) LogApply(ApplyEvent) {}
