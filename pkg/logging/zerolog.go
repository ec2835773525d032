// Package logging adapts settings and rule loggers to zerolog.
package logging

import (
	"github.com/rs/zerolog"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/rule"
)

// Field names shared by the adapters.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldScope     = "scope"
	FieldTarget    = "target"
	FieldEngine    = "engine"
	FieldExpr      = "expr"
)

// NewApplyLogger logs each applied layer at debug level, failures at error
// level and activity hook failures at warn level.
func NewApplyLogger(logger zerolog.Logger) settings.ApplyLogger {
	logger = logger.With().Str(FieldComponent, "settings").Logger()
	return settings.ApplyLoggerFunc(func(event settings.ApplyEvent) {
		if event.Scope == "" {
			if event.NotifyErr != nil {
				logger.Warn().
					Err(event.NotifyErr).
					Str(FieldRunID, event.RunID).
					Msg("settings activity notification failed")
			}
			return
		}

		entry := logger.Debug()
		if event.Err != nil {
			entry = logger.Error().Err(event.Err)
		} else if event.NotifyErr != nil {
			entry = logger.Warn()
		}
		if event.NotifyErr != nil {
			entry = entry.AnErr("notify_error", event.NotifyErr)
		}
		entry.
			Str(FieldRunID, event.RunID).
			Str(FieldScope, event.Scope).
			Str(FieldTarget, event.Target).
			Int("flags", event.Flags).
			Int("values", event.Values).
			Dur("duration", event.Duration).
			Msg("settings layer applied")
	})
}

// NewEvaluationLogger logs each rule evaluation at debug level and failures at
// error level.
func NewEvaluationLogger(logger zerolog.Logger) rule.EvaluationLogger {
	logger = logger.With().Str(FieldComponent, "rule").Logger()
	return rule.EvaluationLoggerFunc(func(event rule.EvaluationEvent) {
		entry := logger.Debug()
		if event.Err != nil {
			entry = logger.Error().Err(event.Err)
		} else {
			entry = entry.Interface("result", event.Result)
		}
		entry.
			Str(FieldEngine, event.Engine).
			Str(FieldExpr, event.Expr).
			Str(FieldScope, event.Scope).
			Bool("cached", event.Cached).
			Dur("duration", event.Duration).
			Msg("rule evaluated")
	})
}
