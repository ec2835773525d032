package settings

import (
	"strings"

	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/google/uuid"
)

// Option configures Stack.Resolve and Stack.Finalize.
type Option func(*config)

type config struct {
	logger   ApplyLogger
	hooks    activity.Hooks
	channel  string
	actorID  string
	tenantID string
	runID    func() string
}

func applyOptions(opts []Option) config {
	cfg := config{
		logger: noopApplyLogger{},
		runID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithApplyLogger attaches a logger receiving one ApplyEvent per applied
// layer. A nil logger restores the no-op default.
func WithApplyLogger(logger ApplyLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopApplyLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks. Hooks are cloned and nil entries
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *config) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.channel = strings.TrimSpace(channel)
	}
}

// WithActor records who triggered the run on emitted events.
func WithActor(actorID, tenantID string) Option {
	return func(cfg *config) {
		cfg.actorID = actorID
		cfg.tenantID = tenantID
	}
}

// WithRunIDGenerator replaces the uuid based run identifier.
func WithRunIDGenerator(next func() string) Option {
	return func(cfg *config) {
		if next != nil {
			cfg.runID = next
		}
	}
}

func (cfg config) emitter() *activity.Emitter {
	return activity.NewEmitter(cfg.hooks, activity.Config{
		Enabled: cfg.hooks.Enabled(),
		Channel: cfg.channel,
	})
}
