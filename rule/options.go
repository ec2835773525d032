package rule

import "time"

// Option configures an evaluator.
type Option func(*config)

type config struct {
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluationLogger
}

func applyOptions(opts []Option) config {
	cfg := config{logger: noopEvaluationLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithProgramCache reuses compiled programs across evaluations. A
// *settings.Store works as a cache.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes the registry's functions to expressions. The
// registry is cloned.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the evaluator.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithEvaluationLogger attaches a logger receiving one event per evaluation.
func WithEvaluationLogger(logger EvaluationLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopEvaluationLogger{}
			return
		}
		cfg.logger = logger
	}
}

// EvaluationEvent describes a single expression evaluation.
type EvaluationEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Result   any
	Err      error
	Duration time.Duration
	Cached   bool
}

// EvaluationLogger records evaluation events.
type EvaluationLogger interface {
	LogEvaluation(EvaluationEvent)
}

// EvaluationLoggerFunc adapts a function to EvaluationLogger.
type EvaluationLoggerFunc func(EvaluationEvent)

// LogEvaluation implements EvaluationLogger.
func (f EvaluationLoggerFunc) LogEvaluation(event EvaluationEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluationLogger struct{}

func (noopEvaluationLogger) LogEvaluation(EvaluationEvent) {}

func (cfg config) cached(key string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Value(key)
}

func (cfg config) store(key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
}

func (cfg config) log(engine, expression string, ctx Context, start time.Time, cached bool, result any, err error) {
	cfg.logger.LogEvaluation(EvaluationEvent{
		Engine:   engine,
		Expr:     expression,
		Scope:    ctx.Scope,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
		Cached:   cached,
	})
}
