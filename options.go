package store

import (
	"time"

	"github.com/goliatone/go-store/pkg/activity"
)

// Option configures store composition.
type Option func(*storeConfig)

type storeConfig struct {
	devtools        bool
	observers       Observers
	logger          Logger
	clock           func() time.Time
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	activityHooks   activity.Hooks
	activityConfig  activity.Config
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = NewZapLogger(nil)
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	if cfg.evaluatorLogger == nil {
		cfg.evaluatorLogger = noopEvaluatorLogger{}
	}
	if cfg.evaluator == nil {
		cfg.evaluator = defaultEvaluator(cfg)
	}
	return cfg
}

// WithDevtools toggles action tracing. When disabled (the default) actions
// take no snapshots and no observer is called.
func WithDevtools(enabled bool) Option {
	return func(cfg *storeConfig) {
		cfg.devtools = enabled
	}
}

// WithObserver registers an observer for traced action calls. Observers only
// run while devtools is enabled. With devtools enabled and no observer, the
// store falls back to LogObserver.
func WithObserver(observer Observer) Option {
	return func(cfg *storeConfig) {
		if observer == nil {
			return
		}
		cfg.observers = append(cfg.observers, observer)
	}
}

// WithLogger sets the logger used for warnings and the default trace output.
func WithLogger(logger Logger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = NopLogger()
			return
		}
		cfg.logger = logger
	}
}

// WithClock overrides the time source used for invocation timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *storeConfig) {
		cfg.clock = now
	}
}

// WithEvaluator configures the selector engine.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithEvaluatorLogger attaches a logger for selector evaluations.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}
