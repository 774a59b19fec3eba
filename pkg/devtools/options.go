package devtools

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	store "github.com/goliatone/go-store"
)

// Options translates cfg into store options. A disabled config yields
// options that keep devtools off; logger still becomes the store logger.
func Options(cfg Config, logger *zap.Logger, tracer trace.Tracer) ([]store.Option, error) {
	if logger == nil {
		logger = zap.L()
	}
	opts := []store.Option{
		store.WithLogger(store.NewZapLogger(logger)),
		store.WithDevtools(cfg.Enabled),
	}
	if !cfg.Enabled {
		return opts, nil
	}

	level, err := cfg.level()
	if err != nil {
		return nil, err
	}
	opts = append(opts, store.WithObserver(ZapObserver(logger, level)))
	if cfg.Trace {
		opts = append(opts, store.WithObserver(TraceObserver(tracer)))
	}
	return opts, nil
}
