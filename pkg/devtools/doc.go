// Package devtools wires store tracing to the rest of the stack: structured
// zap output for every traced action, OpenTelemetry spans around each call
// and environment driven configuration.
//
//	cfg, err := devtools.LoadConfig()
//	opts, err := devtools.Options(cfg, logger, otel.Tracer("app"))
//	st, err := store.New(slices, opts...)
package devtools
