package store

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger receives diagnostics from the store: usability warnings, devtools
// traces and observer failures. Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// NewZapLogger adapts a zap logger. A nil logger resolves at call time: to
// zap.L() once zap.ReplaceGlobals installed one, otherwise to a development
// console logger on stderr.
func NewZapLogger(logger *zap.Logger) Logger {
	return zapLogger{logger: logger}
}

// consoleLogger is used while the zap globals are still the no-op default.
var consoleLogger = sync.OnceValue(func() *zap.Logger {
	return newConsoleLogger(zapcore.Lock(os.Stderr))
})

func newConsoleLogger(out zapcore.WriteSyncer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, out, zapcore.DebugLevel))
}

type zapLogger struct {
	logger *zap.Logger
}

func (l zapLogger) sugar() *zap.SugaredLogger {
	if l.logger != nil {
		return l.logger.Sugar()
	}
	if global := zap.L(); global.Core().Enabled(zapcore.FatalLevel) {
		return global.Sugar()
	}
	return consoleLogger().Sugar()
}

func (l zapLogger) Debug(msg string, fields ...any) { l.sugar().Debugw(msg, fields...) }

func (l zapLogger) Info(msg string, fields ...any) { l.sugar().Infow(msg, fields...) }

func (l zapLogger) Warn(msg string, fields ...any) { l.sugar().Warnw(msg, fields...) }

func (l zapLogger) Error(msg string, fields ...any) { l.sugar().Errorw(msg, fields...) }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NopLogger discards everything.
func NopLogger() Logger {
	return noopLogger{}
}

// EvaluatorLogEvent describes a selector evaluation for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Slice    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records selector evaluations.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}
