package devtools

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	store "github.com/goliatone/go-store"
)

// ZapObserver logs every traced action as a pair of structured entries at
// level, labelled "[slice] action".
func ZapObserver(logger *zap.Logger, level zapcore.Level) store.Observer {
	if logger == nil {
		logger = zap.L()
	}
	return &zapObserver{logger: logger, level: level}
}

type zapObserver struct {
	logger *zap.Logger
	level  zapcore.Level
}

func (o *zapObserver) OnActionStart(inv store.Invocation) {
	ce := o.logger.Check(o.level, inv.Label())
	if ce == nil {
		return
	}
	ce.Write(
		zap.String("phase", "start"),
		zap.String("invocation_id", inv.ID),
		zap.String("key", inv.Key),
		zap.String("slice", inv.Slice),
		zap.String("action", inv.Action),
		zap.Any("before", inv.Before),
		zap.Any("payload", inv.Args),
	)
}

func (o *zapObserver) OnActionEnd(inv store.Invocation) {
	level := o.level
	if inv.Err != nil && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}
	ce := o.logger.Check(level, inv.Label())
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("phase", "end"),
		zap.String("invocation_id", inv.ID),
		zap.String("key", inv.Key),
		zap.String("slice", inv.Slice),
		zap.String("action", inv.Action),
		zap.Any("after", inv.After),
		zap.Duration("duration", inv.Duration),
	}
	if inv.Err != nil {
		fields = append(fields, zap.Error(inv.Err))
	}
	if inv.Panic != nil {
		fields = append(fields, zap.Any("panic", inv.Panic))
	}
	ce.Write(fields...)
}
