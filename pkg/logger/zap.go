package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
)

var _ ports.Logger = (*ZapLogger)(nil)

// ZapLogger — ports.Logger поверх zap. Метаданные из контекста
// (request_id, trace/span, координаты записи) добавляются полями к каждой записи.
type ZapLogger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	isProd bool
}

func NewZapLogger(isProd bool) (*ZapLogger, func() error, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if isProd {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, nil, err
	}

	loggerWrap := wrap(logger, isProd)
	cleanup := func() error { return loggerWrap.base.Sync() }
	return loggerWrap, cleanup, nil
}

// NewWithCore — логгер поверх произвольного zapcore.Core (тесты, нестандартный вывод).
func NewWithCore(core zapcore.Core) *ZapLogger {
	return wrap(zap.New(core), false)
}

func wrap(logger *zap.Logger, isProd bool) *ZapLogger {
	return &ZapLogger{
		base:   logger,
		sugar:  logger.Sugar(),
		isProd: isProd,
	}
}

func (z *ZapLogger) Infof(ctx context.Context, format string, args ...any) {
	z.with(ctx).Infof(format, args...)
}
func (z *ZapLogger) Warnf(ctx context.Context, format string, args ...any) {
	z.with(ctx).Warnf(format, args...)
}
func (z *ZapLogger) Errorf(ctx context.Context, format string, args ...any) {
	z.with(ctx).Errorf(format, args...)
}

func (z *ZapLogger) Base() *zap.Logger           { return z.base }
func (z *ZapLogger) Sugared() *zap.SugaredLogger { return z.sugar }

// with — sugared-логгер с полями из контекста; без метаданных — базовый.
func (z *ZapLogger) with(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return z.sugar
	}

	var fields []any
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		fields = append(fields, "request_id", rid)
	}
	if tr, ok := ctxmeta.TraceFromContext(ctx); ok {
		fields = append(fields, "trace_id", tr.TraceID, "span_id", tr.SpanID)
	}
	if rec, ok := ctxmeta.RecordFromContext(ctx); ok {
		fields = append(fields,
			"group", rec.Group,
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
		)
	}

	if len(fields) == 0 {
		return z.sugar
	}
	return z.sugar.With(fields...)
}
