package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
)

func TestZapLogger_PlainContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.Infof(context.Background(), "hello %s", "world")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "hello world", entries[0].Message)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Empty(t, entries[0].Context)
}

func TestZapLogger_ContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	ctx := ctxmeta.WithRequestID(context.Background(), "rid-1")
	ctx = ctxmeta.WithRecord(ctx, ctxmeta.Record{Group: "g1", Topic: "events", Partition: 2, Offset: 17})

	l.Warnf(ctx, "handler failed")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	require.Equal(t, "rid-1", fields["request_id"])
	require.Equal(t, "g1", fields["group"])
	require.Equal(t, "events", fields["topic"])
	require.Equal(t, int64(2), fields["partition"])
	require.Equal(t, int64(17), fields["offset"])
}

func TestZapLogger_ErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.Errorf(context.Background(), "boom: %v", 42)

	require.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	require.Equal(t, "boom: 42", logs.All()[0].Message)
}
