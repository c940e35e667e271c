package ctxmeta

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Trace — идентификаторы активного спана в виде строк для логов.
type Trace struct {
	TraceID string
	SpanID  string
}

// TraceFromContext достаёт trace/span из активного спана.
// Без спана (или с no-op провайдером) возвращает ok=false.
func TraceFromContext(ctx context.Context) (Trace, bool) {
	if ctx == nil {
		return Trace{}, false
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return Trace{}, false
	}
	return Trace{TraceID: sc.TraceID().String(), SpanID: sc.SpanID().String()}, true
}
