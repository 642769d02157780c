package persist

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the default tracer.
const TracerName = "github.com/goliatone/go-persist"

// Span attribute keys.
const (
	AttrKey      = attribute.Key("persist.key")
	AttrEncoding = attribute.Key("persist.encoding")
	AttrFound    = attribute.Key("persist.found")
	AttrReset    = attribute.Key("persist.reset")
	AttrBytes    = attribute.Key("persist.bytes")
)

func (b *Bridge) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return b.tracer.Start(ctx, "persist."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrKey.String(b.key),
			AttrEncoding.String(b.codec.Encoding().Name()),
		),
	)
}

// record logs event and copies its outcome onto span. A reset records the
// decode failure on the span without marking the operation failed.
func (b *Bridge) record(span trace.Span, event LogEvent) {
	b.logger.LogOperation(event)

	span.SetAttributes(
		AttrFound.Bool(event.Found),
		AttrBytes.Int(event.Bytes),
	)
	if event.Reset {
		span.SetAttributes(AttrReset.Bool(true))
	}
	if event.Err == nil {
		return
	}
	span.RecordError(event.Err)
	if !event.Reset {
		span.SetStatus(codes.Error, event.Err.Error())
	}
}
