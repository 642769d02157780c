package persist_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	persist "github.com/goliatone/go-persist"
	"github.com/goliatone/go-persist/pkg/store"
)

func newTracedBridge(t *testing.T, st store.Store) (*persist.Bridge, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return newBridge(t, st, persist.WithTracer(provider.Tracer("test"))), recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	b, recorder := newTracedBridge(t, store.NewMemoryStore())

	if err := b.Save(ctx, map[string]any{"a": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := b.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "persist.save" || spans[1].Name() != "persist.load" {
		t.Fatalf("unexpected span names %q, %q", spans[0].Name(), spans[1].Name())
	}
	key, ok := spanAttr(spans[0], persist.AttrKey)
	if !ok || key.AsString() != persist.DefaultKey {
		t.Fatalf("expected key attribute, got %v", key)
	}
	bytes, _ := spanAttr(spans[0], persist.AttrBytes)
	if bytes.AsInt64() != int64(len(`{"a":1}`)) {
		t.Fatalf("unexpected bytes attribute %v", bytes.AsInt64())
	}
	found, _ := spanAttr(spans[1], persist.AttrFound)
	if !found.AsBool() {
		t.Fatalf("expected found=true on load span")
	}
	for _, span := range spans {
		if span.Status().Code == codes.Error {
			t.Fatalf("unexpected error status on %s", span.Name())
		}
	}
}

func TestTracingResetIsNotAnError(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.SetItem(ctx, persist.DefaultKey, "{corrupt"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, recorder := newTracedBridge(t, st)

	if _, err := b.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	reset, ok := spanAttr(spans[0], persist.AttrReset)
	if !ok || !reset.AsBool() {
		t.Fatalf("expected reset attribute")
	}
	if spans[0].Status().Code == codes.Error {
		t.Fatalf("reset must not mark the span failed")
	}
	if len(spans[0].Events()) == 0 {
		t.Fatalf("expected decode failure recorded as span event")
	}
}

func TestTracingStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	b, recorder := newTracedBridge(t, &failingStore{MemoryStore: store.NewMemoryStore(), setErr: boom})

	if err := b.Save(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("expected one failed span, got %d", len(spans))
	}
}

func TestTracingClear(t *testing.T) {
	b, recorder := newTracedBridge(t, store.NewMemoryStore())
	if err := b.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "persist.clear" {
		t.Fatalf("expected persist.clear span")
	}
}
