package persist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/codec"
	"github.com/goliatone/go-persist/pkg/ports"
	"github.com/goliatone/go-persist/pkg/store"
	"go.opentelemetry.io/otel/trace"
)

// Response is the outcome of Load. Found=false is the absence marker.
type Response struct {
	Value any
	Found bool
}

// Bridge relays the application's save and load-request events to a Store
// under one fixed key. It holds no mutable state after New.
type Bridge struct {
	store        store.Store
	key          string
	codec        *codec.Codec
	purge        bool
	logger       Logger
	activity     *activity.Emitter
	tracer       trace.Tracer
	errorHandler func(error)
}

// New constructs a Bridge over st. Options are resolved once here; the key
// and encoding stay fixed for the bridge's lifetime.
func New(st store.Store, opts ...Option) (*Bridge, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	cfg := applyOptions(opts)
	cfg.key = strings.TrimSpace(cfg.key)
	if cfg.key == "" {
		return nil, ErrKeyRequired
	}

	codecOpts := append([]codec.Option{
		codec.WithEncoding(cfg.encoding),
		codec.WithFallback(cfg.compatible),
	}, cfg.codecOptions...)

	b := &Bridge{
		store:        st,
		key:          cfg.key,
		codec:        codec.New(codecOpts...),
		purge:        cfg.purge,
		logger:       cfg.logger,
		activity:     cfg.activity,
		tracer:       cfg.tracer,
		errorHandler: cfg.errorHandler,
	}
	if b.errorHandler == nil {
		b.errorHandler = b.logUnhandled
	}
	return b, nil
}

// Key returns the fixed storage key.
func (b *Bridge) Key() string {
	return b.key
}

// Encoding returns the text encoding applied to stored records.
func (b *Bridge) Encoding() codec.TextEncoding {
	return b.codec.Encoding()
}

// Save serializes payload and overwrites the record under the fixed key.
func (b *Bridge) Save(ctx context.Context, payload any) error {
	ctx, span := b.startSpan(ctx, OpSave)
	defer span.End()

	start := time.Now()
	text, err := b.codec.Encode(payload)
	if err == nil {
		err = b.store.SetItem(ctx, b.key, text)
	}
	err = wrapOpError(OpSave, b.key, err)

	b.record(span, LogEvent{
		Op:       OpSave,
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Bytes:    len(text),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return err
	}

	b.emit(ctx, activity.BuildRecordSavedEvent(b.eventInput(len(text), "")))
	return nil
}

// HandleSave is the fire-and-forget save handler. No acknowledgement is
// produced; a failure goes to the error handler only.
func (b *Bridge) HandleSave(ctx context.Context, payload any) {
	if err := b.Save(ctx, payload); err != nil {
		b.handleError(err)
	}
}

// Load reads and decodes the record. A missing, empty or null record yields
// the absence marker. A record that fails to decode also yields absence and is
// removed when purging is enabled; the removal's outcome is only logged.
// Errors are returned for store read failures alone.
func (b *Bridge) Load(ctx context.Context) (Response, error) {
	var value any
	found, err := b.load(ctx, func(raw string) (bool, error) {
		decoded, err := b.codec.Decode(raw)
		if err != nil {
			return false, err
		}
		value = decoded
		return decoded != nil, nil
	})
	if err != nil || !found {
		return Response{}, err
	}
	return Response{Value: value, Found: true}, nil
}

// HandleLoadRequest answers one load-request by calling respond exactly once
// with the stored value or nil. When the store read itself fails respond is
// not called and the error goes to the error handler.
func (b *Bridge) HandleLoadRequest(ctx context.Context, respond func(value any)) {
	resp, err := b.Load(ctx)
	if err != nil {
		b.handleError(err)
		return
	}
	if respond != nil {
		respond(resp.Value)
	}
}

// Attach subscribes the bridge to set: saves are persisted and every
// load-request is answered on set.LoadResponse. Failures go to the error
// handler and are also sent on set.Errors when the set has one. ctx is passed
// to each handled operation. The returned function detaches the
// subscriptions.
func (b *Bridge) Attach(ctx context.Context, set *ports.Set) (detach func()) {
	if set == nil {
		return func() {}
	}
	fail := func(err error) {
		b.handleError(err)
		if set.Errors != nil {
			set.Errors.Send(err)
		}
	}
	unsubscribeSave := set.Save.Subscribe(func(payload any) {
		if err := b.Save(ctx, payload); err != nil {
			fail(err)
		}
	})
	unsubscribeLoad := set.LoadRequest.Subscribe(func(struct{}) {
		resp, err := b.Load(ctx)
		if err != nil {
			fail(err)
			return
		}
		set.LoadResponse.Send(resp.Value)
	})
	return func() {
		unsubscribeSave()
		unsubscribeLoad()
	}
}

// Clear removes the record. Normal save/load traffic never calls it.
func (b *Bridge) Clear(ctx context.Context) error {
	ctx, span := b.startSpan(ctx, OpClear)
	defer span.End()

	start := time.Now()
	err := wrapOpError(OpClear, b.key, b.store.RemoveItem(ctx, b.key))
	b.record(span, LogEvent{
		Op:       OpClear,
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Duration: time.Since(start),
		Err:      err,
	})
	return err
}

// load reads the raw record and hands it to decode, which reports whether the
// record holds a value (a stored null does not). found reports whether a
// value was read and decoded; decode failures trigger a reset instead of an
// error.
func (b *Bridge) load(ctx context.Context, decode func(raw string) (bool, error)) (found bool, err error) {
	ctx, span := b.startSpan(ctx, OpLoad)
	defer span.End()

	start := time.Now()
	raw, ok, err := b.store.GetItem(ctx, b.key)
	if err != nil {
		err = wrapOpError(OpLoad, b.key, err)
		b.record(span, LogEvent{
			Op:       OpLoad,
			Key:      b.key,
			Encoding: b.codec.Encoding().Name(),
			Duration: time.Since(start),
			Err:      err,
		})
		return false, err
	}

	if !ok || raw == "" {
		b.missing(ctx, span, 0, start)
		return false, nil
	}

	present, decodeErr := decode(raw)
	if decodeErr != nil {
		b.reset(ctx, span, raw, decodeErr, start)
		return false, nil
	}
	if !present {
		b.missing(ctx, span, len(raw), start)
		return false, nil
	}

	b.record(span, LogEvent{
		Op:       OpLoad,
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Found:    true,
		Bytes:    len(raw),
		Duration: time.Since(start),
	})
	b.emit(ctx, activity.BuildRecordLoadedEvent(b.eventInput(len(raw), "")))
	return true, nil
}

func (b *Bridge) missing(ctx context.Context, span trace.Span, size int, start time.Time) {
	b.record(span, LogEvent{
		Op:       OpLoad,
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Bytes:    size,
		Duration: time.Since(start),
	})
	b.emit(ctx, activity.BuildRecordMissingEvent(b.eventInput(size, "")))
}

func (b *Bridge) reset(ctx context.Context, span trace.Span, raw string, cause error, start time.Time) {
	var removeErr error
	if b.purge {
		removeErr = b.store.RemoveItem(ctx, b.key)
	}

	b.record(span, LogEvent{
		Op:       OpReset,
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Reset:    true,
		Bytes:    len(raw),
		Duration: time.Since(start),
		Err:      errors.Join(cause, wrapOpError(OpReset, b.key, removeErr)),
	})
	b.emit(ctx, activity.BuildRecordResetEvent(b.eventInput(len(raw), resetReason(cause))))
}

func resetReason(err error) string {
	var decErr *codec.DecodeError
	if errors.As(err, &decErr) {
		return decErr.Stage
	}
	return "decode"
}

func (b *Bridge) eventInput(size int, reason string) activity.RecordEventInput {
	return activity.RecordEventInput{
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Bytes:    size,
		Reason:   reason,
	}
}

func (b *Bridge) emit(ctx context.Context, event activity.Event) {
	if !b.activity.Enabled() {
		return
	}
	if err := b.activity.Emit(ctx, event); err != nil {
		b.logger.LogOperation(LogEvent{Op: OpActivity, Key: b.key, Err: err})
	}
}

func (b *Bridge) logUnhandled(err error) {
	b.logger.LogOperation(LogEvent{
		Op:       OpUnhandled,
		Key:      b.key,
		Encoding: b.codec.Encoding().Name(),
		Err:      err,
	})
}

func (b *Bridge) handleError(err error) {
	if b.errorHandler != nil {
		b.errorHandler(err)
	}
}
