package persist

import (
	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/codec"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultKey is the storage key used when WithKey is not supplied.
const DefaultKey = "persisted_config"

// Option configures a Bridge at construction time.
type Option func(*bridgeConfig)

type bridgeConfig struct {
	key          string
	encoding     codec.TextEncoding
	compatible   bool
	purge        bool
	logger       Logger
	activity     *activity.Emitter
	tracer       trace.Tracer
	errorHandler func(error)
	codecOptions []codec.Option
}

// WithKey sets the fixed storage key.
func WithKey(key string) Option {
	return func(cfg *bridgeConfig) {
		cfg.key = key
	}
}

// WithEncoding selects the reversible text encoding applied after
// serialization. Nil keeps codec.Identity.
func WithEncoding(encoding codec.TextEncoding) Option {
	return func(cfg *bridgeConfig) {
		if encoding != nil {
			cfg.encoding = encoding
		}
	}
}

// WithCompatibleDecoding makes Load accept records written by the other
// encoding variant, for installations moving between plain and base64.
func WithCompatibleDecoding(enabled bool) Option {
	return func(cfg *bridgeConfig) {
		cfg.compatible = enabled
	}
}

// WithPurgeOnCorruption controls the best-effort removal of a record that
// fails to decode. Enabled by default.
func WithPurgeOnCorruption(enabled bool) Option {
	return func(cfg *bridgeConfig) {
		cfg.purge = enabled
	}
}

// WithActivity attaches an activity emitter. Emission failures are logged and
// never change an operation's result.
func WithActivity(emitter *activity.Emitter) Option {
	return func(cfg *bridgeConfig) {
		cfg.activity = emitter
	}
}

// WithTracer sets the tracer used for operation spans. The default comes from
// the global otel provider, which is a no-op until one is registered.
func WithTracer(tracer trace.Tracer) Option {
	return func(cfg *bridgeConfig) {
		if tracer != nil {
			cfg.tracer = tracer
		}
	}
}

// WithErrorHandler receives the failures of HandleSave and HandleLoadRequest,
// which have no caller to return them to. Without one, failures are reported
// to the Logger as OpUnhandled events.
func WithErrorHandler(fn func(error)) Option {
	return func(cfg *bridgeConfig) {
		cfg.errorHandler = fn
	}
}

// WithCodecOptions passes extra options to the underlying codec, for example
// codec.WithUseNumber.
func WithCodecOptions(opts ...codec.Option) Option {
	return func(cfg *bridgeConfig) {
		cfg.codecOptions = append(cfg.codecOptions, opts...)
	}
}

func applyOptions(opts []Option) bridgeConfig {
	cfg := bridgeConfig{
		key:      DefaultKey,
		encoding: codec.Identity,
		purge:    true,
		logger:   noopLogger{},
		tracer:   otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
