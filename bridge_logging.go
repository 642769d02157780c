package persist

import "time"

// Operations reported in LogEvent.Op and OpError.Op.
const (
	OpSave     = "save"
	OpLoad     = "load"
	OpReset    = "reset"
	OpClear    = "clear"
	OpActivity = "activity"
	// OpUnhandled reports a port handler failure that reached the default
	// error handler.
	OpUnhandled = "unhandled"
)

// LogEvent describes one bridge operation for logging.
type LogEvent struct {
	Op       string
	Key      string
	Encoding string
	// Found is set on loads that returned a value.
	Found bool
	// Reset is set when a load discarded an undecodable record.
	Reset    bool
	Bytes    int
	Duration time.Duration
	Err      error
}

// Logger records bridge operations.
type Logger interface {
	LogOperation(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogOperation implements Logger.
func (f LoggerFunc) LogOperation(event LogEvent) {
	if f != nil {
		f(event)
	}
}

// noopLogger is the default Logger; nothing is recorded until WithLogger.
type noopLogger struct{}

func (noopLogger) LogOperation(LogEvent) {}

// WithLogger attaches an operation logger. Nil restores the no-op logger.
func WithLogger(logger Logger) Option {
	return func(cfg *bridgeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
