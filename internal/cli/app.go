// Package cli implements the persist command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	persist "github.com/goliatone/go-persist"
	"github.com/goliatone/go-persist/internal/config"
	"github.com/goliatone/go-persist/internal/logging"
	"github.com/goliatone/go-persist/pkg/activity"
	"github.com/goliatone/go-persist/pkg/store"
	"github.com/goliatone/go-persist/pkg/store/sqlitestore"
	"github.com/goliatone/go-persist/pkg/store/yamlstore"
)

// App holds state shared across commands.
type App struct {
	Config config.Config
	Store  store.Store
	Bridge *persist.Bridge
	Logger zerolog.Logger
	In     io.Reader
	Out    io.Writer
	Err    io.Writer

	closers []io.Closer
}

// NewApp wires a bridge over st using cfg. It is what the provider calls
// after opening the configured store, and what tests call directly with a
// memory store.
func NewApp(cfg config.Config, st store.Store, logger zerolog.Logger) (*App, error) {
	opts, err := cfg.BridgeOptions()
	if err != nil {
		return nil, err
	}
	emitter := activity.NewEmitter(activity.Hooks{activityLogHook(logger)}, activity.Config{Enabled: true})
	opts = append(opts,
		persist.WithLogger(logging.BridgeLogger(logger)),
		persist.WithActivity(emitter),
	)
	bridge, err := persist.New(st, opts...)
	if err != nil {
		return nil, err
	}
	return &App{
		Config: cfg,
		Store:  st,
		Bridge: bridge,
		Logger: logger,
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}, nil
}

// Close releases the store and log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// SuccessColor wraps s in green when stdout is a terminal.
func (a *App) SuccessColor(s string) string {
	if f, ok := a.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

// OpenStore opens the backend named by cfg. The closer is a no-op for
// backends without resources to release.
func OpenStore(cfg config.Config) (store.Store, io.Closer, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nopCloser{}, nil
	case config.StoreYAML:
		st, err := yamlstore.New(cfg.StorePath())
		if err != nil {
			return nil, nil, err
		}
		return st, nopCloser{}, nil
	case config.StoreSQLite:
		path := cfg.StorePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating store directory: %w", err)
		}
		st, err := sqlitestore.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func activityLogHook(logger zerolog.Logger) activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		logger.Debug().
			Str("event_id", event.ID).
			Str("verb", event.Verb).
			Str("object_id", event.ObjectID).
			Str("channel", event.Channel).
			Fields(event.Metadata).
			Msg("activity")
		return nil
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
