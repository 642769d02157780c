package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-persist/internal/config"
	"github.com/goliatone/go-persist/internal/logging"
	"github.com/goliatone/go-persist/internal/telemetry"
	"github.com/goliatone/go-persist/pkg/codec"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Overrides captured from flags before Execute(); empty means use the
	// environment.
	StoreType string
	Path      string
	Key       string
	Encoding  string
	LogLevel  string

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	return p.app, p.err
}

// Close releases resources held by an initialized App.
func (p *AppProvider) Close() error {
	if p.app == nil {
		return nil
	}
	return p.app.Close()
}

// NewTestProvider creates a provider pre-initialized with app.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app: app,
		In:  app.In,
		Out: app.Out,
		Err: app.Err,
	}
}

func (p *AppProvider) init() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	p.applyOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	errOut := p.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Out:    errOut,
	})
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Options{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
	})
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	traceCloser := telemetry.Closer(shutdown)

	st, storeCloser, err := OpenStore(cfg)
	if err != nil {
		_ = traceCloser.Close()
		_ = logCloser.Close()
		return nil, err
	}

	app, err := NewApp(cfg, st, logger)
	if err != nil {
		_ = storeCloser.Close()
		_ = traceCloser.Close()
		_ = logCloser.Close()
		return nil, err
	}
	app.closers = append(app.closers, logCloser, traceCloser, storeCloser)
	if p.In != nil {
		app.In = p.In
	}
	if p.Out != nil {
		app.Out = p.Out
	}
	app.Err = errOut
	return app, nil
}

func (p *AppProvider) applyOverrides(cfg *config.Config) {
	if p.StoreType != "" {
		cfg.Store = p.StoreType
	}
	if p.Path != "" {
		cfg.Path = p.Path
	}
	if p.Key != "" {
		cfg.Key = p.Key
	}
	if p.Encoding != "" {
		cfg.Encoding = p.Encoding
	}
	if p.LogLevel != "" {
		cfg.LogLevel = p.LogLevel
	}
}

// Execute runs the CLI.
func Execute() error {
	provider := &AppProvider{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}
	defer provider.Close()

	return newRootCmd(provider).Execute()
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "persist",
		Short: "Save and load a persisted application record",
		Long: `persist stores one structured record under a fixed key in a
key-value store and reads it back, the way an application runtime does
through its save and load ports.

Configuration comes from PERSIST_* environment variables; flags override
them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&provider.StoreType, "store", "", "Store backend: memory, yaml or sqlite (env PERSIST_STORE)")
	flags.StringVar(&provider.Path, "path", "", "Store file path (env PERSIST_PATH)")
	flags.StringVar(&provider.Key, "key", "", "Storage key (env PERSIST_KEY)")
	flags.StringVar(&provider.Encoding, "encoding", "", fmt.Sprintf("Record encoding: %s (env PERSIST_ENCODING)", strings.Join(codec.Encodings(), " or ")))
	flags.StringVar(&provider.LogLevel, "log-level", "", "Log level (env PERSIST_LOG_LEVEL)")

	rootCmd.AddCommand(newSaveCmd(provider))
	rootCmd.AddCommand(newLoadCmd(provider))
	rootCmd.AddCommand(newInspectCmd(provider))
	rootCmd.AddCommand(newResetCmd(provider))
	rootCmd.AddCommand(newRunCmd(provider))

	return rootCmd
}
