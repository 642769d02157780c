package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	persist "github.com/goliatone/go-persist"
	"github.com/goliatone/go-persist/internal/config"
	"github.com/goliatone/go-persist/pkg/inspect"
	"github.com/goliatone/go-persist/pkg/store"
	"github.com/goliatone/go-persist/pkg/store/sqlitestore"
	"github.com/goliatone/go-persist/pkg/store/yamlstore"
)

// setupTestApp creates an App over a fresh MemoryStore.
func setupTestApp(t *testing.T, mutate func(*config.Config)) (*App, *store.MemoryStore, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Store = config.StoreMemory
	if mutate != nil {
		mutate(&cfg)
	}
	st := store.NewMemoryStore()
	app, err := NewApp(cfg, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	var out bytes.Buffer
	app.Out = &out
	app.Err = &bytes.Buffer{}
	app.In = strings.NewReader("")
	return app, st, &out
}

func run(t *testing.T, app *App, args ...string) error {
	t.Helper()
	cmd := newRootCmd(NewTestProvider(app))
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestSaveThenLoad(t *testing.T) {
	app, _, out := setupTestApp(t, nil)

	if err := run(t, app, "save", `{"theme":"dark","volume":7}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "Saved persisted_config" {
		t.Fatalf("unexpected save output %q", got)
	}

	out.Reset()
	if err := run(t, app, "load"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `{"theme":"dark","volume":7}` {
		t.Fatalf("unexpected load output %q", got)
	}
}

func TestSaveFromStdin(t *testing.T) {
	app, st, _ := setupTestApp(t, nil)
	app.In = strings.NewReader("  [1, 2, 3]\n")

	if err := run(t, app, "save", "-"); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, err := st.GetItem(context.Background(), persist.DefaultKey)
	if err != nil || !ok {
		t.Fatalf("expected stored record, ok=%v err=%v", ok, err)
	}
	if raw != "[1,2,3]" {
		t.Fatalf("unexpected stored text %q", raw)
	}
}

func TestSaveRejectsInvalidJSON(t *testing.T) {
	app, st, _ := setupTestApp(t, nil)
	err := run(t, app, "save", "{not json")
	if err == nil || !strings.Contains(err.Error(), "invalid JSON payload") {
		t.Fatalf("expected invalid payload error, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestSaveEmptyStdin(t *testing.T) {
	app, _, _ := setupTestApp(t, nil)
	if err := run(t, app, "save"); err == nil {
		t.Fatalf("expected empty payload error")
	}
}

func TestLoadAbsent(t *testing.T) {
	app, _, out := setupTestApp(t, nil)

	if err := run(t, app, "load"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "null" {
		t.Fatalf("expected null, got %q", got)
	}

	out.Reset()
	if err := run(t, app, "load", "--quiet"); err != nil {
		t.Fatalf("load quiet: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestLoadCorruptRecordIsRemoved(t *testing.T) {
	app, st, out := setupTestApp(t, nil)
	if err := st.SetItem(context.Background(), persist.DefaultKey, "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := run(t, app, "load"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "null" {
		t.Fatalf("expected null, got %q", got)
	}
	if _, ok, _ := st.GetItem(context.Background(), persist.DefaultKey); ok {
		t.Fatalf("expected corrupt record removed")
	}
}

func TestLoadPretty(t *testing.T) {
	app, _, out := setupTestApp(t, nil)
	if err := run(t, app, "save", `{"a":1}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	out.Reset()
	if err := run(t, app, "load", "--pretty"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := out.String(); got != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("unexpected pretty output %q", got)
	}
}

func TestSaveBase64Encoding(t *testing.T) {
	app, st, out := setupTestApp(t, func(cfg *config.Config) { cfg.Encoding = "base64" })

	if err := run(t, app, "save", `{"a":1}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, _ := st.GetItem(context.Background(), persist.DefaultKey)
	if raw != "eyJhIjoxfQ==" {
		t.Fatalf("expected base64 record, got %q", raw)
	}

	out.Reset()
	if err := run(t, app, "load"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `{"a":1}` {
		t.Fatalf("unexpected load output %q", got)
	}
}

func TestCustomKey(t *testing.T) {
	app, st, _ := setupTestApp(t, func(cfg *config.Config) { cfg.Key = "prefs" })
	if err := run(t, app, "save", `true`); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := st.GetItem(context.Background(), "prefs"); !ok {
		t.Fatalf("expected record under custom key")
	}
}

func TestReset(t *testing.T) {
	app, st, out := setupTestApp(t, nil)
	if err := run(t, app, "save", `{"a":1}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	out.Reset()
	if err := run(t, app, "reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "Removed persisted_config" {
		t.Fatalf("unexpected reset output %q", got)
	}
	if st.Len() != 0 {
		t.Fatalf("expected store empty after reset")
	}
}

func TestInspect(t *testing.T) {
	app, _, out := setupTestApp(t, nil)
	if err := run(t, app, "save", `{"theme":"dark","volume":7,"panels":["a","b"]}`); err != nil {
		t.Fatalf("save: %v", err)
	}

	cases := []struct {
		engine string
		expr   string
		want   string
	}{
		{engine: "expr", expr: `theme == "dark" && volume > 5`, want: "true"},
		{engine: "cel", expr: `size(panels)`, want: "2"},
		{engine: "js", expr: `record.theme.toUpperCase()`, want: `"DARK"`},
	}
	for _, tc := range cases {
		t.Run(tc.engine, func(t *testing.T) {
			out.Reset()
			if err := run(t, app, "inspect", "--engine", tc.engine, tc.expr); err != nil {
				t.Fatalf("inspect: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestInspectWithoutRecord(t *testing.T) {
	app, _, _ := setupTestApp(t, nil)
	err := run(t, app, "inspect", "true")
	if !errors.Is(err, inspect.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestInspectUnknownEngine(t *testing.T) {
	app, _, _ := setupTestApp(t, nil)
	err := run(t, app, "inspect", "--engine", "lua", "true")
	if !errors.Is(err, inspect.ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
}

func TestRunScript(t *testing.T) {
	app, st, out := setupTestApp(t, nil)
	script := filepath.Join(t.TempDir(), "app.js")
	source := `
var received;
app.ports.loadFromStorage.subscribe(function (value) { received = value; });
app.ports.saveToStorage.send({ theme: "dark" });
app.ports.doLoadFromStorage.send();
console.log("loaded");
`
	if err := os.WriteFile(script, []byte(source), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if err := run(t, app, "run", script, "--eval", "received.theme"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `"dark"` {
		t.Fatalf("unexpected eval output %q", got)
	}
	if st.Len() != 1 {
		t.Fatalf("expected script to persist a record")
	}
}

func TestRunMissingScript(t *testing.T) {
	app, _, _ := setupTestApp(t, nil)
	if err := run(t, app, "run", filepath.Join(t.TempDir(), "missing.js")); err == nil {
		t.Fatalf("expected error for missing script")
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Store = config.StoreMemory
	st, closer, err := OpenStore(cfg)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", st)
	}
	_ = closer.Close()

	cfg.Store = config.StoreYAML
	cfg.Path = filepath.Join(dir, "storage.yaml")
	st, closer, err = OpenStore(cfg)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if ys, ok := st.(*yamlstore.Store); !ok || ys.Path() != cfg.Path {
		t.Fatalf("expected yaml store at %s, got %T", cfg.Path, st)
	}
	_ = closer.Close()

	cfg.Store = config.StoreSQLite
	cfg.Path = filepath.Join(dir, "nested", "persist.db")
	st, closer, err = OpenStore(cfg)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := st.(*sqlitestore.Store); !ok {
		t.Fatalf("expected sqlite store, got %T", st)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}

	cfg.Store = "redis"
	if _, _, err := OpenStore(cfg); err == nil {
		t.Fatalf("expected unknown store error")
	}
}

func TestProviderFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	t.Setenv("PERSIST_STORE", "yaml")
	t.Setenv("PERSIST_PATH", path)
	t.Setenv("PERSIST_ENCODING", "base64")
	t.Setenv("PERSIST_LOG_FORMAT", "json")

	var out, errOut bytes.Buffer
	provider := &AppProvider{Out: &out, Err: &errOut, In: strings.NewReader("")}
	defer provider.Close()

	cmd := newRootCmd(provider)
	cmd.SetArgs([]string{"save", `{"a":1}`})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read yaml store: %v", err)
	}
	if !strings.Contains(string(raw), "eyJhIjoxfQ==") {
		t.Fatalf("expected base64 record in yaml file, got %q", raw)
	}
}

func TestProviderFlagOverrides(t *testing.T) {
	t.Setenv("PERSIST_STORE", "yaml")
	t.Setenv("PERSIST_LOG_FORMAT", "json")

	provider := &AppProvider{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}
	defer provider.Close()

	cmd := newRootCmd(provider)
	cmd.SetArgs([]string{"--store", "memory", "--key", "flagged", "load", "--quiet"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("load: %v", err)
	}
	app, err := provider.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if app.Config.Store != config.StoreMemory || app.Bridge.Key() != "flagged" {
		t.Fatalf("expected flag overrides, got %+v", app.Config)
	}
}

func TestProviderRejectsInvalidConfig(t *testing.T) {
	t.Setenv("PERSIST_STORE", "redis")
	provider := &AppProvider{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}
	if _, err := provider.Get(); err == nil {
		t.Fatalf("expected validation error")
	}
}
