// Package jsapp hosts a JavaScript application in a goja VM and connects it
// to a ports.Set, the way a host page connects a front-end app to its ports.
//
// The script sees:
//
//	app.ports.saveToStorage.send(value)
//	app.ports.doLoadFromStorage.send()
//	app.ports.loadFromStorage.subscribe(function (value) { ... })
//	console.log(...) / console.info / console.warn / console.error
//
// A host failure, such as a store refusing a save, is thrown from the send
// that caused it, the way a throwing setItem surfaces in a browser app.
//
// goja VMs are single-threaded. Sends on the set's LoadResponse port must
// happen on the goroutine running the script, which is the case when a
// persist.Bridge is attached to the same set.
package jsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/goliatone/go-persist/pkg/ports"
)

// ConsoleFunc receives console output from the script.
type ConsoleFunc func(level, message string)

// Option configures a Runtime.
type Option func(*config)

type config struct {
	console ConsoleFunc
	globals map[string]any
}

// WithConsole routes console.* calls to fn.
func WithConsole(fn ConsoleFunc) Option {
	return func(cfg *config) {
		cfg.console = fn
	}
}

// WithGlobal defines a global value before any script runs.
func WithGlobal(name string, value any) Option {
	return func(cfg *config) {
		if cfg.globals == nil {
			cfg.globals = map[string]any{}
		}
		cfg.globals[name] = value
	}
}

// Runtime is one hosted application.
type Runtime struct {
	vm      *goja.Runtime
	set     *ports.Set
	console ConsoleFunc

	mu     sync.Mutex
	unsubs []func()
	// callbackErr holds an exception thrown by a subscriber, or a host failure
	// reported on the errors port, while a port was delivering; it is rethrown
	// from the send that triggered delivery.
	callbackErr error
}

// New creates a VM bound to set.
func New(set *ports.Set, opts ...Option) (*Runtime, error) {
	if set == nil {
		return nil, fmt.Errorf("jsapp: port set is required")
	}
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Runtime{
		vm:      goja.New(),
		set:     set,
		console: cfg.console,
	}
	if err := r.install(); err != nil {
		return nil, err
	}
	for name, value := range cfg.globals {
		if err := r.vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("jsapp: set global %q: %w", name, err)
		}
	}
	return r, nil
}

// Run executes source as a script named name. Cancelling ctx interrupts the
// VM.
func (r *Runtime) Run(ctx context.Context, name, source string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.vm.ClearInterrupt()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err := r.vm.RunScript(name, source)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			r.vm.ClearInterrupt()
			return fmt.Errorf("jsapp: %s interrupted: %w", name, ctx.Err())
		}
		return fmt.Errorf("jsapp: run %s: %w", name, err)
	}
	return nil
}

// Eval evaluates a JavaScript expression in the application's global scope
// and exports the result.
func (r *Runtime) Eval(expression string) (any, error) {
	value, err := r.vm.RunString(expression)
	if err != nil {
		return nil, fmt.Errorf("jsapp: eval: %w", err)
	}
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}
	return value.Export(), nil
}

// Close removes every subscription the runtime and its script registered.
func (r *Runtime) Close() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}

func (r *Runtime) install() error {
	vm := r.vm

	save := vm.NewObject()
	if err := save.Set("send", func(call goja.FunctionCall) goja.Value {
		r.set.Save.Send(exportArg(call))
		r.rethrow()
		return goja.Undefined()
	}); err != nil {
		return err
	}

	loadRequest := vm.NewObject()
	if err := loadRequest.Set("send", func(goja.FunctionCall) goja.Value {
		r.set.LoadRequest.Send(struct{}{})
		r.rethrow()
		return goja.Undefined()
	}); err != nil {
		return err
	}

	loadResponse := vm.NewObject()
	if err := loadResponse.Set("subscribe", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("loadFromStorage.subscribe expects a function"))
		}
		unsubscribe := r.set.LoadResponse.Subscribe(func(value any) {
			arg := goja.Null()
			if value != nil {
				arg = vm.ToValue(value)
			}
			if _, err := fn(goja.Undefined(), arg); err != nil {
				r.keep(err)
			}
		})
		r.mu.Lock()
		r.unsubs = append(r.unsubs, unsubscribe)
		r.mu.Unlock()
		return vm.ToValue(func() { unsubscribe() })
	}); err != nil {
		return err
	}

	if r.set.Errors != nil {
		r.unsubs = append(r.unsubs, r.set.Errors.Subscribe(r.keep))
	}

	portsObj := vm.NewObject()
	for name, port := range map[string]*goja.Object{
		ports.SaveName:         save,
		ports.LoadRequestName:  loadRequest,
		ports.LoadResponseName: loadResponse,
	} {
		if err := portsObj.Set(name, port); err != nil {
			return err
		}
	}
	app := vm.NewObject()
	if err := app.Set("ports", portsObj); err != nil {
		return err
	}
	if err := vm.Set("app", app); err != nil {
		return err
	}
	return vm.Set("console", r.consoleObject())
}

func (r *Runtime) consoleObject() *goja.Object {
	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		lvl := level
		_ = console.Set(lvl, func(call goja.FunctionCall) goja.Value {
			if r.console == nil {
				return goja.Undefined()
			}
			parts := make([]string, 0, len(call.Arguments))
			for _, arg := range call.Arguments {
				parts = append(parts, arg.String())
			}
			r.console(lvl, strings.Join(parts, " "))
			return goja.Undefined()
		})
	}
	return console
}

// keep records the first failure of the current delivery.
func (r *Runtime) keep(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	if r.callbackErr == nil {
		r.callbackErr = err
	}
	r.mu.Unlock()
}

// rethrow raises a subscriber exception recorded during the last delivery in
// the calling script.
func (r *Runtime) rethrow() {
	r.mu.Lock()
	err := r.callbackErr
	r.callbackErr = nil
	r.mu.Unlock()
	if err == nil {
		return
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		panic(exception.Value())
	}
	panic(r.vm.NewGoError(err))
}

func exportArg(call goja.FunctionCall) any {
	arg := call.Argument(0)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return nil
	}
	return arg.Export()
}
