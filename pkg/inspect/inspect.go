// Package inspect evaluates read-only expressions against the persisted
// record, for operators checking what an installation has saved.
//
// Three engines are available: "expr" (expr-lang/expr), "cel" (cel-go) and
// "js" (goja). Each binds the record's top-level keys as variables, plus
// "record" for the whole value and "now" for the evaluation time.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	persist "github.com/goliatone/go-persist"
)

var (
	ErrNoRecord      = errors.New("inspect: no persisted record")
	ErrUnknownEngine = errors.New("inspect: unknown engine")
)

// Context carries the inputs of one evaluation.
type Context struct {
	Record any
	Now    *time.Time
}

func (ctx Context) withDefaults() Context {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	return ctx
}

func (ctx Context) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

// bindings returns the variable set shared by all engines.
func (ctx Context) bindings() map[string]any {
	vars := map[string]any{}
	if record, ok := ctx.Record.(map[string]any); ok {
		for key, value := range record {
			vars[key] = value
		}
	}
	vars["record"] = ctx.Record
	vars["now"] = ctx.timestamp()
	return vars
}

// Evaluator executes an expression against a Context.
type Evaluator interface {
	Engine() string
	Evaluate(ctx Context, expression string) (any, error)
}

var engines = map[string]func() Evaluator{
	"expr": NewExprEvaluator,
	"cel":  NewCELEvaluator,
	"js":   NewJSEvaluator,
}

// Engines lists the available engine names.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the evaluator registered under engine.
func New(engine string) (Evaluator, error) {
	factory, ok := engines[strings.ToLower(strings.TrimSpace(engine))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownEngine, engine, strings.Join(Engines(), ", "))
	}
	return factory(), nil
}

// Query loads the record through bridge and evaluates expression against it.
// An absent record is ErrNoRecord.
func Query(ctx context.Context, bridge *persist.Bridge, evaluator Evaluator, expression string) (any, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("inspect: evaluator is required")
	}
	resp, err := bridge.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNoRecord
	}
	return evaluator.Evaluate(Context{Record: resp.Value}, expression)
}
