package inspect

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct{}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh VM.
func NewJSEvaluator() Evaluator {
	return jsEvaluator{}
}

func (jsEvaluator) Engine() string { return "js" }

func (e jsEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluationError(e.Engine(), expression, errEmptyExpression)
	}
	vm := goja.New()
	for name, value := range ctx.withDefaults().bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError(e.Engine(), expression, err)
		}
	}
	value, err := vm.RunString(fmt.Sprintf("(function(){ return (%s); })()", expression))
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, err)
	}
	return value.Export(), nil
}
