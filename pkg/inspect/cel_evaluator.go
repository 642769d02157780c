package inspect

import (
	"fmt"
	"regexp"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

var celIdentifier = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)

var celReserved = map[string]struct{}{
	"as": {}, "break": {}, "const": {}, "continue": {}, "else": {}, "false": {},
	"for": {}, "function": {}, "if": {}, "import": {}, "in": {}, "let": {},
	"loop": {}, "package": {}, "namespace": {}, "null": {}, "return": {},
	"true": {}, "var": {}, "void": {}, "while": {},
}

type celEvaluator struct{}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Bound variables
// are typed dyn; record keys that are not CEL identifiers are reachable only
// through record["key"].
func NewCELEvaluator() Evaluator {
	return celEvaluator{}
}

func (celEvaluator) Engine() string { return "cel" }

func (e celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluationError(e.Engine(), expression, errEmptyExpression)
	}
	activation := ctx.withDefaults().bindings()

	opts := make([]celgo.EnvOption, 0, len(activation))
	for name := range activation {
		if !celIdentifier.MatchString(name) {
			delete(activation, name)
			continue
		}
		if _, reserved := celReserved[name]; reserved {
			delete(activation, name)
			continue
		}
		if name == "now" {
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, err)
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, err)
	}
	return exportCEL(out), nil
}

// exportCEL converts CEL containers to plain Go values.
func exportCEL(val ref.Val) any {
	native := val.Value()
	switch v := native.(type) {
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[stringKey(key)] = exportCEL(value)
		}
		return out
	case []ref.Val:
		out := make([]any, 0, len(v))
		for _, value := range v {
			out = append(out, exportCEL(value))
		}
		return out
	default:
		return native
	}
}

func stringKey(key ref.Val) string {
	if s, ok := key.Value().(string); ok {
		return s
	}
	return fmt.Sprint(key.Value())
}
