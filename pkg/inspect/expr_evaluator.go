package inspect

import (
	exprlang "github.com/expr-lang/expr"
)

// exprEvaluator executes expressions using github.com/expr-lang/expr.
type exprEvaluator struct{}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator() Evaluator {
	return exprEvaluator{}
}

func (exprEvaluator) Engine() string { return "expr" }

func (e exprEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluationError(e.Engine(), expression, errEmptyExpression)
	}
	env := ctx.withDefaults().bindings()
	program, err := exprlang.Compile(expression, exprlang.Env(env), exprlang.AllowUndefinedVariables())
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, err)
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapEvaluationError(e.Engine(), expression, err)
	}
	return result, nil
}
