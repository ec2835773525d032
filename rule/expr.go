package rule

import (
	"strings"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const engineExpr = "expr"

// exprEvaluator executes expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	cfg config
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...Option) Evaluator {
	return &exprEvaluator{cfg: applyOptions(opts)}
}

func (e *exprEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	program, cached, err := e.loadOrCompile(expression)
	if err != nil {
		err = wrapEvaluationError(engineExpr, expression, ctx.Scope, err)
		e.cfg.log(engineExpr, expression, ctx, start, cached, nil, err)
		return nil, err
	}
	result, err := e.run(ctx, expression, program)
	e.cfg.log(engineExpr, expression, ctx, start, cached, result, err)
	return result, err
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	program, _, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(engineExpr, expression, "", err)
	}
	return &exprCompiledRule{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, bool, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, false, ErrEmptyExpression
	}
	key := engineExpr + ":" + expression
	if cached, ok := e.cfg.cached(key); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, true, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(compileEnv(e.cfg.functions)),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.cfg.functions.Names() {
		options = append(options, exprlang.Function(name, e.cfg.functions.caller(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, false, err
	}
	e.cfg.store(key, program)
	return program, false, nil
}

func (e *exprEvaluator) run(ctx Context, expression string, program *exprvm.Program) (any, error) {
	result, err := exprlang.Run(program, e.environment(ctx))
	if err != nil {
		return nil, wrapEvaluationError(engineExpr, expression, ctx.Scope, err)
	}
	return result, nil
}

func (e *exprEvaluator) environment(ctx Context) map[string]any {
	env := ctx.environment()
	if e.cfg.functions != nil {
		env["call"] = e.cfg.functions.Call
	}
	return env
}

// compileEnv declares the reserved names so they shadow expr builtins such as
// now() and values().
func compileEnv(functions *FunctionRegistry) map[string]any {
	env := map[string]any{
		"now":    time.Time{},
		"vars":   map[string]any{},
		"flags":  map[string]bool{},
		"values": map[string]any{},
		"scope":  "",
	}
	if functions != nil {
		env["call"] = functions.Call
	}
	return env
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx Context) (any, error) {
	start := time.Now()
	result, err := r.evaluator.run(ctx, r.expression, r.program)
	r.evaluator.cfg.log(engineExpr, r.expression, ctx, start, true, result, err)
	return result, err
}
