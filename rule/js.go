//go:build js_eval

package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const engineJS = "js"

// jsEvaluator executes JavaScript expressions with goja. Each evaluation runs
// in a fresh runtime.
type jsEvaluator struct {
	cfg config
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...Option) Evaluator {
	return &jsEvaluator{cfg: applyOptions(opts)}
}

func (e *jsEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	program, cached, err := e.loadOrCompile(expression)
	if err != nil {
		err = wrapEvaluationError(engineJS, expression, ctx.Scope, err)
		e.cfg.log(engineJS, expression, ctx, start, cached, nil, err)
		return nil, err
	}
	result, err := e.run(ctx, expression, program)
	e.cfg.log(engineJS, expression, ctx, start, cached, result, err)
	return result, err
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	program, _, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, expression, "", err)
	}
	return &jsCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, bool, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, false, ErrEmptyExpression
	}
	key := engineJS + ":" + expression
	if cached, ok := e.cfg.cached(key); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, true, nil
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, false, err
	}
	e.cfg.store(key, program)
	return program, false, nil
}

func (e *jsEvaluator) run(ctx Context, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	for key, value := range ctx.environment() {
		if err := vm.Set(key, value); err != nil {
			return nil, wrapEvaluationError(engineJS, expression, ctx.Scope, err)
		}
	}
	if registry := e.cfg.functions; registry != nil {
		_ = vm.Set("call", func(name string, arguments ...any) (any, error) {
			return registry.Call(name, arguments...)
		})
		for _, name := range registry.Names() {
			_ = vm.Set(name, registry.caller(name))
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, expression, ctx.Scope, err)
	}
	return value.Export(), nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx Context) (any, error) {
	start := time.Now()
	result, err := r.evaluator.run(ctx, r.expression, r.program)
	r.evaluator.cfg.log(engineJS, r.expression, ctx, start, true, result, err)
	return result, err
}

func jsEvaluatorAvailable() bool {
	return true
}
