package rule

import (
	"sort"
	"strings"
	"sync"
	"time"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

const engineCEL = "cel"

// celEvaluator executes expressions using github.com/google/cel-go. CEL needs
// every variable declared up front, so programs are cached per set of var
// names.
type celEvaluator struct {
	cfg config
}

type celProgram struct {
	program celgo.Program
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...Option) Evaluator {
	return &celEvaluator{cfg: applyOptions(opts)}
}

func (e *celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	program, cached, err := e.loadOrCompile(expression, varNames(ctx.Vars))
	if err != nil {
		err = wrapEvaluationError(engineCEL, expression, ctx.Scope, err)
		e.cfg.log(engineCEL, expression, ctx, start, cached, nil, err)
		return nil, err
	}
	result, err := e.run(ctx, expression, program)
	e.cfg.log(engineCEL, expression, ctx, start, cached, result, err)
	return result, err
}

// Compile validates the syntax of expression. Type checking needs the var
// names of each Context, so the rule compiles one program per set of names
// and keeps them for reuse.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, wrapEvaluationError(engineCEL, expression, "", ErrEmptyExpression)
	}
	env, err := e.buildEnv(nil)
	if err != nil {
		return nil, wrapEvaluationError(engineCEL, expression, "", err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(engineCEL, expression, "", issues.Err())
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, names []string) (*celProgram, bool, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, false, ErrEmptyExpression
	}
	key := engineCEL + ":" + strings.Join(names, ",") + ":" + expression
	if cached, ok := e.cfg.cached(key); ok {
		if program, ok := cached.(*celProgram); ok {
			return program, true, nil
		}
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, false, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, false, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, false, err
	}

	bundle := &celProgram{program: prg}
	e.cfg.store(key, bundle)
	return bundle, false, nil
}

func (e *celEvaluator) buildEnv(names []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("vars", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("flags", celgo.MapType(celgo.StringType, celgo.BoolType)),
		celgo.Variable("values", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("scope", celgo.StringType),
	}
	if e.cfg.functions != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return e.call(name, nil)
				}),
			),
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(func(name, args ref.Val) ref.Val {
					return e.call(name, args)
				}),
			),
		))
	}
	for _, name := range names {
		if _, reserved := reservedNames[name]; reserved {
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(ctx Context, expression string, program *celProgram) (any, error) {
	out, _, err := program.program.Eval(ctx.environment())
	if err != nil {
		return nil, wrapEvaluationError(engineCEL, expression, ctx.Scope, err)
	}
	return out.Value(), nil
}

// call bridges call(name) and call(name, [args]) to the function registry.
func (e *celEvaluator) call(name, args ref.Val) ref.Val {
	fnName, ok := name.Value().(string)
	if !ok {
		return types.NewErr("rule: call name must be a string")
	}
	var arguments []any
	if lister, ok := args.(traits.Lister); ok {
		size, _ := lister.Size().(types.Int)
		arguments = make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			arguments = append(arguments, lister.Get(i).Value())
		}
	}
	result, err := e.cfg.functions.Call(fnName, arguments...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	// programs maps joined var names to *celProgram.
	programs sync.Map
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	start := time.Now()
	program, cached, err := r.program(varNames(ctx.Vars))
	if err != nil {
		err = wrapEvaluationError(engineCEL, r.expression, ctx.Scope, err)
		r.evaluator.cfg.log(engineCEL, r.expression, ctx, start, cached, nil, err)
		return nil, err
	}
	result, err := r.evaluator.run(ctx, r.expression, program)
	r.evaluator.cfg.log(engineCEL, r.expression, ctx, start, cached, result, err)
	return result, err
}

func (r *celCompiledRule) program(names []string) (*celProgram, bool, error) {
	key := strings.Join(names, ",")
	if existing, ok := r.programs.Load(key); ok {
		return existing.(*celProgram), true, nil
	}
	program, cached, err := r.evaluator.loadOrCompile(r.expression, names)
	if err != nil {
		return nil, false, err
	}
	actual, _ := r.programs.LoadOrStore(key, program)
	return actual.(*celProgram), cached, nil
}

func varNames(vars map[string]any) []string {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
