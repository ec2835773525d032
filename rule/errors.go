package rule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEvaluator indicates a condition evaluated without an engine.
	ErrNoEvaluator = errors.New("rule: evaluator is not configured")
	// ErrEmptyExpression indicates a blank expression.
	ErrEmptyExpression = errors.New("rule: expression must not be empty")
	// ErrNotBool indicates a condition whose result is not a boolean.
	ErrNotBool = errors.New("rule: condition result is not a boolean")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("rule: %s evaluator %s scope=%s: %v", e.Engine, describeExpression(e.Expr), e.Scope, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if strings.TrimSpace(expr) == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

// wrapEvaluationError decorates err with engine metadata, filling the blanks of
// an existing EvaluationError instead of nesting a second one.
func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Scope:  scope,
		Err:    err,
	}
}
