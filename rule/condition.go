package rule

import (
	"fmt"
	"strings"
	"sync"

	settings "github.com/goliatone/go-settings"
)

// Condition is a boolean expression attached to a mapping scope.
type Condition struct {
	Expr        string
	Description string
}

// Conditions is an ordered, mutex-guarded list of conditions. It is a
// settings.Sequence, so conditions set at a weaker scope are appended after
// the stronger scope's own when stores are applied.
type Conditions struct {
	mu    sync.RWMutex
	items []Condition
}

var _ settings.ConcurrentSequence = (*Conditions)(nil)

// NewConditions builds a list from items.
func NewConditions(items ...Condition) *Conditions {
	return &Conditions{items: append([]Condition(nil), items...)}
}

// Add appends conditions.
func (c *Conditions) Add(items ...Condition) {
	c.mu.Lock()
	c.items = append(c.items, items...)
	c.mu.Unlock()
}

// Items returns a copy of the conditions.
func (c *Conditions) Items() []Condition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Condition(nil), c.items...)
}

// Len returns the number of conditions.
func (c *Conditions) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Conditions) NewEmptySequence() settings.Sequence {
	return NewConditions()
}

func (c *Conditions) Elements() []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]any, len(c.items))
	for i, item := range c.items {
		out[i] = item
	}
	return out
}

// AppendElements accepts Condition values and plain expression strings.
func (c *Conditions) AppendElements(elements ...any) error {
	typed := make([]Condition, 0, len(elements))
	for _, element := range elements {
		switch value := element.(type) {
		case Condition:
			typed = append(typed, value)
		case string:
			typed = append(typed, Condition{Expr: value})
		default:
			return &settings.TypeError{Want: "rule.Condition", Got: fmt.Sprintf("%T", element)}
		}
	}
	c.Add(typed...)
	return nil
}

func (c *Conditions) ConcurrentSafe() bool {
	return true
}

// Any reports whether at least one condition holds. An empty list yields false.
func (c *Conditions) Any(evaluator Evaluator, ctx Context) (bool, error) {
	if evaluator == nil {
		return false, ErrNoEvaluator
	}
	for _, condition := range c.Items() {
		ok, err := condition.evaluate(evaluator, ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// All reports whether every condition holds. An empty list yields true.
func (c *Conditions) All(evaluator Evaluator, ctx Context) (bool, error) {
	if evaluator == nil {
		return false, ErrNoEvaluator
	}
	for _, condition := range c.Items() {
		ok, err := condition.evaluate(evaluator, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate runs the condition and requires a boolean result.
func (c Condition) Evaluate(evaluator Evaluator, ctx Context) (bool, error) {
	if evaluator == nil {
		return false, ErrNoEvaluator
	}
	return c.evaluate(evaluator, ctx)
}

func (c Condition) evaluate(evaluator Evaluator, ctx Context) (bool, error) {
	result, err := evaluator.Evaluate(ctx, c.Expr)
	if err != nil {
		return false, err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, &EvaluationError{
			Expr:  c.Expr,
			Scope: ctx.Scope,
			Err:   fmt.Errorf("%w: got %T", ErrNotBool, result),
		}
	}
	return ok, nil
}

// AddConditions appends conditions to the list stored under key, creating it
// on first use.
func AddConditions(store *settings.Store, key string, items ...Condition) (*Conditions, error) {
	conditions, err := settings.GetOrInit(store, key, func() *Conditions { return NewConditions() })
	if err != nil {
		return nil, err
	}
	conditions.Add(items...)
	return conditions, nil
}

// Match evaluates the conditions stored under key and reports whether any of
// them holds. A key without conditions never matches. The store itself is
// exposed to the expressions as ctx.Settings when ctx has none.
func Match(store *settings.Store, key string, evaluator Evaluator, ctx Context) (bool, error) {
	conditions, ok, err := settings.Lookup[*Conditions](store, key)
	if err != nil {
		return false, fmt.Errorf("rule: conditions %q: %w", strings.TrimSpace(key), err)
	}
	if !ok || conditions == nil {
		return false, nil
	}
	if ctx.Settings == nil {
		ctx.Settings = store
	}
	return conditions.Any(evaluator, ctx)
}
