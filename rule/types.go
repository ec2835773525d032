package rule

import (
	"time"

	settings "github.com/goliatone/go-settings"
)

// Evaluator evaluates expressions against a rule Context.
type Evaluator interface {
	Evaluate(ctx Context, expression string) (any, error)
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is an expression compiled once and evaluated many times.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// ProgramCache stores compiled programs keyed by engine and expression.
// *settings.Store satisfies it.
type ProgramCache interface {
	Value(key string) (any, bool)
	Set(key string, value any)
}

var _ ProgramCache = (*settings.Store)(nil)

// Context carries the inputs an expression can see.
//
// The evaluation environment exposes:
//
//	now     the evaluation time (Now, or time.Now when nil)
//	vars    Vars, also bound one by one at top level
//	flags   every flag of Settings
//	values  every typed value of Settings
//	scope   Scope
type Context struct {
	Settings *settings.Store
	Vars     map[string]any
	Now      *time.Time
	Scope    string
}

func (c Context) timestamp() time.Time {
	if c.Now != nil {
		return *c.Now
	}
	return time.Now()
}

func (c Context) flags() map[string]bool {
	out := map[string]bool{}
	if c.Settings == nil {
		return out
	}
	for _, key := range c.Settings.BoolKeys() {
		if value, ok := c.Settings.LookupBool(key); ok {
			out[key] = value
		}
	}
	return out
}

func (c Context) values() map[string]any {
	out := map[string]any{}
	if c.Settings == nil {
		return out
	}
	for _, key := range c.Settings.Keys() {
		if value, ok := c.Settings.Value(key); ok {
			out[key] = value
		}
	}
	return out
}

func (c Context) vars() map[string]any {
	if c.Vars == nil {
		return map[string]any{}
	}
	return c.Vars
}

// environment returns the variables shared by every engine. Vars are bound at
// top level first so the reserved names always win.
func (c Context) environment() map[string]any {
	env := make(map[string]any, len(c.Vars)+5)
	for key, value := range c.Vars {
		env[key] = value
	}
	env["now"] = c.timestamp()
	env["vars"] = c.vars()
	env["flags"] = c.flags()
	env["values"] = c.values()
	env["scope"] = c.Scope
	return env
}
