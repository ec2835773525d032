// Package registry owns the settings stores of a mapping configuration, one
// per scope (global, type pair, member), and resolves them along the
// inheritance chain.
package registry

import (
	"errors"
	"fmt"
	"strings"

	settings "github.com/goliatone/go-settings"
)

// Level identifies how specific a scope is. Higher levels override lower
// levels when settings are resolved.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelGlobal represents the weakest layer shared by every mapping.
	LevelGlobal
	// LevelTypePair represents settings for one source/destination type pair.
	LevelTypePair
	// LevelMember represents the strongest layer for a single destination member.
	LevelMember
)

func (l Level) String() string {
	switch l {
	case LevelGlobal:
		return "global"
	case LevelTypePair:
		return "pair"
	case LevelMember:
		return "member"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string representation into the corresponding Level.
// Returns LevelUnknown for unrecognised values.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "global":
		return LevelGlobal
	case "pair", "typepair", "type_pair":
		return LevelTypePair
	case "member":
		return LevelMember
	default:
		return LevelUnknown
	}
}

// Priority maps the level onto the settings scope priorities.
func (l Level) Priority() int {
	switch l {
	case LevelGlobal:
		return settings.ScopePriorityGlobal
	case LevelTypePair:
		return settings.ScopePriorityTypePair
	case LevelMember:
		return settings.ScopePriorityMember
	default:
		return 0
	}
}

// ErrInvalidRef indicates a Ref missing the fields its level requires.
var ErrInvalidRef = errors.New("registry: invalid ref")

// Ref names one configuration scope.
type Ref struct {
	Level       Level
	Source      string
	Destination string
	Member      string
}

// Global references the global scope.
func Global() Ref {
	return Ref{Level: LevelGlobal}
}

// TypePair references the scope of one source/destination type pair.
func TypePair(source, destination string) Ref {
	return Ref{Level: LevelTypePair, Source: source, Destination: destination}
}

// Member references the scope of one destination member of a type pair.
func Member(source, destination, member string) Ref {
	return Ref{Level: LevelMember, Source: source, Destination: destination, Member: member}
}

// Identifier returns a stable key such as "global", "pair/User->UserDTO" or
// "member/User->UserDTO/Name".
func (r Ref) Identifier() (string, error) {
	switch r.Level {
	case LevelGlobal:
		return "global", nil
	case LevelTypePair:
		if r.Source == "" || r.Destination == "" {
			return "", fmt.Errorf("%w: type pair requires source and destination", ErrInvalidRef)
		}
		if err := checkParts(r.Source, r.Destination); err != nil {
			return "", err
		}
		return fmt.Sprintf("pair/%s->%s", r.Source, r.Destination), nil
	case LevelMember:
		if r.Source == "" || r.Destination == "" || r.Member == "" {
			return "", fmt.Errorf("%w: member requires source, destination and member", ErrInvalidRef)
		}
		if err := checkParts(r.Source, r.Destination, r.Member); err != nil {
			return "", err
		}
		return fmt.Sprintf("member/%s->%s/%s", r.Source, r.Destination, r.Member), nil
	default:
		return "", fmt.Errorf("%w: unknown level", ErrInvalidRef)
	}
}

// checkParts rejects names holding an identifier separator, which would let
// two different refs share one identifier.
func checkParts(parts ...string) error {
	for _, part := range parts {
		if strings.Contains(part, "->") || strings.Contains(part, "/") {
			return fmt.Errorf("%w: %q contains a separator", ErrInvalidRef, part)
		}
	}
	return nil
}

// Parent returns the next weaker scope.
func (r Ref) Parent() (Ref, bool) {
	switch r.Level {
	case LevelMember:
		return TypePair(r.Source, r.Destination), true
	case LevelTypePair:
		return Global(), true
	default:
		return Ref{}, false
	}
}

// Chain returns r followed by its ancestors, strongest first.
func (r Ref) Chain() []Ref {
	chain := []Ref{r}
	for current := r; ; {
		parent, ok := current.Parent()
		if !ok {
			return chain
		}
		chain = append(chain, parent)
		current = parent
	}
}

// Scope describes r as a settings scope named by its identifier.
func (r Ref) Scope() settings.Scope {
	name, err := r.Identifier()
	if err != nil {
		name = "unknown"
	}
	return settings.NewScope(name, r.Level.Priority(), settings.WithScopeLabel(r.Level.String()))
}
