package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch reports a stored value that cannot be used as the
	// requested type.
	ErrTypeMismatch = errors.New("settings: type mismatch")
	// ErrConstruction reports a mergeable value or sequence that could not
	// produce an empty instance of itself.
	ErrConstruction = errors.New("settings: cannot construct empty value")
)

// TypeError describes a typed read or sequence append that found a value of an
// incompatible type.
type TypeError struct {
	Key  string
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: key %q holds %s, want %s", e.Key, e.Got, e.Want)
}

// Is lets errors.Is match ErrTypeMismatch.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ConstructionError describes a failed empty-instance construction during
// Apply.
type ConstructionError struct {
	Key  string
	Type string
	Err  error
}

func (e *ConstructionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("settings: key %q: construct empty %s: %v", e.Key, e.Type, e.Err)
	}
	return fmt.Sprintf("settings: key %q: construct empty %s", e.Key, e.Type)
}

func (e *ConstructionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match ErrConstruction.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func wrapApplyError(key string, err error) error {
	if err == nil {
		return nil
	}
	var typeErr *TypeError
	if errors.As(err, &typeErr) && typeErr.Key == "" {
		typeErr.Key = key
	}
	var constructErr *ConstructionError
	if errors.As(err, &constructErr) && constructErr.Key == "" {
		constructErr.Key = key
	}
	return fmt.Errorf("settings: apply %q: %w", key, err)
}
