package settings

import (
	"fmt"
	"reflect"
)

// Get returns the value stored under key as T. An absent key yields the zero
// value of T; use Lookup when absence must be told apart from a stored zero.
func Get[T any](s *Store, key string) (T, error) {
	value, _, err := Lookup[T](s, key)
	return value, err
}

// Lookup returns the value stored under key as T and whether the key is set.
func Lookup[T any](s *Store, key string) (T, bool, error) {
	var zero T
	if s == nil {
		return zero, false, nil
	}
	raw, ok := s.Value(key)
	if !ok {
		return zero, false, nil
	}
	value, err := cast[T](key, raw)
	if err != nil {
		return zero, true, err
	}
	return value, true, nil
}

// GetOrInit returns the value stored under key, calling initializer and
// storing its result when the key is absent. Concurrent first calls on the
// same key share a single initializer run, and every caller receives the value
// that was actually stored.
func GetOrInit[T any](s *Store, key string, initializer func() T) (T, error) {
	var zero T
	if s == nil {
		return zero, fmt.Errorf("settings: store is nil")
	}
	if raw, ok := s.Value(key); ok {
		return cast[T](key, raw)
	}
	if initializer == nil {
		return zero, fmt.Errorf("settings: initializer for %q is nil", key)
	}

	raw, err, _ := s.inits.Do(key, func() (any, error) {
		if existing, ok := s.Value(key); ok {
			return existing, nil
		}
		stored, _ := s.loadOrStore(key, any(initializer()))
		return stored, nil
	})
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, nil
	}
	return cast[T](key, raw)
}

func cast[T any](key string, raw any) (T, error) {
	if value, ok := raw.(T); ok {
		return value, nil
	}
	var zero T
	return zero, &TypeError{
		Key:  key,
		Want: reflect.TypeOf((*T)(nil)).Elem().String(),
		Got:  typeName(raw),
	}
}

// Ptr returns a pointer to value, handy for SetBool.
func Ptr[T any](value T) *T {
	return &value
}
