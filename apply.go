package settings

import (
	"fmt"
	"reflect"
)

// Apply merges other into the receiver as a fallback layer. Keys already set
// on the receiver are never overwritten: missing flags and values are copied
// in, and values present on both sides are merged when the receiver's value is
// Mergeable or both values are sequences.
//
// Inherited Mergeable values, Sequences and slices are copied so the receiver
// never shares mutable state with other. Any other value is shared by
// reference.
//
// Keys are processed in sorted order, flags first. Apply stops at the first
// error; keys processed before it remain merged. Apply is not atomic and is
// meant to run while no other goroutine mutates the receiver.
func (s *Store) Apply(other *Store) error {
	if other == nil || other == s {
		return nil
	}

	flags, values := other.snapshot()
	for _, key := range sortedKeys(flags) {
		s.fillBool(key, flags[key])
	}
	for _, key := range sortedKeys(values) {
		if err := s.applyValue(key, values[key]); err != nil {
			return wrapApplyError(key, err)
		}
	}
	return nil
}

// NewEmpty returns an empty Store, making stores nestable as Mergeable values.
func (s *Store) NewEmpty() Mergeable {
	return NewStore()
}

// Merge applies other when it is a *Store and ignores anything else.
func (s *Store) Merge(other any) error {
	if store, ok := other.(*Store); ok {
		return s.Apply(store)
	}
	return nil
}

func (s *Store) applyValue(key string, value any) error {
	existing, ok := s.Value(key)
	if !ok {
		inherited, err := inherit(value)
		if err != nil {
			return err
		}
		stored, loaded := s.loadOrStore(key, inherited)
		if !loaded {
			return nil
		}
		existing = stored
	}
	return s.mergeExisting(key, existing, value)
}

func (s *Store) mergeExisting(key string, existing, value any) error {
	if mergeable, ok := existing.(Mergeable); ok {
		return mergeable.Merge(value)
	}

	elements, ok := sequenceElements(value)
	if !ok {
		return nil
	}
	if seq, ok := existing.(Sequence); ok {
		return s.appendSequence(key, seq, elements)
	}
	if isSlice(existing) {
		return s.appendStoredSlice(key, elements)
	}
	return nil
}

func (s *Store) appendSequence(key string, seq Sequence, elements []any) error {
	if concurrent, ok := seq.(ConcurrentSequence); ok && concurrent.ConcurrentSafe() {
		return seq.AppendElements(elements...)
	}
	mu := s.sequenceLock(key, seq)
	mu.Lock()
	defer mu.Unlock()
	return seq.AppendElements(elements...)
}

// appendStoredSlice replaces the slice stored under key with one that has
// elements appended. Slices are values, so the write goes back to the map.
func (s *Store) appendStoredSlice(key string, elements []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.values[key]
	if !ok || !isSlice(current) {
		return nil
	}
	out, err := appendSlice(current, elements)
	if err != nil {
		return err
	}
	s.values[key] = out
	return nil
}

// inherit prepares a value from an ancestor store for storage in a store that
// does not hold the key yet.
func inherit(value any) (any, error) {
	switch typed := value.(type) {
	case Mergeable:
		empty := typed.NewEmpty()
		if isNil(empty) {
			return nil, &ConstructionError{Type: typeName(value)}
		}
		if err := sameType(value, empty); err != nil {
			return nil, err
		}
		if err := empty.Merge(value); err != nil {
			return nil, err
		}
		return empty, nil
	case Sequence:
		empty := typed.NewEmptySequence()
		if isNil(empty) {
			return nil, &ConstructionError{Type: typeName(value)}
		}
		if err := sameType(value, empty); err != nil {
			return nil, err
		}
		if err := empty.AppendElements(typed.Elements()...); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if isSlice(value) {
		return cloneSlice(value), nil
	}
	return value, nil
}

// sameType rejects an empty instance whose concrete type differs from the
// value it was built from.
func sameType(value, empty any) error {
	if reflect.TypeOf(value) == reflect.TypeOf(empty) {
		return nil
	}
	return &ConstructionError{
		Type: typeName(value),
		Err:  fmt.Errorf("empty instance is %s", typeName(empty)),
	}
}
