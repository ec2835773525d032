package settings

import (
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store holds the settings of one configuration scope. Flags live in a
// tri-state map (true, false, unset) separate from the typed values map so a
// flag lookup never collides with a typed lookup under the same key.
//
// The zero value is ready to use. A Store must not be copied after first use.
type Store struct {
	mu     sync.RWMutex
	flags  map[string]bool
	values map[string]any

	// seqLocks guards in-place appends on sequences that are not safe for
	// concurrent mutation and have no pointer identity. map[string]*sync.Mutex
	seqLocks sync.Map
	inits    singleflight.Group
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		flags:  make(map[string]bool),
		values: make(map[string]any),
	}
}

// SetBool stores value under key. A nil value clears the flag, which is
// indistinguishable from never having set it.
func (s *Store) SetBool(key string, value *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == nil {
		delete(s.flags, key)
		return
	}
	if s.flags == nil {
		s.flags = make(map[string]bool)
	}
	s.flags[key] = *value
}

// Bool returns the flag stored under key, or false when unset.
func (s *Store) Bool(key string) bool {
	value, _ := s.LookupBool(key)
	return value
}

// LookupBool returns the flag stored under key and whether it is set.
func (s *Store) LookupBool(key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.flags[key]
	return value, ok
}

// Set stores value under key in the typed map. Passing nil, or a nil pointer,
// map, slice, func, chan or interface, removes the key instead.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isNil(value) {
		delete(s.values, key)
		return
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// Value returns the raw typed value stored under key.
func (s *Store) Value(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Keys returns the typed value keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.values)
}

// BoolKeys returns the flag keys in sorted order.
func (s *Store) BoolKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.flags)
}

// Len reports the number of flags plus typed values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags) + len(s.values)
}

// Clone returns an independent store holding the receiver's settings. It uses
// the same copy rules as Apply.
func (s *Store) Clone() (*Store, error) {
	clone := NewStore()
	if err := clone.Apply(s); err != nil {
		return nil, err
	}
	return clone, nil
}

// loadOrStore inserts value when key is absent and returns whatever ends up
// stored, reporting whether an existing value won.
func (s *Store) loadOrStore(key string, value any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.values[key]; ok {
		return existing, true
	}
	if isNil(value) {
		return nil, false
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
	return value, false
}

// fillBool copies value under key unless a flag is already set there.
func (s *Store) fillBool(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flags[key]; ok {
		return
	}
	if s.flags == nil {
		s.flags = make(map[string]bool)
	}
	s.flags[key] = value
}

// snapshot copies both maps so Apply can iterate without holding the lock of
// the store being read.
func (s *Store) snapshot() (map[string]bool, map[string]any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flags := make(map[string]bool, len(s.flags))
	for key, value := range s.flags {
		flags[key] = value
	}
	values := make(map[string]any, len(s.values))
	for key, value := range s.values {
		values[key] = value
	}
	return flags, values
}

// sequenceStripes guards sequences by identity, so one sequence held by
// several stores is still appended to by a single goroutine at a time.
var sequenceStripes [64]sync.Mutex

// sequenceLock returns the mutex guarding seq. Sequences backed by a pointer,
// map, slice or chan share a stripe picked from their address; anything else
// falls back to a lock keyed by the setting key on this store.
func (s *Store) sequenceLock(key string, seq Sequence) *sync.Mutex {
	rv := reflect.ValueOf(seq)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.UnsafePointer:
		if addr := rv.Pointer(); addr != 0 {
			return &sequenceStripes[(addr>>4)%uintptr(len(sequenceStripes))]
		}
	}
	mu, _ := s.seqLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) counts() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags), len(s.values)
}
