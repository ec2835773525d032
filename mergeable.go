package settings

import (
	"reflect"
	"sync"
)

// Mergeable is implemented by composite values that combine with an inherited
// value of the same key instead of being shared by reference.
//
// NewEmpty must return a fresh, empty instance of the same concrete type;
// returning nil or a value of another type makes Apply fail with
// ErrConstruction. Merge folds other into
// the receiver without overwriting what the receiver already holds.
type Mergeable interface {
	NewEmpty() Mergeable
	Merge(other any) error
}

// Sequence is an ordered collection that Apply copies on first inheritance and
// extends in place afterwards.
type Sequence interface {
	NewEmptySequence() Sequence
	Elements() []any
	AppendElements(elements ...any) error
}

// ConcurrentSequence is a Sequence that may report being safe for concurrent
// structural mutation. Apply skips its own locking for those.
type ConcurrentSequence interface {
	Sequence
	ConcurrentSafe() bool
}

// List is a mutex-guarded Sequence of E.
type List[E any] struct {
	mu    sync.RWMutex
	items []E
}

// NewList constructs a List holding items in order.
func NewList[E any](items ...E) *List[E] {
	return &List[E]{items: append([]E(nil), items...)}
}

// Add appends items to the list.
func (l *List[E]) Add(items ...E) {
	l.mu.Lock()
	l.items = append(l.items, items...)
	l.mu.Unlock()
}

// Items returns a copy of the list contents.
func (l *List[E]) Items() []E {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]E(nil), l.items...)
}

// Len returns the number of items.
func (l *List[E]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List[E]) NewEmptySequence() Sequence {
	return NewList[E]()
}

func (l *List[E]) Elements() []any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]any, len(l.items))
	for i, item := range l.items {
		out[i] = item
	}
	return out
}

// AppendElements appends elements after checking every one of them is an E;
// on a mismatch nothing is appended.
func (l *List[E]) AppendElements(elements ...any) error {
	typed := make([]E, 0, len(elements))
	for _, element := range elements {
		item, ok := element.(E)
		if !ok {
			return &TypeError{
				Want: reflect.TypeOf((*E)(nil)).Elem().String(),
				Got:  typeName(element),
			}
		}
		typed = append(typed, item)
	}
	l.Add(typed...)
	return nil
}

func (l *List[E]) ConcurrentSafe() bool {
	return true
}
