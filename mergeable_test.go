package settings

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ruleSet is a Mergeable map of member rules used across the apply tests.
type ruleSet struct {
	mu    sync.Mutex
	rules map[string]string
}

func newRuleSet(pairs ...string) *ruleSet {
	set := &ruleSet{rules: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		set.rules[pairs[i]] = pairs[i+1]
	}
	return set
}

func (r *ruleSet) NewEmpty() Mergeable {
	return newRuleSet()
}

func (r *ruleSet) Merge(other any) error {
	parent, ok := other.(*ruleSet)
	if !ok {
		return nil
	}
	inherited := parent.snapshot()
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, value := range inherited {
		if _, exists := r.rules[key]; !exists {
			r.rules[key] = value
		}
	}
	return nil
}

func (r *ruleSet) set(key, value string) {
	r.mu.Lock()
	r.rules[key] = value
	r.mu.Unlock()
}

func (r *ruleSet) snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.rules))
	for key, value := range r.rules {
		out[key] = value
	}
	return out
}

// brokenMergeable cannot build an empty instance of itself.
type brokenMergeable struct{}

func (brokenMergeable) NewEmpty() Mergeable { return nil }

func (brokenMergeable) Merge(any) error { return nil }

// foreignMergeable builds its empty instance as a different type.
type foreignMergeable struct{}

func (foreignMergeable) NewEmpty() Mergeable { return newRuleSet() }

func (foreignMergeable) Merge(any) error { return nil }

// foreignSequence builds its empty instance as a different type.
type foreignSequence struct{ plainSequence }

func (f *foreignSequence) NewEmptySequence() Sequence { return &plainSequence{} }

// plainSequence is a Sequence without any internal locking.
type plainSequence struct {
	items []string
}

func (p *plainSequence) NewEmptySequence() Sequence { return &plainSequence{} }

func (p *plainSequence) Elements() []any {
	out := make([]any, len(p.items))
	for i, item := range p.items {
		out[i] = item
	}
	return out
}

func (p *plainSequence) AppendElements(elements ...any) error {
	for _, element := range elements {
		item, ok := element.(string)
		if !ok {
			return &TypeError{Want: "string", Got: typeName(element)}
		}
		p.items = append(p.items, item)
	}
	return nil
}

func (p *plainSequence) ConcurrentSafe() bool { return false }

func TestListAppendElements(t *testing.T) {
	list := NewList("Id")
	if err := list.AppendElements("CreatedAt", "UpdatedAt"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if diff := cmp.Diff([]string{"Id", "CreatedAt", "UpdatedAt"}, list.Items()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if list.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", list.Len())
	}
}

func TestListAppendElementsRejectsMismatchAtomically(t *testing.T) {
	list := NewList("Id")
	err := list.AppendElements("CreatedAt", 7)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if diff := cmp.Diff([]string{"Id"}, list.Items()); diff != "" {
		t.Fatalf("list changed after failed append (-want +got):\n%s", diff)
	}
}

func TestListItemsReturnsCopy(t *testing.T) {
	list := NewList(1, 2)
	items := list.Items()
	items[0] = 99
	if list.Items()[0] != 1 {
		t.Fatalf("Items must not expose internal storage")
	}
}

func TestListNewEmptySequence(t *testing.T) {
	list := NewList("a")
	empty, ok := list.NewEmptySequence().(*List[string])
	if !ok {
		t.Fatalf("expected *List[string], got %T", list.NewEmptySequence())
	}
	if empty == list || empty.Len() != 0 {
		t.Fatalf("expected a fresh empty list")
	}
	if !list.ConcurrentSafe() {
		t.Fatalf("List guards itself and should report concurrent safety")
	}
}
