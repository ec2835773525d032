package settings

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreBoolTriState(t *testing.T) {
	store := NewStore()

	if _, ok := store.LookupBool("IgnoreNullValues"); ok {
		t.Fatalf("expected unset flag on a new store")
	}
	if store.Bool("IgnoreNullValues") {
		t.Fatalf("unset flag should read as false")
	}

	store.SetBool("IgnoreNullValues", Ptr(false))
	value, ok := store.LookupBool("IgnoreNullValues")
	if !ok || value {
		t.Fatalf("expected explicit false, got value=%v ok=%v", value, ok)
	}

	store.SetBool("IgnoreNullValues", Ptr(true))
	if !store.Bool("IgnoreNullValues") {
		t.Fatalf("expected flag to be overwritten with true")
	}

	store.SetBool("IgnoreNullValues", nil)
	if _, ok := store.LookupBool("IgnoreNullValues"); ok {
		t.Fatalf("nil should clear the flag")
	}
}

func TestStoreFlagsAndValuesDoNotCollide(t *testing.T) {
	store := NewStore()
	store.SetBool("Shared", Ptr(true))
	store.Set("Shared", "value")

	if !store.Bool("Shared") {
		t.Fatalf("flag lost after setting a value under the same key")
	}
	value, err := Get[string](store, "Shared")
	if err != nil || value != "value" {
		t.Fatalf("expected typed value, got %q err=%v", value, err)
	}
	if got := store.Len(); got != 2 {
		t.Fatalf("expected two entries, got %d", got)
	}
}

func TestStoreSetNilRemoves(t *testing.T) {
	store := NewStore()
	store.Set("Name", "mapster")
	store.Set("Name", nil)
	if _, ok := store.Value("Name"); ok {
		t.Fatalf("nil should remove the value")
	}

	var ptr *int
	store.Set("Pointer", 5)
	store.Set("Pointer", ptr)
	if _, ok := store.Value("Pointer"); ok {
		t.Fatalf("typed nil pointer should remove the value")
	}

	var slice []string
	store.Set("Slice", []string{"a"})
	store.Set("Slice", slice)
	if _, ok := store.Value("Slice"); ok {
		t.Fatalf("nil slice should remove the value")
	}

	// Removing an absent key is a no-op.
	store.Set("Missing", nil)
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
}

func TestStoreKeysSorted(t *testing.T) {
	store := NewStore()
	store.Set("b", 2)
	store.Set("a", 1)
	store.Set("c", 3)
	store.SetBool("z", Ptr(true))
	store.SetBool("y", Ptr(false))

	if diff := cmp.Diff([]string{"a", "b", "c"}, store.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y", "z"}, store.BoolKeys()); diff != "" {
		t.Fatalf("bool keys mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreZeroValueUsable(t *testing.T) {
	var store Store
	store.SetBool("flag", Ptr(true))
	store.Set("value", 10)

	if !store.Bool("flag") {
		t.Fatalf("expected flag on zero value store")
	}
	got, err := Get[int](&store, "value")
	if err != nil || got != 10 {
		t.Fatalf("expected 10, got %d err=%v", got, err)
	}
}

func TestStoreCloneIsIndependent(t *testing.T) {
	store := NewStore()
	store.SetBool("flag", Ptr(true))
	store.Set("Ignores", []string{"Id"})

	clone, err := store.Clone()
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	clone.Set("Ignores", append(mustGet[[]string](t, clone, "Ignores"), "Extra"))
	clone.SetBool("flag", Ptr(false))

	if diff := cmp.Diff([]string{"Id"}, mustGet[[]string](t, store, "Ignores")); diff != "" {
		t.Fatalf("original mutated (-want +got):\n%s", diff)
	}
	if !store.Bool("flag") {
		t.Fatalf("original flag mutated")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.SetBool("flag", Ptr(j%2 == 0))
				store.Set("value", i*j)
				_ = store.Bool("flag")
				_, _ = store.Value("value")
				_ = store.Keys()
			}
		}(i)
	}
	wg.Wait()

	if _, ok := store.LookupBool("flag"); !ok {
		t.Fatalf("expected flag after concurrent writes")
	}
	if _, ok := store.Value("value"); !ok {
		t.Fatalf("expected value after concurrent writes")
	}
}

func mustGet[T any](t *testing.T, store *Store, key string) T {
	t.Helper()
	value, ok, err := Lookup[T](store, key)
	if err != nil {
		t.Fatalf("lookup %q: %v", key, err)
	}
	if !ok {
		t.Fatalf("expected %q to be set", key)
	}
	return value
}
