package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	settings "github.com/goliatone/go-settings"
)

// ErrFinalized indicates a new scope requested after Finalize.
var ErrFinalized = errors.New("registry: finalized, no new scopes may be added")

// Registry owns one settings store per scope. Stores are keyed by
// Ref.Identifier and created on first use.
type Registry struct {
	opts []settings.Option

	mu        sync.Mutex
	stores    *settings.Store
	refs      map[string]Ref
	finalized bool

	// finalizeMu serializes Finalize runs; inherited records the stores that
	// already received their parent's settings.
	finalizeMu sync.Mutex
	inherited  map[string]struct{}
}

// New constructs an empty registry. opts are passed to every stack resolution
// and finalization.
func New(opts ...settings.Option) *Registry {
	return &Registry{
		opts:      append([]settings.Option(nil), opts...),
		stores:    settings.NewStore(),
		refs:      make(map[string]Ref),
		inherited: make(map[string]struct{}),
	}
}

// Store returns the store for ref, creating it when absent. After Finalize
// only existing stores can be returned.
func (r *Registry) Store(ref Ref) (*settings.Store, error) {
	id, err := ref.Identifier()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, known := r.refs[id]; !known {
		if r.finalized {
			return nil, fmt.Errorf("%w: %s", ErrFinalized, id)
		}
		r.refs[id] = ref
	}
	return settings.GetOrInit(r.stores, id, settings.NewStore)
}

// Lookup returns the store for ref without creating it.
func (r *Registry) Lookup(ref Ref) (*settings.Store, bool) {
	id, err := ref.Identifier()
	if err != nil {
		return nil, false
	}
	store, ok, err := settings.Lookup[*settings.Store](r.stores, id)
	if err != nil || !ok {
		return nil, false
	}
	return store, true
}

// Refs returns every known ref, weakest level first and then by identifier.
func (r *Registry) Refs() []Ref {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedRefs()
}

func (r *Registry) sortedRefs() []Ref {
	ids := make([]string, 0, len(r.refs))
	for id := range r.refs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.refs[ids[i]], r.refs[ids[j]]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return ids[i] < ids[j]
	})
	out := make([]Ref, len(ids))
	for i, id := range ids {
		out[i] = r.refs[id]
	}
	return out
}

// Resolve returns a new store holding the effective settings for ref: its own
// store applied over every existing ancestor. Registered stores are not
// modified.
func (r *Registry) Resolve(ctx context.Context, ref Ref) (*settings.Store, error) {
	if _, err := ref.Identifier(); err != nil {
		return nil, err
	}
	layers := r.layers(ref.Chain())
	if len(layers) == 0 {
		return settings.NewStore(), nil
	}
	stack, err := settings.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("registry: stack: %w", err)
	}
	return stack.Resolve(ctx, r.opts...)
}

// Finalize applies every store's nearest existing ancestor into it, parents
// before children, so each store ends up holding its inherited settings.
//
// A failed Finalize leaves the registry open: stores finalized before the
// error keep their inherited settings and are skipped when Finalize is called
// again. The store that failed keeps the keys merged before the error and has
// its parent applied again on the next call. Once a run succeeds, later calls
// are no-ops.
func (r *Registry) Finalize(ctx context.Context) error {
	r.finalizeMu.Lock()
	defer r.finalizeMu.Unlock()

	r.mu.Lock()
	if r.finalized {
		r.mu.Unlock()
		return nil
	}
	refs := r.sortedRefs()
	r.mu.Unlock()

	for _, ref := range refs {
		id, _ := ref.Identifier()
		if _, done := r.inherited[id]; done {
			continue
		}
		layers := r.layers(ref.Chain())
		if len(layers) < 2 || layers[0].Scope.Name != id {
			continue
		}
		stack, err := settings.NewStack(layers[0], layers[1])
		if err != nil {
			return fmt.Errorf("registry: stack: %w", err)
		}
		if err := stack.Finalize(ctx, r.opts...); err != nil {
			return fmt.Errorf("registry: finalize %s: %w", id, err)
		}
		r.inherited[id] = struct{}{}
	}

	r.mu.Lock()
	r.finalized = true
	r.mu.Unlock()
	return nil
}

// layers returns a layer for every ref in chain that has a store, keeping the
// chain order.
func (r *Registry) layers(chain []Ref) []settings.Layer {
	layers := make([]settings.Layer, 0, len(chain))
	for _, ref := range chain {
		store, ok := r.Lookup(ref)
		if !ok {
			continue
		}
		layers = append(layers, settings.NewLayer(ref.Scope(), store))
	}
	return layers
}
