package settings

import "context"

const (
	// Canonical priorities for mapping configuration scopes. Higher wins.
	ScopePriorityGlobal   = 100
	ScopePriorityTypePair = 200
	ScopePriorityMember   = 300
)

// GlobalTypePairMember resolves the canonical three-scope chain
// (global → type pair → member) into a new store. Nil stores are skipped.
func GlobalTypePairMember(global, pair, member *Store, opts ...Option) (*Store, error) {
	candidates := []Layer{
		NewLayer(NewScope("member", ScopePriorityMember, WithScopeLabel("Member")), member),
		NewLayer(NewScope("pair", ScopePriorityTypePair, WithScopeLabel("Type pair")), pair),
		NewLayer(NewScope("global", ScopePriorityGlobal, WithScopeLabel("Global")), global),
	}
	layers := make([]Layer, 0, len(candidates))
	for _, layer := range candidates {
		if layer.Store != nil {
			layers = append(layers, layer)
		}
	}
	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}
	return stack.Resolve(context.Background(), opts...)
}
