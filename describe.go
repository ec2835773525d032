package settings

import "sort"

// FieldDescriptor describes one stored key.
type FieldDescriptor struct {
	Key  string
	Kind string
	Type string
}

const (
	KindFlag  = "flag"
	KindValue = "value"
)

// Describe lists every stored key with its kind and dynamic type, sorted by
// key then kind.
func (s *Store) Describe() []FieldDescriptor {
	flags, values := s.snapshot()
	out := make([]FieldDescriptor, 0, len(flags)+len(values))
	for key := range flags {
		out = append(out, FieldDescriptor{Key: key, Kind: KindFlag, Type: "bool"})
	}
	for key, value := range values {
		out = append(out, FieldDescriptor{Key: key, Kind: KindValue, Type: typeName(value)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key == out[j].Key {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Key < out[j].Key
	})
	return out
}
