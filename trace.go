package settings

import "encoding/json"

// Trace captures, per layer, what a stack holds for one key.
type Trace struct {
	Key    string       `json:"key"`
	Layers []Provenance `json:"layers"`
}

// Provenance details what one scope holds for a traced key.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Flag       *bool  `json:"flag,omitempty"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// Trace reports, strongest layer first, the flag and value each layer holds
// under key.
func (s *Stack) Trace(key string) Trace {
	trace := Trace{Key: key}
	if s == nil {
		return trace
	}
	for _, layer := range s.layers {
		prov := Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
		}
		if flag, ok := layer.Store.LookupBool(key); ok {
			prov.Flag = &flag
			prov.Found = true
		}
		if value, ok := layer.Store.Value(key); ok {
			prov.Value = value
			prov.Found = true
		}
		trace.Layers = append(trace.Layers, prov)
	}
	return trace
}

// Effective returns the strongest layer that holds key.
func (t Trace) Effective() (Provenance, bool) {
	for _, prov := range t.Layers {
		if prov.Found {
			return prov, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace for logging.
func (t Trace) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// TraceFromJSON decodes a payload produced by ToJSON. Values come back as
// generic JSON types.
func TraceFromJSON(payload []byte) (Trace, error) {
	var trace Trace
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return trace, nil
}
