package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-settings/pkg/activity"
)

// Scope names a configuration unit (global, type pair, member, ...). Higher
// priority values represent stronger, more specific layers.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	s.Metadata = copyMetadata(s.Metadata)
	return s
}

// Layer pairs a scope with the store holding its settings.
type Layer struct {
	Scope      Scope
	Store      *Store
	SnapshotID string
}

// LayerOption configures optional layer metadata.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier reported in traces and events.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer pairs scope with store. The store is referenced, not copied, so
// Finalize can update it in place.
func NewLayer(scope Scope, store *Store, opts ...LayerOption) Layer {
	layer := Layer{Scope: scope.clone(), Store: store}
	for _, opt := range opts {
		if opt != nil {
			opt(&layer)
		}
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("settings: scope name must be provided")
	// ErrDuplicateScopeName indicates repeated scope names in one stack.
	ErrDuplicateScopeName = errors.New("settings: scope names must be unique")
	// ErrPriorityOrder indicates duplicate priorities in one stack.
	ErrPriorityOrder = errors.New("settings: scope priorities must be strictly ordered")
	// ErrNilStore indicates a layer without a store.
	ErrNilStore = errors.New("settings: layer store must not be nil")
	// ErrEmptyStack indicates an operation that needs at least one layer.
	ErrEmptyStack = errors.New("settings: stack must include at least one layer")
)

// Stack orders layers from strongest (most specific) to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates the layers and sorts them so the highest priority comes
// first.
func NewStack(layers ...Layer) (*Stack, error) {
	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if layer.Store == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilStore, layer.Scope.Name)
		}
		if _, ok := seen[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seen[layer.Scope.Name] = struct{}{}
		layer.Scope = layer.Scope.clone()
		copied[i] = layer
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})
	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority == copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}
	return &Stack{layers: copied}, nil
}

// Layers returns the layers strongest first. Stores are shared with the stack.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i, layer := range s.layers {
		layer.Scope = layer.Scope.clone()
		out[i] = layer
	}
	return out
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Resolve builds a new store holding the effective settings of the stack:
// every layer is applied, strongest first, onto an empty store. The layer
// stores are left untouched.
func (s *Stack) Resolve(ctx context.Context, opts ...Option) (*Store, error) {
	if s.Len() == 0 {
		return nil, ErrEmptyStack
	}
	run := newApplyRun(ctx, applyOptions(opts), s)
	resolved := NewStore()
	for _, layer := range s.layers {
		if err := run.apply(resolved, "resolved", layer); err != nil {
			run.finish(activity.BuildStackResolvedEvent, err)
			return nil, err
		}
	}
	run.finish(activity.BuildStackResolvedEvent, nil)
	return resolved, nil
}

// Finalize applies the stack in place: starting just above the weakest layer,
// each store applies the layer below it, so after the call every store also
// holds what it inherits from all weaker layers.
func (s *Stack) Finalize(ctx context.Context, opts ...Option) error {
	if s.Len() == 0 {
		return ErrEmptyStack
	}
	run := newApplyRun(ctx, applyOptions(opts), s)
	for i := len(s.layers) - 2; i >= 0; i-- {
		target := s.layers[i]
		if err := run.apply(target.Store, target.Scope.Name, s.layers[i+1]); err != nil {
			run.finish(activity.BuildStackFinalizedEvent, err)
			return err
		}
	}
	run.finish(activity.BuildStackFinalizedEvent, nil)
	return nil
}

type applyRun struct {
	ctx     context.Context
	cfg     config
	id      string
	emitter *activity.Emitter
	scopes  []string
}

func newApplyRun(ctx context.Context, cfg config, stack *Stack) *applyRun {
	if ctx == nil {
		ctx = context.Background()
	}
	scopes := make([]string, len(stack.layers))
	for i, layer := range stack.layers {
		scopes[i] = layer.Scope.Name
	}
	return &applyRun{
		ctx:     ctx,
		cfg:     cfg,
		id:      cfg.runID(),
		emitter: cfg.emitter(),
		scopes:  scopes,
	}
}

func (r *applyRun) apply(target *Store, targetName string, layer Layer) error {
	flags, values := layer.Store.counts()
	start := time.Now()
	err := target.Apply(layer.Store)
	duration := time.Since(start)
	if err != nil {
		err = fmt.Errorf("settings: apply scope %q onto %q: %w", layer.Scope.Name, targetName, err)
	}

	notifyErr := r.emitter.Emit(r.ctx, activity.BuildLayerAppliedEvent(activity.LayerEventInput{
		ActorID:  r.cfg.actorID,
		TenantID: r.cfg.tenantID,
		RunID:    r.id,
		Target:   targetName,
		Scope: activity.ScopeContext{
			Name:       layer.Scope.Name,
			Label:      layer.Scope.Label,
			Priority:   layer.Scope.Priority,
			Metadata:   layer.Scope.Metadata,
			SnapshotID: layer.SnapshotID,
		},
		Flags:    flags,
		Values:   values,
		Err:      err,
		Duration: duration,
	}))
	r.cfg.logger.LogApply(ApplyEvent{
		RunID:     r.id,
		Scope:     layer.Scope.Name,
		Target:    targetName,
		Flags:     flags,
		Values:    values,
		Duration:  duration,
		Err:       err,
		NotifyErr: notifyErr,
	})
	return err
}

func (r *applyRun) finish(build func(activity.StackEventInput) activity.Event, err error) {
	notifyErr := r.emitter.Emit(r.ctx, build(activity.StackEventInput{
		ActorID:  r.cfg.actorID,
		TenantID: r.cfg.tenantID,
		RunID:    r.id,
		Scopes:   r.scopes,
		Err:      err,
	}))
	if notifyErr != nil {
		r.cfg.logger.LogApply(ApplyEvent{RunID: r.id, NotifyErr: notifyErr})
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
