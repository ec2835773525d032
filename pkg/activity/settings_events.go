package activity

import (
	"strings"
	"time"
)

const (
	VerbLayerApplied   = "settings.layer.applied"
	VerbStackResolved  = "settings.stack.resolved"
	VerbStackFinalized = "settings.stack.finalized"
)

// ScopeContext identifies the scope an event is about.
type ScopeContext struct {
	Name       string
	Label      string
	Priority   int
	Metadata   map[string]any
	SnapshotID string
}

// LayerEventInput describes a layer being applied onto another scope.
type LayerEventInput struct {
	ActorID  string
	TenantID string
	// RunID groups every event produced by one Resolve or Finalize call.
	RunID      string
	Target     string
	Scope      ScopeContext
	Flags      int
	Values     int
	Err        error
	Duration   time.Duration
	Metadata   map[string]any
	OccurredAt time.Time
}

// StackEventInput describes a completed stack resolution or finalization.
type StackEventInput struct {
	ActorID    string
	TenantID   string
	RunID      string
	Scopes     []string
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildLayerAppliedEvent constructs the event for one Apply of a layer.
func BuildLayerAppliedEvent(input LayerEventInput) Event {
	metadata := cloneMap(input.Metadata)
	metadata = ensureMetadata(metadata)
	metadata["flags"] = input.Flags
	metadata["values"] = input.Values
	if input.Target != "" {
		metadata["target"] = input.Target
	}
	if input.RunID != "" {
		metadata["run_id"] = input.RunID
	}
	if input.Duration > 0 {
		metadata["duration_ms"] = input.Duration.Milliseconds()
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}
	if input.Scope.Name != "" {
		metadata["scope_name"] = input.Scope.Name
		metadata["scope_priority"] = input.Scope.Priority
		if input.Scope.Label != "" {
			metadata["scope_label"] = input.Scope.Label
		}
		if len(input.Scope.Metadata) > 0 {
			metadata["scope_metadata"] = cloneMap(input.Scope.Metadata)
		}
	}
	if input.Scope.SnapshotID != "" {
		metadata["snapshot_id"] = input.Scope.SnapshotID
	}

	objectID := firstNonEmpty(input.Scope.SnapshotID, input.Scope.Name, input.RunID)
	return Event{
		Verb:       VerbLayerApplied,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: "settings.layer",
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildStackResolvedEvent constructs the event for a finished Resolve.
func BuildStackResolvedEvent(input StackEventInput) Event {
	return buildStackEvent(VerbStackResolved, input)
}

// BuildStackFinalizedEvent constructs the event for a finished Finalize.
func BuildStackFinalizedEvent(input StackEventInput) Event {
	return buildStackEvent(VerbStackFinalized, input)
}

func buildStackEvent(verb string, input StackEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.Scopes) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["scopes"] = append([]string(nil), input.Scopes...)
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: "settings.stack",
		ObjectID:   firstNonEmpty(input.RunID, "settings.stack"),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
