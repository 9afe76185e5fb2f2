package bus

import (
	"context"
	"fmt"
	"time"
)

// Defaults stamped on events emitted outside any module.
const (
	SourceUnknown  = "unknown"
	VersionUnknown = "0.0.0"
)

// Reserved lifecycle event types. Only the module base emits these; domain
// code picks its own `domain:action` types.
const (
	EventModuleInitializing = "module:initializing"
	EventModuleReady        = "module:ready"
	EventModuleError        = "module:error"
	EventModuleDestroyed    = "module:destroyed"
)

// IsReservedType reports whether eventType is one of the reserved module
// lifecycle events.
func IsReservedType(eventType string) bool {
	switch eventType {
	case EventModuleInitializing, EventModuleReady, EventModuleError, EventModuleDestroyed:
		return true
	}
	return false
}

// Metadata carries the context of an emission: when it happened and which
// module (name + version) produced it.
type Metadata struct {
	// Timestamp is Unix epoch milliseconds at emission time.
	Timestamp int64 `json:"timestamp"`

	// Source is the emitting module name, or "unknown".
	Source string `json:"source"`

	// Version is the emitting module version, or "0.0.0".
	Version string `json:"version"`
}

// NewMetadata creates metadata stamped with the current wall-clock time.
func NewMetadata(source, version string) Metadata {
	if source == "" {
		source = SourceUnknown
	}
	if version == "" {
		version = VersionUnknown
	}
	return Metadata{
		Timestamp: time.Now().UnixMilli(),
		Source:    source,
		Version:   version,
	}
}

// Event is the envelope for all bus communication. Events are values: once
// emitted they are never mutated by the bus or by handlers.
type Event struct {
	// Type is the event type, e.g. "midi:note-on" or "module:ready".
	Type string `json:"type"`

	// Detail is the payload. The bus is payload-agnostic; handlers treat
	// it as read-only.
	Detail any `json:"detail"`

	// Meta records who emitted the event and when.
	Meta Metadata `json:"meta"`
}

// String returns a compact representation for logging and debugging.
func (e Event) String() string {
	return fmt.Sprintf("Event(type=%q, source=%q, timestamp=%d)", e.Type, e.Meta.Source, e.Meta.Timestamp)
}

// Handler processes a single event. Returned errors are logged by the bus
// and never propagate to the emitter.
type Handler func(ctx context.Context, evt Event) error

// Subscription represents an active event subscription.
type Subscription interface {
	// Unsubscribe removes the subscription. Calling it more than once is a
	// no-op.
	Unsubscribe()
}
