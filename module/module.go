// Package module provides the lifecycle base every toolkit module builds
// on. The base standardizes initialization and destruction, stamps the
// module's identity on outgoing events, and releases the module's
// subscriptions when it is destroyed. Modules communicate only through bus
// events, never by calling each other.
package module

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tonika/tonika-bus/bus"
	apperrors "github.com/tonika/tonika-bus/errors"
	"github.com/tonika/tonika-bus/logging"
	"github.com/tonika/tonika-bus/utils"
)

// InitFunc is the single user extension point, run by Init between the
// "initializing" and "ready" lifecycle transitions. This is where a module
// sets up internal state and subscribes to the events it cares about.
type InitFunc func(ctx context.Context) error

// Option configures a Base at construction time.
type Option func(*Base)

// WithBus attaches the module to a specific bus instead of the
// process-wide default.
func WithBus(b *bus.Bus) Option {
	return func(m *Base) {
		m.bus = b
	}
}

// WithInit sets the user initialization hook.
func WithInit(fn InitFunc) Option {
	return func(m *Base) {
		m.userInit = fn
	}
}

// WithLogger overrides the module's logger.
func WithLogger(logger logging.Logger) Option {
	return func(m *Base) {
		m.logger = logger
	}
}

// Info is the stable status shape returned by GetStatus.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Base carries a module's identity, lifecycle status and tracked
// subscriptions. Concrete modules embed a *Base and customize startup
// through WithInit; Init itself is the fixed lifecycle template and must
// not be reimplemented.
type Base struct {
	name        string
	version     string
	description string
	id          string // instance id, distinguishes same-name re-registrations in logs

	mu       sync.Mutex
	status   Status
	subs     []bus.Subscription
	userInit InitFunc

	bus    *bus.Bus
	logger logging.Logger
}

// New constructs a module base and registers it with the bus under its
// name. Registering an already-used name replaces the previous entry.
func New(name, version, description string, opts ...Option) *Base {
	if version == "" {
		version = bus.VersionUnknown
	}

	m := &Base{
		name:        name,
		version:     version,
		description: description,
		id:          uuid.NewString(),
		status:      StatusUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.bus == nil {
		m.bus = bus.Default()
	}
	if m.logger == nil {
		m.logger = logging.Named("module." + utils.UpperCamelCase(name))
	}

	m.bus.RegisterModule(m)
	m.logger.Info("module created",
		zap.String("version", version),
		zap.String("instance", m.id),
	)
	return m
}

// Name returns the module name.
func (m *Base) Name() string { return m.name }

// Version returns the module version.
func (m *Base) Version() string { return m.version }

// Description returns the module description.
func (m *Base) Description() string { return m.description }

// Status returns the current lifecycle status.
func (m *Base) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// GetStatus returns the module's identity and status.
func (m *Base) GetStatus() Info {
	return Info{
		Name:        m.name,
		Version:     m.version,
		Description: m.description,
		Status:      m.Status(),
	}
}

// Init drives the lifecycle: it transitions to initializing, runs the user
// hook, then transitions to ready, emitting the matching lifecycle event
// at every step. A failing hook transitions to error, emits
// "module:error" and returns the failure.
//
// Init succeeds only from the uninitialized state; in particular a
// destroyed module cannot be revived.
func (m *Base) Init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.status != StatusUninitialized {
		status := m.status
		m.mu.Unlock()
		return apperrors.NewLifecycle(m.name,
			fmt.Sprintf("module %q cannot init from status %q", m.name, status))
	}
	m.status = StatusInitializing
	m.mu.Unlock()

	m.emitLifecycle(ctx, bus.EventModuleInitializing, nil)

	if m.userInit != nil {
		if err := m.userInit(ctx); err != nil {
			m.setStatus(StatusError)
			m.emitLifecycle(ctx, bus.EventModuleError, map[string]any{"error": err.Error()})
			m.logger.Error("module init failed", zap.Error(err))
			return apperrors.WrapWithType(err, apperrors.ErrorTypeLifecycle,
				fmt.Sprintf("module %q init failed", m.name)).WithDetail("module", m.name)
		}
	}

	m.setStatus(StatusReady)
	m.emitLifecycle(ctx, bus.EventModuleReady, nil)
	m.logger.Info("module ready")
	return nil
}

// Destroy releases all tracked subscriptions, emits "module:destroyed" and
// removes the module from the registry. It never fails and calling it
// again is a no-op.
func (m *Base) Destroy() {
	m.mu.Lock()
	if m.status == StatusDestroyed {
		m.mu.Unlock()
		return
	}
	m.status = StatusDestroyed
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()

	for _, sub := range subs {
		m.release(sub)
	}

	// Emit before unregistering so peers can react to this module going
	// away.
	m.bus.EmitFrom(context.Background(), bus.EventModuleDestroyed, map[string]any{
		"name":    m.name,
		"version": m.version,
	}, m.name, m.version)

	m.bus.UnregisterModule(m.name)
	m.logger.Info("module destroyed", zap.String("instance", m.id))
}

// release invokes one unsubscribe token, containing any failure.
func (m *Base) release(sub bus.Subscription) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("unsubscribe failed during destroy", zap.Any("panic", r))
		}
	}()
	sub.Unsubscribe()
}

// Emit publishes an event stamped with this module's name and version.
// Callers cannot override the identity fields.
//
// The reserved module:* lifecycle types belong to the base; emitting one
// from module code is a contract violation, logged but not blocked.
func (m *Base) Emit(ctx context.Context, eventType string, detail any) {
	if bus.IsReservedType(eventType) {
		m.logger.Warn("module code emitted a reserved lifecycle event type",
			zap.String("event_type", eventType))
	}
	m.bus.EmitFrom(ctx, eventType, detail, m.name, m.version)
}

// On subscribes a synchronous handler and tracks the token for cleanup on
// Destroy.
func (m *Base) On(eventType string, handler bus.Handler) bus.Subscription {
	return m.track(m.bus.Subscribe(eventType, handler, bus.WithOwner(m.name)))
}

// Once subscribes a synchronous handler that fires at most once; the token
// is tracked for cleanup like On.
func (m *Base) Once(eventType string, handler bus.Handler) bus.Subscription {
	return m.track(m.bus.SubscribeOnce(eventType, handler, bus.WithOwner(m.name)))
}

// OnAsync subscribes a handler dispatched on the bus's async pool, tracked
// for cleanup like On.
func (m *Base) OnAsync(eventType string, handler bus.Handler) bus.Subscription {
	return m.track(m.bus.SubscribeAsync(eventType, handler, bus.WithOwner(m.name)))
}

// WaitFor suspends until an event of eventType arrives. The completion
// slot is self-removing, so there is no token to track.
func (m *Base) WaitFor(ctx context.Context, eventType string, timeout time.Duration) (bus.Event, error) {
	return m.bus.WaitFor(ctx, eventType, timeout)
}

func (m *Base) track(sub bus.Subscription) bus.Subscription {
	m.mu.Lock()
	if m.status == StatusDestroyed {
		m.mu.Unlock()
		// Subscribing after destroy would leak past cleanup; undo it.
		sub.Unsubscribe()
		return sub
	}
	m.subs = append(m.subs, sub)
	m.mu.Unlock()
	return sub
}

func (m *Base) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Base) emitLifecycle(ctx context.Context, eventType string, extra map[string]any) {
	detail := map[string]any{
		"name":    m.name,
		"version": m.version,
		"status":  m.Status().String(),
	}
	for k, v := range extra {
		detail[k] = v
	}
	m.bus.EmitFrom(ctx, eventType, detail, m.name, m.version)
}

// Base satisfies the bus module registry.
var _ bus.Module = (*Base)(nil)
