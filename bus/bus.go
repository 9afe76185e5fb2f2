package bus

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tonika/tonika-bus/logging"
	"github.com/tonika/tonika-bus/metrics"
	"github.com/tonika/tonika-bus/sched"
)

// Module is the slice of a module the bus registry needs. The module package
// provides the full lifecycle base; the registry only cares about identity.
type Module interface {
	Name() string
	Version() string
}

// handlerEntry is one record in the handler registry.
type handlerEntry struct {
	id      uint64
	fn      Handler
	once    bool
	async   bool
	owner   string // owning module name, empty for plain subscribers
}

// subscription implements Subscription.
type subscription struct {
	bus       *Bus
	eventType string
	id        uint64
}

func (s *subscription) Unsubscribe() {
	if s.bus.removeEntry(s.eventType, s.id) && s.bus.debug.Load() {
		s.bus.logger.Debug("unsubscribe", zap.String("event_type", s.eventType))
	}
}

// Bus is the central event broker. Modules never talk to each other
// directly: every interaction is an event emitted through the bus.
//
// The bus owns the handler registry, the bounded event log, the module
// registry and the table of pending waiters. All of them are guarded by a
// single mutex so the bus is safe to use from multiple goroutines; Emit
// dispatches outside the lock, so handlers may freely subscribe,
// unsubscribe and emit during dispatch.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]*handlerEntry
	modules  map[string]Module
	waiters  map[string][]*waiterSlot
	log      *eventLog

	nextID    atomic.Uint64
	debug     atomic.Bool
	logger    logging.Logger
	collector *metrics.Collector
	pool      *sched.Pool
}

// New creates a bus with the given options. Zero-valued options fall back
// to defaults; see Options.
func New(opts Options) *Bus {
	opts.applyDefaults()

	b := &Bus{
		handlers: make(map[string][]*handlerEntry),
		modules:  make(map[string]Module),
		waiters:  make(map[string][]*waiterSlot),
		log:      newEventLog(EventLogCapacity),

		logger:    opts.Logger,
		collector: opts.Metrics,
		pool:      sched.NewPool(opts.AsyncWorkers, opts.AsyncQueue),
	}
	if b.logger == nil {
		b.logger = logging.Named("bus")
	}
	b.debug.Store(opts.Debug)
	b.pool.Start()
	return b
}

// Close stops the async dispatch pool. Pending async handlers are drained
// first. The bus itself stays usable for synchronous dispatch; further
// async handlers run inline.
func (b *Bus) Close() error {
	return b.pool.Stop()
}

// SetDebug toggles debug tracing of emit, subscribe and unsubscribe
// operations. The trace output is advisory only.
func (b *Bus) SetDebug(enabled bool) {
	b.debug.Store(enabled)
}

// Emit constructs an event stamped "unknown"/"0.0.0" and dispatches it.
// Modules emit through their base instead, which fills in their identity.
func (b *Bus) Emit(ctx context.Context, eventType string, detail any) {
	b.EmitFrom(ctx, eventType, detail, SourceUnknown, VersionUnknown)
}

// EmitFrom constructs an event with the given source identity and
// dispatches it to all subscribers of eventType.
//
// Dispatch iterates a snapshot of the handler list, so subscription changes
// made by handlers take effect for subsequent (and nested) emissions but
// never disturb the iteration in flight. Synchronous handlers run to
// completion before EmitFrom returns; asynchronous handlers are scheduled
// and not awaited. Handler failures are logged and never propagate to the
// emitter. After dispatch, pending WaitFor slots for eventType resolve with
// this event.
func (b *Bus) EmitFrom(ctx context.Context, eventType string, detail any, source, version string) {
	if ctx == nil {
		ctx = context.Background()
	}
	evt := Event{Type: eventType, Detail: detail, Meta: NewMetadata(source, version)}

	b.mu.Lock()
	evicted := b.log.append(evt)
	var snapshot []*handlerEntry
	if entries := b.handlers[eventType]; len(entries) > 0 {
		snapshot = make([]*handlerEntry, len(entries))
		copy(snapshot, entries)
	}
	b.mu.Unlock()

	if b.debug.Load() {
		b.logger.Debug("emit",
			zap.String("event_type", eventType),
			zap.String("source", evt.Meta.Source),
			zap.Int("handlers", len(snapshot)),
		)
	}
	if b.collector != nil {
		b.collector.IncCounter(metrics.EventsEmitted, map[string]string{"type": eventType})
		if evicted {
			b.collector.IncCounter(metrics.LogEvictions, nil)
		}
	}

	for _, entry := range snapshot {
		if entry.once && !b.removeEntry(eventType, entry.id) {
			// Already claimed by an earlier dispatch.
			continue
		}
		b.dispatch(ctx, entry, evt)
	}

	b.resolveWaiters(eventType, evt)
}

func (b *Bus) dispatch(ctx context.Context, entry *handlerEntry, evt Event) {
	if entry.async {
		task := func() { b.invoke(ctx, entry, evt) }
		if err := b.pool.Submit(task); err == nil {
			if b.collector != nil {
				b.collector.IncCounter(metrics.AsyncScheduled, nil)
			}
			return
		}
		// Pool saturated or stopped: run to completion inline. Last
		// resort; it is the only case where an async handler blocks
		// the emitter.
		if b.collector != nil {
			b.collector.IncCounter(metrics.AsyncInline, nil)
		}
	}
	b.invoke(ctx, entry, evt)
}

func (b *Bus) invoke(ctx context.Context, entry *handlerEntry, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("event handler panic",
				zap.String("event_type", evt.Type),
				zap.String("owner", entry.owner),
				zap.Any("panic", r),
			)
			if b.collector != nil {
				b.collector.IncCounter(metrics.HandlerErrors, map[string]string{"type": evt.Type})
			}
		}
	}()

	if err := entry.fn(ctx, evt); err != nil {
		b.logger.Warn("event handler error",
			zap.String("event_type", evt.Type),
			zap.String("owner", entry.owner),
			zap.Error(err),
		)
		if b.collector != nil {
			b.collector.IncCounter(metrics.HandlerErrors, map[string]string{"type": evt.Type})
		}
	}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*handlerEntry)

// WithOwner tags the subscription with the owning module name, used in
// handler failure logs.
func WithOwner(name string) SubscribeOption {
	return func(e *handlerEntry) {
		e.owner = name
	}
}

// Subscribe registers a synchronous handler for eventType. Handlers of one
// type fire in subscription order.
func (b *Bus) Subscribe(eventType string, handler Handler, opts ...SubscribeOption) Subscription {
	return b.subscribe(eventType, handler, false, false, opts)
}

// SubscribeOnce registers a synchronous handler removed after its first
// invocation. The returned subscription cancels it if the event has not
// fired yet; afterwards Unsubscribe is a no-op.
func (b *Bus) SubscribeOnce(eventType string, handler Handler, opts ...SubscribeOption) Subscription {
	return b.subscribe(eventType, handler, true, false, opts)
}

// SubscribeAsync registers a handler scheduled on the dispatch pool.
// Async handlers are scheduled in subscription order but may complete in
// any order; Emit does not wait for them.
func (b *Bus) SubscribeAsync(eventType string, handler Handler, opts ...SubscribeOption) Subscription {
	return b.subscribe(eventType, handler, false, true, opts)
}

func (b *Bus) subscribe(eventType string, handler Handler, once, async bool, opts []SubscribeOption) Subscription {
	entry := &handlerEntry{
		id:    b.nextID.Add(1),
		fn:    handler,
		once:  once,
		async: async,
	}
	for _, opt := range opts {
		opt(entry)
	}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], entry)
	total := len(b.handlers[eventType])
	b.mu.Unlock()

	if b.debug.Load() {
		b.logger.Debug("subscribe",
			zap.String("event_type", eventType),
			zap.Bool("once", once),
			zap.Bool("async", async),
			zap.Int("total_handlers", total),
		)
	}

	return &subscription{bus: b, eventType: eventType, id: entry.id}
}

// removeEntry removes the handler record with the given id. It reports
// whether a record was actually removed, which makes both unsubscribe
// tokens and once-removal idempotent.
func (b *Bus) removeEntry(eventType string, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[eventType]
	for i, entry := range entries {
		if entry.id == id {
			b.handlers[eventType] = append(entries[:i], entries[i+1:]...)
			if len(b.handlers[eventType]) == 0 {
				delete(b.handlers, eventType)
			}
			return true
		}
	}
	return false
}

// handlerCount returns the number of live handler records for eventType.
func (b *Bus) handlerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// RegisterModule adds a module to the registry under its name.
// Re-registering a name replaces the previous entry (last write wins).
func (b *Bus) RegisterModule(m Module) {
	b.mu.Lock()
	b.modules[m.Name()] = m
	b.mu.Unlock()

	b.logger.Info("module registered",
		zap.String("module", m.Name()),
		zap.String("version", m.Version()),
	)
}

// UnregisterModule removes the module registered under name, if any.
func (b *Bus) UnregisterModule(name string) {
	b.mu.Lock()
	_, ok := b.modules[name]
	delete(b.modules, name)
	b.mu.Unlock()

	if ok {
		b.logger.Info("module unregistered", zap.String("module", name))
	}
}

// GetModule returns the module registered under name. Inspection only:
// modules communicate through events, never by direct calls.
func (b *Bus) GetModule(name string) (Module, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.modules[name]
	return m, ok
}

// ListModules returns the sorted names of all registered modules.
func (b *Bus) ListModules() []string {
	b.mu.RLock()
	names := make([]string, 0, len(b.modules))
	for name := range b.modules {
		names = append(names, name)
	}
	b.mu.RUnlock()

	sort.Strings(names)
	return names
}

// --- Process-wide default bus ---

var (
	defaultBus *Bus
	defaultMu  sync.RWMutex
)

// Default returns the process-wide bus, constructing it with default
// options on first access.
func Default() *Bus {
	defaultMu.RLock()
	if defaultBus != nil {
		defer defaultMu.RUnlock()
		return defaultBus
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus == nil {
		defaultBus = New(DefaultOptions())
	}
	return defaultBus
}

// SetDefault replaces the process-wide bus.
func SetDefault(b *Bus) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultBus = b
}

// ResetDefault swaps in a fresh bus with empty registries. Testing seam,
// not application API.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus != nil {
		_ = defaultBus.Close()
	}
	defaultBus = New(DefaultOptions())
}
