package bus

import (
	"sync"

	"github.com/dustforge/relay/internal/trace"
)

// Event is an opaque payload carried through the named-event channels.
// The bus never inspects events; handlers receive a borrowed reference
// and must not retain it past their own return.
type Event any

// Releaser is implemented by events that own resources, typically pooled
// allocations. The bus calls Release exactly once after the last handler
// returns, on every exit path of a broadcast.
type Releaser interface {
	Release()
}

// Handler consumes a broadcast event. A non-nil error marks the handler
// as failed for this dispatch; the bus traces a warning and continues
// with the remaining handlers.
type Handler func(ev Event) error

// Creator builds an event from a packed argument list. Creators run
// before any handler observes their output; a creator error aborts the
// broadcast entirely.
type Creator func(args ...any) (Event, error)

// SpecialHandler consumes an id-scoped special event.
type SpecialHandler func(id int) error

// SpecialResolver answers a special request, resolving a name to an id.
// The boolean reports whether an id was found.
type SpecialResolver func(arg string) (int, bool)

// Bus owns the dispatch tables for all six channel styles. The zero value
// is not usable; construct with New.
type Bus struct {
	mu     sync.Mutex
	tracer trace.Tracer
	closed bool

	eventHandlers   map[string][]Handler
	eventCreators   map[string]Creator
	queryHandlers   map[Token]func(id int) bool
	requestHandlers map[Token]func(id int) any
	createHandlers  map[Token]func(archetype string, id int)
	stateHandlers   map[Token]func(id int, active bool)
	specialHandlers map[string][]SpecialHandler
	specialRequests map[string]SpecialResolver
}

// New creates an empty bus that traces through the given tracer.
// A nil tracer discards all traces.
func New(tracer trace.Tracer) *Bus {
	if tracer == nil {
		tracer = trace.Nop{}
	}
	return &Bus{
		tracer:          tracer,
		eventHandlers:   make(map[string][]Handler),
		eventCreators:   make(map[string]Creator),
		queryHandlers:   make(map[Token]func(int) bool),
		requestHandlers: make(map[Token]func(int) any),
		createHandlers:  make(map[Token]func(string, int)),
		stateHandlers:   make(map[Token]func(int, bool)),
		specialHandlers: make(map[string][]SpecialHandler),
		specialRequests: make(map[string]SpecialResolver),
	}
}

var (
	defaultMu   sync.Mutex
	defaultBus  *Bus
	defaultTorn bool
)

// Default returns the process-wide bus, creating it on first access.
// After Teardown the bus stays torn down: the same inert instance is
// returned and every operation on it is a traced no-op.
func Default() *Bus {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBus == nil {
		defaultBus = New(trace.NewSlog(nil))
		if defaultTorn {
			// No re-entry to live once torn down.
			defaultBus.closed = true
		}
	}
	return defaultBus
}

// SetDefaultTracer replaces the tracer of the default bus. Intended for
// engine start-up, before any dispatch.
func SetDefaultTracer(tracer trace.Tracer) {
	Default().setTracer(tracer)
}

// Teardown destroys the default bus at engine shutdown. All handler
// tables are cleared and the singleton never returns to the live state.
func Teardown() {
	defaultMu.Lock()
	b := defaultBus
	defaultTorn = true
	defaultMu.Unlock()
	if b != nil {
		b.Close()
	}
}

func (b *Bus) setTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = trace.Nop{}
	}
	b.mu.Lock()
	b.tracer = tracer
	b.mu.Unlock()
}

// Close clears every dispatch table and rejects further registrations.
// Closing twice is harmless.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.eventHandlers = make(map[string][]Handler)
	b.eventCreators = make(map[string]Creator)
	b.queryHandlers = make(map[Token]func(int) bool)
	b.requestHandlers = make(map[Token]func(int) any)
	b.createHandlers = make(map[Token]func(string, int))
	b.stateHandlers = make(map[Token]func(int, bool))
	b.specialHandlers = make(map[string][]SpecialHandler)
	b.specialRequests = make(map[string]SpecialResolver)
}

// rejectClosed reports whether the bus is torn down, tracing the refused
// operation when it is.
func (b *Bus) rejectClosed(op string) bool {
	if b.closed {
		b.tracer.Warning("bus: %s on torn-down bus ignored", op)
		return true
	}
	return false
}

// RegisterEventHandler appends a handler for the named event. Handlers
// are invoked in registration order; duplicates are not collapsed.
func (b *Bus) RegisterEventHandler(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterEventHandler") {
		return
	}
	b.eventHandlers[name] = append(b.eventHandlers[name], h)
}

// RegisterEventCreator binds the factory used by BroadcastByName for the
// named event, replacing any existing creator.
func (b *Bus) RegisterEventCreator(name string, c Creator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterEventCreator") {
		return
	}
	b.eventCreators[name] = c
}

// RegisterSpecialEventHandler appends a fan-out handler for the named
// special event.
func (b *Bus) RegisterSpecialEventHandler(name string, h SpecialHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterSpecialEventHandler") {
		return
	}
	b.specialHandlers[name] = append(b.specialHandlers[name], h)
}

// RegisterSpecialRequest binds the single resolver for the named special
// request, replacing any existing resolver.
func (b *Bus) RegisterSpecialRequest(name string, r SpecialResolver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterSpecialRequest") {
		return
	}
	b.specialRequests[name] = r
}

// BroadcastByName resolves the creator registered for name, builds the
// event from args, and fans it out to every handler in registration
// order. A missing or failing creator aborts the broadcast before any
// handler runs. The event is released after the last handler returns.
func (b *Bus) BroadcastByName(name string, args ...any) {
	b.mu.Lock()
	creator, ok := b.eventCreators[name]
	handlers := snapshot(b.eventHandlers[name])
	b.mu.Unlock()

	if !ok {
		b.tracer.Error("bus: no event creator registered for %q", name)
		return
	}
	ev, err := creator(args...)
	if err != nil {
		b.tracer.Error("bus: creating event %q: %v", name, err)
		return
	}
	b.fanOut(name, ev, handlers)
}

// BroadcastEvent fans an already-built event out to the handlers for
// name. The caller surrenders ownership: the event is released when the
// broadcast completes, including when handlers fail.
func (b *Bus) BroadcastEvent(name string, ev Event) {
	b.mu.Lock()
	handlers := snapshot(b.eventHandlers[name])
	b.mu.Unlock()
	b.fanOut(name, ev, handlers)
}

func (b *Bus) fanOut(name string, ev Event, handlers []Handler) {
	defer release(ev)
	for _, h := range handlers {
		if err := h(ev); err != nil {
			b.tracer.Warning("bus: handler for event %q failed: %v", name, err)
		}
	}
}

// BroadcastSpecial fans the id out to every special handler registered
// for name, in registration order. Failed handlers are skipped.
func (b *Bus) BroadcastSpecial(name string, id int) {
	b.mu.Lock()
	handlers := make([]SpecialHandler, len(b.specialHandlers[name]))
	copy(handlers, b.specialHandlers[name])
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(id); err != nil {
			b.tracer.Warning("bus: special handler for %q failed: %v", name, err)
		}
	}
}

// SpecialRequest invokes the resolver registered for name. When no
// resolver is bound the request is a traced miss and the second return
// value is false.
func (b *Bus) SpecialRequest(name string, arg string) (int, bool) {
	b.mu.Lock()
	r, ok := b.specialRequests[name]
	b.mu.Unlock()

	if !ok {
		b.tracer.Warning("bus: no special request resolver registered for %q", name)
		return 0, false
	}
	return r(arg)
}

// snapshot copies the handler slice so registrations made during a
// broadcast take effect on the next broadcast, not the current one.
func snapshot(hs []Handler) []Handler {
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

func release(ev Event) {
	if r, ok := ev.(Releaser); ok {
		r.Release()
	}
}
