package bus

// Typed channels are keyed by a per-type token instead of a name. Go
// methods cannot carry type parameters, so the typed surface is exposed
// as package-level generic functions over a *Bus.
//
// Every typed channel is single-binding: registering for a type that
// already has a binding silently replaces it.

// RegisterQuery binds the predicate answering Query[T], replacing any
// prior binding for T.
func RegisterQuery[T any](b *Bus, fn func(id int) bool) {
	tok := tokenOf[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterQuery") {
		return
	}
	b.queryHandlers[tok] = fn
}

// Query reports whether a T exists for the given id. An unbound type
// defaults to false with a warning trace.
func Query[T any](b *Bus, id int) bool {
	tok := tokenOf[T]()
	b.mu.Lock()
	fn, ok := b.queryHandlers[tok]
	b.mu.Unlock()

	if !ok {
		b.tracer.Warning("bus: no query handler registered for %s", tokenName(tok))
		return false
	}
	return fn(id)
}

// RegisterRequest binds the resolver answering Request[T], replacing any
// prior binding for T. The resolver's result is stored type-erased and
// recovered at the call site.
func RegisterRequest[T any](b *Bus, fn func(id int) *T) {
	tok := tokenOf[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterRequest") {
		return
	}
	b.requestHandlers[tok] = func(id int) any { return fn(id) }
}

// Request resolves the T associated with id. Returns nil when no
// resolver is bound or the resolved value is not a *T.
func Request[T any](b *Bus, id int) *T {
	tok := tokenOf[T]()
	b.mu.Lock()
	fn, ok := b.requestHandlers[tok]
	b.mu.Unlock()

	if !ok {
		b.tracer.Warning("bus: no request handler registered for %s", tokenName(tok))
		return nil
	}
	p, ok := fn(id).(*T)
	if !ok {
		b.tracer.Warning("bus: request handler for %s returned a foreign type", tokenName(tok))
		return nil
	}
	return p
}

// RegisterCreate binds the constructor invoked by Create[T], replacing
// any prior binding for T.
func RegisterCreate[T any](b *Bus, fn func(archetype string, id int)) {
	tok := tokenOf[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterCreate") {
		return
	}
	b.createHandlers[tok] = fn
}

// Create asks the bound constructor to build a T from the archetype with
// the given id. An unbound type is a traced no-op.
func Create[T any](b *Bus, archetype string, id int) {
	tok := tokenOf[T]()
	b.mu.Lock()
	fn, ok := b.createHandlers[tok]
	b.mu.Unlock()

	if !ok {
		b.tracer.Warning("bus: no create handler registered for %s", tokenName(tok))
		return
	}
	fn(archetype, id)
}

// RegisterStateChange binds the mutator invoked by SetState[T],
// replacing any prior binding for T.
func RegisterStateChange[T any](b *Bus, fn func(id int, active bool)) {
	tok := tokenOf[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectClosed("RegisterStateChange") {
		return
	}
	b.stateHandlers[tok] = fn
}

// SetState activates or deactivates the T associated with id. An unbound
// type is a traced no-op.
func SetState[T any](b *Bus, id int, active bool) {
	tok := tokenOf[T]()
	b.mu.Lock()
	fn, ok := b.stateHandlers[tok]
	b.mu.Unlock()

	if !ok {
		b.tracer.Warning("bus: no state change handler registered for %s", tokenName(tok))
		return
	}
	fn(id, active)
}
