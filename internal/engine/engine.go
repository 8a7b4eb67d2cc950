// Package engine is the registrar that owns the runtime subsystems and
// drives their lifecycle hooks. Systems register once at start-up; the
// engine calls Init in registration order, fans Update out every tick,
// and shuts down in reverse order.
package engine

import (
	"context"
	"time"

	"github.com/dustforge/relay/internal/trace"
)

// System is a subsystem managed by the engine. All hooks run on the
// engine goroutine; none of them may block.
type System interface {
	Init()
	Update(dt float64)
	Serialize()
	Deserialize()
	Shutdown()
}

// Engine holds systems in registration order.
type Engine struct {
	tracer  trace.Tracer
	systems []System
}

// New creates an engine. A nil tracer discards traces.
func New(tracer trace.Tracer) *Engine {
	if tracer == nil {
		tracer = trace.Nop{}
	}
	return &Engine{tracer: tracer}
}

// AddSystem registers a system. Registration order is the Init and
// Update order, and the reverse of the Shutdown order.
func (e *Engine) AddSystem(s System) {
	e.systems = append(e.systems, s)
}

// Init initializes every system in registration order.
func (e *Engine) Init() {
	for _, s := range e.systems {
		s.Init()
	}
}

// Update advances every system by dt seconds.
func (e *Engine) Update(dt float64) {
	for _, s := range e.systems {
		s.Update(dt)
	}
}

// SaveAll asks every system to persist itself.
func (e *Engine) SaveAll() {
	for _, s := range e.systems {
		s.Serialize()
	}
}

// LoadAll asks every system to restore itself.
func (e *Engine) LoadAll() {
	for _, s := range e.systems {
		s.Deserialize()
	}
}

// Shutdown tears systems down in reverse registration order.
func (e *Engine) Shutdown() {
	for i := len(e.systems) - 1; i >= 0; i-- {
		e.systems[i].Shutdown()
	}
}

// Run drives a fixed-timestep tick loop until the context is cancelled,
// then persists and shuts down. Each tick advances the systems by the
// step duration in seconds.
func (e *Engine) Run(ctx context.Context, step time.Duration) error {
	e.tracer.Log("engine: starting, step %s", step)

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	dt := step.Seconds()
	for {
		select {
		case <-ctx.Done():
			e.tracer.Log("engine: stopping: %v", ctx.Err())
			e.SaveAll()
			e.Shutdown()
			return ctx.Err()
		case <-ticker.C:
			e.Update(dt)
		}
	}
}
