package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustforge/relay/internal/trace"
)

type scriptedSystem struct {
	name string
	log  *[]string
}

func (s *scriptedSystem) step(hook string) { *s.log = append(*s.log, s.name+"."+hook) }

func (s *scriptedSystem) Init()          { s.step("init") }
func (s *scriptedSystem) Update(float64) { s.step("update") }
func (s *scriptedSystem) Serialize()     { s.step("serialize") }
func (s *scriptedSystem) Deserialize()   { s.step("deserialize") }
func (s *scriptedSystem) Shutdown()      { s.step("shutdown") }

func TestLifecycleOrdering(t *testing.T) {
	var log []string
	e := New(nil)
	e.AddSystem(&scriptedSystem{name: "a", log: &log})
	e.AddSystem(&scriptedSystem{name: "b", log: &log})

	e.Init()
	e.Update(0.5)
	e.SaveAll()
	e.LoadAll()
	e.Shutdown()

	assert.Equal(t, []string{
		"a.init", "b.init",
		"a.update", "b.update",
		"a.serialize", "b.serialize",
		"a.deserialize", "b.deserialize",
		"b.shutdown", "a.shutdown",
	}, log)
}

type tickCounter struct {
	updates chan float64
}

func (c *tickCounter) Init() {}
func (c *tickCounter) Update(dt float64) {
	select {
	case c.updates <- dt:
	default:
	}
}
func (c *tickCounter) Serialize()   {}
func (c *tickCounter) Deserialize() {}
func (c *tickCounter) Shutdown()    {}

func TestRun_TicksThenSavesOnCancel(t *testing.T) {
	rec := trace.NewRecorder()
	e := New(rec)
	counter := &tickCounter{updates: make(chan float64, 1)}
	var log []string
	e.AddSystem(counter)
	e.AddSystem(&scriptedSystem{name: "s", log: &log})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, time.Millisecond) }()

	select {
	case dt := <-counter.updates:
		assert.InDelta(t, 0.001, dt, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("no tick observed")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}

	assert.Contains(t, log, "s.serialize")
	assert.Contains(t, log, "s.shutdown")
	assert.Equal(t, 2, rec.CountAt(trace.LevelLog))
}
