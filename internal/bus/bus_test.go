package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustforge/relay/internal/trace"
)

type testEvent struct {
	payload  string
	released int
}

func (e *testEvent) Release() { e.released++ }

func TestBroadcastEvent_InvokesHandlersInRegistrationOrder(t *testing.T) {
	b := New(trace.NewRecorder())

	var order []string
	for _, name := range []string{"h1", "h2", "h3"} {
		name := name
		b.RegisterEventHandler("E", func(Event) error {
			order = append(order, name)
			return nil
		})
	}

	b.BroadcastEvent("E", &testEvent{payload: "x"})
	assert.Equal(t, []string{"h1", "h2", "h3"}, order)
}

func TestBroadcastEvent_HandlerFailureIsIsolated(t *testing.T) {
	rec := trace.NewRecorder()
	b := New(rec)

	var order []string
	b.RegisterEventHandler("E", func(Event) error {
		order = append(order, "h1")
		return nil
	})
	b.RegisterEventHandler("E", func(Event) error {
		order = append(order, "h2")
		return errors.New("boom")
	})
	b.RegisterEventHandler("E", func(Event) error {
		order = append(order, "h3")
		return nil
	})

	b.BroadcastEvent("E", &testEvent{})

	assert.Equal(t, []string{"h1", "h2", "h3"}, order, "failed handler must not stop the fan-out")
	assert.Equal(t, 1, rec.CountAt(trace.LevelWarning))
}

func TestBroadcastEvent_ReleasesAfterLastHandler(t *testing.T) {
	b := New(trace.NewRecorder())
	ev := &testEvent{}

	b.RegisterEventHandler("E", func(got Event) error {
		assert.Zero(t, got.(*testEvent).released, "event must still be live during dispatch")
		return nil
	})
	b.RegisterEventHandler("E", func(Event) error {
		return errors.New("boom")
	})

	b.BroadcastEvent("E", ev)
	assert.Equal(t, 1, ev.released, "released exactly once, even with a failing handler")
}

func TestBroadcastEvent_NoHandlersStillReleases(t *testing.T) {
	b := New(trace.NewRecorder())
	ev := &testEvent{}
	b.BroadcastEvent("UNKNOWN", ev)
	assert.Equal(t, 1, ev.released)
}

func TestBroadcastByName_CreatorBuildsBeforeHandlers(t *testing.T) {
	b := New(trace.NewRecorder())

	b.RegisterEventCreator("E", func(args ...any) (Event, error) {
		require.Len(t, args, 2)
		return &testEvent{payload: args[0].(string)}, nil
	})

	var seen string
	b.RegisterEventHandler("E", func(ev Event) error {
		seen = ev.(*testEvent).payload
		return nil
	})

	b.BroadcastByName("E", "hello", 42)
	assert.Equal(t, "hello", seen)
}

func TestBroadcastByName_MissingCreatorAbortsWithErrorTrace(t *testing.T) {
	rec := trace.NewRecorder()
	b := New(rec)

	called := false
	b.RegisterEventHandler("E", func(Event) error {
		called = true
		return nil
	})

	b.BroadcastByName("E")
	assert.False(t, called, "no dispatch without a creator")
	assert.Equal(t, 1, rec.CountAt(trace.LevelError))
}

func TestBroadcastByName_CreatorFailureAbortsWithErrorTrace(t *testing.T) {
	rec := trace.NewRecorder()
	b := New(rec)

	b.RegisterEventCreator("E", func(...any) (Event, error) {
		return nil, errors.New("bad args")
	})
	called := false
	b.RegisterEventHandler("E", func(Event) error {
		called = true
		return nil
	})

	b.BroadcastByName("E")
	assert.False(t, called)
	assert.Equal(t, 1, rec.CountAt(trace.LevelError))
}

func TestBroadcastByName_CreatorReplaced(t *testing.T) {
	b := New(trace.NewRecorder())

	b.RegisterEventCreator("E", func(...any) (Event, error) {
		return &testEvent{payload: "old"}, nil
	})
	b.RegisterEventCreator("E", func(...any) (Event, error) {
		return &testEvent{payload: "new"}, nil
	})

	var seen string
	b.RegisterEventHandler("E", func(ev Event) error {
		seen = ev.(*testEvent).payload
		return nil
	})

	b.BroadcastByName("E")
	assert.Equal(t, "new", seen, "last creator registration wins")
}

func TestRegistrationDuringDispatchTakesEffectNextBroadcast(t *testing.T) {
	b := New(trace.NewRecorder())

	var calls []string
	b.RegisterEventHandler("E", func(Event) error {
		calls = append(calls, "h1")
		b.RegisterEventHandler("E", func(Event) error {
			calls = append(calls, "late")
			return nil
		})
		return nil
	})

	b.BroadcastEvent("E", &testEvent{})
	assert.Equal(t, []string{"h1"}, calls, "handler registered mid-broadcast must not run now")

	calls = nil
	b.BroadcastEvent("E", &testEvent{})
	assert.Equal(t, []string{"h1", "late"}, calls)
}

func TestReentrantBroadcast(t *testing.T) {
	b := New(trace.NewRecorder())

	var calls []string
	b.RegisterEventHandler("INNER", func(Event) error {
		calls = append(calls, "inner")
		return nil
	})
	b.RegisterEventHandler("OUTER", func(Event) error {
		calls = append(calls, "outer-pre")
		b.BroadcastEvent("INNER", &testEvent{})
		calls = append(calls, "outer-post")
		return nil
	})

	b.BroadcastEvent("OUTER", &testEvent{})
	assert.Equal(t, []string{"outer-pre", "inner", "outer-post"}, calls)
}

func TestBroadcastSpecial_FanOutAndFailureIsolation(t *testing.T) {
	rec := trace.NewRecorder()
	b := New(rec)

	var ids []int
	b.RegisterSpecialEventHandler("DELETE", func(id int) error {
		ids = append(ids, id)
		return nil
	})
	b.RegisterSpecialEventHandler("DELETE", func(id int) error {
		return errors.New("boom")
	})
	b.RegisterSpecialEventHandler("DELETE", func(id int) error {
		ids = append(ids, id*10)
		return nil
	})

	b.BroadcastSpecial("DELETE", 7)
	assert.Equal(t, []int{7, 70}, ids)
	assert.Equal(t, 1, rec.CountAt(trace.LevelWarning))
}

func TestSpecialRequest(t *testing.T) {
	rec := trace.NewRecorder()
	b := New(rec)

	id, ok := b.SpecialRequest("FIND", "player")
	assert.False(t, ok, "unbound request resolves empty")
	assert.Zero(t, id)
	assert.Equal(t, 1, rec.CountAt(trace.LevelWarning))

	b.RegisterSpecialRequest("FIND", func(arg string) (int, bool) {
		if arg == "player" {
			return 12, true
		}
		return 0, false
	})

	id, ok = b.SpecialRequest("FIND", "player")
	require.True(t, ok)
	assert.Equal(t, 12, id)

	_, ok = b.SpecialRequest("FIND", "ghost")
	assert.False(t, ok)
}

func TestSpecialRequest_ResolverReplaced(t *testing.T) {
	b := New(trace.NewRecorder())

	b.RegisterSpecialRequest("FIND", func(string) (int, bool) { return 1, true })
	b.RegisterSpecialRequest("FIND", func(string) (int, bool) { return 2, true })

	id, ok := b.SpecialRequest("FIND", "x")
	require.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestClose_ClearsTablesAndRejectsRegistration(t *testing.T) {
	rec := trace.NewRecorder()
	b := New(rec)

	called := false
	b.RegisterEventHandler("E", func(Event) error {
		called = true
		return nil
	})
	b.Close()

	b.BroadcastEvent("E", &testEvent{})
	assert.False(t, called, "tables cleared on close")

	b.RegisterEventHandler("E", func(Event) error { return nil })
	b.BroadcastEvent("E", &testEvent{})
	assert.False(t, called)
	assert.GreaterOrEqual(t, rec.CountAt(trace.LevelWarning), 1)
}
