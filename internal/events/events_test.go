package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustforge/relay/internal/bus"
	"github.com/dustforge/relay/internal/events"
	"github.com/dustforge/relay/internal/trace"
)

func newCreatorBus() (*bus.Bus, *trace.Recorder) {
	rec := trace.NewRecorder()
	b := bus.New(rec)
	events.RegisterCreators(b)
	return b, rec
}

func TestButtonClickCreator(t *testing.T) {
	b, rec := newCreatorBus()

	var got string
	b.RegisterEventHandler(events.ButtonClick, func(ev bus.Event) error {
		press, ok := ev.(*events.ButtonPress)
		require.True(t, ok)
		got = press.Command
		return nil
	})

	b.BroadcastByName(events.ButtonClick, events.CommandGameplay)
	assert.Equal(t, events.CommandGameplay, got)
	assert.Zero(t, rec.CountAt(trace.LevelError))
}

func TestButtonClickCreator_RejectsBadArguments(t *testing.T) {
	b, rec := newCreatorBus()

	called := false
	b.RegisterEventHandler(events.ButtonClick, func(bus.Event) error {
		called = true
		return nil
	})

	b.BroadcastByName(events.ButtonClick)
	b.BroadcastByName(events.ButtonClick, 42)
	b.BroadcastByName(events.ButtonClick, "a", "b")

	assert.False(t, called, "a failed creator must not dispatch")
	assert.Equal(t, 3, rec.CountAt(trace.LevelError))
}

func TestLevelUpCreator(t *testing.T) {
	b, rec := newCreatorBus()

	var got int
	b.RegisterEventHandler(events.LevelUpName, func(ev bus.Event) error {
		lvl, ok := ev.(*events.LevelUp)
		require.True(t, ok)
		got = lvl.ID
		return nil
	})

	b.BroadcastByName(events.LevelUpName, 12)
	assert.Equal(t, 12, got)

	b.BroadcastByName(events.LevelUpName, "12")
	assert.Equal(t, 1, rec.CountAt(trace.LevelError))
}

func TestSignalCreators_IgnoreArguments(t *testing.T) {
	b, rec := newCreatorBus()

	var seen []string
	for _, name := range []string{events.GameOver, events.Restart} {
		name := name
		b.RegisterEventHandler(name, func(ev bus.Event) error {
			_, ok := ev.(*events.Signal)
			require.True(t, ok)
			seen = append(seen, name)
			return nil
		})
	}

	b.BroadcastByName(events.GameOver)
	b.BroadcastByName(events.Restart, "extra", 1)

	assert.Equal(t, []string{events.GameOver, events.Restart}, seen)
	assert.Zero(t, rec.CountAt(trace.LevelError))
}

func TestButtonPress_PoolRoundTrip(t *testing.T) {
	ev := events.NewButtonPress(events.CommandPause)
	assert.Equal(t, events.CommandPause, ev.Command)
	ev.Release()

	reused := events.NewButtonPress(events.CommandGameplay)
	assert.Equal(t, events.CommandGameplay, reused.Command)
	reused.Release()
}
