package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustforge/relay/internal/trace"
)

// The default bus is process-wide state, so its whole lifecycle is
// exercised in one ordered test: live, torn down, never live again.
func TestDefaultBusLifecycle(t *testing.T) {
	rec := trace.NewRecorder()
	SetDefaultTracer(rec)

	first := Default()
	require.NotNil(t, first)
	assert.Same(t, first, Default())

	fired := 0
	first.RegisterEventHandler("STARTUP", func(Event) error {
		fired++
		return nil
	})
	first.BroadcastEvent("STARTUP", nil)
	assert.Equal(t, 1, fired)

	Teardown()

	// Dispatch tables are gone and nothing new may register.
	first.BroadcastEvent("STARTUP", nil)
	assert.Equal(t, 1, fired)

	before := rec.CountAt(trace.LevelWarning)
	first.RegisterEventHandler("STARTUP", func(Event) error { return nil })
	assert.Equal(t, before+1, rec.CountAt(trace.LevelWarning))

	// The singleton never returns to the live state.
	again := Default()
	assert.Same(t, first, again)
	again.RegisterEventHandler("LATE", func(Event) error { return nil })
	first.BroadcastEvent("LATE", nil)
	assert.Equal(t, 1, fired)
}
