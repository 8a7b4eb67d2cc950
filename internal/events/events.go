// Package events defines the event payloads exchanged over the bus.
// Payloads are plain value carriers: the bus treats them as opaque and
// handlers receive a borrowed pointer they must not retain.
package events

import (
	"fmt"
	"sync"

	"github.com/dustforge/relay/internal/bus"
)

// Event names used across the engine. By convention names are all caps.
const (
	ButtonClick = "BUTTON_CLICK"
	GameOver    = "GAMEOVER"
	Restart     = "RESTART"
	LevelUpName = "LEVELUP"
	PauseName   = "PAUSE"
)

// ButtonPress commands understood by the stats registry.
const (
	CommandGameplay   = "GAMEPLAY"
	CommandResetStats = "RESETSTATS"
	CommandPause      = "PAUSE"
)

// ButtonPress is broadcast when a UI button fires. Command carries the
// button's action string.
type ButtonPress struct {
	Command string
}

var buttonPressPool = sync.Pool{New: func() any { return &ButtonPress{} }}

// NewButtonPress takes a pooled ButtonPress. The bus returns it to the
// pool via Release after fan-out.
func NewButtonPress(command string) *ButtonPress {
	ev := buttonPressPool.Get().(*ButtonPress)
	ev.Command = command
	return ev
}

// Release returns the event to its pool.
func (e *ButtonPress) Release() {
	e.Command = ""
	buttonPressPool.Put(e)
}

// LevelUp is broadcast when the entity with ID gains a level.
type LevelUp struct {
	ID int
}

// Pause is broadcast when gameplay pauses or resumes. It carries no data.
type Pause struct{}

// Signal is a payload-free event used by GAMEOVER and RESTART.
type Signal struct{}

// RegisterCreators installs the event factories used by BroadcastByName.
// Each creator validates its packed argument list and fails the broadcast
// on a malformed pack.
func RegisterCreators(b *bus.Bus) {
	b.RegisterEventCreator(ButtonClick, func(args ...any) (bus.Event, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("BUTTON_CLICK takes 1 argument, got %d", len(args))
		}
		command, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("BUTTON_CLICK command must be a string, got %T", args[0])
		}
		return NewButtonPress(command), nil
	})

	b.RegisterEventCreator(LevelUpName, func(args ...any) (bus.Event, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("LEVELUP takes 1 argument, got %d", len(args))
		}
		id, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("LEVELUP id must be an int, got %T", args[0])
		}
		return &LevelUp{ID: id}, nil
	})

	b.RegisterEventCreator(GameOver, func(...any) (bus.Event, error) {
		return &Signal{}, nil
	})
	b.RegisterEventCreator(Restart, func(...any) (bus.Event, error) {
		return &Signal{}, nil
	})
	b.RegisterEventCreator(PauseName, func(...any) (bus.Event, error) {
		return &Pause{}, nil
	})
}
