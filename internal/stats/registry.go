// Package stats maintains the hierarchical game-play counters. Stats are
// grouped into three well-known groups: Game holds the running game's
// counters, Session holds per-session records, and Lifetime holds the
// all-time rollup that survives restarts.
package stats

import (
	"fmt"
	"sync"

	"github.com/dustforge/relay/internal/archive"
	"github.com/dustforge/relay/internal/bus"
	"github.com/dustforge/relay/internal/events"
	"github.com/dustforge/relay/internal/trace"
)

// Well-known group names.
const (
	GroupGame     = "Game"
	GroupSession  = "Session"
	GroupLifetime = "Lifetime"
)

// Well-known stat names.
const (
	StatKills        = "Kills"
	StatLevel        = "Level"
	StatTimeAlive    = "Time Alive"
	StatBestKills    = "Best Kills"
	StatBestLevel    = "Best Level"
	StatBestTime     = "Best Time"
	StatLevelsGained = "Levels Gained"
	StatGamesPlayed  = "Games Played"
)

// DefaultStatsPath is where the registry persists itself.
const DefaultStatsPath = "Data/JSONS/GameStats.json"

// Group maps stat names to values. Keys are unique within a group.
type Group map[string]Value

// defaultGroups seeds the three well-known groups with their schema at
// tag-zero. Groups are never auto-created after construction.
func defaultGroups() map[string]Group {
	record := func() Group {
		return Group{
			StatKills:        Int(0),
			StatTimeAlive:    Float(0),
			StatBestKills:    Int(0),
			StatBestLevel:    Int(0),
			StatBestTime:     Float(0),
			StatLevelsGained: Int(0),
			StatGamesPlayed:  Int(0),
		}
	}
	return map[string]Group{
		GroupGame: {
			StatKills:     Int(0),
			StatLevel:     Int(0),
			StatTimeAlive: Float(0),
		},
		GroupSession:  record(),
		GroupLifetime: record(),
	}
}

// Registry is the stats store. Construct with New; the zero value is not
// usable.
type Registry struct {
	mu      sync.Mutex
	tracer  trace.Tracer
	bus     *bus.Bus
	arch    *archive.Archive
	path    string
	groups  map[string]Group
	playing bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithStatsPath overrides the persisted file location.
func WithStatsPath(path string) Option {
	return func(r *Registry) { r.path = path }
}

// WithArchive attaches a session-history archive. Serialize records the
// promoted session into it.
func WithArchive(a *archive.Archive) Option {
	return func(r *Registry) { r.arch = a }
}

// New creates a registry seeded with the well-known groups at tag-zero.
// A nil tracer discards traces; a nil bus skips event subscriptions.
func New(b *bus.Bus, tracer trace.Tracer, opts ...Option) *Registry {
	if tracer == nil {
		tracer = trace.Nop{}
	}
	r := &Registry{
		tracer: tracer,
		bus:    b,
		path:   DefaultStatsPath,
		groups: defaultGroups(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it against the
// default bus on first access.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = New(bus.Default(), trace.NewSlog(nil))
	}
	return defaultReg
}

// Teardown destroys the default registry at engine shutdown.
func Teardown() {
	defaultMu.Lock()
	r := defaultReg
	defaultReg = nil
	defaultMu.Unlock()
	if r != nil {
		r.Shutdown()
	}
}

// Init subscribes the registry to the bus events that drive it.
func (r *Registry) Init() {
	if r.bus == nil {
		return
	}
	r.bus.RegisterEventHandler(events.GameOver, func(bus.Event) error {
		r.Promote(GroupSession, GroupGame)
		r.setPlaying(false)
		return nil
	})
	r.bus.RegisterEventHandler(events.Restart, func(bus.Event) error {
		r.Promote(GroupSession, GroupGame)
		r.ResetStats(GroupGame)
		return nil
	})
	r.bus.RegisterEventHandler(events.ButtonClick, func(ev bus.Event) error {
		press, ok := ev.(*events.ButtonPress)
		if !ok {
			return fmt.Errorf("BUTTON_CLICK payload is %T, want *events.ButtonPress", ev)
		}
		r.handleButton(press)
		return nil
	})
}

// Update advances the running game's clock. While playing, dt is added
// to Game's Time Alive.
func (r *Registry) Update(dt float64) {
	r.mu.Lock()
	playing := r.playing
	r.mu.Unlock()
	if playing {
		r.IncrementStat(StatTimeAlive, Float(dt), GroupGame)
	}
}

// Shutdown clears the registry.
func (r *Registry) Shutdown() {
	r.ClearStats()
}

// Playing reports whether the gameplay clock is running.
func (r *Registry) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *Registry) setPlaying(v bool) {
	r.mu.Lock()
	r.playing = v
	r.mu.Unlock()
}

func (r *Registry) handleButton(press *events.ButtonPress) {
	switch press.Command {
	case events.CommandGameplay:
		r.IncrementStat(StatGamesPlayed, Int(1), GroupSession)
		r.Promote(GroupSession, GroupGame)
		r.ResetStats(GroupGame)
		r.setPlaying(true)
	case events.CommandResetStats:
		r.ResetStats(GroupGame)
		r.ResetStats(GroupLifetime)
		r.ResetStats(GroupSession)
	case events.CommandPause:
		r.mu.Lock()
		r.playing = !r.playing
		r.mu.Unlock()
	}
}

// SetStat replaces the value of an existing stat. The group and the stat
// must both exist; misuse is traced and leaves state unchanged.
func (r *Registry) SetStat(name string, v Value, group string) {
	if name == "" {
		r.tracer.Error("stats: attempting to set a stat with no name")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[group]
	if !ok {
		r.tracer.Error("stats: attempting to set a stat in group %q which does not exist", group)
		return
	}
	if _, ok := g[name]; !ok {
		r.tracer.Error("stats: attempting to set stat %q which does not exist in group %q", name, group)
		return
	}
	g[name] = v
}

// GetStat returns the value of a stat. The second result is false when
// the name is empty or the group or stat does not exist.
func (r *Registry) GetStat(name, group string) (Value, bool) {
	if name == "" {
		r.tracer.Warning("stats: attempting to get a stat with no name")
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[group]
	if !ok {
		r.tracer.Error("stats: attempting to get a stat in group %q which does not exist", group)
		return nil, false
	}
	v, ok := g[name]
	if !ok {
		r.tracer.Warning("stats: attempting to get stat %q which does not exist", name)
		return nil, false
	}
	return v, true
}

// IncrementStat adds delta to an existing stat. The addition applies only
// when the current value and delta share a numeric variant; a mismatched
// delta is discarded and the stat keeps its value.
func (r *Registry) IncrementStat(name string, delta Value, group string) {
	if name == "" {
		r.tracer.Error("stats: attempting to increment a stat with no name")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[group]
	if !ok {
		r.tracer.Error("stats: attempting to increment a stat in group %q which does not exist", group)
		return
	}
	cur, ok := g[name]
	if !ok {
		r.tracer.Error("stats: attempting to increment stat %q which does not exist in group %q", name, group)
		return
	}
	g[name] = add(cur, delta)
}

// StatNames returns the stat names of a group, unordered.
func (r *Registry) StatNames(group string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[group]
	if !ok {
		r.tracer.Warning("stats: attempting to list stats of group %q which does not exist", group)
		return nil
	}
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	return names
}

// GroupNames returns the registered group names, unordered.
func (r *Registry) GroupNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	return names
}

// ResetStats sets every stat in a group to the zero of its current tag.
// Tags are preserved.
func (r *Registry) ResetStats(group string) {
	if group == "" {
		r.tracer.Warning("stats: attempting to reset a stat group with no name")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[group]
	if !ok {
		r.tracer.Warning("stats: attempting to reset group %q which does not exist", group)
		return
	}
	resetGroup(g)
}

// ResetAllStats applies ResetStats to every group, Lifetime included.
func (r *Registry) ResetAllStats() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		resetGroup(g)
	}
}

func resetGroup(g Group) {
	for name, v := range g {
		g[name] = zero(v)
	}
}

// ClearStats empties the registry entirely, groups included.
func (r *Registry) ClearStats() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = make(map[string]Group)
}

// Promote folds one group's values into another. Only the Game->Session
// and Session->Lifetime directions are valid; anything else is a traced
// no-op. The first argument is the destination.
func (r *Registry) Promote(to, from string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	toGroup, ok := r.groups[to]
	if !ok {
		r.tracer.Warning("stats: attempted to promote into group %q which does not exist", to)
		return
	}
	fromGroup, ok := r.groups[from]
	if !ok {
		r.tracer.Warning("stats: attempted to promote from group %q which does not exist", from)
		return
	}

	switch {
	case from == GroupGame && to == GroupSession:
		maxInto(toGroup, StatBestKills, fromGroup, StatKills)
		maxInto(toGroup, StatBestLevel, fromGroup, StatLevel)
		maxInto(toGroup, StatBestTime, fromGroup, StatTimeAlive)
		addInto(toGroup, StatLevelsGained, fromGroup, StatLevel)
	case from == GroupSession && to == GroupLifetime:
		maxInto(toGroup, StatBestKills, fromGroup, StatBestKills)
		maxInto(toGroup, StatBestLevel, fromGroup, StatBestLevel)
		maxInto(toGroup, StatBestTime, fromGroup, StatBestTime)
		addInto(toGroup, StatGamesPlayed, fromGroup, StatGamesPlayed)
		addInto(toGroup, StatLevelsGained, fromGroup, StatLevelsGained)
	default:
		r.tracer.Warning("stats: attempted to make an invalid promotion %q -> %q", from, to)
		return
	}

	// Accumulations shared by both valid directions.
	addInto(toGroup, StatKills, fromGroup, StatKills)
	addInto(toGroup, StatTimeAlive, fromGroup, StatTimeAlive)
}

// maxInto raises to[toName] to from[fromName] when the source is larger.
// Missing stats are skipped; the well-known schema guarantees presence.
func maxInto(to Group, toName string, from Group, fromName string) {
	src, ok := from[fromName]
	if !ok {
		return
	}
	dst, ok := to[toName]
	if !ok {
		return
	}
	if less(dst, src) {
		to[toName] = src
	}
}

// addInto accumulates from[fromName] into to[toName].
func addInto(to Group, toName string, from Group, fromName string) {
	src, ok := from[fromName]
	if !ok {
		return
	}
	dst, ok := to[toName]
	if !ok {
		return
	}
	to[toName] = add(dst, src)
}
