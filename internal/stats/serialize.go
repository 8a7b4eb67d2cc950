package stats

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/dustforge/relay/internal/archive"
	"github.com/dustforge/relay/internal/serializer"
)

// Serialize persists the registry. The running game is folded into the
// session and the session into the lifetime rollup first, so the on-disk
// Lifetime group absorbs everything up to this moment. This is the only
// place Session is promoted into Lifetime.
func (r *Registry) Serialize() {
	r.Promote(GroupSession, GroupGame)
	r.Promote(GroupLifetime, GroupSession)

	r.mu.Lock()
	snapshot := make(map[string]Group, len(r.groups))
	for name, g := range r.groups {
		cp := make(Group, len(g))
		for k, v := range g {
			cp[k] = v
		}
		snapshot[name] = cp
	}
	path := r.path
	r.mu.Unlock()

	ser := serializer.New()
	if err := ser.ReadFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.tracer.Warning("stats: rereading %s before save: %v", path, err)
	}

	groupNames := make([]string, 0, len(snapshot))
	nameSet := make(map[string]struct{})
	for groupName, g := range snapshot {
		groupNames = append(groupNames, groupName)
		for statName, v := range g {
			nameSet[statName] = struct{}{}
			ser.SetData(groupName+"."+statName, scalar(v))
		}
	}
	sort.Strings(groupNames)
	statNames := make([]string, 0, len(nameSet))
	for name := range nameSet {
		statNames = append(statNames, name)
	}
	sort.Strings(statNames)

	ser.SetData("Stat Names", statNames)
	ser.SetData("Stat Groups", groupNames)

	if err := ser.Transcribe(path); err != nil {
		r.tracer.Error("stats: saving to %s: %v", path, err)
		return
	}
	ser.Clean()

	r.recordSession(snapshot)
}

// recordSession appends the promoted session snapshot to the attached
// archive, if any.
func (r *Registry) recordSession(snapshot map[string]Group) {
	if r.arch == nil {
		return
	}
	session, ok := snapshot[GroupSession]
	if !ok {
		return
	}
	rec := archive.SessionRecord{
		GamesPlayed:  intAt(session, StatGamesPlayed),
		Kills:        intAt(session, StatKills),
		BestKills:    intAt(session, StatBestKills),
		BestLevel:    intAt(session, StatBestLevel),
		LevelsGained: intAt(session, StatLevelsGained),
		TimeAlive:    floatAt(session, StatTimeAlive),
		BestTime:     floatAt(session, StatBestTime),
	}
	if _, err := r.arch.RecordSession(context.Background(), rec); err != nil {
		r.tracer.Error("stats: archiving session: %v", err)
	}
}

// Deserialize restores the registry from disk. Each persisted group is
// rebuilt from the index keys, choosing every stat's variant from its
// scalar's runtime type, then reset to tag-zero -- except Lifetime, which
// keeps its persisted values. A missing or malformed file leaves the
// seeded defaults in place.
func (r *Registry) Deserialize() {
	r.mu.Lock()
	path := r.path
	r.mu.Unlock()

	ser := serializer.New()
	if err := ser.ReadFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.tracer.Log("stats: no persisted stats at %s, starting fresh", path)
		} else {
			r.tracer.Error("stats: loading %s: %v", path, err)
		}
		return
	}

	groupNames, ok := stringList(ser, "Stat Groups")
	if !ok {
		r.tracer.Error("stats: %s has no usable \"Stat Groups\" index", path)
		return
	}
	statNames, ok := stringList(ser, "Stat Names")
	if !ok {
		r.tracer.Error("stats: %s has no usable \"Stat Names\" index", path)
		return
	}

	groups := make(map[string]Group, len(groupNames))
	for _, groupName := range groupNames {
		g := make(Group, len(statNames))
		for _, statName := range statNames {
			raw, ok := ser.GetData(groupName + "." + statName)
			if !ok {
				continue
			}
			v, ok := fromScalar(raw)
			if !ok {
				r.tracer.Warning("stats: %s.%s has a non-scalar value, skipping", groupName, statName)
				continue
			}
			g[statName] = v
		}
		if groupName != GroupLifetime {
			resetGroup(g)
		}
		groups[groupName] = g
	}

	// Backfill any well-known stat the file predates, so promotion always
	// finds its operands.
	for groupName, defaults := range defaultGroups() {
		g, ok := groups[groupName]
		if !ok {
			groups[groupName] = defaults
			continue
		}
		for statName, v := range defaults {
			if _, ok := g[statName]; !ok {
				g[statName] = v
			}
		}
	}

	r.mu.Lock()
	r.groups = groups
	r.mu.Unlock()
}

func stringList(ser *serializer.Serializer, key string) ([]string, bool) {
	raw, ok := ser.GetData(key)
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func intAt(g Group, name string) int64 {
	if v, ok := g[name].(Int); ok {
		return int64(v)
	}
	return 0
}

func floatAt(g Group, name string) float64 {
	if v, ok := g[name].(Float); ok {
		return float64(v)
	}
	return 0
}
