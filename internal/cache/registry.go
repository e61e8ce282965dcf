package cache

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/OCAP2/combatlog/pkg/core"
)

// EntityRegistry maps GUIDs to the entities observed during one parse.
// Entities are created on first reference and never removed.
type EntityRegistry struct {
	m        sync.Mutex
	entities map[core.GUID]*core.Entity
	names    NameLookup
}

// NewEntityRegistry creates a registry. names may be nil.
func NewEntityRegistry(names NameLookup) *EntityRegistry {
	return &EntityRegistry{
		entities: make(map[core.GUID]*core.Entity),
		names:    names,
	}
}

// Resolve classifies a GUID from its bits. No registry state is consulted.
func (r *EntityRegistry) Resolve(g core.GUID) core.EntityKind {
	return g.Kind()
}

// Touch records a reference to g without observing any instance data.
// It reports whether the entity is new. The nil GUID is ignored.
func (r *EntityRegistry) Touch(g core.GUID) bool {
	if g.IsNil() {
		return false
	}
	r.m.Lock()
	defer r.m.Unlock()
	_, created := r.entity(g)
	return created
}

// Observe records a name and flag sighting for g at ts.
func (r *EntityRegistry) Observe(g core.GUID, ts time.Time, name string, flags uint32) bool {
	return r.ObserveInstance(g, core.Instance{FirstSeen: ts, Name: name, Flags: flags})
}

// ObserveInstance appends inst when it differs from the current instance and reports
// whether it did. Empty fields inherit from the current instance, so a partial
// sighting never erases what is already known. An observation older than the
// current instance is stamped with the current instance's time to keep order.
func (r *EntityRegistry) ObserveInstance(g core.GUID, inst core.Instance) bool {
	if g.IsNil() {
		return false
	}

	r.m.Lock()
	defer r.m.Unlock()

	e, _ := r.entity(g)
	cur, ok := e.Current()
	if ok {
		if inst.Name == "" {
			inst.Name = cur.Name
		}
		if inst.Flags == 0 {
			inst.Flags = cur.Flags
		}
		if inst.Class == "" {
			inst.Class = cur.Class
		}
		if inst.Owner.IsNil() {
			inst.Owner = cur.Owner
		}
		if inst.SameAs(cur) {
			return false
		}
		if inst.FirstSeen.Before(cur.FirstSeen) {
			inst.FirstSeen = cur.FirstSeen
		}
	} else if inst.SameAs(core.Instance{}) {
		return false
	}

	e.Instances = append(e.Instances, inst)
	return true
}

// Lookup returns the latest observed name for g. Without one, creature GUIDs ask the
// name table for their entry and fall back to "NPC <entry>"; anything else renders
// as the raw GUID.
func (r *EntityRegistry) Lookup(g core.GUID) string {
	r.m.Lock()
	e, ok := r.entities[g]
	var name string
	if ok {
		if cur, ok := e.Current(); ok {
			name = cur.Name
		}
	}
	r.m.Unlock()

	if name != "" {
		return name
	}

	if entry, ok := g.Entry(); ok {
		if r.names != nil {
			if n, ok := r.names.LookupName(entry); ok && n != "" {
				return n
			}
		}
		return fmt.Sprintf("NPC %d", entry)
	}
	return g.String()
}

// Get returns a copy of the entity for g.
func (r *EntityRegistry) Get(g core.GUID) (core.Entity, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	if e, ok := r.entities[g]; ok {
		return copyEntity(e), true
	}
	return core.Entity{}, false
}

// Entities returns copies of all entities ordered by GUID.
func (r *EntityRegistry) Entities() []core.Entity {
	r.m.Lock()
	defer r.m.Unlock()

	out := make([]core.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, copyEntity(e))
	}
	slices.SortFunc(out, func(a, b core.Entity) int {
		switch {
		case a.GUID < b.GUID:
			return -1
		case a.GUID > b.GUID:
			return 1
		}
		return 0
	})
	return out
}

func (r *EntityRegistry) Len() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.entities)
}

// entity returns the entity for g, creating it if needed. Caller holds the lock.
func (r *EntityRegistry) entity(g core.GUID) (*core.Entity, bool) {
	if e, ok := r.entities[g]; ok {
		return e, false
	}
	e := &core.Entity{GUID: g, Kind: g.Kind()}
	r.entities[g] = e
	return e, true
}

func copyEntity(e *core.Entity) core.Entity {
	return core.Entity{
		GUID:      e.GUID,
		Kind:      e.Kind,
		Instances: slices.Clone(e.Instances),
	}
}
