// pkg/core/entity.go
package core

import "time"

// Instance is one observed name and flag snapshot of a GUID.
type Instance struct {
	FirstSeen time.Time `json:"firstSeen"`
	Name      string    `json:"name"`
	Flags     uint32    `json:"flags,omitempty"`
	Class     string    `json:"class,omitempty"`
	Owner     GUID      `json:"owner,omitempty"`
}

// SameAs reports whether two instances describe the same observation, ignoring time.
func (i Instance) SameAs(other Instance) bool {
	return i.Name == other.Name &&
		i.Flags == other.Flags &&
		i.Class == other.Class &&
		i.Owner == other.Owner
}

// Entity is a GUID with every distinct instance observed for it, oldest first.
type Entity struct {
	GUID      GUID
	Kind      EntityKind
	Instances []Instance
}

// Current returns the most recent instance.
func (e *Entity) Current() (Instance, bool) {
	if len(e.Instances) == 0 {
		return Instance{}, false
	}
	return e.Instances[len(e.Instances)-1], true
}
