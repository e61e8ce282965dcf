// Package merge interleaves the primary and raw event streams by timestamp.
package merge

import (
	"github.com/OCAP2/combatlog/internal/queue"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Source yields decoded events in file order.
type Source interface {
	Next() (*core.Event, bool)
}

// SliceSource serves events from a slice.
type SliceSource struct {
	events []*core.Event
	pos    int
}

func NewSliceSource(events []*core.Event) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Next() (*core.Event, bool) {
	if s.pos >= len(s.events) {
		return nil, false
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, true
}

// Merger is a two-way head merge. On equal timestamps the primary event goes
// first. Within the primary stream, an ENCOUNTER_END that shares its timestamp
// with a preceding ENCOUNTER_START of a different encounter is moved ahead of it.
type Merger struct {
	primary Source
	raw     Source

	// pending holds primary events already read and reordered.
	pending *queue.Queue[*core.Event]
	held    *core.Event

	headP, headR *core.Event
	doneP, doneR bool
}

// New merges primary and raw. raw may be nil.
func New(primary, raw Source) *Merger {
	if raw == nil {
		raw = NewSliceSource(nil)
	}
	return &Merger{
		primary: primary,
		raw:     raw,
		pending: queue.New[*core.Event](),
	}
}

// Next returns the next event in merged order.
func (m *Merger) Next() (*core.Event, bool) {
	if m.headP == nil && !m.doneP {
		ev, ok := m.nextPrimary()
		m.headP, m.doneP = ev, !ok
	}
	if m.headR == nil && !m.doneR {
		ev, ok := m.raw.Next()
		m.headR, m.doneR = ev, !ok
	}

	switch {
	case m.headP == nil && m.headR == nil:
		return nil, false
	case m.headP == nil:
		return m.takeRaw(), true
	case m.headR == nil:
		return m.takePrimary(), true
	case m.headR.Time.Before(m.headP.Time):
		return m.takeRaw(), true
	default:
		return m.takePrimary(), true
	}
}

func (m *Merger) takePrimary() *core.Event {
	ev := m.headP
	m.headP = nil
	return ev
}

func (m *Merger) takeRaw() *core.Event {
	ev := m.headR
	m.headR = nil
	return ev
}

func (m *Merger) readPrimary() (*core.Event, bool) {
	if m.held != nil {
		ev := m.held
		m.held = nil
		return ev, true
	}
	return m.primary.Next()
}

func (m *Merger) nextPrimary() (*core.Event, bool) {
	if ev, ok := m.pending.Pop(); ok {
		return ev, true
	}

	ev, ok := m.readPrimary()
	if !ok || ev.Kind != core.EventEncounterStart {
		return ev, ok
	}

	run := []*core.Event{ev}
	for {
		next, ok := m.readPrimary()
		if !ok {
			break
		}
		if !next.Time.Equal(ev.Time) {
			m.held = next
			break
		}
		run = append(run, next)
	}

	run = endsFirst(run)
	m.pending.Push(run[1:]...)
	return run[0], true
}

// endsFirst moves ENCOUNTER_END markers that do not close an encounter started
// inside the run to the front. Everything else keeps its order.
func endsFirst(run []*core.Event) []*core.Event {
	started := make(map[uint32]bool)
	ends := make([]*core.Event, 0)
	rest := make([]*core.Event, 0, len(run))
	for _, ev := range run {
		switch p := ev.Payload.(type) {
		case core.EncounterStart:
			started[p.Encounter.ID] = true
		case core.EncounterEnd:
			if !started[p.Encounter.ID] {
				ends = append(ends, ev)
				continue
			}
		}
		rest = append(rest, ev)
	}
	return append(ends, rest...)
}
