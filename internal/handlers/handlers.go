package handlers

import (
	"log/slog"

	"github.com/OCAP2/combatlog/internal/dispatcher"
	"github.com/OCAP2/combatlog/internal/state"
	"github.com/OCAP2/combatlog/pkg/core"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	State  *state.ParseState
	Logger *slog.Logger
}

// Service applies dispatched events to the parse state.
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers a handler for every kind in the schema table and a
// fallback for the generic shape.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	for _, kind := range []core.EventKind{
		core.EventSwingDamage,
		core.EventRangeDamage,
		core.EventSpellDamage,
		core.EventSpellPeriodicDamage,
		core.EventEnvironmentalDamage,
		core.EventSpellHeal,
		core.EventSpellPeriodicHeal,
		core.EventCastStart,
		core.EventCastFailed,
		core.EventAuraApplied,
		core.EventAuraRemoved,
		core.EventUnitDied,
	} {
		d.Register(kind, s.handleCombat)
	}

	d.Register(core.EventCastSuccess, s.handleCastSuccess)

	d.Register(core.EventZoneChange, s.handleMarker, dispatcher.Logged())
	d.Register(core.EventEncounterStart, s.handleMarker, dispatcher.Logged())
	d.Register(core.EventEncounterEnd, s.handleMarker, dispatcher.Logged())

	d.Register(core.EventUnitInfo, s.handleUnitInfo)
	d.Register(core.EventZoneInfo, s.handleMarker)
	d.Register(core.EventCombatantInfo, s.handleCombatantInfo)

	d.Fallback(s.handleGeneric)
}

// handleCombat records both units in the registry and feeds the fight tracker.
func (s *Service) handleCombat(e *core.Event) error {
	s.observeUnits(e)
	s.track(e)
	return nil
}

func (s *Service) handleCastSuccess(e *core.Event) error {
	s.observeUnits(e)
	if c, ok := e.Payload.(core.Cast); ok && e.Stream == core.StreamPrimary {
		s.deps.State.Casts.RecordCast(e.Source.GUID, c.Spell.ID, c.Spell.Name)
	}
	s.track(e)
	return nil
}

func (s *Service) handleMarker(e *core.Event) error {
	s.track(e)
	return nil
}

func (s *Service) handleUnitInfo(e *core.Event) error {
	info, ok := e.Payload.(core.UnitInfo)
	if !ok || info.GUID.IsNil() {
		return nil
	}
	s.deps.State.Registry.ObserveInstance(info.GUID, core.Instance{
		FirstSeen: e.Time,
		Name:      info.Name,
		Owner:     info.Owner,
	})
	if !info.Owner.IsNil() {
		s.deps.State.Registry.Touch(info.Owner)
	}
	s.track(e)
	return nil
}

func (s *Service) handleCombatantInfo(e *core.Event) error {
	info, ok := e.Payload.(core.CombatantInfo)
	if !ok || info.GUID.IsNil() {
		return nil
	}
	s.deps.State.Registry.ObserveInstance(info.GUID, core.Instance{
		FirstSeen: e.Time,
		Name:      info.Name,
		Class:     info.Class,
	})
	return nil
}

// handleGeneric counts kinds outside the schema table. Their first two fields
// are often a GUID and name, but nothing is assumed.
func (s *Service) handleGeneric(e *core.Event) error {
	kind := string(e.Kind)
	if g, ok := e.Payload.(core.Generic); ok {
		kind = g.Kind
	}
	if s.deps.State.Stats.UnknownEventKinds[kind] == 0 {
		s.deps.Logger.Debug("unknown event kind", "kind", kind, "line", e.Line, "stream", e.Stream)
	}
	s.deps.State.CountUnknownKind(kind)
	return nil
}

func (s *Service) observeUnits(e *core.Event) {
	reg := s.deps.State.Registry
	for _, u := range []core.Unit{e.Source, e.Dest} {
		if u.GUID.IsNil() {
			continue
		}
		if u.Name == "" && u.Flags == 0 {
			reg.Touch(u.GUID)
			continue
		}
		reg.Observe(u.GUID, e.Time, u.Name, u.Flags)
	}
}

func (s *Service) track(e *core.Event) {
	if d := s.deps.State.Fights.Handle(e); d != nil {
		s.deps.Logger.Debug("inconsistent fight state", "line", d.Line, "stream", d.Stream, "message", d.Message)
		s.deps.State.AddDiagnostic(*d)
	}
}
