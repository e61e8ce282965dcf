package fight

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/OCAP2/combatlog/pkg/core"
)

// Config controls fight detection.
type Config struct {
	// ImplicitOpen lets damage or casts touching an NPC open a fight without an
	// ENCOUNTER_START marker.
	ImplicitOpen bool
	// IdleGap is the quiet time required after a close before an implicit open.
	IdleGap time.Duration
	// IdleTimeout closes an implicit fight after this long without activity. Zero disables it.
	IdleTimeout time.Duration
}

// DefaultConfig returns the detection defaults: explicit markers only.
func DefaultConfig() Config {
	return Config{
		ImplicitOpen: false,
		IdleGap:      5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Tracker is the fight state machine. It has two states: no active fight and one
// open fight. Fights never overlap.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	fights     []*Fight
	current    *Fight
	lastClosed *Fight
	zone       core.Zone

	// sides records classifications learned from UNIT_INFO for GUIDs whose
	// bits do not say.
	sides map[core.GUID]Side
}

// NewTracker creates a tracker in the no-active-fight state.
func NewTracker(cfg Config, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:    cfg,
		logger: logger,
		sides:  make(map[core.GUID]Side),
	}
}

// Fights returns all fights in start order, the open one last.
func (t *Tracker) Fights() []*Fight {
	return slices.Clone(t.fights)
}

// Current returns the open fight, or nil.
func (t *Tracker) Current() *Fight {
	return t.current
}

// Zone returns the zone the log is currently in.
func (t *Tracker) Zone() core.Zone {
	return t.zone
}

// Handle applies one event. It returns a diagnostic when the event contradicts
// the fight state; the event is then ignored structurally.
func (t *Tracker) Handle(ev *core.Event) *core.Diagnostic {
	if ev.Stream == core.StreamRaw {
		t.handleRaw(ev)
		return nil
	}

	t.expireIdle(ev.Time)

	switch p := ev.Payload.(type) {
	case core.EncounterStart:
		return t.encounterStart(ev, p)
	case core.EncounterEnd:
		return t.encounterEnd(ev, p)
	case core.ZoneChange:
		if t.current != nil {
			t.closeCurrent(ev.Time, CloseZoneChange)
		}
		t.zone = p.Zone
		return nil
	case core.Damage:
		t.maybeOpen(ev)
		if f := t.current; f != nil {
			t.attribute(f, ev)
			f.RecordDamage(ev.Source.GUID, ev.Dest.GUID, p.Amount)
		}
	case core.Heal:
		if f := t.current; f != nil {
			t.attribute(f, ev)
			f.RecordHeal(ev.Source.GUID, ev.Dest.GUID, p.Effective())
		}
	case core.Cast:
		if p.Action != core.CastFailed {
			t.maybeOpen(ev)
		}
		if f := t.current; f != nil {
			t.attribute(f, ev)
		}
	case core.Aura:
		if f := t.current; f != nil {
			t.attribute(f, ev)
		}
	case core.Died:
		return t.died(ev)
	}
	return nil
}

func (t *Tracker) handleRaw(ev *core.Event) {
	switch p := ev.Payload.(type) {
	case core.UnitInfo:
		if p.GUID.IsNil() || p.IsPlayer {
			return
		}
		if SideOf(p.GUID.Kind()) != SideUnknown {
			return
		}
		side := SideHostile
		if p.CanCooperate {
			side = SideFriendly
		}
		t.sides[p.GUID] = side
		if t.current != nil && t.current.promote(p.GUID, side) {
			t.logger.Debug("promoted unknown participant",
				"fight", t.current.ID, "guid", p.GUID, "side", side)
		}
	case core.ZoneInfo:
		if !p.Zone.IsZero() {
			t.zone = p.Zone
		}
	}
}

func (t *Tracker) encounterStart(ev *core.Event, p core.EncounterStart) *core.Diagnostic {
	var diag *core.Diagnostic
	if t.current != nil {
		prev := t.current
		t.closeCurrent(ev.Time, CloseSuperseded)
		diag = t.inconsistent(ev, "ENCOUNTER_START %d while fight %d is open", p.Encounter.ID, prev.ID)
	}
	f := t.open(ev.Time, TriggerEncounter)
	f.Encounter = &Encounter{Encounter: p.Encounter}
	return diag
}

func (t *Tracker) encounterEnd(ev *core.Event, p core.EncounterEnd) *core.Diagnostic {
	if f := t.current; f != nil {
		if f.Encounter == nil {
			f.Encounter = &Encounter{Encounter: p.Encounter}
		}
		f.Encounter.Success = p.Success
		t.closeCurrent(ev.Time, CloseEncounterEnd)
		return nil
	}

	// The kill often closes the fight a moment before the marker arrives.
	if f := t.lastClosed; f != nil && f.CloseReason == CloseHostilesDead &&
		f.Encounter != nil && f.Encounter.ID == p.Encounter.ID {
		if ev.Time.After(f.End) {
			f.End = ev.Time
		}
		f.Encounter.Success = p.Success
		t.lastClosed = nil
		return nil
	}

	return t.inconsistent(ev, "ENCOUNTER_END %d with no open fight", p.Encounter.ID)
}

func (t *Tracker) died(ev *core.Event) *core.Diagnostic {
	f := t.current
	if f == nil {
		return nil
	}
	g := ev.Dest.GUID
	if _, ok := f.roster[g]; !ok {
		return t.inconsistent(ev, "UNIT_DIED for %s outside the roster of fight %d", g, f.ID)
	}
	f.recordDeath(g, ev.Time)
	f.lastActivity = ev.Time
	if f.hostilesDead() {
		t.closeCurrent(ev.Time, CloseHostilesDead)
	}
	return nil
}

// maybeOpen opens an implicit fight when the event involves an NPC and the
// log has been quiet long enough.
func (t *Tracker) maybeOpen(ev *core.Event) {
	if !t.cfg.ImplicitOpen || t.current != nil {
		return
	}
	if ev.Source.GUID.Kind() != core.KindNPC && ev.Dest.GUID.Kind() != core.KindNPC {
		return
	}
	if last := t.lastFight(); last != nil && ev.Time.Sub(last.End) < t.cfg.IdleGap {
		return
	}
	t.open(ev.Time, TriggerImplicit)
}

// expireIdle closes an implicit fight that has seen no activity for IdleTimeout.
func (t *Tracker) expireIdle(now time.Time) {
	f := t.current
	if f == nil || f.Trigger != TriggerImplicit || t.cfg.IdleTimeout <= 0 {
		return
	}
	if now.Sub(f.lastActivity) >= t.cfg.IdleTimeout {
		t.closeCurrent(f.lastActivity, CloseIdle)
	}
}

// attribute adds the event's participants to the roster. Acting as a source
// brings a dead unit back.
func (t *Tracker) attribute(f *Fight, ev *core.Event) {
	for _, u := range []core.Unit{ev.Source, ev.Dest} {
		if u.GUID.IsNil() {
			continue
		}
		f.addParticipant(u.GUID, t.sideOf(u.GUID))
	}
	if !ev.Source.GUID.IsNil() {
		f.revive(ev.Source.GUID)
	}
	if ev.Time.After(f.lastActivity) {
		f.lastActivity = ev.Time
	}
}

func (t *Tracker) sideOf(g core.GUID) Side {
	if s := SideOf(g.Kind()); s != SideUnknown {
		return s
	}
	if s, ok := t.sides[g]; ok {
		return s
	}
	return SideUnknown
}

func (t *Tracker) open(ts time.Time, trigger Trigger) *Fight {
	if last := t.lastFight(); last != nil && ts.Before(last.End) {
		ts = last.End
	}
	f := newFight(len(t.fights)+1, ts, t.zone, trigger)
	t.fights = append(t.fights, f)
	t.current = f
	t.lastClosed = nil
	t.logger.Debug("fight opened", "fight", f.ID, "trigger", trigger, "start", ts, "zone", t.zone.Name)
	return f
}

func (t *Tracker) closeCurrent(ts time.Time, reason CloseReason) {
	f := t.current
	if f == nil {
		return
	}
	f.close(ts, reason)
	t.current = nil
	t.lastClosed = f
	t.logger.Debug("fight closed", "fight", f.ID, "reason", reason, "duration", f.Duration())
}

func (t *Tracker) lastFight() *Fight {
	if len(t.fights) == 0 {
		return nil
	}
	return t.fights[len(t.fights)-1]
}

func (t *Tracker) inconsistent(ev *core.Event, format string, args ...any) *core.Diagnostic {
	return &core.Diagnostic{
		Line:    ev.Line,
		Stream:  ev.Stream,
		Kind:    core.DiagInconsistentFightState,
		Message: fmt.Sprintf(format, args...),
	}
}

func sortGUIDs(gs []core.GUID) {
	slices.Sort(gs)
}
