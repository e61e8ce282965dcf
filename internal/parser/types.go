package parser

import "github.com/OCAP2/combatlog/pkg/core"

// Offsets into the field list that follows the event kind.
const (
	srcOffset     = 0
	dstOffset     = 3
	payloadOffset = 6
)

// schema decodes the fields of one known event kind into ev.
type schema struct {
	decode func(d *decoder, ev *core.Event)
}

// schemas is the closed table of kinds the parser understands. Everything else
// decodes to core.Generic.
var schemas = map[core.EventKind]schema{
	core.EventSwingDamage:         {decode: decodeSwingDamage},
	core.EventRangeDamage:         {decode: decodeSpellDamage},
	core.EventSpellDamage:         {decode: decodeSpellDamage},
	core.EventSpellPeriodicDamage: {decode: decodeSpellDamage},
	core.EventEnvironmentalDamage: {decode: decodeEnvironmentalDamage},
	core.EventSpellHeal:           {decode: decodeHeal},
	core.EventSpellPeriodicHeal:   {decode: decodeHeal},
	core.EventCastStart:           {decode: decodeCast(core.CastStart)},
	core.EventCastSuccess:         {decode: decodeCast(core.CastSuccess)},
	core.EventCastFailed:          {decode: decodeCast(core.CastFailed)},
	core.EventAuraApplied:         {decode: decodeAura(true)},
	core.EventAuraRemoved:         {decode: decodeAura(false)},
	core.EventUnitDied:            {decode: decodeUnitDied},
	core.EventZoneChange:          {decode: decodeZoneChange},
	core.EventEncounterStart:      {decode: decodeEncounterStart},
	core.EventEncounterEnd:        {decode: decodeEncounterEnd},
	core.EventUnitInfo:            {decode: decodeUnitInfo},
	core.EventZoneInfo:            {decode: decodeZoneInfo},
	core.EventCombatantInfo:       {decode: decodeCombatantInfo},
}

func decodeUnits(d *decoder, ev *core.Event) {
	ev.Source = d.unit(srcOffset, "src")
	ev.Dest = d.unit(dstOffset, "dst")
}
