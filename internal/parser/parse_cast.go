package parser

import "github.com/OCAP2/combatlog/pkg/core"

// SPELL_CAST_START, SPELL_CAST_SUCCESS: prefix, spellId, spellName, spellSchool
// SPELL_CAST_FAILED adds failedReason.
func decodeCast(action core.CastAction) func(d *decoder, ev *core.Event) {
	return func(d *decoder, ev *core.Event) {
		decodeUnits(d, ev)
		c := core.Cast{
			Action: action,
			Spell:  d.spell(payloadOffset),
		}
		if action == core.CastFailed {
			c.Reason = d.optStr(payloadOffset + 3)
		}
		ev.Payload = c
	}
}

// SPELL_AURA_APPLIED, SPELL_AURA_REMOVED: prefix, spellId, spellName, spellSchool, auraType
func decodeAura(applied bool) func(d *decoder, ev *core.Event) {
	return func(d *decoder, ev *core.Event) {
		decodeUnits(d, ev)
		ev.Payload = core.Aura{
			Applied:  applied,
			Spell:    d.spell(payloadOffset),
			AuraType: d.optStr(payloadOffset + 3),
		}
	}
}
