package parser

import "github.com/OCAP2/combatlog/pkg/core"

// SWING_DAMAGE: prefix, amount, school
func decodeSwingDamage(d *decoder, ev *core.Event) {
	decodeUnits(d, ev)
	ev.Payload = core.Damage{
		Amount: d.int64(payloadOffset, "amount"),
		School: d.school(payloadOffset+1, "school"),
	}
}

// RANGE_DAMAGE, SPELL_DAMAGE, SPELL_PERIODIC_DAMAGE:
// prefix, spellId, spellName, spellSchool, amount, absorbed, critical
func decodeSpellDamage(d *decoder, ev *core.Event) {
	decodeUnits(d, ev)
	spell := d.spell(payloadOffset)
	ev.Payload = core.Damage{
		Spell:    &spell,
		Amount:   d.int64(payloadOffset+3, "amount"),
		Absorbed: d.optInt64(payloadOffset+4, "absorbed"),
		School:   spell.School,
		Critical: d.bool(payloadOffset+5, "critical"),
	}
}

// ENVIRONMENTAL_DAMAGE: prefix, environmentalType, amount, school
func decodeEnvironmentalDamage(d *decoder, ev *core.Event) {
	decodeUnits(d, ev)
	ev.Payload = core.Damage{
		Environmental: d.str(payloadOffset, "environmentalType"),
		Amount:        d.int64(payloadOffset+1, "amount"),
		School:        d.school(payloadOffset+2, "school"),
	}
}

// SPELL_HEAL, SPELL_PERIODIC_HEAL:
// prefix, spellId, spellName, spellSchool, amount, overheal, critical
func decodeHeal(d *decoder, ev *core.Event) {
	decodeUnits(d, ev)
	ev.Payload = core.Heal{
		Spell:    d.spell(payloadOffset),
		Amount:   d.int64(payloadOffset+3, "amount"),
		Overheal: d.optInt64(payloadOffset+4, "overheal"),
		Critical: d.bool(payloadOffset+5, "critical"),
	}
}
