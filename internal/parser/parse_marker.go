package parser

import "github.com/OCAP2/combatlog/pkg/core"

// UNIT_DIED: prefix. The dead unit is the destination.
func decodeUnitDied(d *decoder, ev *core.Event) {
	decodeUnits(d, ev)
	ev.Payload = core.Died{}
}

// ZONE_CHANGE: instanceId, zoneName, difficultyId
func decodeZoneChange(d *decoder, ev *core.Event) {
	ev.Payload = core.ZoneChange{
		Zone: core.Zone{
			InstanceID: d.uint32(0, "instanceId"),
			Name:       d.str(1, "zoneName"),
		},
		Difficulty: d.optUint32(2, "difficultyId"),
	}
}

// ENCOUNTER_START: encounterId, encounterName, difficultyId, groupSize, instanceId
func decodeEncounterStart(d *decoder, ev *core.Event) {
	ev.Payload = core.EncounterStart{
		Encounter: core.Encounter{
			ID:         d.uint32(0, "encounterId"),
			Name:       d.str(1, "encounterName"),
			Difficulty: d.optUint32(2, "difficultyId"),
		},
		GroupSize: d.optUint32(3, "groupSize"),
		Instance:  d.optUint32(4, "instanceId"),
	}
}

// ENCOUNTER_END: encounterId, encounterName, difficultyId, groupSize, success
func decodeEncounterEnd(d *decoder, ev *core.Event) {
	ev.Payload = core.EncounterEnd{
		Encounter: core.Encounter{
			ID:         d.uint32(0, "encounterId"),
			Name:       d.str(1, "encounterName"),
			Difficulty: d.optUint32(2, "difficultyId"),
		},
		GroupSize: d.optUint32(3, "groupSize"),
		Success:   d.bool(4, "success"),
	}
}
