package parser

import "github.com/OCAP2/combatlog/pkg/core"

// UNIT_INFO: guid, isPlayer, name, canCooperate, ownerGuid
func decodeUnitInfo(d *decoder, ev *core.Event) {
	info := core.UnitInfo{
		GUID:         d.guid(0, "guid"),
		IsPlayer:     d.bool(1, "isPlayer"),
		Name:         d.str(2, "name"),
		CanCooperate: d.bool(3, "canCooperate"),
	}
	if len(d.fields) > 4 {
		info.Owner = d.guid(4, "ownerGuid")
	}
	ev.Source = core.Unit{GUID: info.GUID, Name: info.Name}
	ev.Payload = info
}

// ZONE_INFO: zoneName, instanceId
func decodeZoneInfo(d *decoder, ev *core.Event) {
	ev.Payload = core.ZoneInfo{
		Zone: core.Zone{
			Name:       d.str(0, "zoneName"),
			InstanceID: d.optUint32(1, "instanceId"),
		},
	}
}

// COMBATANT_INFO: guid, name, class, race, [talents...]
func decodeCombatantInfo(d *decoder, ev *core.Event) {
	info := core.CombatantInfo{
		GUID:    d.guid(0, "guid"),
		Name:    d.str(1, "name"),
		Class:   d.str(2, "class"),
		Race:    d.optStr(3),
		Talents: d.list(4),
	}
	ev.Source = core.Unit{GUID: info.GUID, Name: info.Name}
	ev.Payload = info
}
