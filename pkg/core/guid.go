// pkg/core/guid.go
package core

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// GUID is the packed 64-bit identifier the client assigns to every logged unit.
type GUID uint64

// NilGUID marks an absent source or destination.
const NilGUID GUID = 0

// Type bits live in the high 16 bits of a GUID.
const (
	guidTypeMask    uint16 = 0x00F0
	guidTypePlayer  uint16 = 0x0000
	guidTypeObject  uint16 = 0x0010
	guidTypeNPC     uint16 = 0x0030
	guidTypePet     uint16 = 0x0040
	guidTypeVehicle uint16 = 0x0050

	guidEntryShift        = 24
	guidEntryMask  uint64 = 0xFFFFFF
)

// EntityKind is the classification derived from a GUID's type bits.
type EntityKind uint8

const (
	KindUnknown EntityKind = iota
	KindPlayer
	KindPet
	KindNPC
	KindObject
	KindVehicle
)

var entityKindNames = map[EntityKind]string{
	KindUnknown: "unknown",
	KindPlayer:  "player",
	KindPet:     "pet",
	KindNPC:     "npc",
	KindObject:  "object",
	KindVehicle: "vehicle",
}

func (k EntityKind) String() string {
	if s, ok := entityKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the kind by name.
func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseGUID decodes "0x" followed by 1 to 16 hex digits. Case is ignored.
func ParseGUID(s string) (GUID, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return NilGUID, fmt.Errorf("invalid guid %q: missing 0x prefix", s)
	}
	digits := s[2:]
	if len(digits) > 16 {
		return NilGUID, fmt.Errorf("invalid guid %q: more than 16 hex digits", s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return NilGUID, fmt.Errorf("invalid guid %q: %w", s, err)
	}
	return GUID(v), nil
}

// NormalizeGUID returns the canonical "0x%016X" spelling of s.
func NormalizeGUID(s string) (string, error) {
	g, err := ParseGUID(s)
	if err != nil {
		return "", err
	}
	return g.String(), nil
}

func (g GUID) String() string {
	return fmt.Sprintf("0x%016X", uint64(g))
}

// MarshalText renders the canonical hex form, so GUIDs work as JSON values and map keys.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText accepts any spelling ParseGUID accepts.
func (g *GUID) UnmarshalText(data []byte) error {
	id, err := ParseGUID(string(data))
	if err != nil {
		return err
	}
	*g = id
	return nil
}

func (g GUID) IsNil() bool {
	return g == NilGUID
}

// High returns the high 16 bits, which carry the type class.
func (g GUID) High() uint16 {
	return uint16(bits.RotateLeft64(uint64(g), -48))
}

// Kind classifies the GUID from its type bits alone.
func (g GUID) Kind() EntityKind {
	if g.IsNil() {
		return KindUnknown
	}
	switch g.High() & guidTypeMask {
	case guidTypePlayer:
		return KindPlayer
	case guidTypeObject:
		return KindObject
	case guidTypeNPC:
		return KindNPC
	case guidTypePet:
		return KindPet
	case guidTypeVehicle:
		return KindVehicle
	default:
		return KindUnknown
	}
}

// HasEntry reports whether the GUID carries a creature template entry.
func (g GUID) HasEntry() bool {
	switch g.Kind() {
	case KindNPC, KindPet, KindVehicle:
		return true
	}
	return false
}

// Entry returns the 24-bit template entry stored at bits 24..47.
func (g GUID) Entry() (uint32, bool) {
	if !g.HasEntry() {
		return 0, false
	}
	return uint32((uint64(g) >> guidEntryShift) & guidEntryMask), true
}
