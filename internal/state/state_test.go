package state

import (
	"testing"

	"github.com/OCAP2/combatlog/internal/fight"
	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	mage    = core.GUID(0x0000000000000001)
	priest  = core.GUID(0x0000000000000002)
	lucifer = core.GUID(0xF130002F46000010)
)

func newTestState(t *testing.T, maxDiagnostics int) *ParseState {
	t.Helper()
	return New(nil, fight.DefaultConfig(), maxDiagnostics, nil)
}

func TestCastTable_RecordCast(t *testing.T) {
	c := NewCastTable()

	c.RecordCast(mage, 10181, "Frostbolt")
	c.RecordCast(mage, 10181, "Eisblitz")
	c.RecordCast(mage, 10181, "")
	c.RecordCast(mage, 133, "Fireball")
	c.RecordCast(core.NilGUID, 133, "Fireball")

	sc, ok := c.Get(mage, 10181)
	require.True(t, ok)
	assert.Equal(t, 3, sc.Count)
	assert.Equal(t, "Eisblitz", sc.Name, "latest non-empty spelling wins")

	spells := c.Spells(mage)
	require.Len(t, spells, 2)
	assert.Equal(t, uint32(133), spells[0].SpellID)
	assert.Equal(t, uint32(10181), spells[1].SpellID)

	assert.Equal(t, []core.GUID{mage}, c.Casters())
}

func TestCastTable_Casters(t *testing.T) {
	c := NewCastTable()
	c.RecordCast(lucifer, 1, "Impending Doom")
	c.RecordCast(priest, 2, "Heal")
	c.RecordCast(mage, 3, "Blink")

	assert.Equal(t, []core.GUID{mage, priest, lucifer}, c.Casters())
	assert.Empty(t, c.Spells(core.GUID(42)))
}

func TestParseState_Diagnostics(t *testing.T) {
	s := newTestState(t, 2)

	s.AddDiagnostic(core.Diagnostic{Line: 1, Kind: core.DiagMalformedLine})
	s.AddDiagnostic(core.Diagnostic{Line: 2, Kind: core.DiagInvalidGUID})
	s.AddDiagnostic(core.Diagnostic{Line: 3, Kind: core.DiagMalformedLine})
	s.CountUnknownKind("SPELL_ABSORBED")
	s.CountUnknownKind("SPELL_ABSORBED")

	assert.Equal(t, 3, s.DiagnosticCount())
	assert.Equal(t, map[core.DiagnosticKind]int{
		core.DiagMalformedLine: 2,
		core.DiagInvalidGUID:   1,
	}, s.DiagnosticsByKind())

	kept := s.Diagnostics()
	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].Line)
	assert.Equal(t, 2, kept[1].Line)

	assert.Equal(t, 2, s.Stats.UnknownEventKinds["SPELL_ABSORBED"])
}

func TestParseState_Unbounded(t *testing.T) {
	s := newTestState(t, -1)
	for i := 0; i < 500; i++ {
		s.AddDiagnostic(core.Diagnostic{Line: i, Kind: core.DiagMalformedLine})
	}
	assert.Len(t, s.Diagnostics(), 500)
}

func TestParseState_CountLine(t *testing.T) {
	s := newTestState(t, 10)
	s.CountLine(core.StreamPrimary)
	s.CountLine(core.StreamPrimary)
	s.CountLine(core.StreamRaw)

	assert.Equal(t, 2, s.Stats.PrimaryLines)
	assert.Equal(t, 1, s.Stats.RawLines)
	assert.Equal(t, 3, s.Stats.TotalLines())
}
