package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionFromSourceField(t *testing.T) {
	cases := map[string]Section{
		"efcyQesitm":          SectionEfficacy,
		"useMethodQesitm":     SectionDosage,
		"atpnWarnQesitm":      SectionWarnings,
		"atpnQesitm":          SectionPrecautions,
		"intrcQesitm":         SectionInteractions,
		"seQesitm":            SectionSideEffects,
		"depositMethodQesitm": SectionStorage,
	}
	for field, want := range cases {
		got, ok := SectionFromSourceField(field)
		require.True(t, ok, field)
		assert.Equal(t, want, got)
	}
}

func TestSectionFromSourceField_UnknownDropped(t *testing.T) {
	for _, field := range []string{"itemName", "openDe", "", "efficacy"} {
		_, ok := SectionFromSourceField(field)
		assert.False(t, ok, field)
	}
}

func TestParseSection(t *testing.T) {
	s, ok := ParseSection("interactions")
	require.True(t, ok)
	assert.Equal(t, SectionInteractions, s)

	_, ok = ParseSection("Interactions")
	assert.False(t, ok)
	_, ok = ParseSection("unknown")
	assert.False(t, ok)
}

func TestSections_ClosedSet(t *testing.T) {
	all := Sections()
	assert.Len(t, all, 7)
	assert.Equal(t, SectionEfficacy, all[0])
	assert.Equal(t, SectionStorage, all[6])
}
