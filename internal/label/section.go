package label

// Section is one of the seven fixed categories of drug-label content.
type Section string

const (
	SectionEfficacy     Section = "efficacy"
	SectionDosage       Section = "dosage"
	SectionWarnings     Section = "warnings"
	SectionPrecautions  Section = "precautions"
	SectionInteractions Section = "interactions"
	SectionSideEffects  Section = "side_effects"
	SectionStorage      Section = "storage"
)

// sourceFieldSections maps the nedrug open-API field names to canonical sections.
// Fields outside this table carry no label text and are dropped at ingest.
var sourceFieldSections = map[string]Section{
	"efcyQesitm":          SectionEfficacy,
	"useMethodQesitm":     SectionDosage,
	"atpnWarnQesitm":      SectionWarnings,
	"atpnQesitm":          SectionPrecautions,
	"intrcQesitm":         SectionInteractions,
	"seQesitm":            SectionSideEffects,
	"depositMethodQesitm": SectionStorage,
}

// sectionOrder fixes the enumeration order used everywhere sections are listed.
var sectionOrder = []Section{
	SectionEfficacy,
	SectionDosage,
	SectionWarnings,
	SectionPrecautions,
	SectionInteractions,
	SectionSideEffects,
	SectionStorage,
}

// SectionFromSourceField returns the canonical section for an external field
// name, or false if the field is not part of the closed enumeration.
func SectionFromSourceField(field string) (Section, bool) {
	s, ok := sourceFieldSections[field]
	return s, ok
}

// ParseSection validates a user-supplied section value.
func ParseSection(value string) (Section, bool) {
	for _, s := range sectionOrder {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

// Sections returns all sections in enumeration order.
func Sections() []Section {
	out := make([]Section, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

func (s Section) String() string {
	return string(s)
}
