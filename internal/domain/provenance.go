package domain

// Provenance identifies which source or process determined a field's final
// value on a CanonicalRecord.
type Provenance string

// Provenance values for merge-time decisions.
const (
	// ProvenanceScopus marks a value taken from the Scopus member record.
	ProvenanceScopus Provenance = "scopus"
	// ProvenanceWos marks a value taken from the Web of Science member record.
	ProvenanceWos Provenance = "wos"
	// ProvenanceMerged marks a value combined from more than one member
	// record (set unions, cross-filled category fields).
	ProvenanceMerged Provenance = "merged"
)

// SourceProvenance returns the merge provenance for a record source.
func SourceProvenance(s Source) Provenance {
	switch s {
	case SourceScopus:
		return ProvenanceScopus
	case SourceWos:
		return ProvenanceWos
	default:
		return Provenance(s)
	}
}

// APIProvenance returns the provenance tag for a value filled from an
// external lookup source, e.g. "api:crossref".
func APIProvenance(sourceName string) Provenance {
	return Provenance("api:" + sourceName)
}

// MLProvenance returns the provenance tag for a value predicted by the
// trained model for the given field, e.g. "ml:subjectCategories". Downstream
// consumers can filter on the "ml:" prefix to drop model-derived values.
func MLProvenance(f Field) Provenance {
	return Provenance("ml:" + string(f))
}

// IsPredicted reports whether the provenance denotes a model-derived value.
func (p Provenance) IsPredicted() bool {
	return len(p) > 3 && p[:3] == "ml:"
}
