package escalation

// Placeholder values written for unresolved subject fields. Downstream
// consumers rely on key presence, so missing data is spelled out rather
// than omitted.
const (
	// PlaceholderResidentName stands in for an unresolved resident name.
	PlaceholderResidentName = "Unknown Resident"
	// PlaceholderPhone stands in for a missing contact number.
	PlaceholderPhone = "No Phone"
	// PlaceholderUnknown stands in for any other unresolved field.
	PlaceholderUnknown = "Unknown"
)

// SubjectContext carries the resident/unit identity an event concerns.
// Free-form: any field may be empty until Normalize fills placeholders.
type SubjectContext struct {
	// ResidentID is the directory id of the resident, if resolved.
	ResidentID string
	// ResidentName is the display name of the resident.
	ResidentName string
	// FlatNumber is the unit/flat identifier.
	FlatNumber string
	// BuildingNumber is the building identifier, if known.
	BuildingNumber string
	// Block is the block identifier, if known.
	Block string
	// Phone is the resident's contact number.
	Phone string
}

// Normalize returns a copy with every empty field replaced by its literal
// placeholder so persisted records always carry the full key set.
func (s SubjectContext) Normalize() SubjectContext {
	if s.ResidentName == "" {
		s.ResidentName = PlaceholderResidentName
	}

	if s.Phone == "" {
		s.Phone = PlaceholderPhone
	}

	if s.FlatNumber == "" {
		s.FlatNumber = PlaceholderUnknown
	}

	if s.BuildingNumber == "" {
		s.BuildingNumber = PlaceholderUnknown
	}

	if s.Block == "" {
		s.Block = PlaceholderUnknown
	}

	return s
}

// IsResolved reports whether the subject was matched to a directory entry.
func (s SubjectContext) IsResolved() bool {
	return s.ResidentID != ""
}
