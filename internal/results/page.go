package results

// PageRecord is the extraction result for one page. PageNumber is zero-based.
type PageRecord struct {
	PageNumber int    `json:"pageNumber"`
	DocType    *Field `json:"docType,omitempty"`
	NIK        *Field `json:"nik,omitempty"`
	Name       *Field `json:"name,omitempty"`
}

// Field pairs a machine reading with an optional reviewer correction.
type Field struct {
	Reading     string  `json:"reading"`
	Correction  *string `json:"correction,omitempty"`
	IsMatched   *bool   `json:"isMatched,omitempty"`
	IsCorrected *bool   `json:"isCorrected,omitempty"`
}

// Effective returns the correction when present and non-empty, else the reading.
// A nil field has an empty effective value.
func (f *Field) Effective() string {
	if f == nil {
		return ""
	}
	if f.Correction != nil && *f.Correction != "" {
		return *f.Correction
	}
	return f.Reading
}

// Raw returns the machine reading, or "" for a nil field.
func (f *Field) Raw() string {
	if f == nil {
		return ""
	}
	return f.Reading
}
