package results

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Assessment is the reviewer decision on a processed file.
type Assessment string

// Assessment states. Pending is the default and the only editable state.
const (
	AssessmentPending  Assessment = "pending"
	AssessmentApproved Assessment = "approved"
	AssessmentRejected Assessment = "rejected"
)

// ParseAssessment normalizes a wire value case-insensitively.
// An empty value is treated as pending.
func ParseAssessment(s string) (Assessment, error) {
	switch a := Assessment(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AssessmentPending, nil
	case AssessmentPending, AssessmentApproved, AssessmentRejected:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAssessment, s)
	}
}

// Terminal reports whether no further decision can be made. Values other
// than pending, including unknown server states, are read-only.
func (a Assessment) Terminal() bool {
	return a != AssessmentPending && a != ""
}

// Label returns the uppercase badge text.
func (a Assessment) Label() string {
	return strings.ToUpper(string(a))
}

// UnmarshalJSON accepts any casing. Unknown values are kept lowercased
// so that a malformed record still renders, read-only, instead of failing
// the whole batch.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssessment(s)
	if err != nil {
		*a = Assessment(strings.ToLower(strings.TrimSpace(s)))
		return nil
	}
	*a = parsed
	return nil
}
