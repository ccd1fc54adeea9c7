package results

import "errors"

// ErrInvalidAssessment indicates a value outside pending, approved, and rejected.
var ErrInvalidAssessment = errors.New("invalid assessment")
