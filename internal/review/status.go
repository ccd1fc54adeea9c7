package review

import (
	"fmt"

	"github.com/JaimeStill/walacakra/internal/results"
)

// MatchStatus compares a page's NIK with the reference page. It is derived
// on every render and never stored.
type MatchStatus string

const (
	StatusMatch   MatchStatus = "match"
	StatusWarning MatchStatus = "warning"
	StatusError   MatchStatus = "error"
)

// Text returns the label shown beside the status icon.
func (m MatchStatus) Text() string {
	switch m {
	case StatusMatch:
		return "match"
	case StatusWarning:
		return "exist, but not match"
	default:
		return "not exist"
	}
}

// Status derives the match status of page against reference (page 0).
// A page without a NIK reading is an error even when a correction exists.
func Status(page, reference results.PageRecord) MatchStatus {
	if page.NIK.Raw() == "" {
		return StatusError
	}
	nik := page.NIK.Effective()
	if nik != "" && nik == reference.NIK.Effective() {
		return StatusMatch
	}
	return StatusWarning
}

// Summary counts the pages whose NIK matches the reference page.
type Summary struct {
	Matches int
	Pages   int
}

// MatchSummary evaluates every page against the first one.
func MatchSummary(pages []results.PageRecord) Summary {
	s := Summary{Pages: len(pages)}
	if len(pages) == 0 {
		return s
	}
	for _, page := range pages {
		if Status(page, pages[0]) == StatusMatch {
			s.Matches++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d pages have NIK matching the main KTP", s.Matches, s.Pages)
}
