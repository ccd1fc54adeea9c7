// Package pagination provides page bookkeeping for paged remote listings.
package pagination

import (
	"net/url"
	"strconv"
)

// Meta describes one page of a paged listing.
type Meta struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

// NewMeta builds Meta for page out of totalPages, deriving the prev/next flags.
// totalPages is raised to at least 1 and page is clamped into range.
func NewMeta(page, totalPages int) Meta {
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)

	return Meta{
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// Contains reports whether page lies within 1..TotalPages.
// A zero Meta only admits page 1.
func (m Meta) Contains(page int) bool {
	if page < 1 {
		return false
	}
	return page <= max(m.TotalPages, 1)
}

// Prev returns the previous page number, or the current page at the start.
func (m Meta) Prev() int {
	if m.HasPrev {
		return m.Page - 1
	}
	return m.Page
}

// Next returns the next page number, or the current page at the end.
func (m Meta) Next() int {
	if m.HasNext {
		return m.Page + 1
	}
	return m.Page
}

// PageFromQuery reads the "page" parameter, defaulting to 1 when absent or invalid.
func PageFromQuery(values url.Values) int {
	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
