package review

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/pkg/pagination"
)

// Tab is the active panel of the review page.
type Tab string

const (
	TabAnalysis Tab = "analysis"
	TabHistory  Tab = "history"
)

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabAnalysis, TabHistory:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTab, s)
	}
}

// Field names an editable page field.
type Field string

const (
	FieldDocType Field = "docType"
	FieldNIK     Field = "nik"
	FieldName    Field = "name"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.TrimSpace(s)); f {
	case FieldDocType, FieldNIK, FieldName:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
}

// Draft holds unsubmitted edits of one page. Nil means untouched.
type Draft struct {
	DocType *string `json:"docType,omitempty"`
	NIK     *string `json:"nik,omitempty"`
	Name    *string `json:"name,omitempty"`
}

func (d *Draft) set(field Field, value string) {
	switch field {
	case FieldDocType:
		d.DocType = &value
	case FieldNIK:
		d.NIK = &value
	case FieldName:
		d.Name = &value
	}
}

// Zoom bounds of the document preview.
const (
	ZoomMin     = 0.5
	ZoomMax     = 3.0
	ZoomStep    = 0.5
	ZoomDefault = 1.0
)

// ZoomAction adjusts the preview zoom.
type ZoomAction string

const (
	ZoomIn    ZoomAction = "in"
	ZoomOut   ZoomAction = "out"
	ZoomReset ZoomAction = "reset"
)

// HistoryView is the state of the history tab.
type HistoryView struct {
	Items      []remote.HistoryItem `json:"items"`
	Pagination pagination.Meta      `json:"pagination"`
	Error      string               `json:"error,omitempty"`
}

// Session is the reviewer's UI state. It is never persisted.
type Session struct {
	Selected int            `json:"selected"`
	Tab      Tab            `json:"tab"`
	Expanded map[int]bool   `json:"expanded"`
	Drafts   map[int]*Draft `json:"drafts"`
	Zoom     float64        `json:"zoom"`
	History  HistoryView    `json:"history"`
	InFlight bool           `json:"inFlight"`
}

func newSession() Session {
	return Session{
		Tab:      TabAnalysis,
		Expanded: make(map[int]bool),
		Drafts:   make(map[int]*Draft),
		Zoom:     ZoomDefault,
	}
}

func (s *Session) resetFile(index int) {
	s.Selected = index
	s.Expanded = make(map[int]bool)
	s.Drafts = make(map[int]*Draft)
	s.Zoom = ZoomDefault
}

func (s Session) clone() Session {
	out := s
	out.Expanded = make(map[int]bool, len(s.Expanded))
	for k, v := range s.Expanded {
		out.Expanded[k] = v
	}
	out.Drafts = make(map[int]*Draft, len(s.Drafts))
	for k, v := range s.Drafts {
		d := *v
		out.Drafts[k] = &d
	}
	out.History.Items = append([]remote.HistoryItem(nil), s.History.Items...)
	return out
}
