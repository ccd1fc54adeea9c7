package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/walacakra/internal/remote"
	"github.com/JaimeStill/walacakra/internal/results"
)

// Action is a reviewer decision.
type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionRecalculate Action = "recalculate"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionApprove, ActionReject, ActionRecalculate:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Assessment returns the state the action requests.
func (a Action) Assessment() results.Assessment {
	switch a {
	case ActionApprove:
		return results.AssessmentApproved
	case ActionReject:
		return results.AssessmentRejected
	default:
		return results.AssessmentPending
	}
}

// Prompt is the confirmation question shown before the action runs.
func (a Action) Prompt() string {
	if a == ActionRecalculate {
		return "Are you sure you want to recalculate this document with your corrections?"
	}
	return fmt.Sprintf("Are you sure you want to %s this document?", a)
}

// Confirmer asks the reviewer to confirm an action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer with a fixed answer, for callers that confirmed
// before submitting.
type Confirmed bool

func (c Confirmed) Confirm(context.Context, string) bool {
	return bool(c)
}

// Outcome reports a successful decision.
type Outcome struct {
	Filename   string             `json:"filename"`
	Hash       string             `json:"hash"`
	Assessment results.Assessment `json:"assessment"`
	Updates    int                `json:"updates"`
}

// Message is the notice shown after the decision.
func (o Outcome) Message() string {
	switch o.Assessment {
	case results.AssessmentApproved:
		return "Document approved"
	case results.AssessmentRejected:
		return "Document rejected"
	default:
		return fmt.Sprintf("Document recalculated with %d page update(s)", o.Updates)
	}
}

// BuildUpdates diffs drafts against the pages' effective values. Only pages
// with at least one changed field are listed, carrying only those fields.
func BuildUpdates(pages []results.PageRecord, drafts map[int]*Draft) []remote.Update {
	updates := []remote.Update{}
	for i, page := range pages {
		d, ok := drafts[i]
		if !ok || d == nil {
			continue
		}

		u := remote.Update{
			PageNumber: page.PageNumber,
			DocType:    changed(d.DocType, page.DocType),
			NIK:        changed(d.NIK, page.NIK),
			Name:       changed(d.Name, page.Name),
		}
		if !u.Empty() {
			updates = append(updates, u)
		}
	}
	return updates
}

func changed(draft *string, field *results.Field) *remote.Correction {
	if draft == nil || *draft == field.Effective() {
		return nil
	}
	return &remote.Correction{Correction: *draft}
}

// applyResult merges the server's authoritative data into file. Pages are
// kept when the server returns none.
func applyResult(file *results.FileResult, result *remote.ServerResult, assessment results.Assessment) {
	data := *result.Data
	if len(data.Pages) == 0 {
		data.Pages = file.Response.Data.Pages
	}
	data.Assessment = assessment
	file.Response.Data = &data

	if result.Status != "" {
		file.Response.Status = result.Status
	}
}
