package remote

import (
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/pkg/pagination"
)

// Binary is a downloaded resource.
type Binary struct {
	Data        []byte
	ContentType string
}

// HistoryItem is one processed document in the remote history listing.
type HistoryItem struct {
	Hash        string             `json:"hash"`
	Filename    string             `json:"filename"`
	Pages       int                `json:"pages"`
	Assessment  results.Assessment `json:"assessment"`
	ProcessedAt string             `json:"processedAt,omitempty"`
}

// HistoryPage is one page of the remote history listing.
type HistoryPage struct {
	Items      []HistoryItem   `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

type historyEnvelope struct {
	Data struct {
		Items []HistoryItem `json:"items"`
	} `json:"data"`
	Metadata struct {
		Pagination pagination.Meta `json:"pagination"`
	} `json:"metadata"`
}

// Correction carries a reviewer-supplied replacement value.
type Correction struct {
	Correction string `json:"correction"`
}

// Update lists the changed fields of one page. Unchanged fields are omitted.
type Update struct {
	PageNumber int         `json:"pageNumber"`
	DocType    *Correction `json:"docType,omitempty"`
	NIK        *Correction `json:"nik,omitempty"`
	Name       *Correction `json:"name,omitempty"`
}

// Empty reports whether the update carries no changed field.
func (u Update) Empty() bool {
	return u.DocType == nil && u.NIK == nil && u.Name == nil
}

// PatchRequest is the decision body. Assessment is sent in uppercase.
type PatchRequest struct {
	Assessment string   `json:"assessment"`
	Updates    []Update `json:"updates"`
}

// NewPatchRequest builds a decision body. Updates are always encoded as a list.
func NewPatchRequest(a results.Assessment, updates []Update) PatchRequest {
	if updates == nil {
		updates = []Update{}
	}
	return PatchRequest{
		Assessment: a.Label(),
		Updates:    updates,
	}
}

// ServerResult is the authoritative state returned by a decision.
type ServerResult struct {
	Status   string               `json:"status,omitempty"`
	Data     *results.ResultData  `json:"data"`
	Metadata results.ResponseMeta `json:"metadata"`
}

// UploadFile is one file submitted for processing.
type UploadFile struct {
	Filename    string
	Data        []byte
	ContentType string
}
