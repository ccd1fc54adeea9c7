// Package results defines the batch result model produced by the Walacakra
// processing API and the local cache that holds the batch under review.
package results

// BatchResult is the output of one processing run, in upload order.
type BatchResult struct {
	Files    []FileResult  `json:"files"`
	Metadata BatchMetadata `json:"metadata"`
}

// BatchMetadata carries batch-level processing information.
type BatchMetadata struct {
	TotalFiles  int    `json:"totalFiles,omitempty"`
	Duration    string `json:"duration,omitempty"`
	ProcessedAt string `json:"processedAt,omitempty"`
}

// Empty reports whether the batch has nothing to review.
func (b BatchResult) Empty() bool {
	return len(b.Files) == 0
}

// FileResult is one uploaded file. A nil Response means remote processing failed;
// Error then carries the failure message when one was recorded.
type FileResult struct {
	Filename string    `json:"filename"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Reviewable reports whether the file carries data with at least one page.
func (f FileResult) Reviewable() bool {
	return f.Response != nil && f.Response.Data != nil && len(f.Response.Data.Pages) > 0
}

// Hash returns the durable document identifier, or "" when absent.
func (f FileResult) Hash() string {
	if f.Response == nil || f.Response.Metadata.Document == nil {
		return ""
	}
	return f.Response.Metadata.Document.Hash
}

// Document returns the document metadata, or nil when absent.
func (f FileResult) Document() *DocumentMeta {
	if f.Response == nil {
		return nil
	}
	return f.Response.Metadata.Document
}

// Response is the processing API payload for one document.
type Response struct {
	Status   string       `json:"status,omitempty"`
	Data     *ResultData  `json:"data,omitempty"`
	Metadata ResponseMeta `json:"metadata"`
}

// ResponseMeta wraps the document metadata block.
type ResponseMeta struct {
	Document *DocumentMeta `json:"document,omitempty"`
}

// DocumentMeta describes the stored document. Hash identifies it for follow-up calls.
type DocumentMeta struct {
	Hash        string `json:"hash"`
	URL         string `json:"url,omitempty"`
	Photo       string `json:"photo,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	ProcessedAt string `json:"processedAt,omitempty"`
}

// ResultData is the extraction result and its current assessment.
type ResultData struct {
	Assessment Assessment   `json:"assessment"`
	Pages      []PageRecord `json:"pages"`
}
