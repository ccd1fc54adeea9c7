package review

import (
	"context"
	"slices"

	"github.com/JaimeStill/walacakra/internal/preview"
	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/settings"
)

// Notices shown in place of a file summary.
const (
	NoticeNoFile      = "No processed file found. Please process a document first."
	NoticeMissingData = "Data for this file is corrupted or missing."
)

// PhotoFetcher resolves a remote image to a local URL, or "" on failure.
type PhotoFetcher interface {
	FetchBinary(ctx context.Context, s settings.Settings, path string) string
}

// PreviewLoader loads a document for display.
type PreviewLoader interface {
	Load(ctx context.Context, s settings.Settings, url string) preview.Preview
}

// Badge is the assessment indicator. State is the lowercase CSS key.
type Badge struct {
	Label string `json:"label"`
	State string `json:"state"`
}

// RowViewModel is one collapsible page row.
type RowViewModel struct {
	Index          int         `json:"index"`
	PageNumber     int         `json:"pageNumber"`
	DisplayNumber  int         `json:"displayNumber"`
	DocType        string      `json:"docType"`
	DocTypeOptions []string    `json:"docTypeOptions,omitempty"`
	NIK            string      `json:"nik"`
	NIKReading     string      `json:"nikReading"`
	Name           string      `json:"name"`
	Status         MatchStatus `json:"status"`
	StatusText     string      `json:"statusText"`
	Editable       bool        `json:"editable"`
	Expanded       bool        `json:"expanded"`
	Edited         bool        `json:"edited"`
}

// FileSummary is everything rendered for the selected file.
type FileSummary struct {
	Index         int                `json:"index"`
	Filename      string             `json:"filename"`
	Hash          string             `json:"hash,omitempty"`
	Notice        string             `json:"notice,omitempty"`
	Badge         Badge              `json:"badge"`
	Assessment    results.Assessment `json:"assessment,omitempty"`
	ShowDecisions bool               `json:"showDecisions"`
	Photo         string             `json:"photo,omitempty"`
	Preview       preview.Preview    `json:"preview"`
	PrimaryName   string             `json:"primaryName"`
	PrimaryNIK    string             `json:"primaryNik"`
	Rows          []RowViewModel     `json:"rows"`
	Summary       Summary            `json:"-"`
	SummaryText   string             `json:"summary,omitempty"`
}

// Ready reports whether the summary carries reviewable data.
func (f FileSummary) Ready() bool {
	return f.Notice == ""
}

// PresenterConfig holds display options.
type PresenterConfig struct {
	Placeholder string
	DocTypes    []string
}

// Presenter turns FileResults into view models.
type Presenter struct {
	photos      PhotoFetcher
	previews    PreviewLoader
	placeholder string
	docTypes    []string
}

// NewPresenter creates a Presenter.
func NewPresenter(photos PhotoFetcher, previews PreviewLoader, cfg PresenterConfig) *Presenter {
	return &Presenter{
		photos:      photos,
		previews:    previews,
		placeholder: cfg.Placeholder,
		docTypes:    cfg.DocTypes,
	}
}

// RenderFileSummary builds the summary for file. A file without a response
// yields only a notice; no field of the missing data is read.
func (p *Presenter) RenderFileSummary(ctx context.Context, s settings.Settings, file results.FileResult) FileSummary {
	summary := FileSummary{Filename: file.Filename}

	if !file.Reviewable() {
		summary.Notice = NoticeMissingData
		return summary
	}

	data := file.Response.Data
	doc := file.Document()
	editable := !data.Assessment.Terminal()

	summary.Hash = file.Hash()
	summary.Assessment = data.Assessment
	summary.Badge = Badge{Label: data.Assessment.Label(), State: string(data.Assessment)}
	summary.ShowDecisions = editable

	summary.Photo = p.placeholder
	if doc != nil && doc.Photo != "" {
		if local := p.photos.FetchBinary(ctx, s, doc.Photo); local != "" {
			summary.Photo = local
		}
	}

	if doc != nil && doc.URL != "" {
		summary.Preview = p.previews.Load(ctx, s, doc.URL)
	}

	primary := data.Pages[0]
	summary.PrimaryName = orDash(primary.Name.Effective())
	summary.PrimaryNIK = orDash(primary.NIK.Effective())

	summary.Rows = make([]RowViewModel, len(data.Pages))
	for i, page := range data.Pages {
		row := BuildRow(page, Status(page, primary), editable)
		row.Index = i
		row.DocTypeOptions = docTypeOptions(p.docTypes, row.DocType)
		summary.Rows[i] = row
	}

	summary.Summary = MatchSummary(data.Pages)
	summary.SummaryText = summary.Summary.String()
	return summary
}

// BuildRow builds the view model of one page.
func BuildRow(page results.PageRecord, status MatchStatus, editable bool) RowViewModel {
	return RowViewModel{
		PageNumber:    page.PageNumber,
		DisplayNumber: page.PageNumber + 1,
		DocType:       page.DocType.Effective(),
		NIK:           page.NIK.Effective(),
		NIKReading:    orDash(page.NIK.Raw()),
		Name:          page.Name.Effective(),
		Status:        status,
		StatusText:    status.Text(),
		Editable:      editable,
	}
}

func docTypeOptions(options []string, current string) []string {
	if current == "" || slices.Contains(options, current) {
		return options
	}
	return append(slices.Clone(options), current)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
