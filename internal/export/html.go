package export

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

//go:embed review.html.tmpl
var reviewTemplateText string

var reviewTemplate = template.Must(template.New("review").Parse(reviewTemplateText))

// reviewRecord is a record as embedded in the review document. Its JSON keys
// are the delimited column names plus the review flags.
type reviewRecord struct {
	harvest.Record
	DefaultChecked bool `json:"default_checked"`
}

type reviewData struct {
	Columns   []string       `json:"columns"`
	MaxPhotos int            `json:"max_photos"`
	PhotoDir  string         `json:"photo_dir"`
	Separator string         `json:"separator"`
	Filename  string         `json:"csv_filename"`
	Records   []reviewRecord `json:"records"`
}

type reviewPage struct {
	Title       string
	GeneratedAt string
	Total       int
	Checked     int
	Data        reviewData
}

// HTMLOptions describes the review document around the table.
type HTMLOptions struct {
	Title       string
	GeneratedAt time.Time
	// PhotoDir is the photo directory relative to the document.
	PhotoDir string
	// CSVFilename is the suggested name of the file rebuilt in the browser.
	CSVFilename string
}

// WriteHTML renders the review document for t.
func WriteHTML(w io.Writer, t Table, opts HTMLOptions) error {
	page := reviewPage{
		Title:       opts.Title,
		GeneratedAt: opts.GeneratedAt.Format(time.RFC3339),
		Total:       len(t.Records),
		Data: reviewData{
			Columns:   FixedColumns,
			MaxPhotos: t.MaxPhotos,
			PhotoDir:  opts.PhotoDir,
			Separator: PhotoFilenameSeparator,
			Filename:  opts.CSVFilename,
			Records:   make([]reviewRecord, 0, len(t.Records)),
		},
	}
	if page.Title == "" {
		page.Title = "iNaturalist observations"
	}
	for _, r := range t.Records {
		if r.Photos == nil {
			r.Photos = []string{}
		}
		if r.Licenses == nil {
			r.Licenses = []string{}
		}
		checked := DefaultChecked(r)
		if checked {
			page.Checked++
		}
		page.Data.Records = append(page.Data.Records, reviewRecord{Record: r, DefaultChecked: checked})
	}

	if err := reviewTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render review document: %w", err)
	}
	return nil
}
