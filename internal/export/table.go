// Package export serializes normalized records as a delimited file or as a
// self-contained review document that can rebuild the same file in the
// browser.
package export

import (
	"strconv"
	"strings"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

// Column names derived from the record count or the photo list rather than
// read from a record field.
const (
	ColumnPhotoCount     = "photo_count"
	ColumnPhotoFilenames = "photo_filenames"
)

// PhotoFilenameSeparator joins filenames in the photo_filenames column.
const PhotoFilenameSeparator = "; "

// FixedColumns lead every export, in order.
var FixedColumns = []string{
	"observation_id",
	"observed_on",
	"Encounter.year",
	"Encounter.month",
	"Encounter.day",
	"scientific_name",
	"Encounter.genus",
	"Encounter.specificEpithet",
	"common_name",
	"Encounter.decimalLatitude",
	"Encounter.decimalLongitude",
	"Encounter.verbatimLocality",
	"Encounter.locationID",
	"Encounter.livingStatus",
	"Encounter.submitterID",
	"Encounter.state",
	"Sighting.sightingID",
	"observer",
	"quality_grade",
	"url",
	"Encounter.researcherComments",
	ColumnPhotoCount,
	ColumnPhotoFilenames,
}

// Table is the full record set of a run plus the number of photo slots.
type Table struct {
	Records   []harvest.Record
	MaxPhotos int
}

// NewTable sizes the photo slots to the record with the most photos.
func NewTable(records []harvest.Record) Table {
	t := Table{Records: records}
	for _, r := range records {
		if n := r.PhotoCount(); n > t.MaxPhotos {
			t.MaxPhotos = n
		}
	}
	return t
}

// PhotoColumns returns the filename and license column names of slot i.
func PhotoColumns(i int) (filename, license string) {
	filename = "Encounter.mediaAsset" + strconv.Itoa(i)
	return filename, filename + ".license"
}

// Columns is the header row.
func (t Table) Columns() []string {
	cols := make([]string, 0, len(FixedColumns)+2*t.MaxPhotos)
	cols = append(cols, FixedColumns...)
	for i := 0; i < t.MaxPhotos; i++ {
		filename, license := PhotoColumns(i)
		cols = append(cols, filename, license)
	}
	return cols
}

// Row renders r under Columns, padding unused photo slots with empty values.
func (t Table) Row(r harvest.Record) []string {
	row := []string{
		strconv.FormatInt(r.ObservationID, 10),
		r.ObservedOn,
		r.Year,
		r.Month,
		r.Day,
		r.ScientificName,
		r.Genus,
		r.SpecificEpithet,
		r.CommonName,
		r.Latitude,
		r.Longitude,
		r.VerbatimLocality,
		r.LocationID,
		string(r.LivingStatus),
		r.SubmitterID,
		r.State,
		r.SightingID,
		r.Observer,
		r.QualityGrade,
		r.URL,
		r.Comment,
		strconv.Itoa(r.PhotoCount()),
		strings.Join(r.Photos, PhotoFilenameSeparator),
	}
	for i := 0; i < t.MaxPhotos; i++ {
		var filename, license string
		if i < len(r.Photos) {
			filename = r.Photos[i]
		}
		if i < len(r.Licenses) {
			license = r.Licenses[i]
		}
		row = append(row, filename, license)
	}
	return row
}

// DefaultChecked reports whether the review document preselects r.
func DefaultChecked(r harvest.Record) bool {
	return r.HasLicense() &&
		!r.NonOrganismEvidence &&
		!r.ExcludedProject &&
		r.QualityGrade != "needs_id"
}
