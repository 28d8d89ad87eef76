package harvest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Observation is a single sighting as returned by the observation search endpoint.
// It is decoded once and never mutated.
type Observation struct {
	ID           int64        `json:"id"`
	ObservedOn   string       `json:"observed_on"`
	Location     string       `json:"location"`
	GeoJSON      *GeoJSON     `json:"geojson"`
	PlaceGuess   string       `json:"place_guess"`
	User         *User        `json:"user"`
	QualityGrade string       `json:"quality_grade"`
	Taxon        *Taxon       `json:"taxon"`
	Photos       []Photo      `json:"photos"`
	Annotations  []Annotation `json:"annotations"`
	ProjectIDs   []int64      `json:"project_ids"`
}

// GeoJSON holds the point geometry of an observation. Coordinates are
// ordered longitude first.
type GeoJSON struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// User identifies the observer.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Taxon describes a taxon search result or the taxon attached to an observation.
type Taxon struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Rank                string `json:"rank"`
	PreferredCommonName string `json:"preferred_common_name"`
}

// DisplayName prefers the common name when one exists.
func (t Taxon) DisplayName() string {
	if t.PreferredCommonName != "" {
		return t.PreferredCommonName
	}
	return t.Name
}

// Photo is a photo descriptor nested in an observation.
type Photo struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	LicenseCode string `json:"license_code"`
	Attribution string `json:"attribution"`
}

// Annotation is a controlled attribute/value pair attached to an observation.
type Annotation struct {
	ControlledAttributeID int  `json:"controlled_attribute_id"`
	ControlledValueID     *int `json:"controlled_value_id"`
}

// Place is a place autocomplete candidate.
type Place struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	PlaceType   PlaceType `json:"place_type"`
}

// PlaceType is the administrative kind of a place. The API reports it as a
// numeric code; a textual name is accepted as well.
type PlaceType string

// Place types used when ranking place candidates.
const (
	PlaceTypeCountry  PlaceType = "country"
	PlaceTypeState    PlaceType = "state"
	PlaceTypeCounty   PlaceType = "county"
	PlaceTypeProvince PlaceType = "province"
)

var placeTypeCodes = map[int]PlaceType{
	8:   PlaceTypeState,
	9:   PlaceTypeCounty,
	12:  PlaceTypeCountry,
	103: PlaceTypeProvince,
}

// UnmarshalJSON accepts numeric codes, names, or null.
func (p *PlaceType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("decode place type: %w", err)
		}
		*p = PlaceType(strings.ToLower(strings.TrimSpace(name)))
		return nil
	}
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("decode place type: %w", err)
	}
	*p = placeTypeCodes[code]
	return nil
}

// LivingStatus is the alive/dead state of the observed organism.
type LivingStatus string

// Living status values written to the export.
const (
	LivingStatusAlive LivingStatus = "alive"
	LivingStatusDead  LivingStatus = "dead"
)

// ReviewStateUnapproved is the fixed review state of every exported record.
const ReviewStateUnapproved = "unapproved"

// Record is one normalized export row. JSON field names match the delimited
// column names so the interactive document can rebuild the same file.
type Record struct {
	ObservationID    int64        `json:"observation_id"`
	ObservedOn       string       `json:"observed_on"`
	Year             string       `json:"Encounter.year"`
	Month            string       `json:"Encounter.month"`
	Day              string       `json:"Encounter.day"`
	ScientificName   string       `json:"scientific_name"`
	Genus            string       `json:"Encounter.genus"`
	SpecificEpithet  string       `json:"Encounter.specificEpithet"`
	CommonName       string       `json:"common_name"`
	Latitude         string       `json:"Encounter.decimalLatitude"`
	Longitude        string       `json:"Encounter.decimalLongitude"`
	VerbatimLocality string       `json:"Encounter.verbatimLocality"`
	LocationID       string       `json:"Encounter.locationID"`
	LivingStatus     LivingStatus `json:"Encounter.livingStatus"`
	SubmitterID      string       `json:"Encounter.submitterID"`
	State            string       `json:"Encounter.state"`
	SightingID       string       `json:"Sighting.sightingID"`
	Observer         string       `json:"observer"`
	QualityGrade     string       `json:"quality_grade"`
	URL              string       `json:"url"`
	Comment          string       `json:"Encounter.researcherComments"`
	Photos           []string     `json:"photos"`
	Licenses         []string     `json:"licenses"`

	NonOrganismEvidence bool `json:"non_organism_evidence"`
	ExcludedProject     bool `json:"excluded_project"`
}

// PhotoCount is the number of photos attached to the record.
func (r Record) PhotoCount() int {
	return len(r.Photos)
}

// HasLicense reports whether at least one photo carries a license code.
func (r Record) HasLicense() bool {
	for _, code := range r.Licenses {
		if code != "" {
			return true
		}
	}
	return false
}
