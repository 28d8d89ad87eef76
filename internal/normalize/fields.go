package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

// Unknown fills text fields the API left empty.
const Unknown = "Unknown"

// NoLicenseNotice replaces the license list when no photo carries a license.
const NoLicenseNotice = "no license, copyright applies"

// Location returns latitude and longitude as text. The combined "lat,lon"
// field wins; otherwise the GeoJSON point is used, whose first coordinate
// is the longitude.
func Location(obs harvest.Observation) (lat, lon string) {
	if obs.Location != "" {
		parts := strings.Split(obs.Location, ",")
		lat = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			lon = strings.TrimSpace(parts[1])
		}
		return lat, lon
	}
	if obs.GeoJSON != nil && len(obs.GeoJSON.Coordinates) >= 2 {
		lon = formatCoordinate(obs.GeoJSON.Coordinates[0])
		lat = formatCoordinate(obs.GeoJSON.Coordinates[1])
	}
	return lat, lon
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SplitDate splits a YYYY-MM-DD string. All parts are empty when the value
// has fewer than three dash-separated parts.
func SplitDate(observedOn string) (year, month, day string) {
	parts := strings.Split(observedOn, "-")
	if len(parts) < 3 {
		return "", "", ""
	}
	return parts[0], parts[1], parts[2]
}

// SplitName returns the genus and specific epithet of a scientific name.
func SplitName(scientificName string) (genus, epithet string) {
	fields := strings.Fields(scientificName)
	if len(fields) > 0 {
		genus = fields[0]
	}
	if len(fields) > 1 {
		epithet = fields[1]
	}
	return genus, epithet
}

// Comment builds the researcher comment for a record.
func Comment(downloaded time.Time, recordURL string, licenses []string) string {
	var b strings.Builder
	b.WriteString("Imported from iNaturalist on ")
	b.WriteString(downloaded.Format("2006-01-02"))
	b.WriteString(". Original observation: ")
	b.WriteString(recordURL)
	b.WriteString(". License: ")
	if summary := licenseSummary(licenses); summary != "" {
		b.WriteString(summary)
	} else {
		b.WriteString(NoLicenseNotice)
	}
	b.WriteString(".")
	return b.String()
}

func licenseSummary(licenses []string) string {
	seen := make(map[string]bool, len(licenses))
	var unique []string
	for _, code := range licenses {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		unique = append(unique, code)
	}
	return strings.Join(unique, ", ")
}
