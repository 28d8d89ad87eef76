package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

func TestLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		obs              harvest.Observation
		wantLat, wantLon string
	}{
		{"combined field", harvest.Observation{Location: "-35.123, 138.45"}, "-35.123", "138.45"},
		{"combined wins over geojson", harvest.Observation{
			Location: "1,2",
			GeoJSON:  &harvest.GeoJSON{Coordinates: []float64{9, 8}},
		}, "1", "2"},
		{"geojson is lon first", harvest.Observation{GeoJSON: &harvest.GeoJSON{Coordinates: []float64{12.3, 45.6}}}, "45.6", "12.3"},
		{"latitude only", harvest.Observation{Location: "10.5"}, "10.5", ""},
		{"short geojson", harvest.Observation{GeoJSON: &harvest.GeoJSON{Coordinates: []float64{1}}}, "", ""},
		{"nothing", harvest.Observation{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lat, lon := Location(tt.obs)
			assert.Equal(t, tt.wantLat, lat)
			assert.Equal(t, tt.wantLon, lon)
		})
	}
}

func TestSplitDate(t *testing.T) {
	t.Parallel()

	y, m, d := SplitDate("2024-03-05")
	assert.Equal(t, []string{"2024", "03", "05"}, []string{y, m, d})

	y, m, d = SplitDate(Unknown)
	assert.Equal(t, []string{"", "", ""}, []string{y, m, d})

	y, m, d = SplitDate("2024-03")
	assert.Equal(t, []string{"", "", ""}, []string{y, m, d})
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	genus, epithet := SplitName("Phycodurus eques")
	assert.Equal(t, "Phycodurus", genus)
	assert.Equal(t, "eques", epithet)

	genus, epithet = SplitName("Syngnathidae")
	assert.Equal(t, "Syngnathidae", genus)
	assert.Empty(t, epithet)

	genus, epithet = SplitName("Canis  lupus familiaris")
	assert.Equal(t, "Canis", genus)
	assert.Equal(t, "lupus", epithet)

	genus, epithet = SplitName("")
	assert.Empty(t, genus)
	assert.Empty(t, epithet)
}

func TestComment(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 31, 8, 0, 0, 0, time.UTC)
	url := "https://www.inaturalist.org/observations/7"

	assert.Equal(t,
		"Imported from iNaturalist on 2024-03-31. Original observation: "+url+". License: cc-by, cc-by-nc.",
		Comment(day, url, []string{"cc-by", "", "cc-by-nc", "cc-by"}))
	assert.Equal(t,
		"Imported from iNaturalist on 2024-03-31. Original observation: "+url+". License: "+NoLicenseNotice+".",
		Comment(day, url, []string{"", ""}))
	assert.Contains(t, Comment(day, url, nil), NoLicenseNotice)
}
