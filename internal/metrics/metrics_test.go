package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://inaturalist-open-data.s3.amazonaws.com/photos/1/original.jpg", "inaturalist-open-data.s3.amazonaws.com"},
		{"https://Static.iNaturalist.org/photos/2/original.png?1700000000", "static.inaturalist.org"},
		{"static.inaturalist.org/photos/3/original.jpg", "static.inaturalist.org"},
		{"localhost:8080", "localhost"},
		{"10.0.0.7", "10.0.0.7"},
		{"http://%", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeSite(tc.in), "input %q", tc.in)
	}
}

func TestRegistryIsStable(t *testing.T) {
	first := Registry()
	Init()
	assert.Same(t, first, Registry())
}

func TestObservePhoto(t *testing.T) {
	const site = "photos.metrics.test"
	Init()
	before := testutil.ToFloat64(photosTotal.WithLabelValues(site, PhotoDownloaded))
	beforeBytes := testutil.ToFloat64(photoBytesTotal.WithLabelValues(site))

	ObservePhoto("https://"+site+"/photos/1/original.jpg", PhotoDownloaded, 2048)
	ObservePhoto("https://"+site+"/photos/1/original.jpg", PhotoCached, 0)
	ObservePhoto("https://"+site+"/photos/2/original.jpg", PhotoFailed, 0)

	assert.Equal(t, before+1, testutil.ToFloat64(photosTotal.WithLabelValues(site, PhotoDownloaded)))
	assert.Equal(t, beforeBytes+2048, testutil.ToFloat64(photoBytesTotal.WithLabelValues(site)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(photosTotal.WithLabelValues(site, PhotoCached)), 1.0)
}

func TestWriteTextfile(t *testing.T) {
	ObserveAPIRequest("observations", "ok", 120*time.Millisecond)
	ObserveObservations("Phycodurus eques", 4)
	ObserveExport("html", 3)
	ObserveRateLimitDelay("inat_api", 900*time.Millisecond)

	path := filepath.Join(t.TempDir(), "harvest.prom")
	require.NoError(t, WriteTextfile(path))

	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, name := range []string{
		"inat_api_requests_total",
		"inat_api_request_duration_seconds",
		"inat_observations_total",
		"inat_records_exported_total",
		"inat_rate_limit_delays_seconds",
	} {
		assert.Contains(t, string(data), name)
	}

	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "harvest.prom")))
}

func FuzzSanitizeSite(f *testing.F) {
	for _, seed := range []string{"https://static.inaturalist.org/photos/1/square.jpg", "api.inaturalist.org", "::"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		if SanitizeSite(raw) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty label", raw)
		}
	})
}
