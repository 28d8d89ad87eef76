package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/JakeFAU/inat-harvester/internal/config"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	fs.StringSlice("species", nil, "")
	fs.Int("days", 30, "")
	fs.String("output", "", "")
	fs.Float64("rate-limit", 1.0, "")
	fs.String("format", "csv", "")
	fs.String("place", "", "")
	fs.Bool("social-split", false, "")
	return fs
}

func TestNewViperLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("species: [\"Phycodurus eques\"]\ndays: 7\nplace: Victoria\n"), 0o600))

	t.Setenv("INAT_HTTP_TIMEOUT_SECONDS", "12")
	t.Setenv("INAT_PLACE", "Tasmania")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--days", "3", "--format", "html"}))

	v, used, err := NewViper(path, fs)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := appconfig.Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"Phycodurus eques"}, cfg.Species)
	assert.Equal(t, 3, cfg.Days, "explicit flag beats file")
	assert.Equal(t, appconfig.FormatHTML, cfg.Format)
	assert.Equal(t, "Tasmania", cfg.Place, "env beats file")
	assert.Equal(t, 12, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, 1.0, cfg.RateLimitSeconds, "unset flag keeps default")
}

func TestNewViperWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--species", "Phycodurus eques,Phyllopteryx taeniolatus"}))

	v, used, err := NewViper("", fs)
	require.NoError(t, err)
	assert.Empty(t, used)

	cfg, err := appconfig.Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"Phycodurus eques", "Phyllopteryx taeniolatus"}, cfg.Species)
	assert.Equal(t, 30, cfg.Days)
}

func TestNewViperMissingExplicitFile(t *testing.T) {
	_, _, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
