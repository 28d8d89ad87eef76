// Package config builds the Viper instance the CLI reads settings from. It
// layers flags over environment variables over an optional config file over
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	appconfig "github.com/JakeFAU/inat-harvester/internal/config"
)

// EnvPrefix namespaces environment overrides, e.g. INAT_DAYS=7.
const EnvPrefix = "INAT"

// SearchPaths are the directories searched for config.yaml when no file is
// given explicitly.
var SearchPaths = []string{".", "/etc/inat-harvester/", "$HOME/.inat-harvester"}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"species":      "species",
	"days":         "days",
	"output":       "output_dir",
	"rate-limit":   "rate_limit_seconds",
	"format":       "format",
	"place":        "place",
	"location-id":  "location_id",
	"submitter-id": "submitter_id",
	"social-split": "social_split",
}

// NewViper returns a Viper instance with defaults, environment binding, the
// config file (cfgFile, or config.yaml on SearchPaths) and any flags from
// flags that exist in the set. The second return value is the config file
// used, empty when none was found.
func NewViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, string, error) {
	v := viper.New()
	appconfig.SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		for _, path := range SearchPaths {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	return v, v.ConfigFileUsed(), nil
}
