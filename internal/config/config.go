// Package config provides configuration loading for runtimes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

const (
	appName = "runtimes"

	// EnvPrefix prefixes environment overrides, e.g. RUNTIMES_CACHE_DIR
	EnvPrefix = "RUNTIMES"

	// LocalConfigFile is picked up from the working directory when present
	LocalConfigFile = ".runtimes.yaml"
)

// Keys shared by viper and the config file
const (
	KeyCatalog          = "catalog"
	KeyCatalogSignature = "catalog_signature"
	KeyKeyring          = "keyring"
	KeyCacheDir         = "cache_dir"
	KeyDefaultFlavor    = "default_flavor"
	KeyDebug            = "debug"
	KeyQuiet            = "quiet"
	KeyHTTPTimeout      = "http_timeout"
)

// Config holds all configuration options for runtimes.
type Config struct {
	Catalog          string        `mapstructure:"catalog"`           // manifest path; empty uses the built-in catalog
	CatalogSignature string        `mapstructure:"catalog_signature"` // detached OpenPGP signature of Catalog
	Keyring          string        `mapstructure:"keyring"`           // public keys trusted to sign the catalog
	CacheDir         string        `mapstructure:"cache_dir"`
	DefaultFlavor    string        `mapstructure:"default_flavor"`
	Debug            bool          `mapstructure:"debug"`
	Quiet            bool          `mapstructure:"quiet"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		CacheDir:      filepath.Join(xdg.CacheHome, appName),
		DefaultFlavor: entities.FlavorStandalone.String(),
		HTTPTimeout:   5 * time.Minute,
	}
}

// UserConfigDir is where the per-user config.yaml lives.
func UserConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.CacheDir == "" {
		return errors.New("cache_dir must not be empty")
	}
	if _, err := entities.ParseFlavor(c.DefaultFlavor); err != nil {
		return fmt.Errorf("default_flavor: %w", err)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if c.CatalogSignature != "" {
		if c.Catalog == "" {
			return errors.New("catalog_signature requires catalog")
		}
		if c.Keyring == "" {
			return errors.New("catalog_signature requires keyring")
		}
	}
	return nil
}

// Flavor returns the parsed default flavor.
func (c Config) Flavor() entities.Flavor {
	f, err := entities.ParseFlavor(c.DefaultFlavor)
	if err != nil {
		return entities.FlavorStandalone
	}
	return f
}

// SetDefaults registers every key with v so environment overrides apply.
func SetDefaults(v *viper.Viper) {
	defaults := Defaults()
	v.SetDefault(KeyCatalog, defaults.Catalog)
	v.SetDefault(KeyCatalogSignature, defaults.CatalogSignature)
	v.SetDefault(KeyKeyring, defaults.Keyring)
	v.SetDefault(KeyCacheDir, defaults.CacheDir)
	v.SetDefault(KeyDefaultFlavor, defaults.DefaultFlavor)
	v.SetDefault(KeyDebug, defaults.Debug)
	v.SetDefault(KeyQuiet, defaults.Quiet)
	v.SetDefault(KeyHTTPTimeout, defaults.HTTPTimeout)
}

// Load reads configuration into v and returns the validated result.
//
// Config lookup order:
//  1. cfgFile, when given
//  2. .runtimes.yaml (current directory)
//  3. $XDG_CONFIG_HOME/runtimes/config.yaml
//
// A missing file at 2 or 3 is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(LocalConfigFile); err == nil {
		v.SetConfigFile(LocalConfigFile)
	} else {
		v.AddConfigPath(UserConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
