// Package config provides configuration management for the InSAR localization pipeline.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete pipeline configuration loaded from environment variables.
// Credentials are read once at startup and treated as immutable for the run.
type Config struct {
	ASF       ASFConfig       `envPrefix:"ASF_"`
	CMR       CMRConfig       `envPrefix:"CMR_"`
	Orbit     OrbitConfig     `envPrefix:"ORBIT_"`
	DEM       DEMConfig       `envPrefix:"DEM_"`
	AuxCal    AuxCalConfig    `envPrefix:"AUX_CAL_"`
	Earthdata EarthdataConfig `envPrefix:"EARTHDATA_"`
	Download  DownloadConfig  `envPrefix:"DOWNLOAD_"`
	Engine    EngineConfig    `envPrefix:"ENGINE_"`
	Logging   LoggingConfig   `envPrefix:"LOG_"`
}

// ASFConfig contains ASF search API client configuration.
type ASFConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.daac.asf.alaska.edu"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// CMRConfig contains the fallback CMR search client configuration.
type CMRConfig struct {
	BaseURL  string        `env:"BASE_URL" envDefault:"https://cmr.earthdata.nasa.gov/search"`
	Provider string        `env:"PROVIDER" envDefault:"ASF"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// OrbitConfig contains orbit provider configuration.
// The CDSE catalogue is queried first, then the ASF quality-control mirror.
type OrbitConfig struct {
	CDSEBaseURL string        `env:"CDSE_BASE_URL" envDefault:"https://catalogue.dataspace.copernicus.eu/odata/v1"`
	CDSEToken   string        `env:"CDSE_TOKEN"`
	ASFBaseURL  string        `env:"ASF_BASE_URL" envDefault:"https://s1qc.asf.alaska.edu"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// DEMConfig contains elevation tile store configuration.
// Both sources are STAC collections; the coarser one fills primary coverage gaps.
type DEMConfig struct {
	StacBaseURL        string        `env:"STAC_BASE_URL" envDefault:"https://stac.asf.alaska.edu"`
	PrimaryCollection  string        `env:"PRIMARY_COLLECTION" envDefault:"glo-30"`
	FallbackCollection string        `env:"FALLBACK_COLLECTION" envDefault:"glo-90"`
	Timeout            time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// AuxCalConfig contains the calibration archive endpoints per platform.
type AuxCalConfig struct {
	S1AURL  string        `env:"S1A_URL" envDefault:"https://qc.sentinel1.groupcls.com/product/S1A/AUX_CAL/2019/02/28/S1A_AUX_CAL_V20190228T092500_G20210104T141310.SAFE.TGZ"`
	S1BURL  string        `env:"S1B_URL" envDefault:"https://qc.sentinel1.groupcls.com/product/S1B/AUX_CAL/2019/05/14/S1B_AUX_CAL_V20190514T090000_G20210104T140612.SAFE.TGZ"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"120s"`
}

// EarthdataConfig contains NASA Earthdata login credentials used for
// scene and orbit downloads from ASF-hosted object storage.
type EarthdataConfig struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// DownloadConfig contains transfer tuning shared by all providers.
type DownloadConfig struct {
	// MaxWorkers bounds concurrent scene downloads within a run.
	MaxWorkers int `env:"MAX_WORKERS" envDefault:"5"`
	// RatePerSecond limits request starts against a single provider.
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"2"`
	// MaxRetries bounds retry attempts for transient failures and checksum mismatches.
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"3"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30m"`
}

// EngineConfig contains external processing engine invocation settings.
type EngineConfig struct {
	Command string        `env:"COMMAND" envDefault:"topsApp.py"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"12h"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ASF.BaseURL == "" {
		return fmt.Errorf("ASF base URL is required")
	}
	if c.ASF.Timeout <= 0 {
		return fmt.Errorf("ASF timeout must be positive, got %s", c.ASF.Timeout)
	}

	if c.CMR.BaseURL == "" {
		return fmt.Errorf("CMR base URL is required")
	}
	if c.CMR.Timeout <= 0 {
		return fmt.Errorf("CMR timeout must be positive, got %s", c.CMR.Timeout)
	}

	if c.Orbit.CDSEBaseURL == "" && c.Orbit.ASFBaseURL == "" {
		return fmt.Errorf("at least one orbit provider URL is required")
	}

	if c.DEM.StacBaseURL == "" {
		return fmt.Errorf("DEM STAC base URL is required")
	}
	if c.DEM.PrimaryCollection == "" {
		return fmt.Errorf("DEM primary collection is required")
	}

	if c.Download.MaxWorkers < 1 {
		return fmt.Errorf("download max workers must be at least 1, got %d", c.Download.MaxWorkers)
	}
	if c.Download.RatePerSecond <= 0 {
		return fmt.Errorf("download rate must be positive, got %g", c.Download.RatePerSecond)
	}
	if c.Download.MaxRetries < 0 {
		return fmt.Errorf("download max retries must be non-negative, got %d", c.Download.MaxRetries)
	}

	if c.Engine.Command == "" {
		return fmt.Errorf("engine command is required")
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine timeout must be positive, got %s", c.Engine.Timeout)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// HasEarthdataCredentials reports whether Earthdata login credentials were supplied.
func (c *Config) HasEarthdataCredentials() bool {
	return c.Earthdata.Username != "" && c.Earthdata.Password != ""
}
