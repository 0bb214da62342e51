// Package config provides configuration loading and management for mammosim.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Range bounds one acquisition control and carries its initial value.
type Range struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Acquisition parameters for the baseline exposure
	Acquisition struct {
		// SIDMM is the source-to-isocenter distance in mm
		SIDMM float64 `yaml:"sidMM"`

		// SDDMM is the source-to-detector distance in mm
		SDDMM float64 `yaml:"sddMM"`

		// AngleDeg is the beam angle in degrees
		AngleDeg float64 `yaml:"angleDeg"`

		// KVP is the peak tube voltage
		KVP float64 `yaml:"kvp"`

		// ExposureS is the exposure time in seconds
		ExposureS float64 `yaml:"exposureS"`

		// FiltrationMM is the aluminium filtration thickness in mm
		FiltrationMM float64 `yaml:"filtrationMM"`

		// DetectorOffsetMM shifts the detector along its row axis
		DetectorOffsetMM float64 `yaml:"detectorOffsetMM"`

		// GridRatio is the anti-scatter grid transmission
		GridRatio float64 `yaml:"gridRatio"`

		// GridOn enables the anti-scatter grid
		GridOn bool `yaml:"gridOn"`
	} `yaml:"acquisition"`

	// Phantom parameters
	Phantom struct {
		// Width and Height are the grid dimensions in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// LesionRadiusPx is the lesion disk radius in pixels
		LesionRadiusPx int `yaml:"lesionRadiusPx"`

		// IncludeLesion draws the lesion disk
		IncludeLesion bool `yaml:"includeLesion"`

		// IncludeCalcifications draws the microcalcification scatter
		IncludeCalcifications bool `yaml:"includeCalcifications"`

		// IncludeBenign draws the benign mass
		IncludeBenign bool `yaml:"includeBenign"`

		// Compression squeezes the breast along the ray axis
		Compression bool `yaml:"compression"`

		// CompressionFactor is the compressed thickness fraction
		CompressionFactor float64 `yaml:"compressionFactor"`

		// Seed drives the calcification scatter
		Seed uint64 `yaml:"seed"`
	} `yaml:"phantom"`

	// Sinogram sweep parameters
	Sinogram struct {
		// StepDeg is the angular step in degrees
		StepDeg float64 `yaml:"stepDeg"`

		// Workers bounds concurrent row computation
		Workers int `yaml:"workers"`
	} `yaml:"sinogram"`

	// Ranges bound the interactively adjustable acquisition controls
	Ranges struct {
		AngleDeg     Range `yaml:"angleDeg"`
		SIDMM        Range `yaml:"sidMM"`
		SDDMM        Range `yaml:"sddMM"`
		KVP          Range `yaml:"kvp"`
		ExposureS    Range `yaml:"exposureS"`
		FiltrationMM Range `yaml:"filtrationMM"`
	} `yaml:"ranges"`

	// Output parameters
	Output struct {
		// Dir is the directory figures and reports are written to
		Dir string `yaml:"dir"`

		// StatsFile is the region statistics report written next to the figures
		StatsFile string `yaml:"statsFile"`

		// Verbose enables debug logging without the command-line flag
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default acquisition parameters
	cfg.Acquisition.SIDMM = 500
	cfg.Acquisition.SDDMM = 1000
	cfg.Acquisition.AngleDeg = 0
	cfg.Acquisition.KVP = 35
	cfg.Acquisition.ExposureS = 1.0
	cfg.Acquisition.FiltrationMM = 2.0
	cfg.Acquisition.DetectorOffsetMM = 0
	cfg.Acquisition.GridRatio = 0.9
	cfg.Acquisition.GridOn = false

	// Set default phantom parameters
	cfg.Phantom.Width = 256
	cfg.Phantom.Height = 256
	cfg.Phantom.LesionRadiusPx = 25
	cfg.Phantom.IncludeLesion = true
	cfg.Phantom.IncludeCalcifications = true
	cfg.Phantom.IncludeBenign = true
	cfg.Phantom.Compression = false
	cfg.Phantom.CompressionFactor = 0.65
	cfg.Phantom.Seed = 42

	// Set default sinogram parameters
	cfg.Sinogram.StepDeg = 1.0
	cfg.Sinogram.Workers = runtime.NumCPU() // Use all available cores by default

	// Set default control ranges
	cfg.Ranges.AngleDeg = Range{Min: 0, Max: 180, Default: 30}
	cfg.Ranges.SIDMM = Range{Min: 200, Max: 1200, Default: 500}
	cfg.Ranges.SDDMM = Range{Min: 400, Max: 1600, Default: 1000}
	cfg.Ranges.KVP = Range{Min: 20, Max: 120, Default: 30}
	cfg.Ranges.ExposureS = Range{Min: 0.01, Max: 3.0, Default: 1.0}
	cfg.Ranges.FiltrationMM = Range{Min: 0, Max: 10, Default: 2}

	// Set default output parameters
	cfg.Output.Dir = "figs"
	cfg.Output.StatsFile = "roi_stats.csv"
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
