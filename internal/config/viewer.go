package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/grismview/internal/percentile"
	"github.com/banshee-data/grismview/internal/units"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

// Built-in fallbacks used by the Get* accessors when a field is omitted.
const (
	DefaultListen         = ":8080"
	DefaultDBPath         = "grismview.db"
	DefaultInitialRadius  = 250.0
	DefaultScale          = 1.0
	DefaultMinScale       = 0.2
	DefaultMaxScale       = 50.0
	DefaultPMin           = 1.0
	DefaultPMax           = 99.0
	DefaultExcludeZero    = true
	DefaultLabelDigits    = 4
	DefaultExtractWorkers = 4
	DefaultMaxBodyBytes   = 64 << 20
)

// ViewerConfig is the startup configuration of the viewer. Fields are
// pointers so a partial file only overrides what it names.
type ViewerConfig struct {
	// Server
	Listen       *string `json:"listen,omitempty"`
	GRPCListen   *string `json:"grpc_listen,omitempty"` // empty disables the health server
	DBPath       *string `json:"db_path,omitempty"`
	MaxBodyBytes *int64  `json:"max_body_bytes,omitempty"`

	// Camera
	InitialRadius *float64 `json:"initial_radius,omitempty"` // globe radius in px at scale 1
	DefaultScale  *float64 `json:"default_scale,omitempty"`
	MinScale      *float64 `json:"min_scale,omitempty"`
	MaxScale      *float64 `json:"max_scale,omitempty"`

	// Stretch
	DefaultPMin *float64 `json:"default_pmin,omitempty"`
	DefaultPMax *float64 `json:"default_pmax,omitempty"`
	ExcludeZero *bool    `json:"exclude_zero,omitempty"`

	// Wavelength labels
	WaveUnit    *string `json:"wave_unit,omitempty"`
	WaveFrame   *string `json:"wave_frame,omitempty"`
	LabelDigits *int    `json:"label_digits,omitempty"`

	// Extraction
	ExtractWorkers *int `json:"extract_workers,omitempty"`
}

// EmptyViewerConfig returns a ViewerConfig with all fields unset.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *ViewerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadViewerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ViewerConfig) Validate() error {
	if c.InitialRadius != nil && !(*c.InitialRadius > 0) {
		return fmt.Errorf("initial_radius must be positive, got %g", *c.InitialRadius)
	}
	for name, v := range map[string]*float64{
		"default_scale": c.DefaultScale,
		"min_scale":     c.MinScale,
		"max_scale":     c.MaxScale,
	} {
		if v != nil && !(*v > 0) {
			return fmt.Errorf("%s must be positive, got %g", name, *v)
		}
	}
	if minS, maxS := c.GetMinScale(), c.GetMaxScale(); minS > maxS {
		return fmt.Errorf("min_scale %g exceeds max_scale %g", minS, maxS)
	} else if s := c.GetDefaultScale(); s < minS || s > maxS {
		return fmt.Errorf("default_scale %g outside [%g, %g]", s, minS, maxS)
	}

	norm := percentile.NormParams{PMin: c.GetDefaultPMin(), PMax: c.GetDefaultPMax()}
	if err := norm.Validate(); err != nil {
		return fmt.Errorf("default percentiles: %w", err)
	}

	if c.WaveUnit != nil {
		if _, ok := units.ParseUnit(*c.WaveUnit); !ok {
			return fmt.Errorf("wave_unit must be one of %s, got %q", units.GetValidUnitsString(), *c.WaveUnit)
		}
	}
	if c.WaveFrame != nil && !units.IsValidFrame(*c.WaveFrame) {
		return fmt.Errorf("wave_frame must be %q or %q, got %q", units.Observed, units.Rest, *c.WaveFrame)
	}
	if c.LabelDigits != nil && (*c.LabelDigits < 0 || *c.LabelDigits > 10) {
		return fmt.Errorf("label_digits must be between 0 and 10, got %d", *c.LabelDigits)
	}
	if c.ExtractWorkers != nil && *c.ExtractWorkers < 1 {
		return fmt.Errorf("extract_workers must be at least 1, got %d", *c.ExtractWorkers)
	}
	if c.MaxBodyBytes != nil && *c.MaxBodyBytes < 1024 {
		return fmt.Errorf("max_body_bytes must be at least 1024, got %d", *c.MaxBodyBytes)
	}
	return nil
}

// GetListen returns the HTTP listen address.
func (c *ViewerConfig) GetListen() string {
	if c.Listen == nil {
		return DefaultListen
	}
	return *c.Listen
}

// GetGRPCListen returns the gRPC health listen address; empty disables it.
func (c *ViewerConfig) GetGRPCListen() string {
	if c.GRPCListen == nil {
		return ""
	}
	return *c.GRPCListen
}

// GetDBPath returns the SQLite database path.
func (c *ViewerConfig) GetDBPath() string {
	if c.DBPath == nil {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetMaxBodyBytes returns the request body limit for array uploads.
func (c *ViewerConfig) GetMaxBodyBytes() int64 {
	if c.MaxBodyBytes == nil {
		return DefaultMaxBodyBytes
	}
	return *c.MaxBodyBytes
}

func (c *ViewerConfig) GetInitialRadius() float64 {
	if c.InitialRadius == nil {
		return DefaultInitialRadius
	}
	return *c.InitialRadius
}

func (c *ViewerConfig) GetDefaultScale() float64 {
	if c.DefaultScale == nil {
		return DefaultScale
	}
	return *c.DefaultScale
}

func (c *ViewerConfig) GetMinScale() float64 {
	if c.MinScale == nil {
		return DefaultMinScale
	}
	return *c.MinScale
}

func (c *ViewerConfig) GetMaxScale() float64 {
	if c.MaxScale == nil {
		return DefaultMaxScale
	}
	return *c.MaxScale
}

func (c *ViewerConfig) GetDefaultPMin() float64 {
	if c.DefaultPMin == nil {
		return DefaultPMin
	}
	return *c.DefaultPMin
}

func (c *ViewerConfig) GetDefaultPMax() float64 {
	if c.DefaultPMax == nil {
		return DefaultPMax
	}
	return *c.DefaultPMax
}

func (c *ViewerConfig) GetExcludeZero() bool {
	if c.ExcludeZero == nil {
		return DefaultExcludeZero
	}
	return *c.ExcludeZero
}

// GetWaveUnit returns the canonical display unit symbol.
func (c *ViewerConfig) GetWaveUnit() string {
	if c.WaveUnit == nil {
		return units.Micron
	}
	if u, ok := units.ParseUnit(*c.WaveUnit); ok {
		return u
	}
	return units.Micron
}

func (c *ViewerConfig) GetWaveFrame() string {
	if c.WaveFrame == nil {
		return units.Observed
	}
	return *c.WaveFrame
}

func (c *ViewerConfig) GetLabelDigits() int {
	if c.LabelDigits == nil {
		return DefaultLabelDigits
	}
	return *c.LabelDigits
}

func (c *ViewerConfig) GetExtractWorkers() int {
	if c.ExtractWorkers == nil {
		return DefaultExtractWorkers
	}
	return *c.ExtractWorkers
}
