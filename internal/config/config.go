// Package config loads and saves the meter settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tphakala/go-vumeter/internal/ballistics"
	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/dsp"
	"github.com/tphakala/go-vumeter/internal/scale"
)

// ErrInvalidConfig indicates a settings file with unusable values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the persisted application configuration.
type Config struct {
	// Device is the capture device name; empty selects the default.
	Device     string         `json:"device,omitempty"`
	DeviceType dsp.DeviceType `json:"device_type"`

	Backend    string   `json:"backend"`
	WAVSources []string `json:"wav_sources,omitempty"` // name=path
	Loop       bool     `json:"loop,omitempty"`

	// Preset names the display range ("wide" or "classic").
	Preset string `json:"preset"`

	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
	FragmentMs int `json:"fragment_ms"`

	ReferenceLevels capture.ReferenceLevels `json:"reference_levels"`

	Calibration *scale.Calibration `json:"calibration,omitempty"`
	ScalePoints []scale.Point      `json:"scale_table,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DeviceType:      dsp.DeviceMonitor,
		Backend:         BackendPulse,
		Preset:          defaultPreset,
		SampleRate:      defaultSampleRate,
		Channels:        defaultChannels,
		FragmentMs:      defaultFragmentMs,
		ReferenceLevels: capture.DefaultReferenceLevels(),
	}
}

// GetConfigDir returns the configuration directory.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDir
	}
	return filepath.Join(home, DefaultConfigDir)
}

// Path returns the default configuration file path.
func Path() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads the configuration at path. A missing file yields the
// defaults; fields absent from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save saves the configuration to the default path.
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes cfg to path, creating the directory if needed.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, filePerm)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPulse:
	case BackendWAV:
		if len(c.WAVSources) == 0 {
			return fmt.Errorf("%w: backend %q needs wav_sources", ErrInvalidConfig, c.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	if _, ok := dsp.RangePreset(c.Preset); !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, c.Preset)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidConfig, c.Channels)
	}
	if c.FragmentMs <= 0 || c.FragmentMs > maxFragmentMs {
		return fmt.Errorf("%w: fragment_ms must be 1-%d, got %d", ErrInvalidConfig, maxFragmentMs, c.FragmentMs)
	}

	if c.Calibration != nil {
		if err := c.Calibration.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if len(c.ScalePoints) > 0 {
		if _, err := scale.NormalizeTable(c.ScalePoints); err != nil {
			return fmt.Errorf("%w: scale_table: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Range returns the display range of the preset, or the wide range.
func (c *Config) Range() dsp.Range {
	if r, ok := dsp.RangePreset(c.Preset); ok {
		return r
	}
	return dsp.RangeWide
}

// ScaleTable returns the needle table in force: an explicit scale_table,
// then the calibration marks, then the stock table.
func (c *Config) ScaleTable() scale.Table {
	if len(c.ScalePoints) > 0 {
		if t, err := scale.NormalizeTable(c.ScalePoints); err == nil {
			return t
		}
	}
	if c.Calibration != nil && c.Calibration.Validate() == nil {
		return c.Calibration.Table()
	}
	return scale.DefaultTable()
}

// BallisticsConfig returns the needle time constants.
func (c *Config) BallisticsConfig() ballistics.Config {
	if c.Calibration != nil && c.Calibration.Validate() == nil {
		return c.Calibration.Ballistics()
	}
	return ballistics.DefaultConfig()
}

// DeviceKind returns the device type the configured device name implies.
func (c *Config) DeviceKind() dsp.DeviceType {
	return capture.ResolveSource(c.Device, c.DeviceType).DeviceType()
}

// SessionConfig builds the capture session configuration.
func (c *Config) SessionConfig() capture.Config {
	sc := capture.DefaultConfig()
	sc.Device = c.Device
	sc.DeviceType = c.DeviceType
	sc.SampleRate = c.SampleRate
	sc.Channels = c.Channels
	sc.FragmentSize = time.Duration(c.FragmentMs) * time.Millisecond
	sc.Range = c.Range()
	sc.Ballistics = c.BallisticsConfig()
	return sc
}

// FileStore persists reference levels in a configuration file. Each save
// re-reads the file so other settings written meanwhile are kept.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadReferenceLevels implements capture.ReferenceStore.
func (f *FileStore) LoadReferenceLevels() (capture.ReferenceLevels, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg, err := LoadFrom(f.path)
	if err != nil {
		return capture.ReferenceLevels{}, err
	}
	return cfg.ReferenceLevels, nil
}

// SaveReferenceLevels implements capture.ReferenceStore.
func (f *FileStore) SaveReferenceLevels(levels capture.ReferenceLevels) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg, err := LoadFrom(f.path)
	if err != nil {
		return err
	}
	cfg.ReferenceLevels = levels
	return SaveTo(f.path, cfg)
}
