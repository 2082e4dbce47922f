package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Settings is the flat recorder configuration. It is persisted as a JSON
// object; unknown keys in the file are ignored and missing keys fall back to
// the built-in defaults.
type Settings struct {
	OutputDir    string  `mapstructure:"output_dir" json:"output_dir" yaml:"output_dir"`
	Format       string  `mapstructure:"format" json:"format" yaml:"format"`
	SampleRate   int     `mapstructure:"sample_rate" json:"sample_rate" yaml:"sample_rate"`
	Channels     int     `mapstructure:"channels" json:"channels" yaml:"channels"`
	MicVolume    float64 `mapstructure:"mic_volume" json:"mic_volume" yaml:"mic_volume"`
	SystemVolume float64 `mapstructure:"system_volume" json:"system_volume" yaml:"system_volume"`
	BitDepth     string  `mapstructure:"bit_depth" json:"bit_depth" yaml:"bit_depth"`
}

// ValidSampleRates are the sample rates accepted for recording.
var ValidSampleRates = []int{44100, 48000, 96000}

// ValidBitDepths are the accepted capture sample formats.
var ValidBitDepths = []string{"16", "24", "32float"}

// Default returns the built-in settings used when no config file exists.
func Default() Settings {
	home, _ := os.UserHomeDir()
	return Settings{
		OutputDir:    filepath.Join(home, "Recordings"),
		Format:       "wav",
		SampleRate:   44100,
		Channels:     2,
		MicVolume:    1.0,
		SystemVolume: 0.8,
		BitDepth:     "16",
	}
}

// DefaultPath returns the user config file location.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "audio-recorder", "config.json")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("AUDIO_RECORDER")
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("sample_rate", defaults.SampleRate)
	v.SetDefault("channels", defaults.Channels)
	v.SetDefault("mic_volume", defaults.MicVolume)
	v.SetDefault("system_volume", defaults.SystemVolume)
	v.SetDefault("bit_depth", defaults.BitDepth)

	return v
}

// Load reads settings from path, merged over the defaults. Read and parse
// failures are logged and masked by the defaults so a broken config file
// never blocks recording; values that are present but out of range are
// returned as an error.
func Load(path string) (*Settings, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not read config file, using defaults", "path", path, "error", err)
		}
		s := Default()
		return &s, nil
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		slog.Warn("Could not parse config file, using defaults", "path", path, "error", err)
		s = Default()
		return &s, nil
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &s, nil
}

// Save writes the full settings object back to path, creating the parent
// directory if needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(path)
	v.Set("output_dir", s.OutputDir)
	v.Set("format", s.Format)
	v.Set("sample_rate", s.SampleRate)
	v.Set("channels", s.Channels)
	v.Set("mic_volume", s.MicVolume)
	v.Set("system_volume", s.SystemVolume)
	v.Set("bit_depth", s.BitDepth)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// Validate checks that every setting is in range.
func (s *Settings) Validate() error {
	if s.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if s.Format == "" {
		return fmt.Errorf("format must not be empty")
	}
	if !containsInt(ValidSampleRates, s.SampleRate) {
		return fmt.Errorf("sample_rate must be one of %v, got: %d", ValidSampleRates, s.SampleRate)
	}
	if s.Channels < 1 {
		return fmt.Errorf("channels must be >= 1, got: %d", s.Channels)
	}
	if s.MicVolume <= 0 {
		return fmt.Errorf("mic_volume must be > 0, got: %.2f", s.MicVolume)
	}
	if s.SystemVolume <= 0 {
		return fmt.Errorf("system_volume must be > 0, got: %.2f", s.SystemVolume)
	}
	if s.BitDepth != "" && !containsString(ValidBitDepths, s.BitDepth) {
		return fmt.Errorf("bit_depth must be one of %v, got: %s", ValidBitDepths, s.BitDepth)
	}
	return nil
}

// Watch reloads settings whenever the file at path changes and hands every
// valid new version to onChange. Invalid or unreadable edits are logged and
// skipped, keeping the last good settings in place.
func Watch(path string, onChange func(*Settings)) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		slog.Debug("Config watch disabled, file not readable", "path", path, "error", err)
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("Config file changed, reloading", "path", e.Name)
		s, err := Load(path)
		if err != nil {
			slog.Warn("Ignoring config change", "error", err)
			return
		}
		onChange(s)
	})
	v.WatchConfig()
}

func containsInt(values []int, value int) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
