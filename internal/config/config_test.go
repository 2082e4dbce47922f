package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}

	defaults := Default()
	if *s != defaults {
		t.Errorf("Expected defaults %+v, got %+v", defaults, *s)
	}
}

func TestLoad_PartialFileMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"sample_rate": 48000, "system_volume": 1.2}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.SampleRate != 48000 {
		t.Errorf("Expected sample_rate 48000, got %d", s.SampleRate)
	}
	if s.SystemVolume != 1.2 {
		t.Errorf("Expected system_volume 1.2, got %.2f", s.SystemVolume)
	}

	// Everything else falls back to defaults
	defaults := Default()
	if s.Format != defaults.Format {
		t.Errorf("Expected default format %s, got %s", defaults.Format, s.Format)
	}
	if s.Channels != defaults.Channels {
		t.Errorf("Expected default channels %d, got %d", defaults.Channels, s.Channels)
	}
	if s.MicVolume != defaults.MicVolume {
		t.Errorf("Expected default mic_volume %.2f, got %.2f", defaults.MicVolume, s.MicVolume)
	}
}

func TestLoad_UnknownKeysIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"format": "ogg", "some_future_key": true, "nested": {"a": 1}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Format != "ogg" {
		t.Errorf("Expected format 'ogg', got %s", s.Format)
	}
}

func TestLoad_CorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error for corrupt file: %v", err)
	}

	defaults := Default()
	if *s != defaults {
		t.Errorf("Expected defaults after corrupt file, got %+v", *s)
	}
}

func TestLoad_OutOfRangeValueFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"sample_rate": 22050}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for unsupported sample rate")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio-recorder", "config.json")

	original := Settings{
		OutputDir:    "/tmp/rec",
		Format:       "wav",
		SampleRate:   96000,
		Channels:     2,
		MicVolume:    1.5,
		SystemVolume: 1.2,
		BitDepth:     "32float",
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save failed: %v", err)
	}

	if *loaded != original {
		t.Errorf("Round trip mismatch:\nsaved:  %+v\nloaded: %+v", original, *loaded)
	}

	// Saving what was loaded must be stable as well
	if err := loaded.Save(path); err != nil {
		t.Fatalf("Second Save failed: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Second Load failed: %v", err)
	}
	if *reloaded != original {
		t.Errorf("Second round trip mismatch: %+v", *reloaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr bool
	}{
		{"defaults are valid", func(s *Settings) {}, false},
		{"empty bit depth allowed", func(s *Settings) { s.BitDepth = "" }, false},
		{"bit depth 24", func(s *Settings) { s.BitDepth = "24" }, false},
		{"bit depth 32float", func(s *Settings) { s.BitDepth = "32float" }, false},
		{"sample rate 48000", func(s *Settings) { s.SampleRate = 48000 }, false},
		{"unsupported sample rate", func(s *Settings) { s.SampleRate = 8000 }, true},
		{"unsupported bit depth", func(s *Settings) { s.BitDepth = "64" }, true},
		{"zero channels", func(s *Settings) { s.Channels = 0 }, true},
		{"zero mic volume", func(s *Settings) { s.MicVolume = 0 }, true},
		{"negative system volume", func(s *Settings) { s.SystemVolume = -0.5 }, true},
		{"empty output dir", func(s *Settings) { s.OutputDir = "" }, true},
		{"empty format", func(s *Settings) { s.Format = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(&s)
			err := s.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}
