package recorder

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-audio/wav"
)

// minOutputSize rejects recordings that obviously contain no audio.
const minOutputSize = 1024

// validateOutput checks that a finished capture produced a usable file.
// WAV output is additionally parsed to confirm the container is intact;
// other formats only get the size check.
func validateOutput(path, format string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("recording file not found: %s", path)
	}
	if info.Size() < minOutputSize {
		return fmt.Errorf("recording failed: file too small (%d bytes)", info.Size())
	}

	if format != "wav" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return fmt.Errorf("recording is not a valid wav file: %s", path)
	}

	if duration, err := decoder.Duration(); err == nil {
		slog.Debug("Output file validated", "size", info.Size(), "duration", duration)
	} else {
		slog.Debug("Output file validated", "size", info.Size())
	}
	return nil
}
