// Package recorder builds the virtual audio graph that merges microphone
// and system output into one capture endpoint, and owns the recording
// session lifecycle.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/tuliorib/LinuxAudioRecorder/internal/config"
	"github.com/tuliorib/LinuxAudioRecorder/internal/pulse"
)

var (
	// ErrAlreadyRecording is returned by Start when a session is active.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by Stop when no session is active.
	ErrNotRecording = errors.New("not recording")
)

// Recorder owns the recording flag, the current output path and the set of
// loaded module handles. At most one recording is active per Recorder; the
// mutex makes that invariant hold under concurrent Start/Stop calls.
type Recorder struct {
	client pulse.Client

	mu          sync.Mutex
	settings    config.Settings
	recording   bool
	currentFile string
	handles     []pulse.ModuleHandle
}

// New creates a recorder using the given sound-server client.
func New(settings *config.Settings, client pulse.Client) *Recorder {
	return &Recorder{
		client:   client,
		settings: *settings,
	}
}

// UpdateSettings replaces the settings used by the next recording. An active
// session keeps the settings it started with.
func (r *Recorder) UpdateSettings(settings *config.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = *settings
	slog.Info("Recorder settings updated",
		"output_dir", settings.OutputDir,
		"mic_volume", settings.MicVolume,
		"system_volume", settings.SystemVolume)
}

// Start builds the combined graph and binds its monitor endpoint to a new
// output file through a pipe source, so the sound server itself writes the
// stream. Any intermediate failure releases every module already loaded and
// leaves the recorder idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		slog.Info("Start ignored, recording already in progress", "file", r.currentFile)
		return ErrAlreadyRecording
	}

	endpoint, err := r.setupGraph()
	if err != nil {
		return err
	}

	outputFile, err := r.outputPath()
	if err != nil {
		r.releaseAll("setup abort")
		return err
	}

	args := fmt.Sprintf("source_name=recorder file=%s format=s16le rate=%d channels=%d source=%s",
		outputFile, r.settings.SampleRate, r.settings.Channels, endpoint)
	handle, err := r.client.LoadModule("module-pipe-source", args)
	if err != nil {
		r.releaseAll("setup abort")
		return fmt.Errorf("failed to load module-pipe-source: %w", err)
	}
	r.handles = append(r.handles, handle)

	r.recording = true
	r.currentFile = outputFile
	slog.Info("Recording started", "file", outputFile)
	return nil
}

// Stop tears down the active session. Every owned handle is released
// best-effort; individual release failures are aggregated and logged but
// never block the sweep or fail the stop.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		slog.Info("Stop ignored, not recording")
		return ErrNotRecording
	}

	r.releaseAll("stop")
	r.recording = false
	r.currentFile = ""
	slog.Info("Recording stopped")
	return nil
}

// Record runs one synchronous capture of the given duration through the
// external capture utility. The graph is torn down on every exit path,
// including cancellation.
func (r *Recorder) Record(ctx context.Context, duration time.Duration) (string, error) {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return "", ErrAlreadyRecording
	}

	endpoint, err := r.setupGraph()
	if err != nil {
		r.mu.Unlock()
		return "", err
	}

	outputFile, err := r.outputPath()
	if err != nil {
		r.releaseAll("setup abort")
		r.mu.Unlock()
		return "", err
	}

	settings := r.settings
	r.recording = true
	r.currentFile = outputFile
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.releaseAll("capture done")
		r.recording = false
		r.currentFile = ""
		r.mu.Unlock()
	}()

	slog.Info("Recording started", "file", outputFile, "duration", duration)
	if err := runCapture(ctx, endpoint, outputFile, &settings, duration); err != nil {
		return "", err
	}

	if err := validateOutput(outputFile, settings.Format); err != nil {
		return "", err
	}

	return outputFile, nil
}

// IsRecording reports whether a session is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentFile returns the output path of the active session, or "".
func (r *Recorder) CurrentFile() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentFile
}

// Close releases whatever the recorder still owns. It is idempotent and
// safe to call from a shutdown handler at any point, including mid-setup.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.releaseAll("close")
	r.recording = false
	r.currentFile = ""
	return err
}

// releaseAll unloads every owned module, attempting each one even when
// earlier releases fail, and clears the handle list so no handle is released
// twice. Callers hold the mutex.
func (r *Recorder) releaseAll(reason string) error {
	var err error
	for _, handle := range r.handles {
		if uerr := r.client.UnloadModule(handle); uerr != nil {
			err = multierr.Append(err, fmt.Errorf("module %d: %w", handle, uerr))
		}
	}
	r.handles = nil

	if err != nil {
		slog.Warn("Some modules could not be released", "reason", reason, "error", err)
	}
	return err
}

// outputPath derives a timestamped file name under the configured output
// directory, creating the directory if needed.
func (r *Recorder) outputPath() (string, error) {
	if err := os.MkdirAll(r.settings.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("recording_%s.%s", time.Now().Format("20060102_150405"), r.settings.Format)
	return filepath.Join(r.settings.OutputDir, name), nil
}
