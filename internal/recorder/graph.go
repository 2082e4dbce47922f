package recorder

import (
	"fmt"
	"log/slog"

	"github.com/tuliorib/LinuxAudioRecorder/internal/pulse"
)

const (
	// combinedSink duplicates the stream going to the real output device so
	// it can be tapped without silencing the speakers.
	combinedSink = "combined_output"

	// recordSink is the null sink that collects microphone and system audio.
	recordSink = "record_sink"

	// MonitorEndpoint is the capture endpoint exposing the merged stream.
	MonitorEndpoint = recordSink + ".monitor"
)

// setupGraph loads the module chain that merges the default source and the
// default sink's output into recordSink and returns the capture endpoint.
// If any step fails, every handle already obtained is released before the
// error is returned. Callers hold the mutex.
func (r *Recorder) setupGraph() (string, error) {
	sink, err := r.client.DefaultSink()
	if err != nil {
		return "", fmt.Errorf("failed to query default sink: %w", err)
	}
	source, err := r.client.DefaultSource()
	if err != nil {
		return "", fmt.Errorf("failed to query default source: %w", err)
	}
	slog.Debug("Building audio graph", "sink", sink, "source", source)

	micVolume := pulse.RawVolume(r.settings.MicVolume)
	systemVolume := pulse.RawVolume(r.settings.SystemVolume)

	steps := []struct {
		module string
		args   string
	}{
		{"module-combine-sink", fmt.Sprintf("sink_name=%s slaves=%s rate=%d channels=%d",
			combinedSink, sink, r.settings.SampleRate, r.settings.Channels)},
		{"module-loopback", fmt.Sprintf("sink=%s source_dont_move=true latency_msec=1 sink_volume=%d",
			combinedSink, systemVolume)},
		{"module-null-sink", fmt.Sprintf("sink_name=%s rate=%d channels=%d sink_properties=device.description=AudioRecorder",
			recordSink, r.settings.SampleRate, r.settings.Channels)},
		{"module-loopback", fmt.Sprintf("source=%s sink=%s sink_volume=%d",
			source, recordSink, micVolume)},
		{"module-loopback", fmt.Sprintf("source=%s.monitor sink=%s sink_volume=%d",
			combinedSink, recordSink, systemVolume)},
	}

	for _, step := range steps {
		handle, err := r.client.LoadModule(step.module, step.args)
		if err != nil {
			r.releaseAll("setup abort")
			return "", fmt.Errorf("failed to load %s: %w", step.module, err)
		}
		r.handles = append(r.handles, handle)
	}

	slog.Debug("Audio graph ready", "endpoint", MonitorEndpoint, "modules", len(r.handles))
	return MonitorEndpoint, nil
}
