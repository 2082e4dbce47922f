package recorder

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/tuliorib/LinuxAudioRecorder/internal/config"
	"github.com/tuliorib/LinuxAudioRecorder/internal/pulse"
)

type loadCall struct {
	module string
	args   string
	handle pulse.ModuleHandle
}

// fakeClient records every load and unload so tests can verify the module
// lifecycle without a sound server.
type fakeClient struct {
	loads   []loadCall
	unloads []pulse.ModuleHandle

	failLoadAt int   // 1-based index of the load call that fails, 0 = never
	unloadErr  error // returned by every UnloadModule call
	nextHandle pulse.ModuleHandle
}

func (f *fakeClient) LoadModule(name, args string) (pulse.ModuleHandle, error) {
	if f.failLoadAt > 0 && len(f.loads)+1 == f.failLoadAt {
		return 0, fmt.Errorf("module initialization failed")
	}
	f.nextHandle++
	f.loads = append(f.loads, loadCall{module: name, args: args, handle: f.nextHandle})
	return f.nextHandle, nil
}

func (f *fakeClient) UnloadModule(handle pulse.ModuleHandle) error {
	f.unloads = append(f.unloads, handle)
	return f.unloadErr
}

func (f *fakeClient) DefaultSink() (string, error)   { return "alsa_output.test", nil }
func (f *fakeClient) DefaultSource() (string, error) { return "alsa_input.test", nil }
func (f *fakeClient) ListSinks() ([]string, error)   { return []string{"alsa_output.test"}, nil }
func (f *fakeClient) ListSources() ([]string, error) { return []string{"alsa_input.test"}, nil }

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Default()
	s.OutputDir = t.TempDir()
	return &s
}

func TestStartStop(t *testing.T) {
	client := &fakeClient{}
	rec := New(testSettings(t), client)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !rec.IsRecording() {
		t.Error("Expected IsRecording true after Start")
	}
	if len(client.loads) != 6 {
		t.Errorf("Expected 6 module loads (graph + pipe source), got %d", len(client.loads))
	}

	pattern := regexp.MustCompile(`^recording_\d{8}_\d{6}\.wav$`)
	if name := filepath.Base(rec.CurrentFile()); !pattern.MatchString(name) {
		t.Errorf("Output file %q does not match the recording name pattern", name)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if rec.IsRecording() {
		t.Error("Expected IsRecording false after Stop")
	}
	if rec.CurrentFile() != "" {
		t.Errorf("Expected empty current file after Stop, got %q", rec.CurrentFile())
	}
	if len(client.unloads) != 6 {
		t.Errorf("Expected all 6 handles released, got %d", len(client.unloads))
	}
}

func TestStartTwice_SecondIsNoOp(t *testing.T) {
	client := &fakeClient{}
	rec := New(testSettings(t), client)

	if err := rec.Start(); err != nil {
		t.Fatalf("First Start failed: %v", err)
	}
	firstFile := rec.CurrentFile()

	if err := rec.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("Expected ErrAlreadyRecording, got %v", err)
	}
	if len(client.loads) != 6 {
		t.Errorf("Second Start must not load modules, got %d loads", len(client.loads))
	}
	if rec.CurrentFile() != firstFile {
		t.Errorf("Second Start must not change the output file")
	}
}

func TestStopWhenIdle_NoReleaseCalls(t *testing.T) {
	client := &fakeClient{}
	rec := New(testSettings(t), client)

	if err := rec.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Expected ErrNotRecording, got %v", err)
	}
	if len(client.unloads) != 0 {
		t.Errorf("Stop when idle must not release modules, got %d releases", len(client.unloads))
	}
}

func TestSetupFailure_UnwindsPreviousHandles(t *testing.T) {
	for failAt := 1; failAt <= 6; failAt++ {
		t.Run(fmt.Sprintf("fail at load %d", failAt), func(t *testing.T) {
			client := &fakeClient{failLoadAt: failAt}
			rec := New(testSettings(t), client)

			if err := rec.Start(); err == nil {
				t.Fatal("Expected Start to fail")
			}
			if rec.IsRecording() {
				t.Error("Expected not recording after failed Start")
			}

			if len(client.unloads) != failAt-1 {
				t.Fatalf("Expected %d handles released, got %d", failAt-1, len(client.unloads))
			}
			seen := make(map[pulse.ModuleHandle]int)
			for _, h := range client.unloads {
				seen[h]++
			}
			for i, call := range client.loads {
				if i >= failAt-1 {
					break
				}
				if seen[call.handle] != 1 {
					t.Errorf("Handle %d released %d times, want exactly once", call.handle, seen[call.handle])
				}
			}
		})
	}
}

func TestStop_SwallowsReleaseErrors(t *testing.T) {
	client := &fakeClient{unloadErr: fmt.Errorf("module is busy")}
	rec := New(testSettings(t), client)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop must succeed despite release errors, got: %v", err)
	}
	if len(client.unloads) != 6 {
		t.Errorf("All 6 releases must be attempted, got %d", len(client.unloads))
	}
	if rec.IsRecording() {
		t.Error("Expected not recording after Stop")
	}

	// A second stop cycle must not touch the already cleared handles.
	if err := rec.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("Expected ErrNotRecording, got %v", err)
	}
	if len(client.unloads) != 6 {
		t.Errorf("Cleared handles must not be released again, got %d releases", len(client.unloads))
	}
}

func TestClose_ReleasesEverythingOnce(t *testing.T) {
	client := &fakeClient{}
	rec := New(testSettings(t), client)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Shutdown path: signal handlers call Close instead of Stop.
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(client.unloads) != 6 {
		t.Errorf("Expected 6 releases on Close, got %d", len(client.unloads))
	}
	if rec.IsRecording() {
		t.Error("Expected not recording after Close")
	}

	// Close is idempotent.
	if err := rec.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
	if len(client.unloads) != 6 {
		t.Errorf("Second Close must not release again, got %d releases", len(client.unloads))
	}
}

func TestGraphModuleArguments(t *testing.T) {
	settings := testSettings(t)
	settings.SampleRate = 48000
	settings.MicVolume = 1.5
	settings.SystemVolume = 1.2

	client := &fakeClient{}
	rec := New(settings, client)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	wantModules := []string{
		"module-combine-sink",
		"module-loopback",
		"module-null-sink",
		"module-loopback",
		"module-loopback",
		"module-pipe-source",
	}
	if len(client.loads) != len(wantModules) {
		t.Fatalf("Expected %d loads, got %d", len(wantModules), len(client.loads))
	}
	for i, want := range wantModules {
		if client.loads[i].module != want {
			t.Errorf("Load %d: expected %s, got %s", i+1, want, client.loads[i].module)
		}
	}

	combine := client.loads[0].args
	if !strings.Contains(combine, "slaves=alsa_output.test") {
		t.Errorf("Combine sink must slave the default sink, got: %s", combine)
	}
	if !strings.Contains(combine, "rate=48000") || !strings.Contains(combine, "channels=2") {
		t.Errorf("Combine sink must carry rate and channels, got: %s", combine)
	}

	// 1.2 * 65536 = 78643 raw
	if !strings.Contains(client.loads[1].args, "sink_volume=78643") {
		t.Errorf("System loopback volume not converted to raw units: %s", client.loads[1].args)
	}
	// 1.5 * 65536 = 98304 raw
	micLoop := client.loads[3].args
	if !strings.Contains(micLoop, "source=alsa_input.test") || !strings.Contains(micLoop, "sink_volume=98304") {
		t.Errorf("Mic loopback must route the default source with raw volume: %s", micLoop)
	}

	monitorLoop := client.loads[4].args
	if !strings.Contains(monitorLoop, "source=combined_output.monitor") {
		t.Errorf("Monitor loopback must tap the combined sink monitor: %s", monitorLoop)
	}

	pipe := client.loads[5].args
	if !strings.Contains(pipe, "source="+MonitorEndpoint) {
		t.Errorf("Pipe source must read from %s, got: %s", MonitorEndpoint, pipe)
	}
	if !strings.Contains(pipe, "rate=48000") {
		t.Errorf("Pipe source must carry the sample rate, got: %s", pipe)
	}
}

func TestUpdateSettings_AppliesToNextRecording(t *testing.T) {
	client := &fakeClient{}
	rec := New(testSettings(t), client)

	updated := config.Default()
	updated.OutputDir = t.TempDir()
	updated.SystemVolume = 2.0
	rec.UpdateSettings(&updated)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// 2.0 * 65536 = 131072 raw
	if !strings.Contains(client.loads[1].args, "sink_volume=131072") {
		t.Errorf("Updated system volume not applied: %s", client.loads[1].args)
	}
	if !strings.HasPrefix(rec.CurrentFile(), updated.OutputDir) {
		t.Errorf("Updated output dir not applied: %s", rec.CurrentFile())
	}
}
