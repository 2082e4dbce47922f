// Package pulse drives the PulseAudio sound server's module graph through
// the pactl command line tool.
package pulse

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// ModuleHandle identifies a loaded sound-server module. It is required to
// unload the module later.
type ModuleHandle uint32

// Client is the sound-server control surface used by the recorder. A fake
// implementation backs the recorder tests.
type Client interface {
	// LoadModule loads a module with the given argument string and returns
	// its handle.
	LoadModule(name, args string) (ModuleHandle, error)

	// UnloadModule removes a previously loaded module.
	UnloadModule(handle ModuleHandle) error

	// DefaultSink returns the name of the current default output device.
	DefaultSink() (string, error)

	// DefaultSource returns the name of the current default input device.
	DefaultSource() (string, error)

	ListSinks() ([]string, error)
	ListSources() ([]string, error)
}

// PactlClient implements Client by shelling out to pactl.
type PactlClient struct{}

// NewPactlClient creates a pactl-backed client.
func NewPactlClient() *PactlClient {
	return &PactlClient{}
}

// LoadModule loads a sound-server module and parses its handle from the
// pactl output.
func (c *PactlClient) LoadModule(name, args string) (ModuleHandle, error) {
	cmdArgs := append([]string{"load-module", name}, strings.Fields(args)...)
	output, err := exec.Command("pactl", cmdArgs...).Output()
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", name, err)
	}

	handle, err := parseHandle(string(output))
	if err != nil {
		return 0, fmt.Errorf("unexpected output loading %s: %w", name, err)
	}

	slog.Debug("Loaded sound-server module", "module", name, "handle", handle)
	return handle, nil
}

// UnloadModule removes a module by handle.
func (c *PactlClient) UnloadModule(handle ModuleHandle) error {
	output, err := exec.Command("pactl", "unload-module", strconv.FormatUint(uint64(handle), 10)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to unload module %d: %w (output: %s)", handle, err, strings.TrimSpace(string(output)))
	}

	slog.Debug("Unloaded sound-server module", "handle", handle)
	return nil
}

// DefaultSink returns the current default playback device name.
func (c *PactlClient) DefaultSink() (string, error) {
	output, err := exec.Command("pactl", "get-default-sink").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get default sink: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// DefaultSource returns the current default capture device name.
func (c *PactlClient) DefaultSource() (string, error) {
	output, err := exec.Command("pactl", "get-default-source").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get default source: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ListSinks returns the names of all playback devices.
func (c *PactlClient) ListSinks() ([]string, error) {
	output, err := exec.Command("pactl", "list", "short", "sinks").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list sinks: %w", err)
	}
	return parseShortList(string(output)), nil
}

// ListSources returns the names of all capture devices, monitors included.
func (c *PactlClient) ListSources() ([]string, error) {
	output, err := exec.Command("pactl", "list", "short", "sources").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return parseShortList(string(output)), nil
}

func parseHandle(output string) (ModuleHandle, error) {
	trimmed := strings.TrimSpace(output)
	id, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not a module handle: %q", trimmed)
	}
	return ModuleHandle(id), nil
}

// parseShortList extracts device names from `pactl list short` output,
// which is one tab-separated entry per line with the name in the second
// column.
func parseShortList(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		names = append(names, fields[1])
	}
	return names
}
