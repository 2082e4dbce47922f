package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tuliorib/LinuxAudioRecorder/internal/config"
)

// captureStopTimeout bounds how long we wait for parec to exit after the
// interrupt before force killing it.
const captureStopTimeout = 5 * time.Second

// formatFlags maps a bit depth setting to the parec sample format flag.
// Unrecognized values fail before any process is launched. 16 bit is the
// capture utility's default and needs no flag.
func formatFlags(bitDepth string) ([]string, error) {
	switch bitDepth {
	case "", "16":
		return nil, nil
	case "24":
		return []string{"--format=s24le"}, nil
	case "32float":
		return []string{"--format=float32le"}, nil
	default:
		return nil, fmt.Errorf("unsupported bit depth %q (valid: 16, 24, 32float)", bitDepth)
	}
}

// buildCaptureArgs assembles the parec invocation for one capture.
func buildCaptureArgs(endpoint, outputFile string, settings *config.Settings) ([]string, error) {
	flags, err := formatFlags(settings.BitDepth)
	if err != nil {
		return nil, err
	}

	args := []string{
		"--device=" + endpoint,
		fmt.Sprintf("--channels=%d", settings.Channels),
		fmt.Sprintf("--rate=%d", settings.SampleRate),
		"--file-format=" + settings.Format,
	}
	args = append(args, flags...)
	args = append(args, outputFile)
	return args, nil
}

// runCapture records from endpoint into outputFile for the given duration.
// The duration is enforced here: the capture process is interrupted once it
// elapses. An early nonzero exit is a capture failure.
func runCapture(ctx context.Context, endpoint, outputFile string, settings *config.Settings, duration time.Duration) error {
	args, err := buildCaptureArgs(endpoint, outputFile, settings)
	if err != nil {
		return err
	}

	var stderr strings.Builder
	cmd := exec.Command("parec", args...)
	cmd.Stderr = &stderr

	slog.Debug("Starting capture process", "command", "parec "+strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start capture process: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("capture failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("capture process exited before the requested duration")

	case <-ctx.Done():
		stopCapture(cmd, done)
		return ctx.Err()

	case <-timer.C:
		return stopCapture(cmd, done)
	}
}

// stopCapture interrupts the capture process so it can finalize the file
// header, waits with a timeout and falls back to a hard kill.
func stopCapture(cmd *exec.Cmd, done chan error) error {
	slog.Debug("Stopping capture process")
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		slog.Debug("Failed to interrupt capture process, killing it", "error", err)
		cmd.Process.Kill()
	}

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		// Exiting on the signal we sent is a normal stop.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ProcessState != nil {
			state := exitErr.ProcessState.String()
			if state == "signal: interrupt" || state == "signal: killed" {
				return nil
			}
		}
		return fmt.Errorf("capture process failed on stop: %w", err)

	case <-time.After(captureStopTimeout):
		slog.Warn("Capture process did not exit in time, force killing")
		cmd.Process.Kill()
		<-done
		return nil
	}
}
