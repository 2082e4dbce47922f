package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuliorib/LinuxAudioRecorder/internal/meter"
	"github.com/tuliorib/LinuxAudioRecorder/internal/pulse"
	"github.com/tuliorib/LinuxAudioRecorder/internal/recorder"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record microphone and system audio for a fixed duration",
	Long: `Record the default microphone and the system output into a single file
for the requested duration, showing a live audio level meter.

The virtual devices created for the recording are removed again when the
recording finishes, fails, or is interrupted with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := *cfg
		if cmd.Flags().Changed("output-dir") {
			settings.OutputDir, _ = cmd.Flags().GetString("output-dir")
		}
		if cmd.Flags().Changed("sample-rate") {
			settings.SampleRate, _ = cmd.Flags().GetInt("sample-rate")
		}
		if cmd.Flags().Changed("bit-depth") {
			settings.BitDepth, _ = cmd.Flags().GetString("bit-depth")
		}
		if cmd.Flags().Changed("mic-volume") {
			settings.MicVolume, _ = cmd.Flags().GetFloat64("mic-volume")
		}
		if cmd.Flags().Changed("system-volume") {
			settings.SystemVolume, _ = cmd.Flags().GetFloat64("system-volume")
		}
		if err := settings.Validate(); err != nil {
			return err
		}

		duration, _ := cmd.Flags().GetInt("duration")
		if duration <= 0 {
			return fmt.Errorf("duration must be positive, got: %d", duration)
		}

		rec := recorder.New(&settings, pulse.NewPactlClient())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			slog.Info("Interrupt received, stopping recording")
			cancel()
		}()

		fmt.Printf("Recording for %d seconds with settings:\n", duration)
		fmt.Printf("  Sample rate:   %d Hz\n", settings.SampleRate)
		fmt.Printf("  Bit depth:     %s\n", settings.BitDepth)
		fmt.Printf("  Mic volume:    %.1fx\n", settings.MicVolume)
		fmt.Printf("  System volume: %.1fx\n", settings.SystemVolume)
		fmt.Println("\nAudio levels (press Ctrl+C to stop):")

		monitor := meter.New(recorder.MonitorEndpoint, os.Stdout)
		monitor.Start()

		outputFile, err := rec.Record(ctx, time.Duration(duration)*time.Second)

		monitor.Stop()
		fmt.Println()

		if err != nil {
			return fmt.Errorf("recording failed: %w", err)
		}

		fmt.Printf("Recording saved to %s\n", outputFile)
		return nil
	},
}

func init() {
	recordCmd.Flags().Int("duration", 10, "recording duration in seconds")
	recordCmd.Flags().StringP("output-dir", "o", "", "output directory (overrides config)")
	recordCmd.Flags().Int("sample-rate", 44100, "sample rate in Hz (44100, 48000 or 96000)")
	recordCmd.Flags().String("bit-depth", "16", `bit depth: "16", "24" or "32float"`)
	recordCmd.Flags().Float64("mic-volume", 0, "microphone volume multiplier (overrides config)")
	recordCmd.Flags().Float64("system-volume", 0, "system audio volume multiplier (overrides config)")
}
