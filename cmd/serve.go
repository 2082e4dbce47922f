package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tuliorib/LinuxAudioRecorder/internal/config"
	"github.com/tuliorib/LinuxAudioRecorder/internal/ipc"
	"github.com/tuliorib/LinuxAudioRecorder/internal/pulse"
	"github.com/tuliorib/LinuxAudioRecorder/internal/recorder"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the D-Bus recording service",
	Long: `Expose recording control on the D-Bus session bus under the name
` + ipc.BusName + `, so desktop components (for example a GNOME Shell
extension) can start and stop recordings.

The service keeps running until interrupted; an active recording is torn
down cleanly on exit. Config file edits apply to the next recording
without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := recorder.New(cfg, pulse.NewPactlClient())

		svc, err := ipc.NewService(rec)
		if err != nil {
			return fmt.Errorf("failed to start D-Bus service: %w", err)
		}
		defer svc.Close()

		config.Watch(cfgFile, rec.UpdateSettings)

		slog.Info("Audio recorder service started", "bus", ipc.BusName)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		slog.Info("Received shutdown signal")
		if err := rec.Close(); err != nil {
			slog.Warn("Cleanup finished with errors", "error", err)
		}
		return nil
	},
}
