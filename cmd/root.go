package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tuliorib/LinuxAudioRecorder/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfg          *config.Settings
	cfgFile      string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "audio-recorder",
	Short: "Record microphone and system audio as one stream",
	Long: `audio-recorder configures the PulseAudio sound server to merge the
default microphone and the system output into a single virtual capture
device and records that device to a file.

Run 'audio-recorder record' for a one-shot recording with a live level
meter, or 'audio-recorder serve' to control recording over D-Bus (for
example from a desktop shell extension).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/audio-recorder/config.json)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging configures slog based on the verbose level. Log lines go to
// stderr and are appended to the recorder log file under the user data
// directory.
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	out := io.Writer(os.Stderr)
	if logFile, err := openLogFile(); err == nil {
		out = io.MultiWriter(os.Stderr, logFile)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}

// openLogFile opens the append-only log at
// ~/.local/share/audio-recorder/recorder.log, creating the directory if
// needed.
func openLogFile() (*os.File, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	logDir := filepath.Join(dataHome, "audio-recorder")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	return os.OpenFile(filepath.Join(logDir, "recorder.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
