package cmd

import (
	"fmt"

	"github.com/tuliorib/LinuxAudioRecorder/internal/ipc"

	"github.com/spf13/cobra"
)

// The start/stop/status/current commands are thin D-Bus clients for a
// recorder service started with 'serve'.

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Ask the running service to start recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()

		started, err := client.StartRecording()
		if err != nil {
			return fmt.Errorf("is the service running? %w", err)
		}
		if !started {
			return fmt.Errorf("service refused to start recording (already recording?)")
		}

		file, _ := client.CurrentRecording()
		fmt.Printf("Recording started: %s\n", file)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask the running service to stop recording",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()

		stopped, err := client.StopRecording()
		if err != nil {
			return fmt.Errorf("is the service running? %w", err)
		}
		if !stopped {
			return fmt.Errorf("nothing was recording")
		}

		fmt.Println("Recording stopped")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running service's recording state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()

		recording, err := client.IsRecording()
		if err != nil {
			return fmt.Errorf("is the service running? %w", err)
		}

		if !recording {
			fmt.Println("idle")
			return nil
		}

		file, err := client.CurrentRecording()
		if err != nil {
			return err
		}
		fmt.Printf("recording: %s\n", file)
		return nil
	},
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the path of the recording in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()

		file, err := client.CurrentRecording()
		if err != nil {
			return fmt.Errorf("is the service running? %w", err)
		}
		if file == "" {
			return fmt.Errorf("no recording in progress")
		}

		fmt.Println(file)
		return nil
	},
}
