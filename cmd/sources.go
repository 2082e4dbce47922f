package cmd

import (
	"fmt"

	"github.com/tuliorib/LinuxAudioRecorder/internal/pulse"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available audio devices",
	Long:  `List the sound server's playback and capture devices, including monitors of playback devices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := pulse.NewPactlClient()

		sinks, err := client.ListSinks()
		if err != nil {
			return fmt.Errorf("failed to list sinks: %w", err)
		}
		sources, err := client.ListSources()
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}

		defaultSink, _ := client.DefaultSink()
		defaultSource, _ := client.DefaultSource()

		fmt.Printf("🔊 PLAYBACK DEVICES (%d found):\n", len(sinks))
		for i, sink := range sinks {
			marker := ""
			if sink == defaultSink {
				marker = "  (default)"
			}
			fmt.Printf("  %d. %s%s\n", i+1, sink, marker)
		}

		fmt.Printf("\n🎤 CAPTURE DEVICES (%d found):\n", len(sources))
		for i, source := range sources {
			marker := ""
			if source == defaultSource {
				marker = "  (default)"
			}
			fmt.Printf("  %d. %s%s\n", i+1, source, marker)
		}

		fmt.Println("\n💡 Recording always merges the default capture device with the")
		fmt.Println("   default playback device's output; change the defaults in your")
		fmt.Println("   desktop sound settings to record from another device.")

		return nil
	},
}
