package main

import "github.com/tuliorib/LinuxAudioRecorder/cmd"

func main() {
	cmd.Execute()
}
