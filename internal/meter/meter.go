// Package meter renders a live text level meter for a capture endpoint.
// It is UI feedback only and never touches the recording path.
package meter

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jfreymuth/pulse"
	"gonum.org/v1/gonum/floats"
)

const (
	barWidth = 60

	// The monitored endpoint only exists once the audio graph is built, so
	// the worker polls for it before opening the stream.
	sourceWaitTimeout  = 10 * time.Second
	sourceWaitInterval = 200 * time.Millisecond
)

// Monitor samples a capture endpoint on a background goroutine and prints a
// level bar. It signals its owner nothing; the owner stops it via Stop,
// which joins the worker before returning.
type Monitor struct {
	device string
	out    io.Writer

	stop chan struct{}
	done chan struct{}
}

// New creates a monitor for the named capture endpoint writing to out.
func New(device string, out io.Writer) *Monitor {
	return &Monitor{device: device, out: out}
}

// Start launches the background worker. Monitor failures are logged, never
// propagated; a recording works fine without its meter.
func (m *Monitor) Start() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run()
}

// Stop signals the worker and waits for it to finish.
func (m *Monitor) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
}

func (m *Monitor) run() {
	defer close(m.done)

	client, err := pulse.NewClient(pulse.ClientApplicationName("audio-recorder-meter"))
	if err != nil {
		slog.Warn("Level meter unavailable", "error", err)
		return
	}
	defer client.Close()

	source, err := m.waitForSource(client)
	if err != nil {
		slog.Warn("Level meter could not find capture endpoint", "device", m.device, "error", err)
		return
	}

	stream, err := client.NewRecord(pulse.Float32Writer(m.consume), pulse.RecordSource(source))
	if err != nil {
		slog.Warn("Level meter could not open stream", "device", m.device, "error", err)
		return
	}

	stream.Start()
	<-m.stop
	stream.Stop()
}

// waitForSource polls until the monitored endpoint appears or the monitor
// is stopped.
func (m *Monitor) waitForSource(client *pulse.Client) (*pulse.Source, error) {
	deadline := time.Now().Add(sourceWaitTimeout)
	for {
		source, err := client.SourceByID(m.device)
		if err == nil {
			return source, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for source %s: %w", m.device, err)
		}
		select {
		case <-m.stop:
			return nil, fmt.Errorf("monitor stopped while waiting for source %s", m.device)
		case <-time.After(sourceWaitInterval):
		}
	}
}

// consume receives each sample block from the stream and repaints the bar.
func (m *Monitor) consume(samples []float32) (int, error) {
	fmt.Fprintf(m.out, "\rAudio Level: %s", renderBar(blockLevel(samples), barWidth))
	return len(samples), nil
}

// blockLevel reduces a sample block to a meter deflection, the Euclidean
// norm of the block scaled to roughly fill the bar at speech levels.
func blockLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	block := make([]float64, len(samples))
	for i, s := range samples {
		block[i] = float64(s)
	}
	return floats.Norm(block, 2) * 10
}

// renderBar draws a fixed-width bar so successive repaints fully overwrite
// each other.
func renderBar(level float64, width int) string {
	n := int(math.Round(level))
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("|", n) + strings.Repeat(" ", width-n)
}
