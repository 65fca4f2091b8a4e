// Package progress reports how many bytes a compress or decompress run has
// processed, printing a line to its output at most about once per second.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Interval is the sampling period of the reporter.
const Interval = 250 * time.Millisecond

// Global variables for progress tracking
var (
	totalBytesProcessed atomic.Uint64
	totalSize           uint64
	done                chan struct{}
	stopped             chan struct{}
	progressRunning     bool
	progressMutex       sync.Mutex
	isTestMode          bool
	output              io.Writer = os.Stderr
)

// Init starts the reporter for a run of size bytes. A size of 0 means the
// total is unknown and only the running count and rate are shown.
func Init(size uint64) {
	progressMutex.Lock()
	defer progressMutex.Unlock()

	if progressRunning {
		return
	}

	totalBytesProcessed.Store(0)
	totalSize = size

	done = make(chan struct{})
	stopped = make(chan struct{})
	progressRunning = true
	go report(output, isTestMode, totalSize, done, stopped)
}

// SetTestMode makes the reporter print only fixed milestones.
func SetTestMode(enabled bool) {
	progressMutex.Lock()
	defer progressMutex.Unlock()
	isTestMode = enabled
}

// SetOutput redirects reports, os.Stderr by default. It takes effect at the
// next Init.
func SetOutput(w io.Writer) {
	progressMutex.Lock()
	defer progressMutex.Unlock()
	if w == nil {
		w = io.Discard
	}
	output = w
}

// Stop stops the reporter and waits for its final line.
func Stop() {
	progressMutex.Lock()
	defer progressMutex.Unlock()

	if progressRunning {
		close(done)
		<-stopped
		progressRunning = false
	}
}

// Running reports whether the reporter is active.
func Running() bool {
	progressMutex.Lock()
	defer progressMutex.Unlock()
	return progressRunning
}

// AddBytes adds processed bytes to the counter
func AddBytes(n uint64) {
	if n > 0 {
		totalBytesProcessed.Add(n)
	}
}

// Processed returns the bytes counted since the last Init.
func Processed() uint64 {
	return totalBytesProcessed.Load()
}

// formatRate returns a human-readable rate string
func formatRate(bytesPerSec uint64) string {
	return humanize.IBytes(bytesPerSec) + "/s"
}

// formatETA renders the remaining time of a run.
func formatETA(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0f seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1f minutes", seconds/60)
	default:
		return fmt.Sprintf("%.1f hours", seconds/3600)
	}
}

// percentage of size processed so far, or 0 when size is unknown.
func percentage(current, size uint64) float64 {
	if size == 0 {
		return 0
	}
	return float64(current) / float64(size) * 100
}

// report prints progress periodically until done is closed.
func report(out io.Writer, testMode bool, size uint64, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(Interval)
	defer ticker.Stop()
	var prevBytes uint64
	var prevPercentage float64
	startTime := time.Now()
	lastOutputTime := time.Now()

	if testMode {
		fmt.Fprintf(out, "[TEST] Progress tracking initialized\n")
	}

	for {
		select {
		case <-ticker.C:
			currentBytes := totalBytesProcessed.Load()
			rate := (currentBytes - prevBytes) * uint64(time.Second/Interval)
			prevBytes = currentBytes
			currentPercentage := percentage(currentBytes, size)

			if testMode {
				// Only milestones, so test output stays stable
				for _, milestone := range []float64{100, 75, 50, 25} {
					if currentPercentage >= milestone && prevPercentage < milestone {
						fmt.Fprintf(out, "[TEST] Processing at %.0f%%\n", milestone)
						break
					}
				}
			} else if time.Since(lastOutputTime) >= time.Second || currentPercentage-prevPercentage >= 10 {
				lastOutputTime = time.Now()
				if size > 0 {
					eta := "calculating..."
					if rate > 0 && size > currentBytes {
						eta = formatETA(float64(size-currentBytes) / float64(rate))
					}
					fmt.Fprintf(out, "Processed %s of %s (%.1f%%) | Rate: %s | ETA: %s\n",
						humanize.IBytes(currentBytes), humanize.IBytes(size),
						currentPercentage, formatRate(rate), eta)
				} else {
					fmt.Fprintf(out, "Processed %s | Rate: %s\n",
						humanize.IBytes(currentBytes), formatRate(rate))
				}
			}
			prevPercentage = currentPercentage

		case <-done:
			if !testMode {
				totalTime := time.Since(startTime).Seconds()
				processed := totalBytesProcessed.Load()
				avgRate := uint64(float64(processed) / max(totalTime, 0.001))
				fmt.Fprintf(out, "Completed processing %s in %.1f seconds (avg rate: %s)\n",
					humanize.IBytes(processed), totalTime, formatRate(avgRate))
			}
			return
		}
	}
}

// Writer is a writer that tracks bytes written for progress reporting
type Writer struct {
	W io.Writer
}

// Write implements io.Writer and tracks bytes written
func (pw *Writer) Write(p []byte) (n int, err error) {
	n, err = pw.W.Write(p)
	if n > 0 {
		AddBytes(uint64(n))
	}
	return
}
