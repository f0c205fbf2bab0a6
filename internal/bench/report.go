package bench

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoFramesProcessed indicates there was no full frame of audio to
// measure, so no real-time factor exists.
var ErrNoFramesProcessed = errors.New("bench: no frames processed")

// ComputeRTF divides processing time by audio time. Both are in
// microseconds.
func ComputeRTF(processingUsec, audioUsec float64) (float64, error) {
	if audioUsec <= 0 {
		return 0, ErrNoFramesProcessed
	}
	if processingUsec < 0 || math.IsNaN(processingUsec) || math.IsInf(processingUsec, 0) {
		return 0, fmt.Errorf("bench: invalid processing time %v usec", processingUsec)
	}
	return processingUsec / audioUsec, nil
}

// Report is the outcome of one benchmark run.
type Report struct {
	RTF            float64
	Frames         int64
	Detections     int64
	FrameLength    int
	SampleRate     int
	ProcessingTime time.Duration
	AudioTime      time.Duration
}

// Line renders the single result line printed on success.
func (r Report) Line() string {
	return fmt.Sprintf("real time factor is: %f", r.RTF)
}
