package bench

import "time"

// Accumulator sums engine processing time and audio progress. Processing
// time reflects only measured engine calls; audio time is derived from the
// number of samples fed, independent of what the engine did with them.
type Accumulator struct {
	now        func() time.Time
	sampleRate int

	processing time.Duration
	samples    int64
	frames     int64
}

// NewAccumulator returns an Accumulator for audio at sampleRate, timed with
// the monotonic wall clock.
func NewAccumulator(sampleRate int) *Accumulator {
	return newAccumulator(sampleRate, time.Now)
}

func newAccumulator(sampleRate int, now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{now: now, sampleRate: sampleRate}
}

// Measure times fn and, when it succeeds, adds the elapsed time to the
// processing total. The clock is read immediately around fn and nothing
// else runs in between.
func (a *Accumulator) Measure(fn func() (bool, error)) (bool, time.Duration, error) {
	start := a.now()
	detected, err := fn()
	elapsed := a.now().Sub(start)

	if err != nil {
		return false, elapsed, err
	}
	a.processing += elapsed
	return detected, elapsed, nil
}

// AddFrame records one successfully processed frame of frameLength samples.
func (a *Accumulator) AddFrame(frameLength int) {
	a.samples += int64(frameLength)
	a.frames++
}

// Frames returns the number of frames recorded.
func (a *Accumulator) Frames() int64 { return a.frames }

// Samples returns the number of samples recorded.
func (a *Accumulator) Samples() int64 { return a.samples }

// ProcessingTime returns the summed engine time.
func (a *Accumulator) ProcessingTime() time.Duration { return a.processing }

// ProcessingUsec returns the summed engine time in microseconds.
func (a *Accumulator) ProcessingUsec() float64 {
	return float64(a.processing) / float64(time.Microsecond)
}

// AudioUsec returns the duration of the recorded audio in microseconds.
func (a *Accumulator) AudioUsec() float64 {
	if a.sampleRate <= 0 {
		return 0
	}
	return float64(a.samples) * 1e6 / float64(a.sampleRate)
}

// AudioTime returns the duration of the recorded audio.
func (a *Accumulator) AudioTime() time.Duration {
	return time.Duration(a.AudioUsec() * float64(time.Microsecond))
}
