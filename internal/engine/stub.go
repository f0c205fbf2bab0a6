package engine

import "fmt"

// StubToggleInterval is the number of frames between stub detections.
// At 512 samples per frame and 16 kHz, 50 frames = 1.6 seconds.
const StubToggleInterval = 50

func init() {
	Register("stub", false, func(opts Options) (Engine, error) {
		return NewStatic("stub", NewStubDetector, opts.Profiles), nil
	})
}

// StubDetector reports a detection every StubToggleInterval frames. It
// does not look at the audio and records the setup calls it receives.
type StubDetector struct {
	counter int
	closed  bool

	sensitivity string
	gain        float32
	frontend    bool
}

// NewStubDetector ignores both paths and returns a fresh StubDetector.
func NewStubDetector(_, _ string) (Detector, error) {
	return &StubDetector{}, nil
}

func (d *StubDetector) SetSensitivity(sensitivity string) error {
	d.sensitivity = sensitivity
	return nil
}

func (d *StubDetector) SetAudioGain(gain float32) { d.gain = gain }

func (d *StubDetector) ApplyFrontend(enable bool) { d.frontend = enable }

// RunDetection returns 1 on every StubToggleInterval-th call and 0
// otherwise.
func (d *StubDetector) RunDetection(pcm []int16) (int, error) {
	if d.closed {
		return -1, fmt.Errorf("stub: detector closed")
	}
	if len(pcm) == 0 {
		return -1, fmt.Errorf("stub: empty frame")
	}
	d.counter++
	if d.counter >= StubToggleInterval {
		d.counter = 0
		return 1, nil
	}
	return 0, nil
}

// Settings returns the sensitivity, gain and frontend values last applied.
func (d *StubDetector) Settings() (sensitivity string, gain float32, frontend bool) {
	return d.sensitivity, d.gain, d.frontend
}

// Close marks the detector unusable. It is safe to call multiple times.
func (d *StubDetector) Close() error {
	d.closed = true
	return nil
}
