package engine

import (
	"fmt"

	"github.com/nupi-ai/wakebench/internal/engine/profile"
)

// StaticFrameLength is the frame size fed to object-API detectors. Those
// detectors do not expose their native frame size, so it is fixed here.
const StaticFrameLength = 512

// DefaultAudioGain is applied to every object-API detector.
const DefaultAudioGain = 1.0

// Detector is the object API of a statically linked detector: construct,
// configure with setters, then run detection frame by frame.
type Detector interface {
	SetSensitivity(sensitivity string) error
	SetAudioGain(gain float32)
	ApplyFrontend(enable bool)
	// RunDetection returns a positive keyword index on detection, 0 when
	// nothing was detected and a negative value on engine failure.
	RunDetection(pcm []int16) (int, error)
	Close() error
}

// DetectorFactory constructs a detector from its resource and model paths.
type DetectorFactory func(resourcePath, modelPath string) (Detector, error)

// Static adapts a Detector to Engine. Initialize runs the fixed setup
// sequence: sensitivity per the keyword profile, unity gain, frontend on.
type Static struct {
	name        string
	newDetector DetectorFactory
	profiles    *profile.Set
}

// NewStatic returns an Engine over detectors built by newDetector. A nil
// profile set behaves like an empty one.
func NewStatic(name string, newDetector DetectorFactory, profiles *profile.Set) *Static {
	return &Static{name: name, newDetector: newDetector, profiles: profiles}
}

// Name returns the engine name used in errors and logs.
func (s *Static) Name() string { return s.name }

func (s *Static) Initialize(cfg Config) (Handle, error) {
	det, err := s.newDetector(cfg.ResourcePath, cfg.ModelPath)
	if err != nil {
		return nil, &Error{Kind: KindInit, Engine: s.name, Op: "initialize", Path: cfg.ModelPath, Err: err}
	}
	if det == nil {
		return nil, &Error{Kind: KindInit, Engine: s.name, Op: "initialize", Err: fmt.Errorf("factory returned nil detector")}
	}

	sensitivity := s.profiles.Lookup(cfg.Keyword).Sensitivity(cfg.Sensitivity)
	if err := det.SetSensitivity(sensitivity); err != nil {
		det.Close()
		return nil, &Error{Kind: KindInit, Engine: s.name, Op: "set sensitivity", Err: err}
	}
	det.SetAudioGain(DefaultAudioGain)
	det.ApplyFrontend(true)
	return det, nil
}

func (s *Static) FrameLength() int { return StaticFrameLength }

func (s *Static) ProcessFrame(h Handle, pcm []int16) (bool, error) {
	det, ok := h.(Detector)
	if !ok {
		return false, &Error{Kind: KindProcess, Engine: s.name, Op: "process", Err: fmt.Errorf("handle %T is not a detector", h)}
	}
	result, err := det.RunDetection(pcm)
	if err != nil {
		return false, &Error{Kind: KindProcess, Engine: s.name, Op: "process", Err: err}
	}
	if result < 0 {
		return false, &Error{Kind: KindProcess, Engine: s.name, Op: "process", Status: result}
	}
	return result > 0, nil
}

func (s *Static) Release(h Handle) error {
	det, ok := h.(Detector)
	if !ok {
		return &Error{Kind: KindProcess, Engine: s.name, Op: "release", Err: fmt.Errorf("handle %T is not a detector", h)}
	}
	return det.Close()
}
