//go:build silero

package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// sileroWindowSize is the number of float32 samples per inference call.
	// Silero VAD v5 at 16 kHz requires exactly 512 samples (32 ms).
	sileroWindowSize = StaticFrameLength

	// sileroStateSize is the hidden state dimension per layer.
	// Silero VAD v5 uses a combined state tensor of shape [2, 1, 128].
	sileroStateSize = 128

	sileroSampleRate = 16000
)

// ortInitOnce ensures ONNX Runtime environment is initialized exactly once.
// The first detector's library path wins.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func init() {
	Register("silero", true, func(opts Options) (Engine, error) {
		return NewStatic("silero", NewSileroDetector, opts.Profiles), nil
	})
}

// SileroDetector runs Silero VAD v5 through ONNX Runtime and reports a
// detection when the speech probability reaches the sensitivity.
type SileroDetector struct {
	session *ort.AdvancedSession

	// Input tensors (reused between calls).
	inputTensor *ort.Tensor[float32] // [1, 512]
	stateTensor *ort.Tensor[float32] // [2, 1, 128]
	srTensor    *ort.Tensor[int64]   // scalar

	// Output tensors (reused between calls).
	outputTensor *ort.Tensor[float32] // [1, 1]
	stateNTensor *ort.Tensor[float32] // [2, 1, 128]

	threshold float32
	gain      float32
	frontend  bool
}

// NewSileroDetector loads the ONNX model at modelPath. resourcePath names
// the ONNX Runtime shared library; when empty it is searched for.
func NewSileroDetector(resourcePath, modelPath string) (Detector, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("silero: model path is empty")
	}

	ortInitOnce.Do(func() {
		libPath := resourcePath
		if libPath == "" {
			var err error
			libPath, err = resolveORTLibPath()
			if err != nil {
				ortInitErr = fmt.Errorf("resolve ORT lib: %w", err)
				return
			}
		}
		ort.SetSharedLibraryPath(libPath)
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("silero: %w", ortInitErr)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, sileroWindowSize))
	if err != nil {
		return nil, fmt.Errorf("silero: create input tensor: %w", err)
	}
	stateTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, sileroStateSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("silero: create state tensor: %w", err)
	}
	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{sileroSampleRate})
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		return nil, fmt.Errorf("silero: create sr tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		return nil, fmt.Errorf("silero: create output tensor: %w", err)
	}
	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, sileroStateSize))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("silero: create stateN tensor: %w", err)
	}

	// onnxruntime_go may not guarantee zeroed memory.
	clear(stateTensor.GetData())
	clear(stateNTensor.GetData())

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		[]ort.Value{inputTensor, stateTensor, srTensor},
		[]ort.Value{outputTensor, stateNTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		stateNTensor.Destroy()
		return nil, fmt.Errorf("silero: create session from %q: %w", modelPath, err)
	}

	return &SileroDetector{
		session:      session,
		inputTensor:  inputTensor,
		stateTensor:  stateTensor,
		srTensor:     srTensor,
		outputTensor: outputTensor,
		stateNTensor: stateNTensor,
		threshold:    DefaultSensitivity,
		gain:         DefaultAudioGain,
	}, nil
}

// SetSensitivity takes the first of the comma-separated values as the
// speech probability threshold. Every value must parse.
func (d *SileroDetector) SetSensitivity(sensitivity string) error {
	parts := strings.Split(sensitivity, ",")
	var first float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("silero: sensitivity %q: %w", sensitivity, err)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("silero: sensitivity %v out of range [0, 1]", v)
		}
		if i == 0 {
			first = v
		}
	}
	d.threshold = float32(first)
	return nil
}

func (d *SileroDetector) SetAudioGain(gain float32) { d.gain = gain }

// ApplyFrontend toggles peak normalization of each window before inference.
func (d *SileroDetector) ApplyFrontend(enable bool) { d.frontend = enable }

// RunDetection runs one inference on exactly 512 samples.
func (d *SileroDetector) RunDetection(pcm []int16) (int, error) {
	if d.session == nil {
		return -1, fmt.Errorf("silero: detector closed")
	}
	if len(pcm) != sileroWindowSize {
		return -1, fmt.Errorf("silero: frame has %d samples, want %d", len(pcm), sileroWindowSize)
	}

	input := d.inputTensor.GetData()
	fillWindow(input, pcm, d.gain, d.frontend)

	if err := d.session.Run(); err != nil {
		return -1, fmt.Errorf("silero: inference: %w", err)
	}
	prob := d.outputTensor.GetData()[0]

	// Carry forward hidden state: copy stateN → state.
	copy(d.stateTensor.GetData(), d.stateNTensor.GetData())

	if prob >= d.threshold {
		return 1, nil
	}
	return 0, nil
}

// Close releases ONNX Runtime resources. Safe to call multiple times.
func (d *SileroDetector) Close() error {
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
		d.inputTensor = nil
	}
	if d.stateTensor != nil {
		d.stateTensor.Destroy()
		d.stateTensor = nil
	}
	if d.srTensor != nil {
		d.srTensor.Destroy()
		d.srTensor = nil
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
		d.outputTensor = nil
	}
	if d.stateNTensor != nil {
		d.stateNTensor.Destroy()
		d.stateNTensor = nil
	}
	return nil
}

// fillWindow converts s16 samples into dst normalized to [-1, 1], applies
// gain and, when normalize is set, scales the window so its peak is 1.
// Divides by 32768 (not 32767) so the full int16 range stays within [-1, 1].
func fillWindow(dst []float32, pcm []int16, gain float32, normalize bool) {
	var peak float32
	for i, s := range pcm {
		v := float32(s) / 32768.0 * gain
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		dst[i] = v
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	if !normalize || peak == 0 || peak == 1 {
		return
	}
	scale := 1 / peak
	for i := range dst[:len(pcm)] {
		dst[i] *= scale
	}
}
