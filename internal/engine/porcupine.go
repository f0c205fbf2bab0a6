//go:build porcupine

package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"
)

func init() {
	Register("porcupine", true, func(Options) (Engine, error) {
		return Porcupine{}, nil
	})
}

// PorcupineFrameLength is the frame size of Porcupine v3. The binding only
// publishes porcupine.FrameLength once Init has run, so this value answers
// FrameLength before any detector exists.
const PorcupineFrameLength = 512

// Porcupine binds the Picovoice Go binding. Unlike object-API detectors it
// takes its sensitivity at construction and reports its own frame length.
type Porcupine struct{}

// keywordPath returns cfg.KeywordPath, or the platform keyword file for
// cfg.Keyword under cfg.ResourcePath, e.g. resources/alexa_linux.ppn.
func (Porcupine) keywordPath(cfg Config) string {
	if cfg.KeywordPath != "" {
		return cfg.KeywordPath
	}
	if strings.HasSuffix(cfg.Keyword, ".ppn") {
		return cfg.Keyword
	}
	name := strings.ReplaceAll(strings.ToLower(cfg.Keyword), " ", "_")
	return filepath.Join(cfg.ResourcePath, fmt.Sprintf("%s_%s.ppn", name, runtime.GOOS))
}

func (p Porcupine) Initialize(cfg Config) (Handle, error) {
	if cfg.AccessKey == "" {
		return nil, &Error{Kind: KindInit, Engine: "porcupine", Op: "initialize", Err: errors.New("access key is empty (set PV_ACCESS_KEY)")}
	}
	keyword := p.keywordPath(cfg)
	det := &porcupine.Porcupine{
		AccessKey:     cfg.AccessKey,
		ModelPath:     cfg.ModelPath,
		KeywordPaths:  []string{keyword},
		Sensitivities: []float32{float32(cfg.Sensitivity)},
	}
	if err := det.Init(); err != nil {
		return nil, &Error{Kind: KindInit, Engine: "porcupine", Op: "initialize", Path: keyword, Err: err}
	}
	if porcupine.FrameLength != PorcupineFrameLength {
		n := porcupine.FrameLength
		det.Delete()
		return nil, &Error{
			Kind:   KindInit,
			Engine: "porcupine",
			Op:     "initialize",
			Err:    fmt.Errorf("library frame length %d does not match %d", n, PorcupineFrameLength),
		}
	}
	return det, nil
}

// FrameLength reports the binding's frame length once a detector has been
// initialized and PorcupineFrameLength before that.
func (Porcupine) FrameLength() int {
	if porcupine.FrameLength > 0 {
		return porcupine.FrameLength
	}
	return PorcupineFrameLength
}

func (Porcupine) ProcessFrame(h Handle, pcm []int16) (bool, error) {
	det, ok := h.(*porcupine.Porcupine)
	if !ok {
		return false, &Error{Kind: KindProcess, Engine: "porcupine", Op: "process", Err: fmt.Errorf("handle %T is not a porcupine instance", h)}
	}
	index, err := det.Process(pcm)
	if err != nil {
		return false, &Error{Kind: KindProcess, Engine: "porcupine", Op: "process", Err: err}
	}
	return index >= 0, nil
}

func (Porcupine) Release(h Handle) error {
	det, ok := h.(*porcupine.Porcupine)
	if !ok {
		return &Error{Kind: KindProcess, Engine: "porcupine", Op: "release", Err: fmt.Errorf("handle %T is not a porcupine instance", h)}
	}
	return det.Delete()
}
