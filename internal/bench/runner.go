package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nupi-ai/wakebench/internal/audio"
	"github.com/nupi-ai/wakebench/internal/engine"
)

// Options configures one benchmark run.
type Options struct {
	WAVPath      string
	SampleRate   int
	HeaderOffset int64
	Engine       engine.Config
}

// Runner drives one engine over one audio file and reports the real-time
// factor. It is single-use and not safe for concurrent use.
type Runner struct {
	eng  engine.Engine
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New returns a Runner. A nil logger uses slog.Default.
func New(eng engine.Engine, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = audio.DefaultSampleRate
	}
	return &Runner{
		eng:  eng,
		opts: opts,
		log:  logger.With("component", "bench"),
		now:  time.Now,
	}
}

// Run opens the audio, initializes the engine, feeds every full frame
// through it and computes the real-time factor. Resources acquired before a
// failure are released before Run returns. ctx is only checked between
// frames; a hung engine call is not interrupted.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	frameLength := r.eng.FrameLength()
	if frameLength <= 0 {
		return Report{}, &engine.Error{Kind: engine.KindInit, Op: "frame length", Err: fmt.Errorf("engine reported %d samples", frameLength)}
	}

	stream, err := audio.Open(r.opts.WAVPath, audio.Options{
		SampleRate:   r.opts.SampleRate,
		HeaderOffset: r.opts.HeaderOffset,
		FrameLength:  frameLength,
	})
	if err != nil {
		if errors.Is(err, audio.ErrTooShort) {
			return Report{}, fmt.Errorf("%w: %w", ErrNoFramesProcessed, err)
		}
		return Report{}, err
	}
	defer stream.Close()

	r.log.Debug("audio opened",
		"path", r.opts.WAVPath,
		"samples", stream.SamplesAvailable(),
		"frame_length", frameLength,
		"expected_frames", stream.FramesAvailable(),
	)

	handle, err := r.eng.Initialize(r.opts.Engine)
	if err != nil {
		return Report{}, err
	}
	released := false
	defer func() {
		if !released {
			if err := r.eng.Release(handle); err != nil {
				r.log.Warn("engine release failed", "error", err)
			}
		}
	}()

	if n := r.eng.FrameLength(); n != frameLength {
		return Report{}, &engine.Error{Kind: engine.KindInit, Op: "frame length", Err: fmt.Errorf("engine reported %d samples before initialize and %d after", frameLength, n)}
	}

	acc := newAccumulator(r.opts.SampleRate, r.now)
	var (
		frame      []int16
		detections int64
	)
	process := func() (bool, error) { return r.eng.ProcessFrame(handle, frame) }

	for {
		if err := ctx.Err(); err != nil {
			return Report{}, fmt.Errorf("bench: stopped after %d frames: %w", acc.Frames(), err)
		}
		frame, err = stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Report{}, err
		}

		detected, _, err := acc.Measure(process)
		if err != nil {
			return Report{}, fmt.Errorf("bench: frame %d: %w", acc.Frames(), err)
		}
		acc.AddFrame(frameLength)
		if detected {
			detections++
			r.log.Debug("keyword detected", "frame", acc.Frames()-1)
		}
	}

	released = true
	if err := r.eng.Release(handle); err != nil {
		r.log.Warn("engine release failed", "error", err)
	}
	if err := stream.Close(); err != nil {
		r.log.Warn("audio close failed", "error", err)
	}

	rtf, err := ComputeRTF(acc.ProcessingUsec(), acc.AudioUsec())
	if err != nil {
		return Report{}, err
	}

	report := Report{
		RTF:            rtf,
		Frames:         acc.Frames(),
		Detections:     detections,
		FrameLength:    frameLength,
		SampleRate:     r.opts.SampleRate,
		ProcessingTime: acc.ProcessingTime(),
		AudioTime:      acc.AudioTime(),
	}
	r.log.Info("benchmark complete",
		"frames", report.Frames,
		"detections", report.Detections,
		"processing_time", report.ProcessingTime,
		"audio_time", report.AudioTime,
		"rtf", report.RTF,
	)
	return report, nil
}
