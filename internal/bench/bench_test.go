package bench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nupi-ai/wakebench/internal/audio"
	"github.com/nupi-ai/wakebench/internal/audio/audiotest"
	"github.com/nupi-ai/wakebench/internal/engine"
	"github.com/nupi-ai/wakebench/internal/engine/profile"
)

// fakeEngine counts lifecycle calls and can fail on a given frame.
type fakeEngine struct {
	frameLength int
	initErr     error
	failAt      int // 1-based frame number; 0 never fails

	initCalls    int
	processCalls int
	releaseCalls int
	sawLengths   []int
}

type fakeHandle struct{ id int }

func (e *fakeEngine) Initialize(engine.Config) (engine.Handle, error) {
	e.initCalls++
	if e.initErr != nil {
		return nil, e.initErr
	}
	return &fakeHandle{id: 7}, nil
}

func (e *fakeEngine) FrameLength() int { return e.frameLength }

func (e *fakeEngine) ProcessFrame(h engine.Handle, pcm []int16) (bool, error) {
	e.processCalls++
	e.sawLengths = append(e.sawLengths, len(pcm))
	if e.failAt != 0 && e.processCalls == e.failAt {
		return false, &engine.Error{Kind: engine.KindProcess, Op: "process", Status: 1}
	}
	return pcm[0]%2 == 1, nil
}

func (e *fakeEngine) Release(engine.Handle) error {
	e.releaseCalls++
	return nil
}

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(eng engine.Engine, path string) *Runner {
	r := New(eng, Options{
		WAVPath:      path,
		SampleRate:   audio.DefaultSampleRate,
		HeaderOffset: audio.DefaultHeaderOffset,
		Engine:       engine.Config{Sensitivity: engine.DefaultSensitivity},
	}, quietLogger())
	r.now = steppingClock(100 * time.Microsecond)
	return r
}

func TestRunOneSecond(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(16000))
	eng := &fakeEngine{frameLength: 512}

	report, err := newTestRunner(eng, path).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Frames != 31 {
		t.Fatalf("Frames = %d, want 31", report.Frames)
	}
	if report.AudioTime != 992*time.Millisecond {
		t.Fatalf("AudioTime = %v, want 992ms", report.AudioTime)
	}
	if report.ProcessingTime != 31*100*time.Microsecond {
		t.Fatalf("ProcessingTime = %v, want 3.1ms", report.ProcessingTime)
	}
	want := 3100.0 / 992000.0
	if math.Abs(report.RTF-want) > 1e-12 {
		t.Fatalf("RTF = %v, want %v", report.RTF, want)
	}
	for i, n := range eng.sawLengths {
		if n != 512 {
			t.Fatalf("frame %d had %d samples", i, n)
		}
	}
	if eng.initCalls != 1 || eng.releaseCalls != 1 {
		t.Fatalf("init=%d release=%d, want 1 each", eng.initCalls, eng.releaseCalls)
	}
	if !strings.HasPrefix(report.Line(), "real time factor is: ") {
		t.Fatalf("Line = %q", report.Line())
	}
}

func TestRunDropsPartialFinalFrame(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(512*3+256))
	eng := &fakeEngine{frameLength: 512}

	report, err := newTestRunner(eng, path).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Frames != 3 || eng.processCalls != 3 {
		t.Fatalf("frames = %d, calls = %d, want 3", report.Frames, eng.processCalls)
	}
	if report.AudioTime != 96*time.Millisecond {
		t.Fatalf("AudioTime = %v, want 96ms", report.AudioTime)
	}
}

func TestRunAudioTimeIndependentOfEngineSpeed(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(8000))
	for _, step := range []time.Duration{time.Microsecond, 10 * time.Millisecond} {
		r := newTestRunner(&fakeEngine{frameLength: 400}, path)
		r.now = steppingClock(step)
		report, err := r.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if report.AudioTime != 500*time.Millisecond {
			t.Fatalf("step %v: AudioTime = %v, want 500ms", step, report.AudioTime)
		}
		if report.RTF < 0 {
			t.Fatalf("negative RTF %v", report.RTF)
		}
	}
}

func TestRunProcessErrorAbortsAndReleases(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(16000))
	eng := &fakeEngine{frameLength: 512, failAt: 5}

	_, err := newTestRunner(eng, path).Run(context.Background())
	if !errors.Is(err, engine.ErrProcess) {
		t.Fatalf("err = %v, want ErrProcess", err)
	}
	if eng.processCalls != 5 {
		t.Fatalf("processCalls = %d, want 5 (no retry, no further frames)", eng.processCalls)
	}
	if eng.releaseCalls != 1 {
		t.Fatalf("releaseCalls = %d, want 1", eng.releaseCalls)
	}
}

func TestRunInitErrorSkipsRelease(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(1024))
	eng := &fakeEngine{
		frameLength: 512,
		initErr:     &engine.Error{Kind: engine.KindInit, Op: "initialize", Status: 2},
	}

	_, err := newTestRunner(eng, path).Run(context.Background())
	if !errors.Is(err, engine.ErrInit) {
		t.Fatalf("err = %v, want ErrInit", err)
	}
	if eng.processCalls != 0 || eng.releaseCalls != 0 {
		t.Fatalf("process=%d release=%d, want 0", eng.processCalls, eng.releaseCalls)
	}
}

func TestRunTooShortReportsNoFrames(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(100))
	eng := &fakeEngine{frameLength: 512}

	_, err := newTestRunner(eng, path).Run(context.Background())
	if !errors.Is(err, ErrNoFramesProcessed) {
		t.Fatalf("err = %v, want ErrNoFramesProcessed", err)
	}
	if !errors.Is(err, audio.ErrUnreadable) {
		t.Fatalf("err = %v, should still match audio.ErrUnreadable", err)
	}
	if eng.initCalls != 0 {
		t.Fatal("engine must not be initialized without audio")
	}
}

func TestRunMissingFile(t *testing.T) {
	eng := &fakeEngine{frameLength: 512}
	_, err := newTestRunner(eng, filepath.Join(t.TempDir(), "nope.wav")).Run(context.Background())
	if !errors.Is(err, audio.ErrNotFound) {
		t.Fatalf("err = %v, want audio.ErrNotFound", err)
	}
	if eng.initCalls != 0 {
		t.Fatal("engine must not be initialized without audio")
	}
}

func TestRunInvalidFrameLength(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(1024))
	_, err := newTestRunner(&fakeEngine{frameLength: 0}, path).Run(context.Background())
	if !errors.Is(err, engine.ErrInit) {
		t.Fatalf("err = %v, want ErrInit", err)
	}
}

// lateFrameEngine only learns its frame length from Initialize, the way a
// native binding that publishes it during init would.
type lateFrameEngine struct {
	fakeEngine
	initLength int
}

func (e *lateFrameEngine) Initialize(cfg engine.Config) (engine.Handle, error) {
	h, err := e.fakeEngine.Initialize(cfg)
	if err == nil {
		e.frameLength = e.initLength
	}
	return h, err
}

func TestRunFrameLengthRequiredBeforeInitialize(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(4096))
	eng := &lateFrameEngine{initLength: 512}

	_, err := newTestRunner(eng, path).Run(context.Background())
	if !errors.Is(err, engine.ErrInit) {
		t.Fatalf("err = %v, want ErrInit", err)
	}
	if eng.initCalls != 0 || eng.processCalls != 0 {
		t.Fatalf("init=%d process=%d, want 0", eng.initCalls, eng.processCalls)
	}
}

func TestRunFrameLengthChangedByInitialize(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(4096))
	eng := &lateFrameEngine{fakeEngine: fakeEngine{frameLength: 512}, initLength: 1024}

	_, err := newTestRunner(eng, path).Run(context.Background())
	if !errors.Is(err, engine.ErrInit) {
		t.Fatalf("err = %v, want ErrInit", err)
	}
	if !strings.Contains(err.Error(), "512 samples before initialize and 1024 after") {
		t.Fatalf("err = %v", err)
	}
	if eng.processCalls != 0 {
		t.Fatalf("processCalls = %d, want 0", eng.processCalls)
	}
	if eng.releaseCalls != 1 {
		t.Fatalf("releaseCalls = %d, want 1", eng.releaseCalls)
	}
}

func TestRunFrameLengthStableAcrossInitialize(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(4096))
	eng := &lateFrameEngine{fakeEngine: fakeEngine{frameLength: 512}, initLength: 512}

	report, err := newTestRunner(eng, path).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Frames != 8 || report.FrameLength != 512 {
		t.Fatalf("frames = %d, frame length = %d, want 8 x 512", report.Frames, report.FrameLength)
	}
}

func TestRunCancelledReleases(t *testing.T) {
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(4096))
	eng := &fakeEngine{frameLength: 512}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(eng, path).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if eng.releaseCalls != 1 {
		t.Fatalf("releaseCalls = %d, want 1", eng.releaseCalls)
	}
}

func TestRunStubDetectionsAreDeterministic(t *testing.T) {
	// 100 frames of 512 samples: the stub fires on frames 50 and 100.
	path := audiotest.WriteWAV(t, audio.DefaultSampleRate, audiotest.Ramp(512*100))

	var first Report
	for run := 0; run < 2; run++ {
		eng := engine.NewStatic("stub", engine.NewStubDetector, profile.Builtin())
		r := New(eng, Options{
			WAVPath:      path,
			HeaderOffset: audio.DefaultHeaderOffset,
			Engine:       engine.Config{Keyword: "alexa", Sensitivity: engine.DefaultSensitivity},
		}, quietLogger())

		report, err := r.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if report.Detections != 2 {
			t.Fatalf("run %d: Detections = %d, want 2", run, report.Detections)
		}
		if report.RTF < 0 || math.IsInf(report.RTF, 0) || math.IsNaN(report.RTF) {
			t.Fatalf("run %d: RTF = %v", run, report.RTF)
		}
		if run == 0 {
			first = report
			continue
		}
		if report.Frames != first.Frames || report.AudioTime != first.AudioTime || report.Detections != first.Detections {
			t.Fatalf("runs differ: %+v vs %+v", first, report)
		}
	}
}

func TestComputeRTF(t *testing.T) {
	if _, err := ComputeRTF(10, 0); !errors.Is(err, ErrNoFramesProcessed) {
		t.Fatalf("zero audio: err = %v", err)
	}
	if _, err := ComputeRTF(-1, 100); err == nil {
		t.Fatal("negative processing time should fail")
	}
	if _, err := ComputeRTF(math.NaN(), 100); err == nil {
		t.Fatal("NaN processing time should fail")
	}
	rtf, err := ComputeRTF(0, 992000)
	if err != nil || rtf != 0 {
		t.Fatalf("ComputeRTF(0, 992000) = %v, %v", rtf, err)
	}
	rtf, err = ComputeRTF(496000, 992000)
	if err != nil || rtf != 0.5 {
		t.Fatalf("ComputeRTF = %v, %v; want 0.5", rtf, err)
	}
}

func TestAccumulatorMeasure(t *testing.T) {
	acc := newAccumulator(16000, steppingClock(250*time.Microsecond))

	detected, elapsed, err := acc.Measure(func() (bool, error) { return true, nil })
	if err != nil || !detected || elapsed != 250*time.Microsecond {
		t.Fatalf("Measure = %v, %v, %v", detected, elapsed, err)
	}
	acc.AddFrame(512)

	boom := errors.New("boom")
	if _, _, err := acc.Measure(func() (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if acc.ProcessingTime() != 250*time.Microsecond {
		t.Fatalf("failed calls must not count: ProcessingTime = %v", acc.ProcessingTime())
	}
	if acc.ProcessingUsec() != 250 {
		t.Fatalf("ProcessingUsec = %v, want 250", acc.ProcessingUsec())
	}
	if acc.AudioUsec() != 32000 {
		t.Fatalf("AudioUsec = %v, want 32000", acc.AudioUsec())
	}
	if acc.Frames() != 1 || acc.Samples() != 512 {
		t.Fatalf("Frames = %d, Samples = %d", acc.Frames(), acc.Samples())
	}
}

func TestAccumulatorRealClockNonNegative(t *testing.T) {
	acc := NewAccumulator(16000)
	for i := 0; i < 10; i++ {
		if _, _, err := acc.Measure(func() (bool, error) { return false, nil }); err != nil {
			t.Fatal(err)
		}
		acc.AddFrame(512)
	}
	if acc.ProcessingTime() < 0 {
		t.Fatalf("ProcessingTime = %v", acc.ProcessingTime())
	}
	rtf, err := ComputeRTF(acc.ProcessingUsec(), acc.AudioUsec())
	if err != nil || rtf < 0 {
		t.Fatalf("rtf = %v, err = %v", rtf, err)
	}
}
