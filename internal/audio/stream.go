package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const (
	// DefaultSampleRate is the sample rate the harness assumes for every
	// input file. It is not verified against the header.
	DefaultSampleRate = 16000

	// DefaultHeaderOffset is the size of a canonical PCM RIFF/WAV header.
	DefaultHeaderOffset = 44

	// BytesPerSample is the width of one signed 16-bit little-endian sample.
	BytesPerSample = 2
)

var (
	// ErrNotFound indicates the audio path does not exist.
	ErrNotFound = errors.New("audio: file not found")

	// ErrUnreadable indicates the audio path exists but cannot be read as a
	// stream of frames.
	ErrUnreadable = errors.New("audio: file unreadable")

	// ErrTooShort indicates the file holds less than one full frame after
	// the header. It matches ErrUnreadable under errors.Is.
	ErrTooShort = fmt.Errorf("%w: shorter than one frame", ErrUnreadable)
)

// Options controls how a Stream frames its file.
type Options struct {
	SampleRate   int
	HeaderOffset int64
	FrameLength  int
}

// DefaultOptions returns 16 kHz framing with a 44-byte header skip.
func DefaultOptions(frameLength int) Options {
	return Options{
		SampleRate:   DefaultSampleRate,
		HeaderOffset: DefaultHeaderOffset,
		FrameLength:  frameLength,
	}
}

// Validate reports whether the options describe a usable framing.
func (o Options) Validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be positive, got %d", o.SampleRate)
	}
	if o.HeaderOffset < 0 {
		return fmt.Errorf("audio: header offset must not be negative, got %d", o.HeaderOffset)
	}
	if o.FrameLength <= 0 {
		return fmt.Errorf("audio: frame length must be positive, got %d", o.FrameLength)
	}
	return nil
}

// Stream yields fixed-length frames of s16le samples from a headered PCM
// file. It is finite and cannot be rewound. A trailing partial frame is
// dropped, never padded.
type Stream struct {
	file *os.File
	r    *bufio.Reader
	opts Options

	raw   []byte
	frame []int16

	size int64
	done bool
}

// Open opens path, skips the header and prepares to read frames of
// opts.FrameLength samples.
func Open(path string, opts Options) (*Stream, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	frameBytes := int64(opts.FrameLength) * BytesPerSample
	if info.Size() < opts.HeaderOffset+frameBytes {
		f.Close()
		return nil, fmt.Errorf("%w: %s has %d bytes, need at least %d",
			ErrTooShort, path, info.Size(), opts.HeaderOffset+frameBytes)
	}

	if _, err := f.Seek(opts.HeaderOffset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: skip header: %v", ErrUnreadable, err)
	}

	return &Stream{
		file:  f,
		r:     bufio.NewReaderSize(f, int(frameBytes)*8),
		opts:  opts,
		raw:   make([]byte, frameBytes),
		frame: make([]int16, opts.FrameLength),
		size:  info.Size(),
	}, nil
}

// Next returns the next full frame. The returned slice is owned by the
// Stream and overwritten by the following call. Next returns io.EOF once
// fewer than FrameLength samples remain.
func (s *Stream) Next() ([]int16, error) {
	if s.done || s.file == nil {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(s.r, s.raw); err != nil {
		s.done = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: read frame: %v", ErrUnreadable, err)
	}
	for i := range s.frame {
		s.frame[i] = int16(binary.LittleEndian.Uint16(s.raw[i*BytesPerSample:]))
	}
	return s.frame, nil
}

// FrameLength returns the number of samples per frame.
func (s *Stream) FrameLength() int { return s.opts.FrameLength }

// SampleRate returns the assumed sample rate.
func (s *Stream) SampleRate() int { return s.opts.SampleRate }

// SamplesAvailable returns the number of whole samples after the header.
func (s *Stream) SamplesAvailable() int64 {
	return (s.size - s.opts.HeaderOffset) / BytesPerSample
}

// FramesAvailable returns how many full frames Next will yield in total.
func (s *Stream) FramesAvailable() int64 {
	return s.SamplesAvailable() / int64(s.opts.FrameLength)
}

// Close releases the file handle. Safe to call multiple times.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.done = true
	return err
}
