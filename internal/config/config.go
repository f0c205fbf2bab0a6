package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultSampleRate   = 16000
	DefaultHeaderOffset = 44
	DefaultSensitivity  = 0.5
	DefaultLogLevel     = "warn"
	DefaultEngine       = "auto"
)

// Variant selects which positional argument layout a harness binary takes.
type Variant int

const (
	// VariantDynamic: wav_path model_file_path keyword_file_path library_path.
	VariantDynamic Variant = iota
	// VariantStatic: wav_path resource_path model_path keyword_name.
	VariantStatic
)

// Usage returns the positional argument synopsis for v.
func (v Variant) Usage() string {
	switch v {
	case VariantStatic:
		return "wav_path resource_path model_path keyword_name"
	default:
		return "wav_path model_file_path keyword_file_path library_path"
	}
}

// ErrUsage indicates the wrong number of positional arguments.
var ErrUsage = errors.New("config: usage")

// Config holds one harness invocation's settings.
type Config struct {
	Variant Variant

	WAVPath      string
	ModelPath    string
	KeywordPath  string
	LibraryPath  string
	ResourcePath string
	Keyword      string

	Engine       string
	ProfilesPath string
	AccessKey    string

	LogLevel     string
	SampleRate   int
	HeaderOffset int64
	Sensitivity  float64
}

// Validate checks that cfg contains a coherent set of values.
func (c Config) Validate() error {
	var errs []error
	if c.WAVPath == "" {
		errs = append(errs, errors.New("config: wav_path is empty"))
	}
	switch c.Variant {
	case VariantDynamic:
		if c.LibraryPath == "" {
			errs = append(errs, errors.New("config: library_path is empty"))
		}
	case VariantStatic:
		if strings.TrimSpace(c.Keyword) == "" {
			errs = append(errs, errors.New("config: keyword_name is empty"))
		}
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("config: sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.HeaderOffset < 0 {
		errs = append(errs, fmt.Errorf("config: header_offset must not be negative, got %d", c.HeaderOffset))
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		errs = append(errs, fmt.Errorf("config: sensitivity must be within [0, 1], got %v", c.Sensitivity))
	}
	return errors.Join(errs...)
}
