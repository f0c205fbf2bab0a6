package engine

// DefaultSensitivity is the detection sensitivity every engine is
// initialized with.
const DefaultSensitivity = 0.5

// Handle is an opaque, engine-owned detector instance returned by
// Initialize. It must be passed back to the engine that created it and
// released exactly once.
type Handle any

// Config carries everything an engine may need to initialize a detector.
// Each engine reads only the fields its own init contract uses.
type Config struct {
	ModelPath    string
	KeywordPath  string
	ResourcePath string
	Keyword      string
	Sensitivity  float64
	AccessKey    string
}

// Engine is the capability the benchmark drives. Implementations adapt a
// vendor detection API to four operations.
type Engine interface {
	// Initialize creates a ready-to-use detector instance.
	Initialize(cfg Config) (Handle, error)
	// FrameLength returns the number of samples ProcessFrame expects. It
	// must be answerable before Initialize and must not change afterwards.
	FrameLength() int
	// ProcessFrame runs detection on exactly FrameLength samples and
	// reports whether the keyword was detected in this frame.
	ProcessFrame(h Handle, pcm []int16) (bool, error)
	// Release frees the detector instance.
	Release(h Handle) error
}
