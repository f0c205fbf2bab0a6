package engine

import (
	"errors"
	"fmt"
)

// SymbolTable names the four C entry points a shared engine library must
// export.
//
//	status init(const char *model, const char *keyword, float sensitivity, void **object)
//	int    frame_length(void)
//	status process(void *object, const int16_t *pcm, bool *result)
//	void   delete(void *object)
//
// A status of zero means success.
type SymbolTable struct {
	Init        string
	FrameLength string
	Process     string
	Delete      string
}

// DefaultSymbols is the Porcupine C ABI.
var DefaultSymbols = SymbolTable{
	Init:        "pv_porcupine_init",
	FrameLength: "pv_porcupine_frame_length",
	Process:     "pv_porcupine_process",
	Delete:      "pv_porcupine_delete",
}

func (t SymbolTable) names() []string {
	return []string{t.Init, t.FrameLength, t.Process, t.Delete}
}

// sharedObject is the Handle returned by Shared.Initialize.
type sharedObject struct {
	ptr      uintptr
	released bool
}

// Shared is an Engine whose entry points were resolved from a shared
// library at runtime.
type Shared struct {
	path string
	lib  uintptr

	initFn        func(modelPath, keywordPath string, sensitivity float32, object *uintptr) int32
	frameLengthFn func() int32
	processFn     func(object uintptr, pcm *int16, result *bool) int32
	deleteFn      func(object uintptr)

	frameLength int
	closeLib    func(lib uintptr) error
}

// OpenShared loads the library at path and resolves every symbol in syms.
// Nothing in the library is called until Initialize or FrameLength.
func OpenShared(path string, syms SymbolTable) (*Shared, error) {
	for _, name := range syms.names() {
		if name == "" {
			return nil, &Error{Kind: KindSymbolNotFound, Op: "resolve", Path: path, Err: errors.New("empty symbol name")}
		}
	}

	lib, err := openLibrary(path)
	if err != nil {
		return nil, &Error{Kind: KindLoadFailed, Op: "open", Path: path, Err: err}
	}

	addrs := make([]uintptr, 0, 4)
	for _, name := range syms.names() {
		addr, err := lookupSymbol(lib, name)
		if err != nil {
			closeLibrary(lib)
			return nil, &Error{Kind: KindSymbolNotFound, Op: "resolve", Path: path, Symbol: name, Err: err}
		}
		addrs = append(addrs, addr)
	}

	s := &Shared{path: path, lib: lib, closeLib: closeLibrary}
	bindFunc(&s.initFn, addrs[0])
	bindFunc(&s.frameLengthFn, addrs[1])
	bindFunc(&s.processFn, addrs[2])
	bindFunc(&s.deleteFn, addrs[3])
	return s, nil
}

// Path returns the library path the engine was loaded from.
func (s *Shared) Path() string { return s.path }

func (s *Shared) Initialize(cfg Config) (Handle, error) {
	var ptr uintptr
	status := s.initFn(cfg.ModelPath, cfg.KeywordPath, float32(cfg.Sensitivity), &ptr)
	if status != 0 {
		return nil, &Error{
			Kind:   KindInit,
			Op:     "initialize",
			Path:   s.path,
			Status: int(status),
			Err:    fmt.Errorf("model %q, keyword %q", cfg.ModelPath, cfg.KeywordPath),
		}
	}
	if ptr == 0 {
		return nil, &Error{Kind: KindInit, Op: "initialize", Path: s.path, Err: errors.New("engine returned a nil object")}
	}
	return &sharedObject{ptr: ptr}, nil
}

// FrameLength queries the library once and caches the answer.
func (s *Shared) FrameLength() int {
	if s.frameLength == 0 {
		s.frameLength = int(s.frameLengthFn())
	}
	return s.frameLength
}

func (s *Shared) ProcessFrame(h Handle, pcm []int16) (bool, error) {
	obj, ok := h.(*sharedObject)
	if !ok || obj.released {
		return false, &Error{Kind: KindProcess, Op: "process", Path: s.path, Err: errors.New("invalid or released handle")}
	}
	if len(pcm) == 0 {
		return false, &Error{Kind: KindProcess, Op: "process", Path: s.path, Err: errors.New("empty frame")}
	}
	var detected bool
	if status := s.processFn(obj.ptr, &pcm[0], &detected); status != 0 {
		return false, &Error{Kind: KindProcess, Op: "process", Path: s.path, Status: int(status)}
	}
	return detected, nil
}

// Release deletes the native object. Releasing twice is a no-op.
func (s *Shared) Release(h Handle) error {
	obj, ok := h.(*sharedObject)
	if !ok {
		return &Error{Kind: KindProcess, Op: "release", Path: s.path, Err: fmt.Errorf("handle %T was not created by this engine", h)}
	}
	if obj.released {
		return nil
	}
	s.deleteFn(obj.ptr)
	obj.released = true
	obj.ptr = 0
	return nil
}

// Close unloads the library. Call it only after every handle is released.
func (s *Shared) Close() error {
	if s.lib == 0 {
		return nil
	}
	lib := s.lib
	s.lib = 0
	if s.closeLib == nil {
		return nil
	}
	if err := s.closeLib(lib); err != nil {
		return fmt.Errorf("engine: close %q: %w", s.path, err)
	}
	return nil
}
