package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures so callers can tell a missing library
// from a missing entry point or a failing call.
type Kind int

const (
	KindLoadFailed Kind = iota + 1
	KindSymbolNotFound
	KindInit
	KindProcess
	KindUnavailable
)

var (
	ErrLoadFailed     = errors.New("engine: load failed")
	ErrSymbolNotFound = errors.New("engine: symbol not found")
	ErrInit           = errors.New("engine: initialization failed")
	ErrProcess        = errors.New("engine: frame processing failed")
	ErrUnavailable    = errors.New("engine: not available")
)

func (k Kind) sentinel() error {
	switch k {
	case KindLoadFailed:
		return ErrLoadFailed
	case KindSymbolNotFound:
		return ErrSymbolNotFound
	case KindInit:
		return ErrInit
	case KindProcess:
		return ErrProcess
	case KindUnavailable:
		return ErrUnavailable
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case KindLoadFailed:
		return "load failed"
	case KindSymbolNotFound:
		return "symbol not found"
	case KindInit:
		return "init failed"
	case KindProcess:
		return "process failed"
	case KindUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every engine operation that fails. Status holds the
// native status code when the engine reports one.
type Error struct {
	Kind   Kind
	Engine string
	Op     string
	Path   string
	Symbol string
	Status int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("engine")
	if e.Engine != "" {
		b.WriteString(" ")
		b.WriteString(e.Engine)
	}
	b.WriteString(": ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&b, " (path %q)", e.Path)
	}
	if e.Symbol != "" {
		fmt.Fprintf(&b, " (symbol %q)", e.Symbol)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind, so errors.Is(err, ErrInit) works on
// any wrapped *Error.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
