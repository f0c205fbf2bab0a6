//go:build !linux && !darwin

package engine

import (
	"errors"
	"runtime"
)

var errNoDynamicLoader = errors.New("engine: dynamic engine loading is not supported on " + runtime.GOOS)

func openLibrary(string) (uintptr, error) { return 0, errNoDynamicLoader }

func lookupSymbol(uintptr, string) (uintptr, error) { return 0, errNoDynamicLoader }

func closeLibrary(uintptr) error { return nil }

func bindFunc(any, uintptr) {}
