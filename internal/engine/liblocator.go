//go:build silero

package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// libLocator finds a native shared library that ships next to the binary.
type libLocator struct {
	// envVar names an explicit path override.
	envVar string
	// devModeVar enables lookup relative to the working directory when "1".
	devModeVar string
	// filenames maps GOOS to the library filename; "" is the fallback.
	filenames map[string]string

	getenv     func(string) string
	executable func() (string, error)
	getwd      func() (string, error)
}

// ortLocator locates the ONNX Runtime library used by the silero detector.
var ortLocator = libLocator{
	envVar:     "WAKEBENCH_ORT_LIB_PATH",
	devModeVar: "WAKEBENCH_DEV_MODE",
	filenames: map[string]string{
		"darwin":  "libonnxruntime.dylib",
		"windows": "onnxruntime.dll",
		"":        "libonnxruntime.so",
	},
}

func resolveORTLibPath() (string, error) {
	return ortLocator.resolve()
}

func (l libLocator) filename() string {
	if name, ok := l.filenames[runtime.GOOS]; ok {
		return name
	}
	return l.filenames[""]
}

// resolve searches, in order: the env override, lib/<os>-<arch>/ and
// ../lib/<os>-<arch>/ next to the executable, then the same two paths under
// the working directory in dev mode only.
func (l libLocator) resolve() (string, error) {
	getenv := l.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	executable := l.executable
	if executable == nil {
		executable = os.Executable
	}
	getwd := l.getwd
	if getwd == nil {
		getwd = os.Getwd
	}

	if override := getenv(l.envVar); override != "" {
		info, err := os.Stat(override)
		if err != nil {
			return "", fmt.Errorf("lib: %s=%q does not exist", l.envVar, override)
		}
		if info.IsDir() {
			return "", fmt.Errorf("lib: %s=%q is a directory, expected a file", l.envVar, override)
		}
		return override, nil
	}

	platform := runtime.GOOS + "-" + runtime.GOARCH
	rels := []string{
		filepath.Join("lib", platform, l.filename()),
		filepath.Join("..", "lib", platform, l.filename()),
	}

	var roots []string
	if exe, err := executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	if getenv(l.devModeVar) == "1" {
		if dir, err := getwd(); err == nil {
			roots = append(roots, dir)
		}
	}

	for _, root := range roots {
		for _, rel := range rels {
			path := filepath.Join(root, rel)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", errors.New("lib: " + l.filename() + " not found under lib/" + platform +
		" relative to the executable (set " + l.envVar + " to override, or " + l.devModeVar + "=1 to search the working directory)")
}
