// Package cli holds the glue shared by the harness binaries: logging setup,
// one-line diagnostics and the final report.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nupi-ai/wakebench/internal/audio"
	"github.com/nupi-ai/wakebench/internal/bench"
	"github.com/nupi-ai/wakebench/internal/config"
	"github.com/nupi-ai/wakebench/internal/engine"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// NewLogger returns a text logger writing to w. Logs never go to stdout,
// which carries only the result line.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("run_id", uuid.NewString())
}

// ParseLevel maps a level name to a slog level, defaulting to warn.
func ParseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning", "":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Diagnostic renders err as the one-line message printed before exiting
// with ExitFailure. Joined errors are flattened onto that line.
func Diagnostic(program string, variant config.Variant, err error) string {
	msg := diagnostic(program, variant, err)
	return strings.ReplaceAll(strings.TrimSpace(msg), "\n", "; ")
}

func diagnostic(program string, variant config.Variant, err error) string {
	var engErr *engine.Error
	switch {
	case errors.Is(err, config.ErrUsage):
		return fmt.Sprintf("usage: %s %s", program, variant.Usage())
	case errors.Is(err, bench.ErrNoFramesProcessed):
		return fmt.Sprintf("no frames processed: %v", err)
	case errors.Is(err, audio.ErrNotFound), errors.Is(err, audio.ErrUnreadable):
		return fmt.Sprintf("failed to open wav file: %v", err)
	case errors.As(err, &engErr):
		switch engErr.Kind {
		case engine.KindLoadFailed:
			return fmt.Sprintf("failed to open engine library at '%s': %v", engErr.Path, engErr.Err)
		case engine.KindSymbolNotFound:
			return fmt.Sprintf("engine library at '%s' is missing entry point '%s'", engErr.Path, engErr.Symbol)
		case engine.KindInit:
			return fmt.Sprintf("failed to initialize engine: %v", err)
		case engine.KindProcess:
			return fmt.Sprintf("failed to process audio: %v", err)
		}
	case errors.Is(err, context.Canceled):
		return "interrupted: " + err.Error()
	}
	return err.Error()
}

// EngineConfig extracts the engine-facing part of cfg.
func EngineConfig(cfg config.Config) engine.Config {
	return engine.Config{
		ModelPath:    cfg.ModelPath,
		KeywordPath:  cfg.KeywordPath,
		ResourcePath: cfg.ResourcePath,
		Keyword:      cfg.Keyword,
		Sensitivity:  cfg.Sensitivity,
		AccessKey:    cfg.AccessKey,
	}
}

// Benchmark runs eng over the configured audio and writes the result line
// to stdout. It returns the process exit code.
func Benchmark(ctx context.Context, program string, cfg config.Config, eng engine.Engine, stdout io.Writer, logger *slog.Logger) int {
	runner := bench.New(eng, bench.Options{
		WAVPath:      cfg.WAVPath,
		SampleRate:   cfg.SampleRate,
		HeaderOffset: cfg.HeaderOffset,
		Engine:       EngineConfig(cfg),
	}, logger)

	report, err := runner.Run(ctx)
	if err != nil {
		logger.Error("benchmark failed", "error", err)
		fmt.Fprintln(stdout, Diagnostic(program, cfg.Variant, err))
		return ExitFailure
	}
	fmt.Fprintln(stdout, report.Line())
	return ExitOK
}
