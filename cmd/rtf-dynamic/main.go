// Command rtf-dynamic measures the real-time factor of a wake-word engine
// loaded at runtime from a shared library exposing the pv_porcupine_* entry
// points.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nupi-ai/wakebench/internal/cli"
	"github.com/nupi-ai/wakebench/internal/config"
	"github.com/nupi-ai/wakebench/internal/engine"
)

const program = "rtf-dynamic"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	cfg, err := config.Loader{Lookup: lookup}.Load(config.VariantDynamic, args)
	if err != nil {
		fmt.Fprintln(stdout, cli.Diagnostic(program, config.VariantDynamic, err))
		return cli.ExitFailure
	}

	logger := cli.NewLogger(stderr, cfg.LogLevel).With("program", program)
	logger.Info("starting benchmark",
		"version", version,
		"wav", cfg.WAVPath,
		"library", cfg.LibraryPath,
		"model", cfg.ModelPath,
		"keyword", cfg.KeywordPath,
		"sensitivity", cfg.Sensitivity,
	)

	shared, err := engine.OpenShared(cfg.LibraryPath, engine.DefaultSymbols)
	if err != nil {
		logger.Error("failed to load engine library", "error", err)
		fmt.Fprintln(stdout, cli.Diagnostic(program, cfg.Variant, err))
		return cli.ExitFailure
	}
	defer func() {
		if err := shared.Close(); err != nil {
			logger.Warn("failed to close engine library", "error", err)
		}
	}()

	return cli.Benchmark(ctx, program, cfg, shared, stdout, logger)
}
