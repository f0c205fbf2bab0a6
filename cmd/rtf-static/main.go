// Command rtf-static measures the real-time factor of a wake-word engine
// linked into the binary. Native engines are selected with build tags
// (silero, porcupine); without one the deterministic stub engine is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nupi-ai/wakebench/internal/cli"
	"github.com/nupi-ai/wakebench/internal/config"
	"github.com/nupi-ai/wakebench/internal/engine"
	"github.com/nupi-ai/wakebench/internal/engine/profile"
)

const program = "rtf-static"

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
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	engineName := fs.String("engine", "", "engine to benchmark: auto, stub, silero or porcupine")
	profilesPath := fs.String("profiles", "", "YAML file with per-keyword phrase counts")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] %s\n", program, config.VariantStatic.Usage())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cli.ExitOK
		}
		fmt.Fprintln(stdout, cli.Diagnostic(program, config.VariantStatic, config.ErrUsage))
		return cli.ExitFailure
	}

	cfg, err := config.Loader{Lookup: lookup}.Load(config.VariantStatic, fs.Args())
	if err != nil {
		fmt.Fprintln(stdout, cli.Diagnostic(program, config.VariantStatic, err))
		return cli.ExitFailure
	}
	if *engineName != "" {
		cfg.Engine = *engineName
	}
	if *profilesPath != "" {
		cfg.ProfilesPath = *profilesPath
	}

	logger := cli.NewLogger(stderr, cfg.LogLevel).With("program", program)

	profiles := profile.Builtin()
	if cfg.ProfilesPath != "" {
		loaded, err := profile.Load(cfg.ProfilesPath)
		if err != nil {
			logger.Error("failed to load keyword profiles", "path", cfg.ProfilesPath, "error", err)
			fmt.Fprintln(stdout, cli.Diagnostic(program, cfg.Variant, err))
			return cli.ExitFailure
		}
		profiles.Merge(loaded)
	}

	name, factory, err := engine.Resolve(cfg.Engine)
	if err != nil {
		logger.Error("failed to resolve engine", "requested", cfg.Engine, "error", err)
		fmt.Fprintln(stdout, cli.Diagnostic(program, cfg.Variant, err))
		return cli.ExitFailure
	}
	if name == "stub" {
		logger.Warn("benchmarking the stub engine; timings do not reflect a real detector",
			"available", engine.Names())
	}

	eng, err := factory(engine.Options{Profiles: profiles})
	if err != nil {
		logger.Error("failed to construct engine", "engine", name, "error", err)
		fmt.Fprintln(stdout, cli.Diagnostic(program, cfg.Variant, err))
		return cli.ExitFailure
	}
	logger.Info("starting benchmark",
		"version", version,
		"engine", name,
		"engine_config", cfg.Engine,
		"wav", cfg.WAVPath,
		"resource", cfg.ResourcePath,
		"model", cfg.ModelPath,
		"keyword", cfg.Keyword,
		"sensitivity", profiles.Lookup(cfg.Keyword).Sensitivity(cfg.Sensitivity),
	)

	return cli.Benchmark(ctx, program, cfg, eng, stdout, logger.With("engine", name))
}
