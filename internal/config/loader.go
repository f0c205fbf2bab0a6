package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Loader builds a Config from positional arguments plus optional
// environment overrides. Tests can override Lookup to inject deterministic
// maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load maps args onto the positional layout of variant, then applies
// WAKEBENCH_CONFIG (JSON) and the individual WAKEBENCH_* variables, in that
// order.
func (l Loader) Load(variant Variant, args []string) (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if len(args) != 4 {
		return Config{}, fmt.Errorf("%w: expected 4 arguments (%s), got %d", ErrUsage, variant.Usage(), len(args))
	}

	cfg := Config{
		Variant:      variant,
		WAVPath:      args[0],
		Engine:       DefaultEngine,
		LogLevel:     DefaultLogLevel,
		SampleRate:   DefaultSampleRate,
		HeaderOffset: DefaultHeaderOffset,
		Sensitivity:  DefaultSensitivity,
	}
	switch variant {
	case VariantStatic:
		cfg.ResourcePath = args[1]
		cfg.ModelPath = args[2]
		cfg.Keyword = args[3]
	default:
		cfg.ModelPath = args[1]
		cfg.KeywordPath = args[2]
		cfg.LibraryPath = args[3]
	}

	if raw, ok := l.Lookup("WAKEBENCH_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "WAKEBENCH_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "WAKEBENCH_ENGINE", &cfg.Engine)
	overrideString(l.Lookup, "WAKEBENCH_PROFILES", &cfg.ProfilesPath)
	overrideString(l.Lookup, "PV_ACCESS_KEY", &cfg.AccessKey)
	if err := overrideInt(l.Lookup, "WAKEBENCH_SAMPLE_RATE", &cfg.SampleRate); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(l.Lookup, "WAKEBENCH_SENSITIVITY", &cfg.Sensitivity); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		Engine       string   `json:"engine"`
		ProfilesPath string   `json:"profiles_path"`
		LogLevel     string   `json:"log_level"`
		SampleRate   *int     `json:"sample_rate"`
		HeaderOffset *int64   `json:"header_offset"`
		Sensitivity  *float64 `json:"sensitivity"`
	}
	var payload jsonConfig
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("config: decode WAKEBENCH_CONFIG: %w", err)
	}
	if payload.Engine != "" {
		cfg.Engine = payload.Engine
	}
	if payload.ProfilesPath != "" {
		cfg.ProfilesPath = payload.ProfilesPath
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.SampleRate != nil {
		cfg.SampleRate = *payload.SampleRate
	}
	if payload.HeaderOffset != nil {
		cfg.HeaderOffset = *payload.HeaderOffset
	}
	if payload.Sensitivity != nil {
		cfg.Sensitivity = *payload.Sensitivity
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
