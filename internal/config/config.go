// Package config loads the streamfx command configuration from defaults, an
// optional .env file, STREAMFX_* environment variables and flags, in that
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the streamfx command.
type Config struct {
	// Input and output
	Input      string
	Output     string
	Preset     string
	StagesFile string

	// Processing
	SampleRate float64
	BlockSize  int
	BitDepth   int

	// Resources
	FetchTimeout     time.Duration
	MaxResourceBytes int64

	// Logging
	LogLevel  string
	LogFormat string

	// Introspection modes
	ListPresets bool
	Describe    string
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Output:           "out.wav",
		BlockSize:        128,
		BitDepth:         16,
		FetchTimeout:     30 * time.Second,
		MaxResourceBytes: 64 << 20,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load builds a Config from the process environment and args (without the
// program name). A missing .env file is not an error.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return load(args, os.Getenv)
}

func load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("streamfx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Input, "in", cfg.Input, "Input audio file (WAV, AIFF, MP3 or Ogg Vorbis)")
	fs.StringVar(&cfg.Output, "out", cfg.Output, "Output WAV file")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Preset to apply")
	fs.StringVar(&cfg.StagesFile, "stages", cfg.StagesFile, "JSON file with a stage list")
	fs.Float64Var(&cfg.SampleRate, "rate", cfg.SampleRate, "Processing sample rate (0 = input rate)")
	fs.IntVar(&cfg.BlockSize, "block", cfg.BlockSize, "Render quantum in frames")
	fs.IntVar(&cfg.BitDepth, "bits", cfg.BitDepth, "Output bit depth (16 or 24)")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout for fetching resources")
	fs.Int64Var(&cfg.MaxResourceBytes, "max-resource-bytes", cfg.MaxResourceBytes, "Size limit for fetched resources")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text or json)")
	fs.BoolVar(&cfg.ListPresets, "list-presets", cfg.ListPresets, "List presets and exit")
	fs.StringVar(&cfg.Describe, "describe", cfg.Describe, "Describe a stage kind and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	str("STREAMFX_INPUT", &c.Input)
	str("STREAMFX_OUTPUT", &c.Output)
	str("STREAMFX_PRESET", &c.Preset)
	str("STREAMFX_STAGES", &c.StagesFile)
	str("STREAMFX_LOG_LEVEL", &c.LogLevel)
	str("STREAMFX_LOG_FORMAT", &c.LogFormat)

	if v := getenv("STREAMFX_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid STREAMFX_SAMPLE_RATE %q: %w", v, err)
		}

		c.SampleRate = f
	}

	if v := getenv("STREAMFX_BLOCK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STREAMFX_BLOCK_SIZE %q: %w", v, err)
		}

		c.BlockSize = n
	}

	if v := getenv("STREAMFX_BIT_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STREAMFX_BIT_DEPTH %q: %w", v, err)
		}

		c.BitDepth = n
	}

	if v := getenv("STREAMFX_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STREAMFX_FETCH_TIMEOUT %q: %w", v, err)
		}

		c.FetchTimeout = d
	}

	if v := getenv("STREAMFX_MAX_RESOURCE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid STREAMFX_MAX_RESOURCE_BYTES %q: %w", v, err)
		}

		c.MaxResourceBytes = n
	}

	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	introspect := c.ListPresets || c.Describe != ""

	if !introspect {
		if c.Input == "" {
			problems = append(problems, "input file is required")
		}

		if c.Output == "" {
			problems = append(problems, "output file is required")
		}

		if c.Preset != "" && c.StagesFile != "" {
			problems = append(problems, "preset and stages file are mutually exclusive")
		}
	}

	if c.SampleRate < 0 {
		problems = append(problems, "sample rate must not be negative")
	}

	if c.BlockSize < 16 || c.BlockSize > 16384 || c.BlockSize&(c.BlockSize-1) != 0 {
		problems = append(problems, "block size must be a power of two in [16, 16384]")
	}

	if c.BitDepth != 16 && c.BitDepth != 24 {
		problems = append(problems, "bit depth must be 16 or 24")
	}

	if c.FetchTimeout <= 0 {
		problems = append(problems, "fetch timeout must be positive")
	}

	if c.MaxResourceBytes <= 0 {
		problems = append(problems, "max resource bytes must be positive")
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		problems = append(problems, "log format must be text or json")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}
