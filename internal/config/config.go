// Package config reads server and CLI settings from the environment.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/trace-sketch-mcp/internal/imaging"
	"github.com/ironsheep/trace-sketch-mcp/internal/logging"
	"github.com/ironsheep/trace-sketch-mcp/internal/sketch"
)

// Environment variables.
const (
	EnvLogLevel    = "SKETCH_MCP_LOG_LEVEL"
	EnvLogFormat   = "SKETCH_MCP_LOG_FORMAT"
	EnvOutputDir   = "SKETCH_MCP_OUTPUT_DIR"
	EnvFormat      = "SKETCH_MCP_FORMAT"
	EnvJPEGQuality = "SKETCH_MCP_JPEG_QUALITY"
	EnvExtensions  = "SKETCH_MCP_EXTENSIONS"
	EnvResultCache = "SKETCH_MCP_RESULT_CACHE"
	EnvCanvas      = "SKETCH_MCP_CANVAS"
	EnvFill        = "SKETCH_MCP_FILL"
	EnvGrid        = "SKETCH_MCP_GRID"
)

// DefaultResultCache is the number of finished sheets the server keeps.
const DefaultResultCache = 4

// Config is the resolved runtime configuration.
type Config struct {
	LogLevel  zerolog.Level
	LogFormat string

	// OutputDir is where sketch_save and the CLI write sheets.
	OutputDir string

	Format      imaging.Format
	JPEGQuality int

	// Extensions lists the accepted source extensions.
	Extensions []string

	// ResultCache bounds the server's finished-sheet cache. Zero disables it.
	ResultCache int

	// Params and Grid are the defaults applied when a request does not
	// override them.
	Params sketch.Params
	Grid   sketch.GridSpec
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		LogLevel:    zerolog.InfoLevel,
		LogFormat:   logging.FormatConsole,
		OutputDir:   filepath.Join(os.TempDir(), "trace-sketch"),
		Format:      imaging.FormatJPEG,
		JPEGQuality: imaging.DefaultJPEGQuality,
		Extensions:  append([]string(nil), imaging.DefaultExtensions...),
		ResultCache: DefaultResultCache,
		Params:      sketch.DefaultParams(),
		Grid:        sketch.DefaultGrid(),
	}
}

// Load builds a Config from getenv, normally os.Getenv. Unset or empty
// variables keep their defaults; malformed values are errors.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if v := getenv(EnvLogLevel); v != "" {
		if cfg.LogLevel, err = logging.ParseLevel(v); err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	if v := getenv(EnvLogFormat); v != "" {
		switch f := strings.ToLower(v); f {
		case logging.FormatConsole, logging.FormatJSON:
			cfg.LogFormat = f
		default:
			return cfg, fmt.Errorf("%s: unknown log format %q", EnvLogFormat, v)
		}
	}
	if v := getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv(EnvFormat); v != "" {
		if cfg.Format, err = imaging.ParseFormat(v); err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvFormat, err)
		}
	}
	if v := getenv(EnvJPEGQuality); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 || q > 100 {
			return cfg, fmt.Errorf("%s: quality %q must be an integer in 1..100", EnvJPEGQuality, v)
		}
		cfg.JPEGQuality = q
	}
	if v := getenv(EnvExtensions); v != "" {
		cfg.Extensions = splitList(v)
		if len(cfg.Extensions) == 0 {
			return cfg, fmt.Errorf("%s: no extensions in %q", EnvExtensions, v)
		}
	}
	if v := getenv(EnvResultCache); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("%s: %q must be a non-negative integer", EnvResultCache, v)
		}
		cfg.ResultCache = n
	}
	if v := getenv(EnvCanvas); v != "" {
		w, h, err := ParseSize(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvCanvas, err)
		}
		cfg.Params.Canvas.Width, cfg.Params.Canvas.Height = w, h
	}
	if v := getenv(EnvFill); v != "" {
		c, err := imaging.ParseColor(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvFill, err)
		}
		cfg.Params.Canvas.Fill = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	if v := getenv(EnvGrid); v != "" {
		rows, cols, err := ParseSize(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvGrid, err)
		}
		cfg.Grid = sketch.GridSpec{Rows: rows, Cols: cols}
	}

	if err := cfg.Params.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid sketch parameters: %w", err)
	}
	return cfg, nil
}

// ParseSize parses "AxB" (or "A,B") into two positive integers.
func ParseSize(s string) (a, b int, err error) {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == 'x' || r == ','
	})
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("size %q must look like 2480x3508", s)
	}
	if a, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil || a <= 0 {
		return 0, 0, fmt.Errorf("size %q: first value must be a positive integer", s)
	}
	if b, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil || b <= 0 {
		return 0, 0, fmt.Errorf("size %q: second value must be a positive integer", s)
	}
	return a, b, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if f = strings.TrimPrefix(strings.ToLower(f), "."); f != "" {
			out = append(out, f)
		}
	}
	return out
}
