// Package config holds runtime configuration: defaults, an optional YAML
// config file, CLI flag parsing, and validation. Invalid numeric settings
// are sanitized rather than rejected; squeeze is a best-effort utility.
package config

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// Resolution is the scaling target for encoded output.
type Resolution string

const (
	ResOriginal Resolution = "original" // Keep source resolution.
	Res1080p    Resolution = "1080p"
	Res720p     Resolution = "720p"
	Res480p     Resolution = "480p"
	Res360p     Resolution = "360p"
)

// resolutionDims maps each target to output dimensions.
var resolutionDims = map[Resolution][2]int{
	Res1080p: {1920, 1080},
	Res720p:  {1280, 720},
	Res480p:  {854, 480},
	Res360p:  {640, 360},
}

// Dimensions returns the target width and height. ok is false for
// ResOriginal (no scaling requested).
func (r Resolution) Dimensions() (w, h int, ok bool) {
	d, ok := resolutionDims[r]
	return d[0], d[1], ok
}

// Encoder selects the encode path, or lets hardware detection decide.
type Encoder string

const (
	EncoderAuto     Encoder = "auto"     // Detect QSV, then VAAPI, then software (default).
	EncoderQSV      Encoder = "qsv"      // Force Intel QSV.
	EncoderVAAPI    Encoder = "vaapi"    // Force VAAPI.
	EncoderSoftware Encoder = "software" // Force libx264.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by a YAML file ([LoadFile]), and finally mutated by
// [ParseFlags] before being passed (by pointer) to packages that need it.
type Config struct {
	// Path (set from the positional arg; defaults to the current directory).
	InputDir string

	// Encode targets.
	Resolution Resolution // Default: "original" (no scaling).
	FPS        int        // Target frame rate; 0 keeps the source rate.
	Threads    int        // Software encoder threads; clamped to [1, NumCPU].
	Quality    int        // CRF (software) or QP (VAAPI). Default: 23.
	Preset     string     // x264/QSV preset. Default: "faster".
	Encoder    Encoder    // Default: "auto".
	VaapiDevice string    // Override render device; empty means auto-detect.

	// Executor policy.
	StallTimeout time.Duration // Fail an encode with no progress for this long. Default: 5m.
	GracePeriod  time.Duration // SIGINT-to-SIGKILL window on cancellation. Default: 10s.

	// Batch behavior.
	MinFileSize int64 // Files below this are skipped as suspect. Default: 1000 bytes.
	StartIndex  int   // Resume from the Nth candidate (0-based).
	DryRun      bool

	// Display and logging.
	Verbose      bool
	ShowProgress bool      // Default: true. Live encode progress line.
	ColorMode    ColorMode // Default: "auto".
	LogFile      string    // Optional append-to log file path.

	// Collaborator sinks (optional; empty disables).
	HistoryDB   string // SQLite database recording runs and per-file outcomes.
	MetricsAddr string // HTTP listen address for the Prometheus endpoint.

	// Utility modes.
	CheckOnly  bool   // Run --check diagnostics and exit.
	ConfigFile string // YAML config file path (--config).
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [LoadFile] and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		InputDir:     ".",
		Resolution:   ResOriginal,
		FPS:          0,
		Threads:      defaultThreads(),
		Quality:      23,
		Preset:       "faster",
		Encoder:      EncoderAuto,
		StallTimeout: 5 * time.Minute,
		GracePeriod:  10 * time.Second,
		MinFileSize:  1000,
		ShowProgress: true,
		ColorMode:    ColorAuto,
	}
}

// defaultThreads picks a conservative software-encoder thread count:
// 4, or the logical core count when fewer are available.
func defaultThreads() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	return n
}

// Sanitize clamps numeric settings into valid ranges instead of rejecting
// them. Thread count is bounded by the logical core count, quality by the
// encoder's accepted range, and negative values collapse to their floor.
func (c *Config) Sanitize() {
	maxThreads := runtime.NumCPU()
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.Threads > maxThreads {
		c.Threads = maxThreads
	}
	if c.FPS < 0 {
		c.FPS = 0
	}
	if c.Quality < 1 {
		c.Quality = 1
	} else if c.Quality > 51 {
		c.Quality = 51
	}
	if c.StartIndex < 0 {
		c.StartIndex = 0
	}
	if c.MinFileSize < 0 {
		c.MinFileSize = 0
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = 5 * time.Minute
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 10 * time.Second
	}
}

// Validate checks that enum fields hold valid values. When not in CheckOnly
// mode it also requires a non-empty input directory.
func (c *Config) Validate() error {
	switch c.Resolution {
	case ResOriginal, Res1080p, Res720p, Res480p, Res360p:
		// valid
	default:
		return errors.New("invalid resolution (use 'original', '1080p', '720p', '480p' or '360p')")
	}

	switch c.Encoder {
	case EncoderAuto, EncoderQSV, EncoderVAAPI, EncoderSoftware:
		// valid
	default:
		return errors.New("invalid encoder (use 'auto', 'qsv', 'vaapi' or 'software')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory")
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}
