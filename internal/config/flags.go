package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into encoding, batch behavior, display, sinks, and utility.
// Parsing mutates cfg in place so defaults (and YAML file values) hold unless
// the user passes the flag.

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// ParseFlags parses args (os.Args[1:] in production) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, bad enum value).
func ParseFlags(cfg *Config, version string, args []string) error {
	fs := flag.NewFlagSet("squeeze", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var showHelp, showVersion bool

	defineEncodingFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg)
	defineSinkFlags(fs, cfg)
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&showHelp, "h", false, "Same as --help")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, "squeeze v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// defineEncodingFlags registers resolution, fps, threads, quality, preset, encoder.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&resolutionValue{&cfg.Resolution}, "resolution", "Target resolution: original | 1080p | 720p | 480p | 360p")
	fs.Var(&resolutionValue{&cfg.Resolution}, "r", "Same as --resolution")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Target frame rate (0 keeps source rate)")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "Software encoder threads (clamped to CPU count)")
	fs.IntVar(&cfg.Threads, "t", cfg.Threads, "Same as --threads")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "CRF/QP quality value")
	fs.IntVar(&cfg.Quality, "q", cfg.Quality, "Same as --quality")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Encoder preset (e.g. faster, medium)")
	fs.Var(&encoderValue{&cfg.Encoder}, "encoder", "Encode path: auto | qsv | vaapi | software")
	fs.Var(&encoderValue{&cfg.Encoder}, "e", "Same as --encoder")
	fs.StringVar(&cfg.VaapiDevice, "vaapi-device", cfg.VaapiDevice, "VAAPI render device (default: first /dev/dri/renderD*)")
}

// defineBehaviorFlags registers dry-run, start-index, min-size, and executor timeouts.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; do not encode or replace files")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.IntVar(&cfg.StartIndex, "start-index", cfg.StartIndex, "Skip the first N candidates (resume support)")
	fs.Int64Var(&cfg.MinFileSize, "min-size", cfg.MinFileSize, "Skip files smaller than this many bytes")
	fs.Var(&durationValue{&cfg.StallTimeout}, "stall-timeout", "Fail an encode with no progress for this long (e.g. 5m)")
	fs.Var(&durationValue{&cfg.GracePeriod}, "grace-period", "Window between SIGINT and SIGKILL on cancellation")
}

// defineDisplayFlags registers color, verbose, progress, log file, and check mode.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color", "Color output: auto | always | never")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.ShowProgress, "progress", cfg.ShowProgress, "Show live encode progress")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run hardware diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
}

// defineSinkFlags registers the history database, metrics listener, and config file.
func defineSinkFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.HistoryDB, "history", cfg.HistoryDB, "SQLite database recording runs and outcomes")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address (e.g. :9090)")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file")
}

// parsePositionalArgs sets InputDir from the optional positional arg.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch len(args) {
	case 0:
		return nil
	case 1:
		cfg.InputDir = NormalizeDirArg(args[0])
		return nil
	default:
		return fmt.Errorf("expected at most one directory argument, got %d", len(args))
	}
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprint(os.Stderr, `Usage: squeeze [options] [directory]

Batch re-encodes the video files under directory (default: current directory)
and replaces each original only when the encoded result is smaller.

Options:
`)
	fs.PrintDefaults()
}

// --- flag.Value wrappers for enum and duration fields ---

type resolutionValue struct{ r *Resolution }

func (v *resolutionValue) String() string {
	if v.r == nil {
		return ""
	}
	return string(*v.r)
}

func (v *resolutionValue) Set(s string) error {
	res := Resolution(s)
	switch res {
	case ResOriginal, Res1080p, Res720p, Res480p, Res360p:
		*v.r = res
		return nil
	}
	return fmt.Errorf("invalid resolution %q", s)
}

type encoderValue struct{ e *Encoder }

func (v *encoderValue) String() string {
	if v.e == nil {
		return ""
	}
	return string(*v.e)
}

func (v *encoderValue) Set(s string) error {
	enc := Encoder(s)
	switch enc {
	case EncoderAuto, EncoderQSV, EncoderVAAPI, EncoderSoftware:
		*v.e = enc
		return nil
	}
	return fmt.Errorf("invalid encoder %q", s)
}

type colorModeValue struct{ c *ColorMode }

func (v *colorModeValue) String() string {
	if v.c == nil {
		return ""
	}
	return string(*v.c)
}

func (v *colorModeValue) Set(s string) error {
	mode := ColorMode(s)
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		*v.c = mode
		return nil
	}
	return fmt.Errorf("invalid color mode %q", s)
}

type durationValue struct{ d *time.Duration }

func (v *durationValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *durationValue) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*v.d = d
	return nil
}
