// Command squeeze batch re-encodes the video files under a directory to
// H.264, preferring hardware encoders when the host has them, and replaces
// each original only when the encoded result is smaller.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/squeeze/internal/config"
	"github.com/backmassage/squeeze/internal/display"
	"github.com/backmassage/squeeze/internal/history"
	"github.com/backmassage/squeeze/internal/hwdetect"
	"github.com/backmassage/squeeze/internal/logging"
	"github.com/backmassage/squeeze/internal/metrics"
	"github.com/backmassage/squeeze/internal/pipeline"
	"github.com/backmassage/squeeze/internal/planner"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, args); err != nil {
		return 2
	}

	// When a config file is named, layer it between defaults and flags:
	// reparse so explicit flags win over file values.
	if cfg.ConfigFile != "" {
		cfg = config.DefaultConfig()
		if err := config.LoadFile(cfg.ConfigFile, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, "squeeze:", err)
			return 2
		}
		if err := config.ParseFlags(&cfg, version, args); err != nil {
			return 2
		}
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "squeeze:", err)
		return 2
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "squeeze:", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CheckOnly {
		hwdetect.RunCheck(ctx, log)
		return 0
	}

	if err := hwdetect.CheckDeps(); err != nil {
		log.Error("%v", err)
		return 1
	}

	hw := selectCapability(ctx, &cfg, log)
	log.Info("%s", hw.Note)

	plan := planner.Build(hw, &cfg)
	log.Info("Encoder: %s, quality %d, preset %s", plan.Encoder, cfg.Quality, cfg.Preset)
	if cfg.Resolution != config.ResOriginal {
		log.Info("Target resolution: %s", cfg.Resolution)
	}
	if cfg.FPS > 0 {
		log.Info("Target frame rate: %d fps", cfg.FPS)
	}

	candidates, err := pipeline.Discover(cfg.InputDir)
	if err != nil {
		log.Error("Scan %s: %v", cfg.InputDir, err)
		return 1
	}
	if len(candidates) == 0 {
		log.Warn("No video files found under %s", cfg.InputDir)
		return 0
	}
	if cfg.StartIndex > 0 {
		if cfg.StartIndex >= len(candidates) {
			log.Warn("Start index %d is past the last of %d candidates", cfg.StartIndex, len(candidates))
			return 0
		}
		log.Info("Resuming at candidate %d of %d", cfg.StartIndex+1, len(candidates))
		candidates = candidates[cfg.StartIndex:]
	}
	log.Info("Found %d video file(s) under %s", len(candidates), cfg.InputDir)
	if cfg.DryRun {
		log.Warn("Dry run: no files will be modified")
	}

	runner := pipeline.New(&cfg, log, plan)

	if cfg.HistoryDB != "" {
		tracker, err := history.Open(cfg.HistoryDB)
		if err != nil {
			log.Error("History database: %v", err)
			return 1
		}
		defer tracker.Close()
		if err := tracker.BeginRun(plan.Encoder); err != nil {
			log.Error("History database: %v", err)
			return 1
		}
		log.Debug(cfg.Verbose, "History run %s in %s", tracker.RunID(), cfg.HistoryDB)
		runner.History = tracker
	}

	if cfg.MetricsAddr != "" {
		m := metrics.New()
		runner.Metrics = m
		go func() {
			if err := m.Serve(cfg.MetricsAddr); err != nil {
				log.Warn("Metrics listener: %v", err)
			}
		}()
		log.Info("Serving metrics on %s", cfg.MetricsAddr)
	}

	stats := runner.Run(ctx, candidates)
	if log.FilePath() != "" {
		log.Info("Log written to %s", log.FilePath())
	}

	switch {
	case stats.Interrupted:
		return 130
	case stats.Failed > 0:
		return 1
	default:
		return 0
	}
}

// selectCapability honors an explicit --encoder choice and only probes the
// host when the choice is auto. Forcing a hardware path the host lacks is
// allowed; the first encode will fail with ffmpeg's own diagnostic.
func selectCapability(ctx context.Context, cfg *config.Config, log *logging.Logger) hwdetect.Capability {
	switch cfg.Encoder {
	case config.EncoderQSV:
		return hwdetect.Capability{Kind: hwdetect.QSV, Note: "Intel QSV forced by --encoder"}
	case config.EncoderVAAPI:
		dev := cfg.VaapiDevice
		if dev == "" {
			dev = hwdetect.FirstRenderDevice()
		}
		return hwdetect.Capability{Kind: hwdetect.VAAPI, Device: dev, Note: "VAAPI forced by --encoder"}
	case config.EncoderSoftware:
		return hwdetect.Capability{Kind: hwdetect.None, Note: "software encoding forced by --encoder"}
	default:
		log.Info("Detecting hardware acceleration...")
		return hwdetect.Detect(ctx)
	}
}
