package hwdetect

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that hwdetect
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// CheckDeps is the pre-run validation: ffmpeg and ffprobe must be on PATH.
// Hardware paths are optional; their absence is handled by Detect.
func CheckDeps() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	return nil
}

// RunCheck runs the interactive --check flow: prints ffmpeg availability,
// the compiled-in H.264 encoders, and the result of each hardware probe.
// This is informational only and does not stop on failure.
func RunCheck(ctx context.Context, log Logger) {
	log.Info("=== Hardware Check ===")

	checkFfmpeg(log)
	checkH264Encoders(log)

	if probeQSV(ctx) {
		log.Success("Intel QSV: test encode passed")
	} else {
		log.Warn("Intel QSV: unavailable")
	}

	if dev := probeVAAPI(ctx); dev != "" {
		log.Success("VAAPI: H.264 encoding available on %s", dev)
	} else {
		log.Warn("VAAPI: unavailable (no vainfo, no device, or no H.264 profile)")
	}

	checkSoftware(ctx, log)
}

// checkFfmpeg verifies ffmpeg is on PATH and logs its version string.
func checkFfmpeg(log Logger) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		log.Error("ffmpeg not found")
		return
	}
	out, err := exec.Command("ffmpeg", "-version").Output()
	if err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
		return
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("ffmpeg: %s", firstLine)
}

// checkH264Encoders lists all H.264-related encoders reported by ffmpeg.
func checkH264Encoders(log Logger) {
	log.Info("H.264 encoders:")
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	for _, line := range strings.Split(string(out), "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "h264") || strings.Contains(lower, "x264") {
			log.Info("  %s", strings.TrimSpace(line))
		}
	}
}

// checkSoftware runs a minimal libx264 encode to verify the fallback works.
func checkSoftware(ctx context.Context, log Logger) {
	ok := runSilent(ctx,
		"ffmpeg", "-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", "libx264",
		"-f", "null", "-",
	)
	if ok {
		log.Success("Software x264 works")
	} else {
		log.Error("Software x264 test encode failed")
	}
}
