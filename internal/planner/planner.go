// Package planner turns the detected hardware capability and the user
// configuration into a concrete encoder invocation plan. Building a plan
// is pure (no I/O) and never fails: malformed numeric settings are clamped.
package planner

import (
	"runtime"
	"strconv"

	"github.com/backmassage/squeeze/internal/config"
	"github.com/backmassage/squeeze/internal/hwdetect"
)

// defaultVaapiDevice is used when detection found VAAPI without reporting
// a device node (e.g. when the user forced the vaapi path).
const defaultVaapiDevice = "/dev/dri/renderD128"

// EncodePlan holds the resolved encoder invocation parameters. One plan is
// built per run and reused for every file; only the filter chain varies
// per file (see FilterChain).
type EncodePlan struct {
	Kind    hwdetect.Kind
	Encoder string // "h264_qsv", "h264_vaapi", or "libx264"
	Device  string // VAAPI render node; empty otherwise.

	InitArgs  []string // Pre-input hardware init/hwaccel flags.
	CodecArgs []string // Post-codec quality/preset/thread flags.

	// Scaling and frame-rate targets. Zero means "keep source".
	TargetWidth  int
	TargetHeight int
	TargetFPS    int

	Threads int
}

// Build derives the EncodePlan from capability and config. The capability
// decides the encoder path; the config supplies targets and quality. Thread
// count is clamped to [1, logical cores] rather than rejected.
func Build(cap hwdetect.Capability, cfg *config.Config) *EncodePlan {
	plan := &EncodePlan{
		Kind:    cap.Kind,
		Threads: Clamp(cfg.Threads, 1, runtime.NumCPU()),
	}

	if w, h, ok := cfg.Resolution.Dimensions(); ok {
		plan.TargetWidth = w
		plan.TargetHeight = h
	}
	if cfg.FPS > 0 {
		plan.TargetFPS = cfg.FPS
	}

	quality := strconv.Itoa(cfg.Quality)

	switch cap.Kind {
	case hwdetect.QSV:
		plan.Encoder = "h264_qsv"
		plan.InitArgs = []string{
			"-init_hw_device", "qsv=qsv",
			"-hwaccel", "qsv",
			"-hwaccel_output_format", "qsv",
		}
		plan.CodecArgs = []string{
			"-preset", cfg.Preset,
			"-global_quality", quality,
		}

	case hwdetect.VAAPI:
		plan.Device = cap.Device
		if plan.Device == "" {
			plan.Device = defaultVaapiDevice
		}
		plan.Encoder = "h264_vaapi"
		plan.InitArgs = []string{
			"-init_hw_device", "vaapi=va:" + plan.Device,
			"-hwaccel", "vaapi",
			"-hwaccel_output_format", "vaapi",
		}
		plan.CodecArgs = []string{
			"-qp", quality,
		}

	default:
		plan.Encoder = "libx264"
		plan.CodecArgs = []string{
			"-preset", cfg.Preset,
			"-crf", quality,
			"-threads", strconv.Itoa(plan.Threads),
		}
	}

	return plan
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
