// Package hwdetect probes the host for usable hardware encode paths.
//
// Detection runs once at startup and never fails: every probe error
// degrades to the next tier, ending at software encoding. Probe order is
// Intel QSV (ffmpeg test encode), then VAAPI (vainfo profile scan plus a
// render device), then none.
package hwdetect

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies the selected hardware encode path.
type Kind int

const (
	None Kind = iota // Software encoding (libx264).
	QSV              // Intel Quick Sync Video.
	VAAPI            // Video Acceleration API with a render device.
)

func (k Kind) String() string {
	switch k {
	case QSV:
		return "qsv"
	case VAAPI:
		return "vaapi"
	default:
		return "software"
	}
}

// Capability is the immutable result of hardware detection. Device is the
// VAAPI render node path and empty otherwise. Note carries a short
// human-readable explanation for logging.
type Capability struct {
	Kind   Kind
	Device string
	Note   string
}

// probeTimeout bounds each hardware test so a wedged driver can't hang startup.
const probeTimeout = 10 * time.Second

// Detect probes the host and returns the best available capability.
// It never returns an error; unavailability of a hardware path is an
// ordinary result.
func Detect(ctx context.Context) Capability {
	qsvOK := probeQSV(ctx)
	var vaapiDev string
	if !qsvOK {
		vaapiDev = probeVAAPI(ctx)
	}
	return Resolve(qsvOK, vaapiDev)
}

// Resolve maps raw probe results to a Capability. Split from Detect so the
// priority order (QSV over VAAPI over software) is testable without probes.
func Resolve(qsvOK bool, vaapiDevice string) Capability {
	switch {
	case qsvOK:
		return Capability{Kind: QSV, Note: "Intel QSV hardware acceleration available"}
	case vaapiDevice != "":
		return Capability{Kind: VAAPI, Device: vaapiDevice, Note: "VAAPI hardware acceleration available on " + vaapiDevice}
	default:
		return Capability{Kind: None, Note: "no hardware acceleration; using software encoding"}
	}
}

// probeQSV runs a minimal ffmpeg test encode through h264_qsv. A zero exit
// means the encoder and render device are usable.
func probeQSV(ctx context.Context) bool {
	return runSilent(ctx,
		"ffmpeg", "-hide_banner", "-nostdin",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=1",
		"-init_hw_device", "qsv=qsv",
		"-hwaccel", "qsv", "-hwaccel_output_format", "qsv",
		"-c:v", "h264_qsv", "-t", "1", "-f", "null", "-",
	)
}

// probeVAAPI checks for a usable VAAPI H.264 encode path and returns the
// render device, or empty when unavailable. A missing vainfo binary is a
// soft fail, not an error.
func probeVAAPI(ctx context.Context) string {
	if _, err := exec.LookPath("vainfo"); err != nil {
		return ""
	}

	cctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(cctx, "vainfo").Output()
	if err != nil {
		return ""
	}
	if !HasH264EncodeProfile(string(out)) {
		return ""
	}
	return FirstRenderDevice()
}

// HasH264EncodeProfile reports whether vainfo output advertises H.264
// encoding support. Exported for testing against captured vainfo output.
func HasH264EncodeProfile(vainfoOut string) bool {
	lower := strings.ToLower(vainfoOut)
	return strings.Contains(lower, "vah264encodeprofile") ||
		strings.Contains(lower, "h264")
}

// FirstRenderDevice returns the first available /dev/dri/renderD* path,
// or empty string if none exist.
func FirstRenderDevice() string {
	matches, _ := filepath.Glob("/dev/dri/renderD*")
	for _, m := range matches {
		if _, err := os.Stat(m); err == nil {
			return m
		}
	}
	return ""
}

// runSilent runs a command with the probe timeout and returns true if it
// exits with status 0. Both stdout and stderr are discarded.
func runSilent(ctx context.Context, name string, args ...string) bool {
	cctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
