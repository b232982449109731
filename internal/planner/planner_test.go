package planner

import (
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/backmassage/squeeze/internal/config"
	"github.com/backmassage/squeeze/internal/hwdetect"
)

func defaultCfg() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

// --- Build decision matrix ---

func TestBuild_Software(t *testing.T) {
	cfg := defaultCfg()
	cfg.Threads = 2
	plan := Build(hwdetect.Capability{Kind: hwdetect.None}, cfg)

	if plan.Encoder != "libx264" {
		t.Errorf("Encoder = %q, want libx264", plan.Encoder)
	}
	if len(plan.InitArgs) != 0 {
		t.Errorf("software path should have no hw init args, got %v", plan.InitArgs)
	}
	if !slices.Contains(plan.CodecArgs, "-crf") {
		t.Errorf("CodecArgs missing -crf: %v", plan.CodecArgs)
	}
	if i := slices.Index(plan.CodecArgs, "-threads"); i < 0 || plan.CodecArgs[i+1] != "2" {
		t.Errorf("CodecArgs missing -threads 2: %v", plan.CodecArgs)
	}
}

func TestBuild_QSV(t *testing.T) {
	plan := Build(hwdetect.Capability{Kind: hwdetect.QSV}, defaultCfg())

	if plan.Encoder != "h264_qsv" {
		t.Errorf("Encoder = %q, want h264_qsv", plan.Encoder)
	}
	if !slices.Contains(plan.InitArgs, "qsv=qsv") {
		t.Errorf("InitArgs missing qsv device init: %v", plan.InitArgs)
	}
	if slices.Contains(plan.CodecArgs, "-threads") {
		t.Errorf("hardware path should not carry -threads: %v", plan.CodecArgs)
	}
}

func TestBuild_VAAPI(t *testing.T) {
	cap := hwdetect.Capability{Kind: hwdetect.VAAPI, Device: "/dev/dri/renderD129"}
	plan := Build(cap, defaultCfg())

	if plan.Encoder != "h264_vaapi" {
		t.Errorf("Encoder = %q, want h264_vaapi", plan.Encoder)
	}
	if !slices.Contains(plan.InitArgs, "vaapi=va:/dev/dri/renderD129") {
		t.Errorf("InitArgs missing device binding: %v", plan.InitArgs)
	}
	if !slices.Contains(plan.CodecArgs, "-qp") {
		t.Errorf("CodecArgs missing -qp: %v", plan.CodecArgs)
	}
}

func TestBuild_VAAPIDefaultDevice(t *testing.T) {
	plan := Build(hwdetect.Capability{Kind: hwdetect.VAAPI}, defaultCfg())
	if plan.Device != "/dev/dri/renderD128" {
		t.Errorf("Device = %q, want default render node", plan.Device)
	}
}

func TestBuild_NeverSelectsHardwareWithoutCapability(t *testing.T) {
	cfg := defaultCfg()
	cfg.Resolution = config.Res720p
	cfg.FPS = 30
	plan := Build(hwdetect.Capability{Kind: hwdetect.None}, cfg)
	if strings.Contains(plan.Encoder, "qsv") || strings.Contains(plan.Encoder, "vaapi") {
		t.Errorf("software capability selected hardware encoder %q", plan.Encoder)
	}
}

func TestBuild_ThreadSanitization(t *testing.T) {
	tests := []struct {
		name    string
		threads int
		want    int
	}{
		{"zero becomes one", 0, 1},
		{"negative becomes one", -4, 1},
		{"huge clamps to cpu count", 10000, runtime.NumCPU()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultCfg()
			cfg.Threads = tt.threads
			plan := Build(hwdetect.Capability{Kind: hwdetect.None}, cfg)
			if plan.Threads != tt.want {
				t.Errorf("Threads = %d, want %d", plan.Threads, tt.want)
			}
		})
	}
}

func TestBuild_Targets(t *testing.T) {
	cfg := defaultCfg()
	cfg.Resolution = config.Res1080p
	cfg.FPS = 24
	plan := Build(hwdetect.Capability{Kind: hwdetect.None}, cfg)
	if plan.TargetWidth != 1920 || plan.TargetHeight != 1080 {
		t.Errorf("target = %dx%d, want 1920x1080", plan.TargetWidth, plan.TargetHeight)
	}
	if plan.TargetFPS != 24 {
		t.Errorf("TargetFPS = %d, want 24", plan.TargetFPS)
	}

	cfg.Resolution = config.ResOriginal
	cfg.FPS = 0
	plan = Build(hwdetect.Capability{Kind: hwdetect.None}, cfg)
	if plan.TargetWidth != 0 || plan.TargetFPS != 0 {
		t.Errorf("original targets should be zero, got %dx%d @%d",
			plan.TargetWidth, plan.TargetHeight, plan.TargetFPS)
	}
}

// --- FilterChain ---

func plan720(kind hwdetect.Kind) *EncodePlan {
	return &EncodePlan{Kind: kind, TargetWidth: 1280, TargetHeight: 720, TargetFPS: 30}
}

func TestFilterChain_ScaleAndFPS(t *testing.T) {
	got := FilterChain(plan720(hwdetect.None), 1920, 1080, 60)
	if got != "scale=1280:720,fps=30" {
		t.Errorf("FilterChain = %q", got)
	}
}

func TestFilterChain_HardwareScalers(t *testing.T) {
	tests := []struct {
		kind hwdetect.Kind
		want string
	}{
		{hwdetect.QSV, "scale_qsv=w=1280:h=720"},
		{hwdetect.VAAPI, "scale_vaapi=w=1280:h=720"},
		{hwdetect.None, "scale=1280:720"},
	}
	for _, tt := range tests {
		p := plan720(tt.kind)
		p.TargetFPS = 0
		if got := FilterChain(p, 1920, 1080, 0); got != tt.want {
			t.Errorf("%v: FilterChain = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestFilterChain_NoUpscale(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		wantScale  bool
	}{
		{"source larger", 1920, 1080, true},
		{"source equal", 1280, 720, false},
		{"source smaller", 854, 480, false},
		{"wider but shorter", 1400, 700, true},
		{"unknown dimensions", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plan720(hwdetect.None)
			p.TargetFPS = 0
			got := FilterChain(p, tt.srcW, tt.srcH, 0)
			hasScale := strings.Contains(got, "scale")
			if hasScale != tt.wantScale {
				t.Errorf("FilterChain = %q, wantScale %v", got, tt.wantScale)
			}
		})
	}
}

func TestFilterChain_FPSOnlyWhenSourceFaster(t *testing.T) {
	p := &EncodePlan{Kind: hwdetect.None, TargetFPS: 30}
	tests := []struct {
		name   string
		srcFPS float64
		want   string
	}{
		{"faster source", 60, "fps=30"},
		{"equal source", 30, ""},
		{"slower source", 23.976, ""},
		{"unknown rate", 0, "fps=30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterChain(p, 0, 0, tt.srcFPS); got != tt.want {
				t.Errorf("FilterChain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterChain_NoTargets(t *testing.T) {
	p := &EncodePlan{Kind: hwdetect.VAAPI}
	if got := FilterChain(p, 3840, 2160, 60); got != "" {
		t.Errorf("FilterChain with no targets = %q, want empty", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 1, 10, 5},
		{0, 1, 10, 1},
		{15, 1, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
