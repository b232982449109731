package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/squeeze/internal/config"
	"github.com/backmassage/squeeze/internal/ffmpeg"
	"github.com/backmassage/squeeze/internal/logging"
	"github.com/backmassage/squeeze/internal/planner"
	"github.com/backmassage/squeeze/internal/probe"
)

func testRunner(t *testing.T, cfg config.Config) *Runner {
	t.Helper()
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	return &Runner{
		Cfg:  &cfg,
		Log:  log,
		Plan: &planner.EncodePlan{Encoder: "libx264"},
		Probe: func(ctx context.Context, path string) (*probe.Result, error) {
			return &probe.Result{
				Format: probe.FormatInfo{Duration: 10},
				Video:  &probe.VideoStream{Width: 1920, Height: 1080, AvgFrameRate: "30/1"},
			}, nil
		},
	}
}

// fakeEncode writes a fake output of outBytes at the input's temp path and
// reports success.
func fakeEncode(t *testing.T, outBytes int) ExecFunc {
	t.Helper()
	return func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result {
		temp := ffmpeg.TempPath(inputPath)
		if err := os.WriteFile(temp, make([]byte, outBytes), 0o644); err != nil {
			t.Fatal(err)
		}
		return ffmpeg.Result{Status: ffmpeg.StatusSuccess, TempPath: temp, Bytes: int64(outBytes)}
	}
}

func TestRun_ReplacesSmallerEncodes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	writeFile(t, src, 1000)

	r := testRunner(t, config.DefaultConfig())
	r.Exec = fakeEncode(t, 400)

	stats := r.Run(context.Background(), []Candidate{{Path: src, Size: 1000}})
	if stats.Replaced != 1 || stats.Failed != 0 || stats.Kept != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Saved() != 600 {
		t.Errorf("Saved() = %d, want 600", stats.Saved())
	}
	fi, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 400 {
		t.Errorf("source size after run = %d, want 400", fi.Size())
	}
}

func TestRun_KeepsOriginalWhenEncodeGrows(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	writeFile(t, src, 1000)

	r := testRunner(t, config.DefaultConfig())
	r.Exec = fakeEncode(t, 1500)

	stats := r.Run(context.Background(), []Candidate{{Path: src, Size: 1000}})
	if stats.Kept != 1 || stats.Replaced != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Saved() != 0 {
		t.Errorf("Saved() = %d, want 0", stats.Saved())
	}
	fi, err := os.Stat(src)
	if err != nil || fi.Size() != 1000 {
		t.Error("original should be untouched")
	}
	if _, err := os.Stat(ffmpeg.TempPath(src)); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestRun_CancellationStopsBatch(t *testing.T) {
	dir := t.TempDir()
	var srcs []Candidate
	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		p := filepath.Join(dir, name)
		writeFile(t, p, 1000)
		srcs = append(srcs, Candidate{Path: p, Size: 1000})
	}

	r := testRunner(t, config.DefaultConfig())
	calls := 0
	r.Exec = func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result {
		calls++
		temp := ffmpeg.TempPath(inputPath)
		if calls == 2 {
			// Simulate SIGINT mid-encode: partial output, cancelled status.
			writeFile(t, temp, 100)
			return ffmpeg.Result{Status: ffmpeg.StatusCancelled, TempPath: temp, Reason: "interrupted"}
		}
		writeFile(t, temp, 400)
		return ffmpeg.Result{Status: ffmpeg.StatusSuccess, TempPath: temp, Bytes: 400}
	}

	stats := r.Run(context.Background(), srcs)
	if !stats.Interrupted {
		t.Error("stats.Interrupted should be set")
	}
	if calls != 2 {
		t.Errorf("exec called %d times, want 2", calls)
	}
	if stats.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", stats.Replaced)
	}
	// First file finalized, second's partial discarded, third untouched.
	if fi, _ := os.Stat(srcs[0].Path); fi.Size() != 400 {
		t.Error("first file should be replaced")
	}
	if fi, _ := os.Stat(srcs[1].Path); fi.Size() != 1000 {
		t.Error("second file should be untouched")
	}
	if fi, _ := os.Stat(srcs[2].Path); fi.Size() != 1000 {
		t.Error("third file should be untouched")
	}
	if _, err := os.Stat(ffmpeg.TempPath(srcs[1].Path)); !os.IsNotExist(err) {
		t.Error("partial output of interrupted encode left behind")
	}
}

func TestRun_PreCancelledContextProcessesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	writeFile(t, src, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRunner(t, config.DefaultConfig())
	r.Exec = func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result {
		t.Fatal("exec must not run with a cancelled context")
		return ffmpeg.Result{}
	}

	stats := r.Run(ctx, []Candidate{{Path: src, Size: 1000}})
	if !stats.Interrupted || stats.Replaced != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	writeFile(t, src, 1000)

	cfg := config.DefaultConfig()
	cfg.DryRun = true
	r := testRunner(t, cfg)
	r.Exec = func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result {
		t.Fatal("exec must not run in dry-run mode")
		return ffmpeg.Result{}
	}

	stats := r.Run(context.Background(), []Candidate{{Path: src, Size: 1000}})
	if stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if fi, _ := os.Stat(src); fi.Size() != 1000 {
		t.Error("dry run must not modify files")
	}
}

func TestRun_SkipsFilesBelowSizeFloor(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tiny.mp4")
	writeFile(t, src, 100)

	cfg := config.DefaultConfig()
	cfg.MinFileSize = 1000
	r := testRunner(t, cfg)
	r.Exec = fakeEncode(t, 10)

	stats := r.Run(context.Background(), []Candidate{{Path: src, Size: 100}})
	if stats.Skipped != 1 || stats.Replaced != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_SkipsVanishedFile(t *testing.T) {
	r := testRunner(t, config.DefaultConfig())
	r.Exec = fakeEncode(t, 10)

	gone := filepath.Join(t.TempDir(), "gone.mp4")
	stats := r.Run(context.Background(), []Candidate{{Path: gone, Size: 1000}})
	if stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_InterruptDuringProbeIsNotAFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	writeFile(t, src, 2000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := testRunner(t, config.DefaultConfig())
	r.Probe = func(ctx context.Context, path string) (*probe.Result, error) {
		// A stop request kills the probe child mid-flight.
		cancel()
		return nil, errors.New("signal: killed")
	}
	r.Exec = func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result {
		t.Fatal("exec must not run after an interrupt")
		return ffmpeg.Result{}
	}

	stats := r.Run(ctx, []Candidate{{Path: src, Size: 2000}})
	if !stats.Interrupted {
		t.Error("stats.Interrupted should be set")
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0: a user stop is not a file defect", stats.Failed)
	}
}

func TestRun_ProbeFailureCountsAsFailed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.mp4")
	writeFile(t, src, 2000)

	r := testRunner(t, config.DefaultConfig())
	r.Probe = func(ctx context.Context, path string) (*probe.Result, error) {
		return nil, os.ErrInvalid
	}
	r.Exec = fakeEncode(t, 10)

	stats := r.Run(context.Background(), []Candidate{{Path: src, Size: 2000}})
	if stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if fi, _ := os.Stat(src); fi.Size() != 2000 {
		t.Error("original must survive a probe failure")
	}
}

func TestRun_FailedEncodeKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	writeFile(t, src, 2000)

	r := testRunner(t, config.DefaultConfig())
	r.Exec = func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result {
		temp := ffmpeg.TempPath(inputPath)
		writeFile(t, temp, 5)
		return ffmpeg.Result{Status: ffmpeg.StatusFailed, TempPath: temp, Reason: "exit status 1"}
	}

	stats := r.Run(context.Background(), []Candidate{{Path: src, Size: 2000}})
	if stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if fi, _ := os.Stat(src); fi.Size() != 2000 {
		t.Error("original must survive a failed encode")
	}
	if _, err := os.Stat(ffmpeg.TempPath(src)); !os.IsNotExist(err) {
		t.Error("partial output left behind")
	}
}
