package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/squeeze/internal/config"
	"github.com/backmassage/squeeze/internal/display"
	"github.com/backmassage/squeeze/internal/ffmpeg"
	"github.com/backmassage/squeeze/internal/history"
	"github.com/backmassage/squeeze/internal/logging"
	"github.com/backmassage/squeeze/internal/metrics"
	"github.com/backmassage/squeeze/internal/planner"
	"github.com/backmassage/squeeze/internal/probe"
)

// ExecFunc runs one encode. Swappable so tests drive the orchestrator
// without a real ffmpeg.
type ExecFunc func(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) ffmpeg.Result

// ProbeFunc inspects one source file.
type ProbeFunc func(ctx context.Context, path string) (*probe.Result, error)

// Runner processes candidates sequentially with the shared encode plan.
// History and Metrics are optional; nil disables them.
type Runner struct {
	Cfg     *config.Config
	Log     *logging.Logger
	Plan    *planner.EncodePlan
	Exec    ExecFunc
	Probe   ProbeFunc
	History *history.Tracker
	Metrics *metrics.Metrics

	// Duration of the file currently being encoded, for percent display.
	srcDuration time.Duration
}

// New wires a Runner around a real ffmpeg executor configured from cfg.
func New(cfg *config.Config, log *logging.Logger, plan *planner.EncodePlan) *Runner {
	r := &Runner{Cfg: cfg, Log: log, Plan: plan, Probe: probe.Probe}
	enc := &ffmpeg.Runner{
		StallTimeout: cfg.StallTimeout,
		GracePeriod:  cfg.GracePeriod,
	}
	if cfg.ShowProgress {
		enc.OnProgress = r.printProgress
	}
	r.Exec = enc.Run
	return r
}

// Run processes the candidates in order. Files are strictly sequential so
// hardware encoders are never oversubscribed; cancellation stops before the
// next file starts and everything already finalized stays finalized.
func (r *Runner) Run(ctx context.Context, candidates []Candidate) RunStats {
	stats := RunStats{Total: len(candidates)}

	for i, cand := range candidates {
		if ctx.Err() != nil {
			stats.Interrupted = true
			break
		}
		stats.Current = i + 1
		if r.Metrics != nil {
			r.Metrics.CurrentPosition.Set(float64(stats.Current))
		}
		r.processFile(ctx, cand, &stats)
		if stats.Interrupted {
			break
		}
	}

	r.logSummary(stats)
	if r.History != nil {
		if err := r.History.FinishRun(stats.Interrupted, stats.Processed(), stats.Failed, stats.Saved()); err != nil {
			r.Log.Warn("history: %v", err)
		}
	}
	return stats
}

func (r *Runner) processFile(ctx context.Context, cand Candidate, stats *RunStats) {
	base := filepath.Base(cand.Path)
	r.Log.Info("[%d/%d] %s", stats.Current, stats.Total, base)

	// Recheck before spending encode time; files can vanish or shrink
	// between discovery and their turn in a long batch.
	fi, err := os.Stat(cand.Path)
	if err != nil {
		r.Log.Warn("Skipping %s: %v", base, err)
		stats.Skipped++
		r.record(cand.Path, OutcomeSkipped, cand.Size, cand.Size, err.Error(), 0)
		return
	}
	origSize := fi.Size()
	if origSize < r.Cfg.MinFileSize {
		r.Log.Warn("Skipping %s: %s below the %d byte floor",
			base, display.FormatBytes(origSize), r.Cfg.MinFileSize)
		stats.Skipped++
		r.record(cand.Path, OutcomeSkipped, origSize, origSize, "below size floor", 0)
		return
	}

	pr, err := r.Probe(ctx, cand.Path)
	if err != nil {
		// An interrupt kills the probe child too; that is a stop request,
		// not a defect of the file.
		if ctx.Err() != nil {
			stats.Interrupted = true
			r.Log.Warn("Interrupted while probing %s", base)
			return
		}
		r.Log.Error("Probe failed for %s: %v", base, err)
		stats.Failed++
		r.record(cand.Path, OutcomeFailed, origSize, origSize, "probe: "+err.Error(), 0)
		return
	}
	if pr.Video == nil {
		r.Log.Warn("Skipping %s: no video stream", base)
		stats.Skipped++
		r.record(cand.Path, OutcomeSkipped, origSize, origSize, "no video stream", 0)
		return
	}

	srcFPS := pr.FrameRate()
	filters := planner.FilterChain(r.Plan, pr.Video.Width, pr.Video.Height, srcFPS)
	r.Log.Debug(r.Cfg.Verbose, "%s: %s @ %.2f fps, %s, filters=%q",
		base, pr.Resolution(), srcFPS, display.FormatBytes(origSize), filters)

	if r.Cfg.DryRun {
		r.Log.Info("[DRY] Would encode %s with %s (filters %q)", base, r.Plan.Encoder, filters)
		stats.Skipped++
		r.record(cand.Path, OutcomeSkipped, origSize, origSize, "dry run", 0)
		return
	}

	r.srcDuration = time.Duration(pr.Format.Duration * float64(time.Second))
	if r.Metrics != nil {
		r.Metrics.InProgress.Set(1)
	}
	start := time.Now()
	res := r.Exec(ctx, r.Plan, cand.Path, filters)
	elapsed := time.Since(start)
	if r.Metrics != nil {
		r.Metrics.InProgress.Set(0)
	}
	if r.Cfg.ShowProgress {
		fmt.Print("\r\x1b[2K")
	}

	swap, ferr := Finalize(Candidate{Path: cand.Path, Size: origSize}, res)
	reason := res.Reason
	if ferr != nil {
		reason = ferr.Error()
	}

	switch swap.Outcome {
	case OutcomeReplaced:
		stats.Replaced++
		stats.OriginalBytes += origSize
		stats.NewBytes += swap.NewSize
		if swap.Renamed {
			stats.Renamed++
			r.Log.Info("Renamed to %s", filepath.Base(swap.FinalPath))
		}
		r.Log.Success("Replaced %s: %s -> %s (saved %s, %s) in %s",
			base, display.FormatBytes(origSize), display.FormatBytes(swap.NewSize),
			display.FormatBytes(swap.Saved), display.FormatReduction(origSize, swap.NewSize),
			elapsed.Round(time.Second))
		if ferr != nil {
			r.Log.Warn("%v", ferr)
		}
	case OutcomeKept:
		stats.Kept++
		stats.OriginalBytes += origSize
		stats.NewBytes += origSize
		r.Log.Info("Kept original %s: encode was not smaller (%s >= %s)",
			base, display.FormatBytes(res.Bytes), display.FormatBytes(origSize))
		if ferr != nil {
			r.Log.Warn("%v", ferr)
		}
	case OutcomeDiscarded:
		if res.Status == ffmpeg.StatusCancelled {
			stats.Interrupted = true
			r.Log.Warn("Encode of %s interrupted, partial output discarded", base)
		} else {
			stats.Failed++
			r.Log.Error("Encode failed for %s: %s", base, res.Reason)
		}
	case OutcomeFailed:
		stats.Failed++
		r.Log.Error("Could not finalize %s: %v", base, ferr)
	}

	r.record(cand.Path, swap.Outcome, origSize, swap.NewSize, reason, elapsed)
}

// record emits the per-file event line and feeds the optional sinks.
func (r *Runner) record(path string, outcome FileOutcome, origSize, newSize int64, reason string, elapsed time.Duration) {
	r.Log.Event(path, outcome.String(), origSize, newSize)
	if r.History != nil {
		if err := r.History.RecordFile(path, outcome.String(), origSize, newSize, reason); err != nil {
			r.Log.Warn("history: %v", err)
		}
	}
	if r.Metrics != nil {
		var saved int64
		if outcome == OutcomeReplaced {
			saved = origSize - newSize
		}
		r.Metrics.ObserveOutcome(outcome.String(), origSize, saved, elapsed)
	}
}

func (r *Runner) printProgress(p ffmpeg.Progress) {
	if pct := p.Percent(r.srcDuration); pct >= 0 {
		fmt.Printf("\r  %5.1f%%  %s  %.1fx", pct, p.OutTime.Round(time.Second), p.Speed)
		return
	}
	fmt.Printf("\r  %s  %.1fx", p.OutTime.Round(time.Second), p.Speed)
}

func (r *Runner) logSummary(stats RunStats) {
	r.Log.Info("Done: %d replaced, %d kept, %d failed, %d skipped (of %d)",
		stats.Replaced, stats.Kept, stats.Failed, stats.Skipped, stats.Total)
	if stats.Renamed > 0 {
		r.Log.Info("Cleaned %d duplicated filename(s)", stats.Renamed)
	}
	if stats.OriginalBytes > 0 {
		r.Log.Success("Space: %s -> %s, saved %s (%s)",
			display.FormatBytes(stats.OriginalBytes), display.FormatBytes(stats.NewBytes),
			display.FormatBytes(stats.Saved()),
			display.FormatReduction(stats.OriginalBytes, stats.NewBytes))
	}
	if stats.Interrupted {
		r.Log.Warn("Run interrupted after %d of %d files", stats.Current, stats.Total)
	}
}
