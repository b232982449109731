package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/squeeze/internal/ffmpeg"
)

// Swap describes what Finalize did with the encoded output.
type Swap struct {
	Outcome   FileOutcome
	FinalPath string
	NewSize   int64
	Saved     int64
	Renamed   bool
}

// Finalize decides the fate of one encode. A successful, strictly smaller
// output replaces the original (under a cleaned filename if the original
// carried a duplicated extension); a larger-or-equal output is deleted and
// the original kept; failed or cancelled encodes have their partial output
// removed. The original file is only ever touched after the replacement
// rename succeeded.
func Finalize(cand Candidate, res ffmpeg.Result) (Swap, error) {
	switch res.Status {
	case ffmpeg.StatusSuccess:
		// handled below
	case ffmpeg.StatusCancelled, ffmpeg.StatusFailed:
		removeTemp(res.TempPath)
		return Swap{Outcome: OutcomeDiscarded, FinalPath: cand.Path, NewSize: cand.Size}, nil
	default:
		removeTemp(res.TempPath)
		return Swap{Outcome: OutcomeDiscarded, FinalPath: cand.Path, NewSize: cand.Size},
			fmt.Errorf("unexpected encode status %d", res.Status)
	}

	if res.Bytes >= cand.Size {
		if err := os.Remove(res.TempPath); err != nil {
			return Swap{Outcome: OutcomeKept, FinalPath: cand.Path, NewSize: cand.Size},
				fmt.Errorf("remove larger encode %s: %w", res.TempPath, err)
		}
		return Swap{Outcome: OutcomeKept, FinalPath: cand.Path, NewSize: cand.Size}, nil
	}

	dir := filepath.Dir(cand.Path)
	base := filepath.Base(cand.Path)
	cleaned := CleanFilename(base)
	finalPath := filepath.Join(dir, cleaned)

	if err := os.Rename(res.TempPath, finalPath); err != nil {
		removeTemp(res.TempPath)
		return Swap{Outcome: OutcomeFailed, FinalPath: cand.Path, NewSize: cand.Size},
			fmt.Errorf("replace %s: %w", cand.Path, err)
	}
	if cleaned != base {
		// The replacement landed under the cleaned name; the original with
		// the doubled extension is now redundant.
		if err := os.Remove(cand.Path); err != nil {
			return Swap{
				Outcome: OutcomeReplaced, FinalPath: finalPath,
				NewSize: res.Bytes, Saved: cand.Size - res.Bytes, Renamed: true,
			}, fmt.Errorf("remove original %s: %w", cand.Path, err)
		}
	}
	return Swap{
		Outcome: OutcomeReplaced, FinalPath: finalPath,
		NewSize: res.Bytes, Saved: cand.Size - res.Bytes, Renamed: cleaned != base,
	}, nil
}

func removeTemp(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}
