// Package ffmpeg runs the external media engine for a single file: it
// builds the command line from an EncodePlan, streams progress from the
// child, enforces the stall and cancellation policies, and reports a
// terminal Result. It never touches the original file; output always goes
// to a temporary path in the same directory so the later swap is an atomic
// same-filesystem rename.
package ffmpeg

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/squeeze/internal/planner"
)

// TempPrefix marks in-progress encoder outputs. Candidate discovery skips
// files carrying it so a crashed run's leftovers are never re-encoded.
const TempPrefix = "temp_"

// TempPath returns the temporary output path for input: same directory
// (same filesystem, so the finalizing rename is atomic), TempPrefix, and
// spaces flattened to underscores.
func TempPath(input string) string {
	dir := filepath.Dir(input)
	base := strings.ReplaceAll(filepath.Base(input), " ", "_")
	return filepath.Join(dir, TempPrefix+base)
}

// BuildArgs constructs the complete ffmpeg argument slice for one file.
// filters is the per-file -vf value from planner.FilterChain (may be empty).
// Progress is requested on stdout as key=value lines; stderr stays reserved
// for diagnostics.
func BuildArgs(plan *planner.EncodePlan, inputPath, outputPath, filters string) []string {
	args := make([]string, 0, 32)

	args = append(args, "ffmpeg", "-hide_banner", "-nostdin", "-loglevel", "error")

	// Hardware device init and hwaccel flags precede the input.
	args = append(args, plan.InitArgs...)

	args = append(args, "-i", inputPath)

	if filters != "" {
		args = append(args, "-vf", filters)
	}

	args = append(args, "-c:v", plan.Encoder)
	args = append(args, plan.CodecArgs...)

	// Audio streams pass through untouched; only video is re-encoded.
	args = append(args, "-c:a", "copy")

	args = append(args, "-progress", "pipe:1", "-nostats")

	args = append(args, "-y", outputPath)
	return args
}
