// Package display provides human-readable formatting for sizes, reductions,
// and the startup banner.
package display

import (
	"fmt"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
		div = 1
		for i := 0; i <= exp; i++ {
			div *= unit
		}
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// Reduction returns the size reduction from original to encoded as a
// percentage. Zero original size yields 0. Negative means the output grew.
func Reduction(original, encoded int64) float64 {
	if original == 0 {
		return 0
	}
	return float64(original-encoded) / float64(original) * 100
}

// FormatReduction renders Reduction with a percent sign (e.g. "37.5%").
func FormatReduction(original, encoded int64) string {
	return fmt.Sprintf("%.1f%%", Reduction(original, encoded))
}
