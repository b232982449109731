package planner

import (
	"fmt"
	"strings"

	"github.com/backmassage/squeeze/internal/hwdetect"
)

// FilterChain builds the per-file -vf value for a plan given the source's
// probed properties. Scaling is emitted only when the source is actually
// larger than the target (sources at or below the target pass through, so
// nothing is ever upscaled); likewise the fps clause is dropped when the
// source rate does not exceed the target. Unknown source properties (zero)
// keep the clause, matching the plan's intent when probing is inconclusive.
//
// Returns an empty string when no filtering is needed.
func FilterChain(plan *EncodePlan, srcWidth, srcHeight int, srcFPS float64) string {
	var filters []string

	if plan.TargetWidth > 0 && needsScale(srcWidth, srcHeight, plan.TargetWidth, plan.TargetHeight) {
		filters = append(filters, scaleClause(plan))
	}

	if plan.TargetFPS > 0 && (srcFPS == 0 || srcFPS > float64(plan.TargetFPS)) {
		filters = append(filters, fmt.Sprintf("fps=%d", plan.TargetFPS))
	}

	return strings.Join(filters, ",")
}

// needsScale reports whether the source exceeds the target in either
// dimension. Unknown source dimensions (zero) count as exceeding, so the
// encoder still receives a bounded output size.
func needsScale(srcW, srcH, dstW, dstH int) bool {
	if srcW <= 0 || srcH <= 0 {
		return true
	}
	return srcW > dstW || srcH > dstH
}

// scaleClause picks the filter name matching the encode path. The hardware
// scalers keep frames on the device; the software path uses plain scale.
func scaleClause(plan *EncodePlan) string {
	switch plan.Kind {
	case hwdetect.QSV:
		return fmt.Sprintf("scale_qsv=w=%d:h=%d", plan.TargetWidth, plan.TargetHeight)
	case hwdetect.VAAPI:
		return fmt.Sprintf("scale_vaapi=w=%d:h=%d", plan.TargetWidth, plan.TargetHeight)
	default:
		return fmt.Sprintf("scale=%d:%d", plan.TargetWidth, plan.TargetHeight)
	}
}
