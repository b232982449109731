package pipeline

// RunStats aggregates per-file outcomes across a batch run.
type RunStats struct {
	Total         int
	Current       int
	Replaced      int
	Kept          int
	Failed        int
	Skipped       int
	Renamed       int
	Interrupted   bool
	OriginalBytes int64
	NewBytes      int64
}

// Saved reports the net bytes reclaimed across the run.
func (s RunStats) Saved() int64 {
	return s.OriginalBytes - s.NewBytes
}

// Processed counts files that reached a successful terminal state.
func (s RunStats) Processed() int {
	return s.Replaced + s.Kept
}
