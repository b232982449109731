package pipeline

// FileOutcome is the terminal state of one candidate after finalization.
type FileOutcome int

const (
	// OutcomeReplaced means the encoded file was smaller and replaced the
	// original.
	OutcomeReplaced FileOutcome = iota
	// OutcomeKept means the encode succeeded but was not smaller, so the
	// original stays and the encoded file was deleted.
	OutcomeKept
	// OutcomeDiscarded means the encode failed or was cancelled and any
	// partial output was removed. The original is untouched.
	OutcomeDiscarded
	// OutcomeFailed means finalization itself went wrong (probe error or a
	// rename failure). The original is untouched.
	OutcomeFailed
	// OutcomeSkipped means the file was never encoded (vanished, below the
	// size floor, no video stream, or dry run).
	OutcomeSkipped
)

func (o FileOutcome) String() string {
	switch o {
	case OutcomeReplaced:
		return "replaced"
	case OutcomeKept:
		return "kept"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	}
	return "unknown"
}
