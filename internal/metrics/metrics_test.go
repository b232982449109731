package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewIsSingleton(t *testing.T) {
	if New() != New() {
		t.Error("New must return the same registered instance")
	}
}

func TestObserveOutcome(t *testing.T) {
	m := New()

	savedBefore := testutil.ToFloat64(m.BytesSaved)
	processedBefore := testutil.ToFloat64(m.BytesProcessed)
	replacedBefore := testutil.ToFloat64(m.FilesTotal.WithLabelValues("replaced"))

	m.ObserveOutcome("replaced", 1000, 600, 2*time.Second)

	if got := testutil.ToFloat64(m.BytesSaved) - savedBefore; got != 600 {
		t.Errorf("BytesSaved delta = %v, want 600", got)
	}
	if got := testutil.ToFloat64(m.BytesProcessed) - processedBefore; got != 1000 {
		t.Errorf("BytesProcessed delta = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues("replaced")) - replacedBefore; got != 1 {
		t.Errorf("FilesTotal[replaced] delta = %v, want 1", got)
	}
}

func TestObserveOutcome_NoSavingsForKept(t *testing.T) {
	m := New()
	before := testutil.ToFloat64(m.BytesSaved)
	m.ObserveOutcome("kept", 1000, 0, time.Second)
	if got := testutil.ToFloat64(m.BytesSaved) - before; got != 0 {
		t.Errorf("BytesSaved delta = %v, want 0", got)
	}
}
