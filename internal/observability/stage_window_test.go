package observability

import "testing"

func TestStageWindowSnapshotPercentiles(t *testing.T) {
	w := newStageWindow(8)
	for _, ms := range []float64{10, 20, 30, 40} {
		w.Observe("dispatch", ms)
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	st := snap.Stages[0]
	if st.Stage != "dispatch" {
		t.Fatalf("Stage = %q, want %q", st.Stage, "dispatch")
	}
	if st.Samples != 4 {
		t.Fatalf("Samples = %d, want 4", st.Samples)
	}
	if st.LastMS != 40 {
		t.Fatalf("LastMS = %v, want 40", st.LastMS)
	}
	if st.AvgMS != 25 {
		t.Fatalf("AvgMS = %v, want 25", st.AvgMS)
	}
	if st.P50MS != 25 {
		t.Fatalf("P50MS = %v, want 25", st.P50MS)
	}
}

func TestStageWindowWrapsRing(t *testing.T) {
	w := newStageWindow(4)
	for i := 0; i < 10; i++ {
		w.Observe("classify", float64(i))
	}

	snap := w.Snapshot()
	if snap.Stages[0].Samples != 4 {
		t.Fatalf("Samples = %d, want ring size 4", snap.Stages[0].Samples)
	}
	if snap.Stages[0].LastMS != 9 {
		t.Fatalf("LastMS = %v, want 9", snap.Stages[0].LastMS)
	}
}

func TestStageWindowIgnoresInvalidObservations(t *testing.T) {
	w := newStageWindow(4)
	w.Observe("", 10)
	w.Observe("dispatch", -1)

	snap := w.Snapshot()
	if len(snap.Stages) != 0 {
		t.Fatalf("len(Stages) = %d, want 0", len(snap.Stages))
	}
}

func TestStageWindowIndicators(t *testing.T) {
	w := newStageWindow(4)
	w.ObserveIndicator("brain_fallback")
	w.ObserveIndicator("brain_fallback")
	w.ObserveIndicator("  ")

	snap := w.Snapshot()
	if len(snap.Indicators) != 1 {
		t.Fatalf("len(Indicators) = %d, want 1", len(snap.Indicators))
	}
	if snap.Indicators[0].Name != "brain_fallback" || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators[0] = %+v, want brain_fallback x2", snap.Indicators[0])
	}
}
