package progress

import (
	"sync"
	"testing"

	"github.com/tdlgui/tdl-gui/internal/model"
)

func snap(id string, seq uint64, done, total int64) model.ProgressSnapshot {
	return model.ProgressSnapshot{
		SourceID:   id,
		Seq:        seq,
		BytesDone:  done,
		BytesTotal: total,
		Status:     model.WorkerRunning,
	}
}

func TestUpdateLatestSnapshotWins(t *testing.T) {
	agg := NewAggregator()

	if !agg.Update(snap("a", 1, 100, 1000)) {
		t.Fatal("first snapshot should be accepted")
	}
	if !agg.Update(snap("a", 2, 200, 1000)) {
		t.Fatal("newer snapshot should be accepted")
	}

	// A stale snapshot must never overwrite a fresher one
	if agg.Update(snap("a", 1, 100, 1000)) {
		t.Error("stale snapshot should be rejected")
	}
	if agg.Update(snap("a", 2, 150, 1000)) {
		t.Error("equal-sequence snapshot should be rejected")
	}

	stored, exists := agg.Snapshot("a")
	if !exists {
		t.Fatal("snapshot should exist")
	}
	if stored.BytesDone != 200 {
		t.Errorf("expected latest bytes done 200, got %d", stored.BytesDone)
	}

	result := agg.Aggregate()
	if result.BytesDone != 200 {
		t.Errorf("aggregate should reflect only the newest snapshot, got %d", result.BytesDone)
	}
}

func TestAggregateSumsAcrossSources(t *testing.T) {
	agg := NewAggregator()
	agg.Update(snap("a", 1, 100, 1000))
	agg.Update(snap("b", 1, 300, 500))

	result := agg.Aggregate()

	if result.Sources != 2 {
		t.Errorf("expected 2 sources, got %d", result.Sources)
	}
	if result.BytesDone != 400 {
		t.Errorf("expected 400 bytes done, got %d", result.BytesDone)
	}
	if result.BytesTotal != 1500 {
		t.Errorf("expected 1500 bytes total, got %d", result.BytesTotal)
	}
	if !result.TotalKnown {
		t.Error("total should be known when every source reports one")
	}
	expectedPercent := float64(400) / float64(1500) * 100
	if result.Percent != expectedPercent {
		t.Errorf("expected percent %v, got %v", expectedPercent, result.Percent)
	}
}

func TestAggregateWithUnknownTotal(t *testing.T) {
	agg := NewAggregator()
	agg.Update(snap("a", 1, 100, 1000))
	agg.Update(snap("b", 1, 250, model.UnknownTotal))

	result := agg.Aggregate()

	if result.TotalKnown {
		t.Error("total must be flagged unknown while any source lacks one")
	}
	if result.BytesDone != 350 {
		t.Errorf("done bytes must still sum accurately, got %d", result.BytesDone)
	}
	if result.BytesTotal != 1000 {
		t.Errorf("total should include only known totals, got %d", result.BytesTotal)
	}
	if result.Percent != 0 {
		t.Errorf("percentage must not be computed with unknown totals, got %v", result.Percent)
	}
}

func TestAggregateSingleSourceUnknownTotal(t *testing.T) {
	agg := NewAggregator()

	// A source that only ever reports incremental done bytes
	agg.Update(snap("a", 1, 100, model.UnknownTotal))
	agg.Update(snap("a", 2, 250, model.UnknownTotal))
	agg.Update(snap("a", 3, 900, model.UnknownTotal))

	result := agg.Aggregate()

	if result.TotalKnown {
		t.Error("total should be unknown")
	}
	if result.BytesDone != 900 {
		t.Errorf("expected 900 done bytes, got %d", result.BytesDone)
	}
	if result.Percent != 0 {
		t.Errorf("percent should not be computed, got %v", result.Percent)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	agg := NewAggregator()
	agg.Update(snap("a", 1, 10, 100))
	agg.Update(snap("b", 1, 20, 200))

	first := agg.Aggregate()
	second := agg.Aggregate()

	if first != second {
		t.Errorf("aggregate must be deterministic: %+v vs %+v", first, second)
	}
}

func TestRemoveMidBatch(t *testing.T) {
	agg := NewAggregator()
	agg.Update(snap("a", 1, 100, 1000))
	agg.Update(snap("b", 1, 200, 2000))

	agg.Remove("a")

	result := agg.Aggregate()
	if result.Sources != 1 {
		t.Errorf("expected 1 source after removal, got %d", result.Sources)
	}
	if result.BytesDone != 200 {
		t.Errorf("expected 200 bytes done, got %d", result.BytesDone)
	}

	// Removing an absent source is a no-op
	agg.Remove("nope")
	if agg.Aggregate().Sources != 1 {
		t.Error("removing an unknown source should change nothing")
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator()

	result := agg.Aggregate()
	if result.Sources != 0 {
		t.Errorf("expected 0 sources, got %d", result.Sources)
	}
	if result.TotalKnown {
		t.Error("empty set has no known total")
	}
}

func TestSnapshotsOrdering(t *testing.T) {
	agg := NewAggregator()
	agg.Update(snap("c", 1, 1, 1))
	agg.Update(snap("a", 1, 1, 1))
	agg.Update(snap("b", 1, 1, 1))

	snaps := agg.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	for i, id := range []string{"a", "b", "c"} {
		if snaps[i].SourceID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, snaps[i].SourceID)
		}
	}
}

func TestConcurrentUpdates(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			id := string(rune('a' + worker))
			for seq := uint64(1); seq <= 100; seq++ {
				agg.Update(snap(id, seq, int64(seq), 100))
				agg.Aggregate()
			}
		}(i)
	}
	wg.Wait()

	result := agg.Aggregate()
	if result.Sources != 8 {
		t.Fatalf("expected 8 sources, got %d", result.Sources)
	}
	if result.BytesDone != 8*100 {
		t.Errorf("expected %d bytes done, got %d", 8*100, result.BytesDone)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{512, "512 B"},
		{1536, "1.50 KB"},
		{4 * 1024 * 1024, "4.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.input); got != tt.expected {
			t.Errorf("FormatBytes(%d): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
