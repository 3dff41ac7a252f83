package progress

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tdlgui/tdl-gui/internal/model"
)

// Aggregator holds the latest progress snapshot per source and derives an
// overall aggregate from that set on demand. Updates are serialized by a
// mutex so an aggregate never observes a torn snapshot; the aggregate itself
// is a pure function of the stored set, so recomputing with the same inputs
// always yields the same result.
type Aggregator struct {
	mu        sync.RWMutex
	snapshots map[string]model.ProgressSnapshot
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		snapshots: make(map[string]model.ProgressSnapshot),
	}
}

// Update stores a snapshot for its source. A snapshot with a sequence number
// at or below the stored one is stale and is rejected, so a late-arriving
// update can never roll progress backwards. Returns true when the snapshot
// was accepted.
func (a *Aggregator) Update(snap model.ProgressSnapshot) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, exists := a.snapshots[snap.SourceID]; exists && snap.Seq <= prev.Seq {
		return false
	}
	a.snapshots[snap.SourceID] = snap
	return true
}

// Remove drops a source from the set. Sources may come and go mid-batch;
// the aggregate simply reflects whatever set is present.
func (a *Aggregator) Remove(sourceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.snapshots, sourceID)
}

// Snapshot returns the stored snapshot for a source
func (a *Aggregator) Snapshot(sourceID string) (model.ProgressSnapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap, exists := a.snapshots[sourceID]
	return snap, exists
}

// Snapshots returns all stored snapshots ordered by source identifier
func (a *Aggregator) Snapshots() []model.ProgressSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snaps := make([]model.ProgressSnapshot, 0, len(a.snapshots))
	for _, snap := range a.snapshots {
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].SourceID < snaps[j].SourceID
	})
	return snaps
}

// Aggregate recomputes the overall view over the current snapshot set.
// Sources with unknown totals contribute their done bytes but are excluded
// from the total sum; TotalKnown reports whether every present source has a
// known total.
func (a *Aggregator) Aggregate() model.AggregateSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	agg := model.AggregateSnapshot{
		TotalKnown: true,
		ETASec:     model.UnknownETA,
	}

	for _, snap := range a.snapshots {
		agg.Sources++
		if snap.BytesDone > 0 {
			agg.BytesDone += snap.BytesDone
		}
		if snap.BytesTotal == model.UnknownTotal {
			agg.TotalKnown = false
		} else {
			agg.BytesTotal += snap.BytesTotal
		}
		if snap.Speed > 0 && !snap.Status.IsTerminal() {
			agg.Speed += snap.Speed
		}
		if snap.Status.IsTerminal() {
			agg.Finished++
		}
	}

	if agg.Sources == 0 {
		agg.TotalKnown = false
		return agg
	}

	if agg.TotalKnown && agg.BytesTotal > 0 {
		agg.Percent = float64(agg.BytesDone) / float64(agg.BytesTotal) * 100
		if agg.Percent > 100 {
			agg.Percent = 100
		}
		if agg.Speed > 0 && agg.BytesTotal > agg.BytesDone {
			agg.ETASec = int(float64(agg.BytesTotal-agg.BytesDone) / agg.Speed)
		}
	}

	return agg
}

// FormatBytes formats a byte count as a human-readable string
func FormatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
		tb = gb * 1024
	)

	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
