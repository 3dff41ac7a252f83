package model

import (
	"fmt"
	"time"
)

// UnknownTotal marks a byte total that the external tool has not reported yet
const UnknownTotal int64 = -1

// UnknownETA marks an ETA that cannot be estimated yet
const UnknownETA int = -1

// ProgressSnapshot is an immutable per-source progress record. A newer
// snapshot for the same SourceID supersedes the previous one; snapshots are
// never merged. Seq increases monotonically per source so that a stale
// snapshot can never overwrite a fresher one.
type ProgressSnapshot struct {
	SourceID   string
	Seq        uint64
	BytesDone  int64
	BytesTotal int64 // UnknownTotal until the tool reports it
	Speed      float64
	ETASec     int // UnknownETA until it can be estimated
	Percent    float64
	Status     WorkerState
	At         time.Time
}

// AggregateSnapshot is a derived view over the current set of per-source
// snapshots. BytesTotal sums only sources with a known total; TotalKnown is
// false while any contributing source still reports an unknown total, in
// which case Percent is not meaningful.
type AggregateSnapshot struct {
	BytesDone  int64
	BytesTotal int64
	TotalKnown bool
	Speed      float64
	ETASec     int
	Percent    float64
	Sources    int
	Finished   int
}

// ETAString returns the snapshot ETA formatted as mm:ss or hh:mm:ss,
// or "—" if unknown
func (ps ProgressSnapshot) ETAString() string {
	return formatETA(ps.ETASec)
}

// ETAString returns the aggregate ETA formatted as mm:ss or hh:mm:ss,
// or "—" if unknown
func (as AggregateSnapshot) ETAString() string {
	return formatETA(as.ETASec)
}

func formatETA(etaSec int) string {
	if etaSec <= 0 {
		return "—"
	}

	hours := etaSec / 3600
	minutes := (etaSec % 3600) / 60
	seconds := etaSec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
