package model

// EventKind classifies a line of external-tool output after parsing
type EventKind string

const (
	// EventItemProgress is a per-file progress update (bytes/speed/ETA)
	EventItemProgress EventKind = "ItemProgress"

	// EventItemDone marks one file as fully transferred
	EventItemDone EventKind = "ItemDone"

	// EventOverall is the tool's own overall progress bar line
	EventOverall EventKind = "Overall"

	// EventStats is a resource usage line (CPU/memory/goroutines)
	EventStats EventKind = "Stats"

	// EventError is a line the grammar recognizes as an error report
	EventError EventKind = "Error"

	// EventUnrecognized is any line outside the known grammar. It is
	// forwarded verbatim for display, never dropped and never fatal.
	EventUnrecognized EventKind = "Unrecognized"
)

// ProgressEvent is the structured form of one raw output line. Fields that
// a given kind does not carry are left at their zero or unknown values.
type ProgressEvent struct {
	Kind   EventKind
	ItemID string

	Percent    float64
	BytesDone  int64
	BytesTotal int64
	Speed      float64
	ETASec     int

	CPUPercent  float64
	MemoryBytes int64
	Goroutines  int

	// Line is the verbatim input line the event was parsed from
	Line string
}

// NotificationKind classifies a cross-boundary notification
type NotificationKind string

const (
	// NoteProgress carries a fresh per-source snapshot plus the recomputed
	// aggregate
	NoteProgress NotificationKind = "Progress"

	// NoteOutput carries a raw, unrecognized output line for display
	NoteOutput NotificationKind = "Output"

	// NoteWarning carries a non-fatal diagnostic
	NoteWarning NotificationKind = "Warning"

	// NoteError carries a per-source failure diagnostic
	NoteError NotificationKind = "Error"

	// NoteFinished is the single terminal notification of a job; it is
	// always the last notification emitted for that job
	NoteFinished NotificationKind = "Finished"
)

// Notification is an immutable event published by a job to its consumer.
// No mutable state is shared across the boundary; consumers only ever see
// value copies.
type Notification struct {
	Kind     NotificationKind
	JobID    string
	SourceID string

	Snapshot  ProgressSnapshot
	Aggregate AggregateSnapshot

	Message  string
	Outcome  Outcome
	Failures []SourceFailure
}
