package model

// WorkerState represents the lifecycle state of a single process worker.
// Transitions are one-directional; a terminal state is assigned exactly once.
type WorkerState string

const (
	// WorkerPending means the worker is queued but not started
	WorkerPending WorkerState = "Pending"

	// WorkerRunning means the subprocess is running
	WorkerRunning WorkerState = "Running"

	// WorkerSucceeded means the subprocess exited with code 0
	WorkerSucceeded WorkerState = "Succeeded"

	// WorkerFailed means the subprocess exited with a nonzero code
	WorkerFailed WorkerState = "Failed"

	// WorkerTimedOut means the worker was terminated after producing no
	// output and not exiting within the configured timeout window
	WorkerTimedOut WorkerState = "TimedOut"

	// WorkerCancelled means the worker was terminated by the caller
	WorkerCancelled WorkerState = "Cancelled"
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	return string(ws)
}

// IsTerminal returns true if the state is final and will never change
func (ws WorkerState) IsTerminal() bool {
	switch ws {
	case WorkerSucceeded, WorkerFailed, WorkerTimedOut, WorkerCancelled:
		return true
	}
	return false
}

// Outcome represents the final result of a whole job
type Outcome string

const (
	// OutcomeSucceeded means every source finished successfully
	OutcomeSucceeded Outcome = "Succeeded"

	// OutcomeFailed means every source failed
	OutcomeFailed Outcome = "Failed"

	// OutcomePartialFailure means at least one source failed while
	// at least one other succeeded
	OutcomePartialFailure Outcome = "PartialFailure"

	// OutcomeCancelled means the caller cancelled the job before completion
	OutcomeCancelled Outcome = "Cancelled"
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	return string(o)
}
