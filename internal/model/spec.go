package model

import "time"

// CommandSpec is an immutable description of one subprocess invocation.
// Callers build it before submitting a job and must not mutate it afterwards.
type CommandSpec struct {
	// SourceID identifies the logical source this command serves
	// (e.g. one link of a download batch). Progress snapshots for the
	// command are keyed by this identifier.
	SourceID string

	// Path is the executable to run
	Path string

	// Args is the argument list, not including the executable itself
	Args []string

	// Dir is the working directory; empty means the current directory
	Dir string

	// Env holds environment overrides in KEY=VALUE form, appended to the
	// parent environment
	Env []string

	// IdleTimeout terminates the process if it produces no output and does
	// not exit within this window. Zero disables the timeout.
	IdleTimeout time.Duration
}

// SourceFailure records why a single source of a job failed
type SourceFailure struct {
	SourceID   string
	State      WorkerState
	ExitCode   int
	Diagnostic string
}
