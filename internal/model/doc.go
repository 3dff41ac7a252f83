// Package model contains the data structures shared between the runner,
// the progress aggregator and the UI: command specifications, worker
// states, progress snapshots and the notification events that cross the
// worker/UI boundary.
package model
