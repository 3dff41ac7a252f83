// Package progress aggregates per-source progress snapshots into one
// overall view for display.
package progress
