// Package update checks GitHub releases of tdl for a newer version and
// performs the download-verify-swap installation, reporting progress
// through the same notification contract as the runner.
package update
