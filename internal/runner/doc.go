// Package runner supervises external tdl processes: it spawns one worker
// per source, streams their output through the progress grammar, enforces
// idle timeouts and relays progress, warning, error and finished
// notifications to a single consumer.
package runner
