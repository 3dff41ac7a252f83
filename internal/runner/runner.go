package runner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tdlgui/tdl-gui/internal/model"
	"github.com/tdlgui/tdl-gui/internal/platform"
	"github.com/tdlgui/tdl-gui/internal/progress"
)

// Runner configuration constants
const (
	// NotificationBuffer is the notification channel capacity. Consumers
	// must drain the channel until the Finished notification arrives.
	NotificationBuffer = 64

	// MaxConcurrency caps the number of simultaneously running workers
	MaxConcurrency = 10
)

// ErrNoSources is returned when a job is submitted with no sources
var ErrNoSources = errors.New("no sources to run")

// Runner creates and supervises jobs. It holds no per-job state: each call
// to Execute produces an independent Job handle.
type Runner struct {
	parser *platform.Parser
}

// NewRunner creates a runner that parses output with the given parser
func NewRunner(parser *platform.Parser) *Runner {
	return &Runner{parser: parser}
}

// Job is one logical operation over a batch of sources. It exclusively owns
// its workers and its aggregator; callers interact with it only through
// Cancel and the notification channel.
type Job struct {
	ID string

	specs       []model.CommandSpec
	concurrency int
	parser      *platform.Parser
	agg         *progress.Aggregator

	notifications chan model.Notification
	emitMu        sync.Mutex
	cancelCh      chan struct{}
	cancelOnce    sync.Once
	done          chan struct{}

	mu        sync.Mutex
	workers   map[string]*Worker
	seq       map[string]uint64
	failures  []model.SourceFailure
	succeeded int
	running   int
	finished  bool
	outcome   model.Outcome
}

// Execute submits a batch of command specifications and returns a running
// Job. At most concurrency workers run at once; the remainder queue. The
// call fails outright only when no source's executable can be found at all.
func (r *Runner) Execute(specs []model.CommandSpec, concurrency int) (*Job, error) {
	if len(specs) == 0 {
		return nil, ErrNoSources
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	if err := preflight(specs); err != nil {
		return nil, err
	}

	job := &Job{
		ID:            generateJobID(),
		specs:         specs,
		concurrency:   concurrency,
		parser:        r.parser,
		agg:           progress.NewAggregator(),
		notifications: make(chan model.Notification, NotificationBuffer),
		cancelCh:      make(chan struct{}),
		done:          make(chan struct{}),
		workers:       make(map[string]*Worker),
		seq:           make(map[string]uint64),
	}

	go job.run()

	return job, nil
}

// preflight fails the job before any worker runs when the executable is
// absent for every source
func preflight(specs []model.CommandSpec) error {
	var lastErr error
	for _, spec := range specs {
		if err := resolveExecutable(spec.Path); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrLaunch, lastErr)
}

// resolveExecutable checks that the given path can be spawned
func resolveExecutable(path string) error {
	if strings.ContainsAny(path, `/\`) {
		_, err := os.Stat(path)
		return err
	}
	_, err := exec.LookPath(path)
	return err
}

// Notifications returns the single-consumer notification channel. The
// channel is closed after the terminal Finished notification, which is
// always the last one delivered.
func (j *Job) Notifications() <-chan model.Notification {
	return j.notifications
}

// Cancel requests termination of the whole job. It is idempotent, safe in
// any state, and propagates to every still-running worker; already-finished
// workers keep their outcome. The job still emits exactly one terminal
// Finished notification.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() {
		close(j.cancelCh)

		j.mu.Lock()
		workers := make([]*Worker, 0, len(j.workers))
		for _, w := range j.workers {
			workers = append(workers, w)
		}
		j.mu.Unlock()

		for _, w := range workers {
			w.Cancel()
		}
	})
}

// Wait blocks until the job resolves and returns its outcome
func (j *Job) Wait() model.Outcome {
	<-j.done

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcome
}

// Aggregate returns the current overall progress view
func (j *Job) Aggregate() model.AggregateSnapshot {
	return j.agg.Aggregate()
}

// Snapshots returns the current per-source progress snapshots
func (j *Job) Snapshots() []model.ProgressSnapshot {
	return j.agg.Snapshots()
}

// Failures returns the per-source failures recorded so far
func (j *Job) Failures() []model.SourceFailure {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]model.SourceFailure, len(j.failures))
	copy(out, j.failures)
	return out
}

// RunningWorkers returns how many workers are currently running
func (j *Job) RunningWorkers() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run drives the batch: admission through a semaphore sized to the
// concurrency limit, then outcome computation once every source resolves
func (j *Job) run() {
	sem := make(chan struct{}, j.concurrency)
	var wg sync.WaitGroup

dispatch:
	for _, spec := range j.specs {
		select {
		case sem <- struct{}{}:
		case <-j.cancelCh:
			break dispatch
		}

		select {
		case <-j.cancelCh:
			<-sem
			break dispatch
		default:
		}

		wg.Add(1)
		go func(spec model.CommandSpec) {
			defer wg.Done()
			defer func() { <-sem }()
			j.runSource(spec)
		}(spec)
	}

	wg.Wait()
	j.finish()
}

// runSource runs one worker to completion and records its result
func (j *Job) runSource(spec model.CommandSpec) {
	worker, err := StartWorker(spec, j.handleLine)
	if err != nil {
		log.Printf("job %s: source %s failed to launch: %v", j.ID, spec.SourceID, err)
		j.recordFailure(model.SourceFailure{
			SourceID:   spec.SourceID,
			State:      model.WorkerFailed,
			ExitCode:   -1,
			Diagnostic: err.Error(),
		})
		j.publishStatus(spec.SourceID, model.WorkerFailed)
		j.emit(model.Notification{
			Kind:     model.NoteError,
			JobID:    j.ID,
			SourceID: spec.SourceID,
			Message:  err.Error(),
		})
		return
	}

	j.mu.Lock()
	j.workers[spec.SourceID] = worker
	j.running++
	cancelled := j.isCancelled()
	j.mu.Unlock()

	// Cancel may have raced worker creation; make sure it lands
	if cancelled {
		worker.Cancel()
	}

	j.publishStatus(spec.SourceID, model.WorkerRunning)

	result := worker.Wait()

	j.mu.Lock()
	j.running--
	j.mu.Unlock()

	j.publishStatus(spec.SourceID, result.State)

	switch result.State {
	case model.WorkerSucceeded:
		j.mu.Lock()
		j.succeeded++
		j.mu.Unlock()
	case model.WorkerCancelled:
		// Not a failure: the job outcome already reflects cancellation
	default:
		j.recordFailure(model.SourceFailure{
			SourceID:   spec.SourceID,
			State:      result.State,
			ExitCode:   result.ExitCode,
			Diagnostic: result.Diagnostic,
		})
		j.emit(model.Notification{
			Kind:     model.NoteError,
			JobID:    j.ID,
			SourceID: spec.SourceID,
			Message:  result.Diagnostic,
		})
	}
}

// handleLine parses one raw output line and relays it as a notification
func (j *Job) handleLine(line RawLine) {
	event := j.parser.Parse(line.Text)

	switch event.Kind {
	case model.EventItemProgress, model.EventItemDone:
		snap := j.nextSnapshot(line.SourceID, func(prev model.ProgressSnapshot) model.ProgressSnapshot {
			prev.BytesDone = event.BytesDone
			prev.BytesTotal = event.BytesTotal
			prev.Speed = event.Speed
			prev.ETASec = event.ETASec
			prev.Percent = event.Percent
			prev.Status = model.WorkerRunning
			return prev
		})
		j.publishSnapshot(snap)

	case model.EventOverall:
		// The tool's own overall bar carries the best per-invocation
		// percentage when individual items do not report totals
		snap := j.nextSnapshot(line.SourceID, func(prev model.ProgressSnapshot) model.ProgressSnapshot {
			prev.Percent = event.Percent
			if event.Speed > 0 {
				prev.Speed = event.Speed
			}
			prev.Status = model.WorkerRunning
			return prev
		})
		j.publishSnapshot(snap)

	case model.EventError:
		j.emit(model.Notification{
			Kind:     model.NoteWarning,
			JobID:    j.ID,
			SourceID: line.SourceID,
			Message:  event.Line,
		})

	default:
		// Stats and unrecognized lines are forwarded verbatim, never
		// dropped and never fatal
		j.emit(model.Notification{
			Kind:     model.NoteOutput,
			JobID:    j.ID,
			SourceID: line.SourceID,
			Message:  event.Line,
		})
	}
}

// nextSnapshot builds the successor snapshot for a source from its stored
// predecessor, with a freshly assigned sequence number
func (j *Job) nextSnapshot(sourceID string, mutate func(model.ProgressSnapshot) model.ProgressSnapshot) model.ProgressSnapshot {
	j.mu.Lock()
	j.seq[sourceID]++
	seq := j.seq[sourceID]
	j.mu.Unlock()

	prev, exists := j.agg.Snapshot(sourceID)
	if !exists {
		prev = model.ProgressSnapshot{
			SourceID:   sourceID,
			BytesTotal: model.UnknownTotal,
			ETASec:     model.UnknownETA,
			Status:     model.WorkerPending,
		}
	}

	snap := mutate(prev)
	snap.SourceID = sourceID
	snap.Seq = seq
	snap.At = time.Now()
	return snap
}

// publishStatus records a status-only snapshot change for a source
func (j *Job) publishStatus(sourceID string, state model.WorkerState) {
	snap := j.nextSnapshot(sourceID, func(prev model.ProgressSnapshot) model.ProgressSnapshot {
		prev.Status = state
		if state == model.WorkerSucceeded {
			prev.Percent = 100
			if prev.BytesTotal != model.UnknownTotal {
				prev.BytesDone = prev.BytesTotal
			}
			prev.ETASec = 0
			prev.Speed = 0
		}
		if state.IsTerminal() {
			prev.Speed = 0
		}
		return prev
	})
	j.publishSnapshot(snap)
}

// publishSnapshot lands the snapshot in the aggregator and, when accepted,
// relays it with the recomputed aggregate. Acceptance and emission happen
// under one lock so per-source notifications reach the channel in
// non-decreasing freshness order.
func (j *Job) publishSnapshot(snap model.ProgressSnapshot) {
	j.emitMu.Lock()
	defer j.emitMu.Unlock()

	if !j.agg.Update(snap) {
		return
	}
	j.emit(model.Notification{
		Kind:      model.NoteProgress,
		JobID:     j.ID,
		SourceID:  snap.SourceID,
		Snapshot:  snap,
		Aggregate: j.agg.Aggregate(),
	})
}

// recordFailure appends one source failure
func (j *Job) recordFailure(failure model.SourceFailure) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failures = append(j.failures, failure)
}

// isCancelled reports whether cancellation has been requested
func (j *Job) isCancelled() bool {
	select {
	case <-j.cancelCh:
		return true
	default:
		return false
	}
}

// finish computes the job outcome and emits the single terminal Finished
// notification, then closes the channel
func (j *Job) finish() {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return
	}
	j.finished = true

	switch {
	case j.isCancelled():
		j.outcome = model.OutcomeCancelled
	case len(j.failures) == 0:
		j.outcome = model.OutcomeSucceeded
	case j.succeeded == 0:
		j.outcome = model.OutcomeFailed
	default:
		j.outcome = model.OutcomePartialFailure
	}

	outcome := j.outcome
	failures := make([]model.SourceFailure, len(j.failures))
	copy(failures, j.failures)
	j.mu.Unlock()

	j.emit(model.Notification{
		Kind:     model.NoteFinished,
		JobID:    j.ID,
		Outcome:  outcome,
		Failures: failures,
	})
	close(j.notifications)
	close(j.done)
}

// emit delivers one notification. Delivery blocks when the buffer is full,
// which backpressures the producing worker rather than dropping events.
func (j *Job) emit(n model.Notification) {
	j.notifications <- n
}

// generateJobID generates a unique job ID using UUID v7 for better
// uniqueness and time ordering
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	return "job-" + id.String()
}
