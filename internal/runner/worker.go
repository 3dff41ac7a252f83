package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tdlgui/tdl-gui/internal/model"
)

// ErrLaunch marks a failure to spawn the external process at all: the
// executable is missing or the OS refused the spawn. It is fatal for the
// affected source and never retried automatically.
var ErrLaunch = errors.New("launch error")

// Stream names for raw output lines
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Worker tuning constants
const (
	// KillGracePeriod is how long a graceful termination signal gets
	// before the process is forcibly killed
	KillGracePeriod = 3 * time.Second

	// StderrTailLines bounds the diagnostic captured from stderr
	StderrTailLines = 20

	// MaxLineBytes bounds a single scanned output line
	MaxLineBytes = 256 * 1024
)

// RawLine is one line of subprocess output in arrival order for its stream.
// Ordering across the two streams is not guaranteed.
type RawLine struct {
	SourceID string
	Stream   string
	Text     string
}

// Result is the single terminal outcome of a worker
type Result struct {
	State      model.WorkerState
	ExitCode   int
	Diagnostic string
}

// Worker wraps exactly one subprocess invocation and owns its lifecycle:
// start, stream stdout/stderr, enforce the idle timeout, map the exit code
// and support forced termination. The terminal state is assigned exactly
// once; a timeout racing a cancellation resolves to whichever wins the
// assignment.
type Worker struct {
	ID   string
	spec model.CommandSpec

	cmd    *exec.Cmd
	onLine func(RawLine)

	mu       sync.Mutex
	state    model.WorkerState
	exitCode int
	diag     string

	activity   chan struct{}
	cancelCh   chan struct{}
	cancelOnce sync.Once
	exited     chan struct{}
	done       chan struct{}

	waitErr error
	tail    *tailBuffer
}

// StartWorker spawns the process described by spec and begins streaming its
// output through onLine. Returns an error wrapping ErrLaunch when the
// process cannot be started.
func StartWorker(spec model.CommandSpec, onLine func(RawLine)) (*Worker, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	configureProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrLaunch, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrLaunch, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	w := &Worker{
		ID:       generateWorkerID(),
		spec:     spec,
		cmd:      cmd,
		onLine:   onLine,
		state:    model.WorkerRunning,
		exitCode: -1,
		activity: make(chan struct{}, 1),
		cancelCh: make(chan struct{}),
		exited:   make(chan struct{}),
		done:     make(chan struct{}),
		tail:     newTailBuffer(StderrTailLines),
	}

	var scanners sync.WaitGroup
	scanners.Add(2)
	go w.scanStream(stdout, StreamStdout, &scanners)
	go w.scanStream(stderr, StreamStderr, &scanners)

	// Reap only after both pipes are drained; Wait closes them
	go func() {
		scanners.Wait()
		w.waitErr = cmd.Wait()
		close(w.exited)
	}()

	go w.supervise()

	return w, nil
}

// Cancel forcibly terminates the process: a best-effort graceful signal
// first, a hard kill after the grace period. Safe to call multiple times
// and after the process has already exited.
func (w *Worker) Cancel() {
	w.cancelOnce.Do(func() {
		close(w.cancelCh)
	})
}

// Wait blocks until the worker resolves and returns its terminal result
func (w *Worker) Wait() Result {
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return Result{State: w.state, ExitCode: w.exitCode, Diagnostic: w.diag}
}

// State returns the current worker state
func (w *Worker) State() model.WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// supervise owns the timeout clock and the terminal-state decision. It
// never blocks on subprocess I/O: the scanners notify it as output arrives.
func (w *Worker) supervise() {
	defer close(w.done)

	var timeoutCh <-chan time.Time
	var timer *time.Timer
	if w.spec.IdleTimeout > 0 {
		timer = time.NewTimer(w.spec.IdleTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	for {
		select {
		case <-w.exited:
			w.resolveExit()
			return

		case <-w.activity:
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.spec.IdleTimeout)
			}

		case <-timeoutCh:
			w.finish(model.WorkerTimedOut, -1,
				fmt.Sprintf("no output within %s", w.spec.IdleTimeout))
			w.terminate()
			<-w.exited
			return

		case <-w.cancelCh:
			w.finish(model.WorkerCancelled, -1, "cancelled")
			w.terminate()
			<-w.exited
			return
		}
	}
}

// resolveExit maps the process exit into a terminal state. If a timeout or
// cancellation already claimed the terminal state, this is a no-op.
func (w *Worker) resolveExit() {
	if w.waitErr == nil {
		w.finish(model.WorkerSucceeded, 0, "")
		return
	}

	var exitErr *exec.ExitError
	if errors.As(w.waitErr, &exitErr) {
		w.finish(model.WorkerFailed, exitErr.ExitCode(), w.diagnostic(exitErr.ExitCode()))
		return
	}

	w.finish(model.WorkerFailed, -1, w.waitErr.Error())
}

// finish assigns the terminal state exactly once; later calls lose
func (w *Worker) finish(state model.WorkerState, exitCode int, diag string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.IsTerminal() {
		return
	}
	w.state = state
	w.exitCode = exitCode
	w.diag = diag
}

// terminate sends a graceful signal and escalates to a hard kill once the
// grace period elapses without an exit. Idempotent: signalling a process
// that already exited is harmless.
func (w *Worker) terminate() {
	process := w.cmd.Process
	if process == nil {
		return
	}

	_ = signalGraceful(process)

	select {
	case <-w.exited:
		return
	case <-time.After(KillGracePeriod):
	}

	_ = signalKill(process)
}

// scanStream forwards lines in arrival order for one stream and notes
// activity for the idle timeout clock. Stderr lines are also retained as
// the diagnostic tail.
func (w *Worker) scanStream(r io.Reader, stream string, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()

		select {
		case w.activity <- struct{}{}:
		default:
		}

		if stream == StreamStderr {
			w.tail.add(line)
		}
		if w.onLine != nil && strings.TrimSpace(line) != "" {
			w.onLine(RawLine{SourceID: w.spec.SourceID, Stream: stream, Text: line})
		}
	}
}

// diagnostic builds the human-readable failure text from the stderr tail
func (w *Worker) diagnostic(exitCode int) string {
	tail := w.tail.lines()
	if len(tail) == 0 {
		return fmt.Sprintf("exit code %d", exitCode)
	}
	return fmt.Sprintf("exit code %d: %s", exitCode, strings.Join(tail, "\n"))
}

// tailBuffer keeps the last N lines written to it
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, line)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
}

func (t *tailBuffer) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.buf))
	copy(out, t.buf)
	return out
}

// generateWorkerID generates a unique worker ID using UUID v7 for better
// uniqueness and time ordering
func generateWorkerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("worker-%d", time.Now().UnixNano())
	}
	return "worker-" + id.String()
}
