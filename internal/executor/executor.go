package executor

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/cruciblehq/quadd/internal/metrics"
	"github.com/cruciblehq/quadd/internal/protocol"
)

// Default time a worker gets to exit after its input is closed.
const DefaultGrace = 2 * time.Second

// Opens executors backed by freshly launched workers.
type Supervisor struct {
	launcher Launcher          // Starts worker processes.
	grace    time.Duration     // Exit grace period handed to each executor.
	metrics  metrics.Collector // Receives spawn and crash events.
}

// Configures a [Supervisor].
type Option func(*Supervisor)

// Sets how long a closing worker may take to exit before it is killed.
func WithGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// Sets the collector that receives spawn and crash events.
func WithMetrics(c metrics.Collector) Option {
	return func(s *Supervisor) {
		s.metrics = c
	}
}

// Creates a supervisor that launches workers with l.
func NewSupervisor(l Launcher, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher: l,
		grace:    DefaultGrace,
		metrics:  metrics.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Launches a worker and returns an executor that owns it.
func (s *Supervisor) Open(ctx context.Context) (*Executor, error) {
	proc, err := s.launcher.Launch(ctx)
	if err != nil {
		s.metrics.WorkerSpawnFailed()
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	s.metrics.WorkerSpawned()

	id := uuid.NewString()
	e := &Executor{
		id:      id,
		proc:    proc,
		out:     newDoneReader(proc.Stdout()),
		grace:   s.grace,
		metrics: s.metrics,
		log:     slog.With("worker", id, "pid", proc.Pid()),
	}

	e.log.Debug("worker started")
	return e, nil
}

// One live worker, used for a strictly sequential series of tasks.
//
// An executor is not safe for concurrent use. It is owned by a single request
// handler for its whole life.
type Executor struct {
	id      string            // Identifier used in logs.
	proc    Process           // The worker process.
	out     *doneReader       // Worker stdout, tracking end of stream.
	grace   time.Duration     // Exit grace period used by Close.
	metrics metrics.Collector // Receives crash events.
	log     *slog.Logger      // Logger carrying the worker's identity.
	pending protocol.TaskType // Task awaiting a result, zero if none.
	broken  bool              // Set once the worker crashed or its channel failed.
	closed  bool              // Set by Close.
}

// Returns the executor's identifier.
func (e *Executor) ID() string {
	return e.id
}

// Returns true while the worker can still accept tasks.
func (e *Executor) Alive() bool {
	return !e.closed && !e.broken && !e.out.exhausted()
}

// Writes a task frame to the worker.
//
// Fails if the worker is not alive, if a previous task has not been answered,
// or if the write fails. A failed write marks the worker broken.
func (e *Executor) Send(task protocol.Task) error {
	if !e.Alive() {
		return ErrNotAlive
	}
	if e.pending != 0 {
		return fmt.Errorf("%w: %s", ErrBusy, e.pending)
	}

	if err := protocol.WriteTask(e.proc.Stdin(), task); err != nil {
		e.broken = true
		return fmt.Errorf("%w: send %s: %w", ErrExecutor, task.Type, err)
	}

	if task.Type != protocol.TaskQuit {
		e.pending = task.Type
	}
	return nil
}

// Blocks until the worker answers the task in flight.
//
// A crash frame is returned as-is. A read failure of any kind is returned as
// a crash without a report, since a worker that stops talking mid-task is
// indistinguishable from one that died. Either way the worker is marked
// broken and must be closed.
func (e *Executor) Receive() protocol.Result {
	if e.pending == 0 {
		e.log.Error("result requested with no task in flight")
		return e.crashed(nil, ErrIdle)
	}

	t := e.pending
	e.pending = 0

	res, err := protocol.ReadResult(e.out, t)
	if err != nil {
		return e.crashed(nil, err)
	}
	if res.Crashed() {
		return e.crashed(res.Crash, nil)
	}
	return res
}

// Sends a task and waits for its result. A failed send is a crash.
func (e *Executor) Do(task protocol.Task) protocol.Result {
	if err := e.Send(task); err != nil {
		return e.crashed(nil, err)
	}
	return e.Receive()
}

// Asks the worker to exit. Errors are ignored; Close cleans up regardless.
func (e *Executor) Quit() {
	if err := e.Send(protocol.QuitTask()); err != nil {
		e.log.Debug("quit not delivered", "error", err)
	}
}

// Terminates the worker and releases its channel ends. Safe to call more than
// once.
func (e *Executor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	exit := e.proc.Terminate(e.grace)
	e.log.Debug("worker stopped", "exit", exit.String())
	return nil
}

// Marks the worker broken and records the crash.
func (e *Executor) crashed(report *protocol.CrashReport, cause error) protocol.Result {
	e.broken = true

	signal := ""
	if report != nil {
		signal = signalName(syscall.Signal(report.Signal))
	}
	e.metrics.WorkerCrashed(signal)

	if report != nil {
		e.log.Warn("worker crashed", "signal", signal)
	} else {
		e.log.Warn("worker crashed without report", "error", cause)
	}

	return protocol.CrashedResult(report)
}

// Returns a printable signal name such as "SIGSEGV".
func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(sig))
}
