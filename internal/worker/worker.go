package worker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/cruciblehq/quadd/internal/protocol"
	"github.com/cruciblehq/quadd/internal/quadratic"
)

// Runs tasks received on a [Channel] until told to quit.
type Worker struct {
	ch    *Channel
	trap  *Trap
	solve func(protocol.Coefficients) protocol.Solution
	grade func(protocol.TestCase) protocol.Feedback
}

// Configures a [Worker].
type Option func(*options)

type options struct {
	solve    func(protocol.Coefficients) protocol.Solution
	grade    func(protocol.TestCase) protocol.Feedback
	trapOpts []TrapOption
}

// Replaces the solver used for solve tasks.
func WithSolver(fn func(protocol.Coefficients) protocol.Solution) Option {
	return func(o *options) {
		o.solve = fn
	}
}

// Replaces the grader used for test tasks.
func WithGrader(fn func(protocol.TestCase) protocol.Feedback) Option {
	return func(o *options) {
		o.grade = fn
	}
}

// Passes options to the worker's [Trap].
func WithTrap(opts ...TrapOption) Option {
	return func(o *options) {
		o.trapOpts = append(o.trapOpts, opts...)
	}
}

// Creates a worker over the given streams and installs its fault trap.
func New(in io.Reader, out io.Writer, opts ...Option) *Worker {
	o := options{
		solve: quadratic.Solve,
		grade: quadratic.Grade,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ch := NewChannel(in, out)
	return &Worker{
		ch:    ch,
		trap:  InstallTrap(ch, o.trapOpts...),
		solve: o.solve,
		grade: o.grade,
	}
}

// Runs a worker on the process's standard streams.
func Main(in io.Reader, out io.Writer) error {
	return New(in, out).Run()
}

// Processes tasks until a quit task arrives or the input closes.
//
// Closed input is a normal end; the daemon closes it when it is done with the
// worker.
func (w *Worker) Run() error {
	defer w.trap.Release()
	return w.trap.Guard(w.loop)
}

func (w *Worker) loop() error {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))

	for {
		task, err := w.ch.receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Debug("task channel closed")
				return nil
			}
			return fmt.Errorf("%w: read task: %w", ErrWorker, err)
		}

		quit, err := w.execute(task)
		if err != nil {
			return err
		}
		if quit {
			slog.Debug("quit received")
			return nil
		}
	}
}

// Executes one task and writes its result. Returns true for a quit task.
//
// An unknown task type means the daemon and worker disagree about the
// protocol; the worker aborts.
func (w *Worker) execute(task protocol.Task) (bool, error) {
	switch task.Type {
	case protocol.TaskSolve:
		sol := w.solve(task.Coefficients)
		return false, w.ch.reply(task.Type, protocol.Result{Status: protocol.TaskOK, Solution: sol})

	case protocol.TaskTest:
		fb := w.grade(task.Case)
		return false, w.ch.reply(task.Type, protocol.Result{Status: protocol.TaskOK, Feedback: fb})

	case protocol.TaskQuit:
		return true, nil
	}

	panic(fmt.Errorf("%w: %d", ErrUnknownTaskType, uint32(task.Type)))
}
