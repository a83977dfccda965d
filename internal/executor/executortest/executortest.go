// Package executortest provides an in-process [executor.Launcher] for tests.
//
// Workers started by [Launcher] run the real worker task loop in a goroutine,
// connected to the executor through pipes instead of a child process. Faults
// are injected by replacing the solver or grader with code that panics; the
// worker's trap reports them exactly as it would in a real process, and
// "process death" closes the pipes.
package executortest

import (
	"context"
	"errors"
	"io"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cruciblehq/quadd/internal/executor"
	"github.com/cruciblehq/quadd/internal/protocol"
	"github.com/cruciblehq/quadd/internal/quadratic"
	"github.com/cruciblehq/quadd/internal/worker"
)

// Returned by launches that [Launcher.Fail] rejects.
var ErrLaunchRefused = errors.New("launch refused")

// Launches in-process workers and counts launches.
type Launcher struct {
	Solve func(protocol.Coefficients) protocol.Solution // Solver override. Nil uses the real solver.
	Grade func(protocol.TestCase) protocol.Feedback     // Grader override. Nil uses the real grader.

	// Called with the 1-based launch number; returning true fails that launch.
	// Nil never fails.
	Fail func(n int) bool

	mu       sync.Mutex
	attempts int
	launches int
	procs    []*Process
}

// Starts a worker goroutine.
func (l *Launcher) Launch(ctx context.Context) (executor.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts++
	if l.Fail != nil && l.Fail(l.attempts) {
		return nil, ErrLaunchRefused
	}
	l.launches++

	solve, grade := l.Solve, l.Grade
	if solve == nil {
		solve = quadratic.Solve
	}
	if grade == nil {
		grade = quadratic.Grade
	}

	p := start(l.launches, solve, grade)
	l.procs = append(l.procs, p)
	return p, nil
}

// Returns the number of launch attempts, successful or not.
func (l *Launcher) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// Returns the number of workers successfully started.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Returns every worker started so far, in launch order.
func (l *Launcher) Processes() []*Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Process(nil), l.procs...)
}

// An in-process worker.
type Process struct {
	pid int

	inR  *io.PipeReader
	inW  *io.PipeWriter
	outR *io.PipeReader
	outW *io.PipeWriter

	done     chan struct{}
	mu       sync.Mutex
	signal   syscall.Signal
	finished bool
}

func start(pid int, solve func(protocol.Coefficients) protocol.Solution, grade func(protocol.TestCase) protocol.Feedback) *Process {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	p := &Process{
		pid:  pid,
		inR:  inR,
		inW:  inW,
		outR: outR,
		outW: outW,
		done: make(chan struct{}),
	}

	w := worker.New(inR, outW,
		worker.WithSolver(solve),
		worker.WithGrader(grade),
		worker.WithTrap(
			worker.WithSignalNotify(false),
			worker.WithExit(p.die),
		),
	)

	go func() {
		defer close(p.done)
		defer p.release()
		w.Run()
	}()

	return p
}

func (p *Process) Stdin() io.WriteCloser {
	return p.inW
}

func (p *Process) Stdout() io.Reader {
	return p.outR
}

// Returns the launch number of the worker.
func (p *Process) Pid() int {
	return p.pid
}

// Closes the worker's input and waits for it, killing it after grace.
//
// A killed worker's goroutine cannot be stopped; its pipes are broken and it
// is abandoned.
func (p *Process) Terminate(grace time.Duration) executor.Exit {
	p.inW.Close()

	select {
	case <-p.done:
	case <-time.After(grace):
		p.die(unix.SIGKILL)
		p.outR.Close()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = true

	if p.signal != 0 {
		return executor.Exit{Code: -1, Signal: unix.SignalName(p.signal)}
	}
	return executor.Exit{Code: 0}
}

// Returns true once [Process.Terminate] has returned.
func (p *Process) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// Returns the signal the worker died of, or zero.
func (p *Process) Signal() syscall.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signal
}

// Simulates process death: records the signal and breaks both pipes.
func (p *Process) die(sig syscall.Signal) {
	p.mu.Lock()
	if p.signal == 0 {
		p.signal = sig
	}
	p.mu.Unlock()
	p.release()
}

func (p *Process) release() {
	p.inR.Close()
	p.outW.Close()
}
