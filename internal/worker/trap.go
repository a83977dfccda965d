package worker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cruciblehq/quadd/internal/protocol"
)

// Signals that end a worker abnormally. Each one is reported on the result
// channel before the process goes down.
var trappedSignals = []os.Signal{
	unix.SIGINT,
	unix.SIGILL,
	unix.SIGFPE,
	unix.SIGSEGV,
	unix.SIGBUS,
	unix.SIGTERM,
	unix.SIGABRT,
	unix.SIGHUP,
	unix.SIGQUIT,
}

// How long the trap waits for a re-raised signal to take the process down
// before exiting explicitly.
const reraiseWait = 200 * time.Millisecond

// The worker's two stream ends.
//
// A channel is created once at startup and never replaced. Frames written
// through it are serialized, so a crash frame emitted by the trap can never
// interleave with a result frame. After a crash frame nothing else is written.
type Channel struct {
	in      io.Reader  // Task frames from the daemon.
	out     io.Writer  // Result frames to the daemon.
	mu      sync.Mutex // Guards out and crashed.
	crashed bool       // Set once a crash frame has been written.
}

// Creates a channel over the given streams.
func NewChannel(in io.Reader, out io.Writer) *Channel {
	return &Channel{in: in, out: out}
}

// Blocks until the next task frame arrives.
func (c *Channel) receive() (protocol.Task, error) {
	return protocol.ReadTask(c.in)
}

// Writes the result of a completed task.
func (c *Channel) reply(t protocol.TaskType, res protocol.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crashed {
		return fmt.Errorf("%w: channel closed by crash", ErrWorker)
	}
	return protocol.WriteResult(c.out, t, res)
}

// Writes the crash frame. Only the first call writes anything.
func (c *Channel) crash(sig syscall.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crashed {
		return nil
	}
	c.crashed = true
	return protocol.WriteCrash(c.out, protocol.CrashReport{Signal: int32(sig)})
}

// Converts fatal conditions inside the worker into crash frames.
//
// The trap is bound to a [Channel] when installed and writes only to that
// channel. It fires at most once; after writing the crash frame it calls the
// exit function, which by default re-raises the signal so the process dies
// with the status the fault would have produced.
type Trap struct {
	ch      *Channel
	exit    func(syscall.Signal)
	notify  bool
	signals chan os.Signal
	stop    chan struct{}
	once    sync.Once
}

// Configures a [Trap].
type TrapOption func(*Trap)

// Replaces what happens after the crash frame is written. The default
// terminates the process.
func WithExit(fn func(syscall.Signal)) TrapOption {
	return func(t *Trap) {
		t.exit = fn
	}
}

// Controls whether the trap subscribes to OS signals. Workers hosted inside
// another process (tests) should not steal that process's signals.
func WithSignalNotify(enabled bool) TrapOption {
	return func(t *Trap) {
		t.notify = enabled
	}
}

// Installs a trap on the given channel.
//
// Signal handlers are registered before the function returns. Call
// [Trap.Release] to unregister them.
func InstallTrap(ch *Channel, opts ...TrapOption) *Trap {
	t := &Trap{
		ch:     ch,
		exit:   terminate,
		notify: true,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.notify {
		t.signals = make(chan os.Signal, 1)
		signal.Notify(t.signals, trappedSignals...)
		go t.watch()
	}
	return t
}

// Unregisters signal handlers. A fired trap is unaffected.
func (t *Trap) Release() {
	if t.notify {
		signal.Stop(t.signals)
	}
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
}

// Waits for a trapped signal.
func (t *Trap) watch() {
	select {
	case sig := <-t.signals:
		if s, ok := sig.(syscall.Signal); ok {
			t.Fire(s)
		}
	case <-t.stop:
	}
}

// Reports a crash caused by sig and ends the worker.
func (t *Trap) Fire(sig syscall.Signal) {
	t.once.Do(func() {
		slog.Error("worker crashed", "signal", signalName(sig))
		if err := t.ch.crash(sig); err != nil {
			slog.Debug("crash report not delivered", "error", err)
		}
		t.exit(sig)
	})
}

// Runs fn, converting a panic into a crash.
//
// Runtime faults are mapped to the signal a native process would have
// received; anything else is an abort. If the exit function returns, the
// panic is reported as an error.
func (t *Trap) Guard(fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		slog.Debug("worker panicked", "panic", r, "stack", string(debug.Stack()))
		t.Fire(panicSignal(r))
		err = fmt.Errorf("%w: panic: %v", ErrWorker, r)
	}()

	return fn()
}

// Maps a recovered panic value to a signal.
func panicSignal(r any) syscall.Signal {
	err, ok := r.(error)
	if !ok {
		return unix.SIGABRT
	}

	var fault interface{ Addr() uintptr }
	if errors.As(err, &fault) {
		return unix.SIGSEGV
	}

	var rerr runtime.Error
	if !errors.As(err, &rerr) {
		return unix.SIGABRT
	}

	msg := rerr.Error()
	switch {
	case strings.Contains(msg, "divide by zero"), strings.Contains(msg, "integer overflow"):
		return unix.SIGFPE
	case strings.Contains(msg, "invalid memory address"),
		strings.Contains(msg, "nil pointer"),
		strings.Contains(msg, "out of range"),
		strings.Contains(msg, "fault"):
		return unix.SIGSEGV
	}
	return unix.SIGABRT
}

// Ends the process by re-raising sig with its default disposition, falling
// back to the conventional 128+signal exit status.
func terminate(sig syscall.Signal) {
	signal.Reset(sig)
	_ = unix.Kill(unix.Getpid(), sig)
	time.Sleep(reraiseWait)
	os.Exit(128 + int(sig))
}

// Returns a printable signal name such as "SIGSEGV".
func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(sig))
}
