package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Starts worker processes.
type Launcher interface {

	// Starts one worker. The returned process is running and its channel
	// ends are open.
	Launch(ctx context.Context) (Process, error)
}

// A running worker process and its channel ends.
type Process interface {

	// The write end of the worker's task channel.
	Stdin() io.WriteCloser

	// The read end of the worker's result channel.
	Stdout() io.Reader

	// OS process identifier, or 0 if there is none.
	Pid() int

	// Ends the process and releases its channel ends.
	//
	// Input is closed first so a healthy worker can exit by itself. If it is
	// still running after grace, it is killed. The process is always reaped
	// before Terminate returns.
	Terminate(grace time.Duration) Exit
}

// How a worker process ended.
type Exit struct {
	Code   int    // Exit status, or -1 if the process was ended by a signal.
	Signal string // Name of the ending signal, if any.
}

func (e Exit) String() string {
	if e.Signal != "" {
		return "killed by " + e.Signal
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Launches workers by executing a command.
//
// Each worker runs in its own process group, so signals aimed at the daemon's
// group (a terminal interrupt, for instance) do not reach it, and killing the
// group takes down anything the worker started.
type CommandLauncher struct {
	Path   string    // Executable to run.
	Args   []string  // Arguments, not including the executable name.
	Env    []string  // Extra "KEY=value" entries added to the daemon's environment.
	Stderr io.Writer // Destination for the worker's stderr. Nil discards it.
}

// Starts the command with its stdin and stdout connected to private pipes.
//
// Cancelling ctx kills the worker.
func (l *CommandLauncher) Launch(ctx context.Context) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, l.Path, l.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stderr = l.Stderr
	cmd.Cancel = func() error {
		return killGroup(cmd.Process.Pid)
	}
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, err
	}

	return &commandProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

// A worker started by [CommandLauncher].
type commandProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p *commandProcess) Stdin() io.WriteCloser {
	return p.stdin
}

func (p *commandProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *commandProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *commandProcess) Terminate(grace time.Duration) Exit {
	p.stdin.Close()

	waited := make(chan struct{})
	go func() {
		p.cmd.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(grace):
		killGroup(p.cmd.Process.Pid)
		<-waited
	}

	return exitOf(p.cmd.ProcessState)
}

// Sends SIGKILL to the process group led by pid.
func killGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}

// Describes a finished process.
func exitOf(state *os.ProcessState) Exit {
	if state == nil {
		return Exit{Code: -1}
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Exit{Code: -1, Signal: unix.SignalName(ws.Signal())}
	}
	return Exit{Code: state.ExitCode()}
}
