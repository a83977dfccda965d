// Package worker is the code that runs inside a quadd worker process.
//
// A worker reads [protocol.Task] frames from its standard input, executes
// each one, and writes a [protocol.Result] frame to its standard output. It
// keeps doing so until it receives a quit task or its input closes.
//
// The worker is where untrusted numerical code runs, so it installs a [Trap]
// before touching any task. The trap converts faults that would otherwise kill
// the process silently (fatal signals, runtime panics, memory faults) into an
// explicit crash frame on the result channel, then lets the process die. The
// supervising daemon sees either that frame or a broken channel, and both mean
// the same thing to it.
//
// Example usage, from the hidden "worker" command:
//
//	if err := worker.Main(os.Stdin, os.Stdout); err != nil {
//	    slog.Error("worker failed", "error", err)
//	    os.Exit(1)
//	}
package worker
