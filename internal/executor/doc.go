// Package executor supervises worker processes on behalf of the daemon.
//
// A [Supervisor] opens an [Executor] by launching a fresh worker through its
// [Launcher]. The executor owns the worker's two channel ends: it writes task
// frames to the worker's stdin and reads result frames from its stdout, one
// task at a time. Anything that stops a result from arriving (an explicit
// crash frame, a broken pipe, a truncated frame) is reported as a crashed
// [protocol.Result]; callers never see transport errors from a task.
//
// An executor is used by exactly one request handler and is closed when the
// handler is done with it or as soon as the worker crashes. Closing ends the
// worker's input, gives it a grace period to exit, then kills its process
// group.
//
// Example usage:
//
//	sup := executor.NewSupervisor(&executor.CommandLauncher{
//	    Path: "/usr/local/bin/quadd",
//	    Args: []string{"worker"},
//	})
//
//	exe, err := sup.Open(ctx)
//	if err != nil {
//	    return err
//	}
//	defer exe.Close()
//
//	result := exe.Do(protocol.SolveTask(coefficients))
//	if result.Crashed() {
//	    return errCrashed
//	}
//	exe.Quit()
package executor
