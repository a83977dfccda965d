// Package protocol defines the two wire protocols spoken by quadd.
//
// The client protocol runs over the daemon's Unix socket. A client sends a
// request tag ([RequestType]) followed by the request payload; the daemon
// answers with a response whose shape depends on the tag. A Test response is a
// header followed by exactly header.EntryCount entries, streamed one at a time.
//
// The worker protocol runs over a worker's standard streams. The daemon writes
// a [Task] frame to the worker's stdin and reads a [Result] frame from its
// stdout. Exactly one task is outstanding at a time.
//
// All frames have a fixed layout encoded in little-endian byte order with no
// padding between fields. Each frame is assembled in memory and written with a
// single call, so a frame is either fully written or the channel is broken.
//
// Example usage:
//
//	if err := protocol.WriteTask(stdin, protocol.SolveTask(c)); err != nil {
//	    return err
//	}
//
//	result, err := protocol.ReadResult(stdout, protocol.TaskSolve)
//	if err != nil {
//	    return err
//	}
package protocol
