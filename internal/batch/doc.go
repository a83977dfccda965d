// Package batch runs a test set through a worker, surviving worker crashes.
//
// Cases are executed strictly in order, one task in flight at a time. Each
// case yields exactly one [protocol.TestResponseEntry], handed to the caller's
// [Sink] as soon as it is known so the client sees progress as it happens.
//
// A case that crashes the worker is recorded as [protocol.ExecutorCrashed] and
// the worker is discarded. The next case runs on a fresh worker. If no
// replacement can be started, every remaining case is recorded as crashed
// without being attempted, so the number of entries always equals the number
// of cases.
//
// Example usage:
//
//	exe, err := sup.Open(ctx)
//	if err != nil {
//	    return err
//	}
//
//	report, err := batch.Run(ctx, sup, exe, cases, func(i int, e protocol.TestResponseEntry) error {
//	    return protocol.WriteFrame(conn, e)
//	})
package batch
