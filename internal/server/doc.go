// Package server implements the quadd daemon.
//
// The daemon listens on a Unix domain socket and serves one client session at
// a time. A session is a sequence of binary requests on a single connection:
// each request starts with a [protocol.RequestType] tag, followed by the
// request's fixed-layout payload. The server answers each request before
// reading the next one. The session ends when the client disconnects, sends a
// malformed or unknown request, or sends a shutdown request; the server then
// goes back to accepting connections.
//
// Solve and Test requests are executed by worker processes obtained from the
// configured opener. Every request uses its own workers and releases them
// before the next request is read. Test requests stream one entry per case
// and survive worker crashes through the batch package.
//
// Example usage:
//
//	srv := server.New(server.Config{
//	    SocketPath: paths.Socket(),
//	    Opener:     executor.NewSupervisor(launcher),
//	})
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
