// Package client talks to a running quadd daemon.
//
// A [Client] holds one session. Requests are sent one at a time and each call
// returns once the daemon's full answer has been read.
//
// Example usage:
//
//	c, err := client.Dial(ctx, paths.Socket())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	resp, err := c.Solve(protocol.Coefficients{A: 1, B: -3, C: 2})
package client
