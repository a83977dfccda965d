package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"github.com/cruciblehq/quadd/internal/protocol"
)

// A session with the daemon.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Connects to the daemon listening on socketPath.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", ErrClient, socketPath, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Asks the daemon to solve one equation.
func (c *Client) Solve(coefficients protocol.Coefficients) (protocol.SolveResponse, error) {
	var resp protocol.SolveResponse

	req := protocol.SolveRequest{Coefficients: coefficients}
	if err := protocol.WriteRequest(c.conn, protocol.RequestSolve, req); err != nil {
		return resp, fmt.Errorf("%w: send solve request: %w", ErrClient, err)
	}

	if err := c.read(&resp); err != nil {
		return resp, fmt.Errorf("%w: read solve response: %w", ErrClient, err)
	}
	return resp, nil
}

// Asks the daemon to grade the test set at path, a path on the daemon's
// filesystem.
//
// Entries are passed to each as they arrive; each may be nil. The returned
// header tells whether the set ran at all. When it did, exactly
// header.EntryCount entries have been read by the time Test returns.
func (c *Client) Test(path string, each func(i int, entry protocol.TestResponseEntry)) (protocol.TestResponseHeader, error) {
	var header protocol.TestResponseHeader

	req, err := protocol.NewTestRequest(path)
	if err != nil {
		return header, fmt.Errorf("%w: %w", ErrClient, err)
	}

	if err := protocol.WriteRequest(c.conn, protocol.RequestTest, req); err != nil {
		return header, fmt.Errorf("%w: send test request: %w", ErrClient, err)
	}

	if err := c.read(&header); err != nil {
		return header, fmt.Errorf("%w: read test header: %w", ErrClient, err)
	}
	if header.Status != protocol.TestOK {
		return header, nil
	}

	for i := uint64(0); i < header.EntryCount; i++ {
		var entry protocol.TestResponseEntry
		if err := c.read(&entry); err != nil {
			return header, fmt.Errorf("%w: read entry %d of %d: %w", ErrClient, i+1, header.EntryCount, err)
		}
		if each != nil {
			each(int(i), entry)
		}
	}
	return header, nil
}

// Ends the session. The daemon sends nothing back; it closes the connection
// and returns to accepting new clients.
func (c *Client) Shutdown() error {
	if err := protocol.WriteRequest(c.conn, protocol.RequestShutdown, nil); err != nil {
		return fmt.Errorf("%w: send shutdown request: %w", ErrClient, err)
	}

	// Wait for the daemon to hang up so the session is over on return.
	if _, err := c.r.ReadByte(); err != io.EOF && err != nil {
		return fmt.Errorf("%w: await session end: %w", ErrClient, err)
	}
	return nil
}

// Closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Reads one response frame. A connection closed before the frame is a
// truncated response.
func (c *Client) read(v any) error {
	err := protocol.ReadFrame(c.r, v)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
