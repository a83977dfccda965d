package client

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/quadd/internal/protocol"
)

// Accepts one connection and hands it to serve.
func fakeDaemon(t *testing.T, serve func(conn net.Conn)) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "quadd")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	socket := filepath.Join(dir, "quadd.sock")
	l, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()

	return socket
}

func dial(t *testing.T, socket string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), socket)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSolveWireFormat(t *testing.T) {
	got := make(chan []byte, 1)
	socket := fakeDaemon(t, func(conn net.Conn) {
		buf := make([]byte, 4+3*8)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		got <- buf
		protocol.WriteFrame(conn, protocol.SolveResponse{
			Status:   protocol.SolveOK,
			Solution: protocol.Solution{Count: protocol.OneRoot, X1: 0.5},
		})
	})

	resp, err := dial(t, socket).Solve(protocol.Coefficients{A: 4, B: -4, C: 1})
	require.NoError(t, err)
	assert.Equal(t, protocol.SolveOK, resp.Status)
	assert.Equal(t, protocol.Solution{Count: protocol.OneRoot, X1: 0.5}, resp.Solution)

	req := <-got
	assert.Equal(t, uint32(protocol.RequestSolve), protocol.ByteOrder.Uint32(req[:4]))
}

func TestTestReadsAnnouncedEntries(t *testing.T) {
	socket := fakeDaemon(t, func(conn net.Conn) {
		var req protocol.TestRequest
		var tag protocol.RequestType
		if protocol.ReadFrame(conn, &tag) != nil || protocol.ReadFrame(conn, &req) != nil {
			return
		}
		if req.PathString() != "/sets/basic.yaml" {
			return
		}
		protocol.WriteFrame(conn, protocol.TestResponseHeader{Status: protocol.TestOK, EntryCount: 2})
		protocol.WriteFrame(conn, protocol.TestResponseEntry{ExecutorStatus: protocol.NormallyExecuted})
		protocol.WriteFrame(conn, protocol.TestResponseEntry{ExecutorStatus: protocol.ExecutorCrashed})
	})

	var seen []protocol.ExecutorStatus
	header, err := dial(t, socket).Test("/sets/basic.yaml", func(_ int, e protocol.TestResponseEntry) {
		seen = append(seen, e.ExecutorStatus)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), header.EntryCount)
	assert.Equal(t, []protocol.ExecutorStatus{protocol.NormallyExecuted, protocol.ExecutorCrashed}, seen)
}

func TestTestTruncatedStream(t *testing.T) {
	socket := fakeDaemon(t, func(conn net.Conn) {
		var tag protocol.RequestType
		var req protocol.TestRequest
		if protocol.ReadFrame(conn, &tag) != nil || protocol.ReadFrame(conn, &req) != nil {
			return
		}
		protocol.WriteFrame(conn, protocol.TestResponseHeader{Status: protocol.TestOK, EntryCount: 3})
		protocol.WriteFrame(conn, protocol.TestResponseEntry{})
	})

	_, err := dial(t, socket).Test("/sets/basic.yaml", nil)
	assert.ErrorIs(t, err, ErrClient)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestTestRejectedHeader(t *testing.T) {
	socket := fakeDaemon(t, func(conn net.Conn) {
		var tag protocol.RequestType
		var req protocol.TestRequest
		if protocol.ReadFrame(conn, &tag) != nil || protocol.ReadFrame(conn, &req) != nil {
			return
		}
		protocol.WriteFrame(conn, protocol.TestResponseHeader{Status: protocol.TestDoesntExist})
	})

	header, err := dial(t, socket).Test("/missing.yaml", func(int, protocol.TestResponseEntry) {
		t.Error("no entries expected")
	})
	require.NoError(t, err)
	assert.Equal(t, protocol.TestDoesntExist, header.Status)
}

func TestTestPathTooLong(t *testing.T) {
	socket := fakeDaemon(t, func(net.Conn) {})

	_, err := dial(t, socket).Test("/"+strings.Repeat("x", protocol.MaxPathLen), nil)
	assert.ErrorIs(t, err, protocol.ErrPathTooLong)
}

func TestShutdownWaitsForHangup(t *testing.T) {
	socket := fakeDaemon(t, func(conn net.Conn) {
		var tag protocol.RequestType
		protocol.ReadFrame(conn, &tag)
	})

	assert.NoError(t, dial(t, socket).Shutdown())
}

func TestDialMissingSocket(t *testing.T) {
	_, err := Dial(context.Background(), filepath.Join(t.TempDir(), "none.sock"))
	assert.ErrorIs(t, err, ErrClient)
}
