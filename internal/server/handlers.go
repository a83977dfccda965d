package server

import (
	"fmt"
	"io"

	"github.com/containerd/errdefs"

	"github.com/cruciblehq/quadd/internal/batch"
	"github.com/cruciblehq/quadd/internal/protocol"
	"github.com/cruciblehq/quadd/internal/testset"
)

// Handles a solve request.
//
// A fresh worker solves the equation. Failing to start the worker or to get an
// answer from it is reported as [protocol.SolveError]. There is no retry.
func (c *session) handleSolve() error {
	var req protocol.SolveRequest
	if err := c.read(&req); err != nil {
		return fmt.Errorf("%w: read solve request: %w", ErrSession, err)
	}

	resp := c.solve(req.Coefficients)
	c.server.metrics.RequestHandled(protocol.RequestSolve.String(), resp.Status.String())

	c.log.Info("solve handled",
		"a", req.Coefficients.A,
		"b", req.Coefficients.B,
		"c", req.Coefficients.C,
		"status", resp.Status.String(),
	)
	return c.write(resp)
}

// Runs a solve task on its own worker.
func (c *session) solve(coefficients protocol.Coefficients) protocol.SolveResponse {
	exe, err := c.server.opener.Open(c.server.ctx)
	if err != nil {
		c.log.Error("failed to start worker", "error", err)
		return protocol.SolveResponse{Status: protocol.SolveError}
	}
	defer exe.Close()

	res := exe.Do(protocol.SolveTask(coefficients))
	if res.Crashed() {
		c.log.Warn("solve failed", "worker", exe.ID())
		return protocol.SolveResponse{Status: protocol.SolveError}
	}

	exe.Quit()
	return protocol.SolveResponse{Status: protocol.SolveOK, Solution: res.Solution}
}

// Handles a test request.
//
// The test set is loaded before any worker is started, so a missing or broken
// file costs nothing but a header. Otherwise the header announces one entry
// per case and the entries follow as the batch progresses.
func (c *session) handleTest() error {
	var req protocol.TestRequest
	if err := c.read(&req); err != nil {
		return fmt.Errorf("%w: read test request: %w", ErrSession, err)
	}

	path := req.PathString()
	log := c.log.With("path", path)

	set, err := testset.Load(path)
	if err != nil {
		status := protocol.TestParsingError
		if errdefs.IsNotFound(err) {
			status = protocol.TestDoesntExist
		}
		log.Warn("test set rejected", "status", status.String(), "error", err)
		return c.rejectTest(status)
	}

	exe, err := c.server.opener.Open(c.server.ctx)
	if err != nil {
		log.Error("failed to start worker", "error", err)
		return c.rejectTest(protocol.TestExecutorCrashed)
	}

	header := protocol.TestResponseHeader{
		Status:     protocol.TestOK,
		EntryCount: uint64(set.Len()),
	}
	if err := c.write(header); err != nil {
		exe.Close()
		return err
	}

	report, err := batch.Run(c.server.ctx, c.server.opener, exe, set.TestCases(), func(_ int, entry protocol.TestResponseEntry) error {
		return c.write(entry)
	})
	c.server.metrics.RequestHandled(protocol.RequestTest.String(), header.Status.String())
	if err != nil {
		return err
	}

	log.Info("test handled",
		"cases", set.Len(),
		"passed", report.Passed,
		"crashes", report.Crashes,
		"abandoned", report.Abandoned,
	)
	return nil
}

// Answers a test request that will not run.
func (c *session) rejectTest(status protocol.TestStatus) error {
	c.server.metrics.RequestHandled(protocol.RequestTest.String(), status.String())
	return c.write(protocol.TestResponseHeader{Status: status})
}

// Handles a shutdown request by ending the session.
func (c *session) handleShutdown() error {
	c.server.metrics.RequestHandled(protocol.RequestShutdown.String(), "ok")
	c.log.Info("shutdown requested")
	return errShutdown
}

// Reads a request payload. A stream ending before the payload is a truncated
// request, not a clean disconnect.
func (c *session) read(v any) error {
	err := protocol.ReadFrame(c.r, v)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Writes a response frame.
func (c *session) write(v any) error {
	if err := protocol.WriteFrame(c.conn, v); err != nil {
		return fmt.Errorf("%w: write %T: %w", ErrSession, v, err)
	}
	return nil
}
