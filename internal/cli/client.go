package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cruciblehq/quadd/internal/client"
	"github.com/cruciblehq/quadd/internal/protocol"
)

// Represents the 'quadd solve' command.
type SolveCmd struct {
	A float64 `arg:"" help:"Quadratic coefficient. Put -- before negative values."`
	B float64 `arg:"" help:"Linear coefficient."`
	C float64 `arg:"" help:"Constant term."`
}

// Executes the solve command.
func (c *SolveCmd) Run(ctx context.Context) error {
	cl, err := dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close()

	resp, err := cl.Solve(protocol.Coefficients{A: c.A, B: c.B, C: c.C})
	if err != nil {
		return err
	}
	return printSolve(os.Stdout, resp)
}

// Represents the 'quadd test' command.
type TestCmd struct {
	Path string `arg:"" type:"path" help:"Test-set file. Relative paths are resolved here, not by the daemon."`
}

// Executes the test command.
//
// Fails if the daemon could not run the set. Individual failing or crashing
// cases are reported but do not fail the command.
func (c *TestCmd) Run(ctx context.Context) error {
	path, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}

	cl, err := dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close()

	var counts tally
	header, err := cl.Test(path, func(i int, entry protocol.TestResponseEntry) {
		counts.add(entry)
		printEntry(os.Stdout, i, entry)
	})
	if err != nil {
		return err
	}
	if header.Status != protocol.TestOK {
		return fmt.Errorf("test set %s: %s", path, header.Status)
	}

	fmt.Fprintln(os.Stdout, counts)
	return nil
}

// Represents the 'quadd shutdown' command.
type ShutdownCmd struct{}

// Executes the shutdown command.
func (c *ShutdownCmd) Run(ctx context.Context) error {
	cl, err := dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close()

	return cl.Shutdown()
}

// Connects to the daemon.
func dial(ctx context.Context) (*client.Client, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return client.Dial(ctx, socketPath(cfg))
}

// Prints a solve response. A solve error is returned as an error.
func printSolve(w io.Writer, resp protocol.SolveResponse) error {
	if resp.Status != protocol.SolveOK {
		return fmt.Errorf("the equation could not be solved: %s", resp.Status)
	}
	_, err := fmt.Fprintln(w, resp.Solution)
	return err
}

// Prints one test entry.
func printEntry(w io.Writer, i int, entry protocol.TestResponseEntry) {
	fb := entry.Feedback

	switch {
	case entry.ExecutorStatus != protocol.NormallyExecuted:
		fmt.Fprintf(w, "%4d  crashed           expected %s\n", i+1, fb.Expected)
	case fb.Verdict == protocol.Passed:
		fmt.Fprintf(w, "%4d  passed            %s\n", i+1, fb.Actual)
	default:
		fmt.Fprintf(w, "%4d  %-16s  expected %s, got %s\n", i+1, fb.Verdict, fb.Expected, fb.Actual)
	}
}

// Case counts for a test run.
type tally struct {
	passed  int
	failed  int
	crashed int
}

func (t *tally) add(entry protocol.TestResponseEntry) {
	switch {
	case entry.ExecutorStatus != protocol.NormallyExecuted:
		t.crashed++
	case entry.Feedback.Verdict == protocol.Passed:
		t.passed++
	default:
		t.failed++
	}
}

func (t tally) String() string {
	return fmt.Sprintf("%d cases: %d passed, %d failed, %d crashed",
		t.passed+t.failed+t.crashed, t.passed, t.failed, t.crashed)
}
