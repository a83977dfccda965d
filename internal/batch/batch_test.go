package batch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/quadd/internal/batch"
	"github.com/cruciblehq/quadd/internal/executor"
	"github.com/cruciblehq/quadd/internal/executor/executortest"
	"github.com/cruciblehq/quadd/internal/protocol"
	"github.com/cruciblehq/quadd/internal/quadratic"
)

// Coefficient a that makes the grader crash.
const poison = 13

func grade(tc protocol.TestCase) protocol.Feedback {
	if tc.Coefficients.A == poison {
		var fb *protocol.Feedback
		return *fb
	}
	return quadratic.Grade(tc)
}

func passing(a float64) protocol.TestCase {
	// (x-1)(x-2) scaled by a.
	return protocol.TestCase{
		Coefficients: protocol.Coefficients{A: a, B: -3 * a, C: 2 * a},
		Expected:     protocol.Solution{Count: protocol.TwoRoots, X1: 1, X2: 2},
	}
}

func crashing() protocol.TestCase {
	return passing(poison)
}

type collected struct {
	entries []protocol.TestResponseEntry
}

func (c *collected) sink(i int, e protocol.TestResponseEntry) error {
	if i != len(c.entries) {
		return errors.New("entry out of order")
	}
	c.entries = append(c.entries, e)
	return nil
}

func (c *collected) statuses() []protocol.ExecutorStatus {
	out := make([]protocol.ExecutorStatus, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.ExecutorStatus
	}
	return out
}

func run(t *testing.T, l *executortest.Launcher, cases []protocol.TestCase) (batch.Report, *collected) {
	t.Helper()

	sup := executor.NewSupervisor(l)
	exe, err := sup.Open(context.Background())
	require.NoError(t, err)

	c := &collected{}
	report, err := batch.Run(context.Background(), sup, exe, cases, c.sink)
	require.NoError(t, err)
	return report, c
}

func assertAllTerminated(t *testing.T, l *executortest.Launcher) {
	t.Helper()
	for i, p := range l.Processes() {
		assert.True(t, p.Terminated(), "worker %d left running", i+1)
	}
}

const (
	ok      = protocol.NormallyExecuted
	crashed = protocol.ExecutorCrashed
)

func TestRunWithoutCrashes(t *testing.T) {
	l := &executortest.Launcher{Grade: grade}
	cases := []protocol.TestCase{passing(1), passing(2), passing(-1)}

	report, c := run(t, l, cases)

	assert.Equal(t, []protocol.ExecutorStatus{ok, ok, ok}, c.statuses())
	for _, e := range c.entries {
		assert.Equal(t, protocol.Passed, e.Feedback.Verdict)
	}
	assert.Equal(t, batch.Report{Entries: 3, Passed: 3}, report)
	assert.Equal(t, 1, l.Launches())
	assertAllTerminated(t, l)
}

func TestRunCrashThenRespawn(t *testing.T) {
	l := &executortest.Launcher{Grade: grade}
	cases := []protocol.TestCase{passing(1), crashing(), passing(3)}

	report, c := run(t, l, cases)

	assert.Equal(t, []protocol.ExecutorStatus{ok, crashed, ok}, c.statuses())
	assert.Equal(t, batch.Report{Entries: 3, Passed: 2, Crashes: 1, Respawns: 1}, report)
	assert.Equal(t, 2, l.Launches())
	assertAllTerminated(t, l)
}

func TestRunRespawnFails(t *testing.T) {
	l := &executortest.Launcher{
		Grade: grade,
		Fail:  func(n int) bool { return n > 1 },
	}
	cases := []protocol.TestCase{passing(1), crashing(), passing(3), passing(4)}

	report, c := run(t, l, cases)

	assert.Equal(t, []protocol.ExecutorStatus{ok, crashed, crashed, crashed}, c.statuses())
	assert.Equal(t, batch.Report{Entries: 4, Passed: 1, Crashes: 1, Abandoned: 2}, report)
	assert.Equal(t, 2, l.Attempts(), "respawn is attempted once")
	assert.Equal(t, 1, l.Launches())
	assertAllTerminated(t, l)
}

func TestRunEveryCaseCrashes(t *testing.T) {
	l := &executortest.Launcher{Grade: grade}
	cases := []protocol.TestCase{crashing(), crashing(), crashing()}

	report, c := run(t, l, cases)

	assert.Equal(t, []protocol.ExecutorStatus{crashed, crashed, crashed}, c.statuses())
	assert.Equal(t, 3, report.Crashes)
	assert.Equal(t, 2, report.Respawns)
	assert.Equal(t, 3, l.Launches())
	assertAllTerminated(t, l)
}

func TestRunCrashOnLastCase(t *testing.T) {
	l := &executortest.Launcher{Grade: grade}

	_, c := run(t, l, []protocol.TestCase{passing(1), crashing()})

	assert.Equal(t, []protocol.ExecutorStatus{ok, crashed}, c.statuses())
	assert.Equal(t, 1, l.Launches(), "no replacement without a case to run")
}

func TestRunCrashedEntryKeepsExpected(t *testing.T) {
	l := &executortest.Launcher{Grade: grade}
	tc := crashing()

	_, c := run(t, l, []protocol.TestCase{tc})

	require.Len(t, c.entries, 1)
	assert.Equal(t, crashed, c.entries[0].ExecutorStatus)
	assert.Equal(t, tc.Expected, c.entries[0].Feedback.Expected)
	assert.Equal(t, protocol.Solution{}, c.entries[0].Feedback.Actual)
}

func TestRunReportsWrongAnswers(t *testing.T) {
	l := &executortest.Launcher{}
	wrong := passing(1)
	wrong.Expected = protocol.Solution{Count: protocol.TwoRoots, X1: 1, X2: 3}

	report, c := run(t, l, []protocol.TestCase{passing(1), wrong})

	assert.Equal(t, []protocol.ExecutorStatus{ok, ok}, c.statuses())
	assert.Equal(t, protocol.WrongRoots, c.entries[1].Feedback.Verdict)
	assert.Equal(t, 1, report.Passed)
}

func TestRunEmpty(t *testing.T) {
	l := &executortest.Launcher{}

	report, c := run(t, l, nil)

	assert.Empty(t, c.entries)
	assert.Equal(t, batch.Report{}, report)
	assertAllTerminated(t, l)
}

func TestRunSinkError(t *testing.T) {
	l := &executortest.Launcher{}
	sup := executor.NewSupervisor(l)
	exe, err := sup.Open(context.Background())
	require.NoError(t, err)

	broken := errors.New("client gone")
	cases := []protocol.TestCase{passing(1), passing(2), passing(3)}
	calls := 0

	report, err := batch.Run(context.Background(), sup, exe, cases, func(i int, _ protocol.TestResponseEntry) error {
		calls++
		if i == 1 {
			return broken
		}
		return nil
	})

	assert.ErrorIs(t, err, batch.ErrBatch)
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, report.Entries)
	assertAllTerminated(t, l)
}
