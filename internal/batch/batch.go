package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruciblehq/quadd/internal/executor"
	"github.com/cruciblehq/quadd/internal/protocol"
)

// Opens replacement workers after a crash. Satisfied by [executor.Supervisor].
type Opener interface {
	Open(ctx context.Context) (*executor.Executor, error)
}

// Receives the entry for case i. An error stops the batch.
type Sink func(i int, entry protocol.TestResponseEntry) error

// Describes how a batch went.
type Report struct {
	Entries   int // Entries handed to the sink.
	Passed    int // Cases graded as passed.
	Crashes   int // Cases that crashed a worker.
	Respawns  int // Replacement workers started.
	Abandoned int // Cases not attempted because no worker could be started.
}

// Executes cases on exe, replacing it through o whenever it crashes.
//
// Run takes ownership of exe, which must be open. Whatever worker is alive at
// the end is asked to quit and closed, including when the sink fails. The only
// error returned is a sink error; worker failures are reported in entries.
func Run(ctx context.Context, o Opener, exe *executor.Executor, cases []protocol.TestCase, emit Sink) (Report, error) {
	b := &batch{opener: o, exe: exe}
	defer b.release()

	slog.Debug("running batch", "cases", len(cases))

	for i, tc := range cases {
		entry := b.execute(ctx, i, tc)
		if err := emit(i, entry); err != nil {
			return b.report, fmt.Errorf("%w: entry %d of %d: %w", ErrBatch, i+1, len(cases), err)
		}
		b.report.Entries++
	}

	slog.Debug("batch finished",
		"entries", b.report.Entries,
		"passed", b.report.Passed,
		"crashes", b.report.Crashes,
		"respawns", b.report.Respawns,
		"abandoned", b.report.Abandoned,
	)
	return b.report, nil
}

// Holds the state of one batch.
type batch struct {
	opener Opener             // Source of replacement workers.
	exe    *executor.Executor // Current worker, nil after a crash until replaced.
	dead   bool               // Set once a replacement could not be started.
	report Report             // Running totals.
}

// Runs one case and returns its entry.
func (b *batch) execute(ctx context.Context, i int, tc protocol.TestCase) protocol.TestResponseEntry {
	if !b.ready(ctx, i) {
		b.report.Abandoned++
		return crashedEntry(tc)
	}

	res := b.exe.Do(protocol.TestTask(tc))
	if res.Crashed() {
		b.report.Crashes++
		slog.Warn("case crashed worker", "case", i+1, "worker", b.exe.ID())
		b.exe.Close()
		b.exe = nil
		return crashedEntry(tc)
	}

	if res.Feedback.Verdict == protocol.Passed {
		b.report.Passed++
	}
	return protocol.TestResponseEntry{
		ExecutorStatus: protocol.NormallyExecuted,
		Feedback:       res.Feedback,
	}
}

// Makes sure a worker is available for case i, starting a replacement if the
// previous one crashed. Returns false when no worker can be had.
func (b *batch) ready(ctx context.Context, i int) bool {
	if b.exe != nil {
		return true
	}
	if b.dead {
		return false
	}

	exe, err := b.opener.Open(ctx)
	if err != nil {
		b.dead = true
		slog.Error("worker could not be replaced, failing remaining cases", "case", i+1, "error", err)
		return false
	}

	b.exe = exe
	b.report.Respawns++
	return true
}

// Quits and closes the current worker, if any.
func (b *batch) release() {
	if b.exe == nil {
		return
	}
	b.exe.Quit()
	b.exe.Close()
	b.exe = nil
}

// Returns the entry recorded for a case that did not complete.
func crashedEntry(tc protocol.TestCase) protocol.TestResponseEntry {
	return protocol.TestResponseEntry{
		ExecutorStatus: protocol.ExecutorCrashed,
		Feedback:       protocol.Feedback{Expected: tc.Expected},
	}
}
