package protocol

import (
	"bytes"
	"fmt"
	"strings"
)

// Maximum length of the test path field, including the NUL terminator.
const MaxPathLen = 256

// Identifies the kind of a client request.
type RequestType uint32

const (
	RequestTest     RequestType = 1 // Grade a test-set file.
	RequestSolve    RequestType = 2 // Solve one equation.
	RequestShutdown RequestType = 3 // End the current session.
)

func (t RequestType) String() string {
	switch t {
	case RequestTest:
		return "test"
	case RequestSolve:
		return "solve"
	case RequestShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("request(%d)", uint32(t))
}

// Coefficients of a·x² + b·x + c = 0.
type Coefficients struct {
	A float64
	B float64
	C float64
}

// Number of roots found by the solver.
type RootCount int32

const (
	NoRoots       RootCount = 0
	OneRoot       RootCount = 1
	TwoRoots      RootCount = 2
	InfiniteRoots RootCount = 3
)

func (c RootCount) String() string {
	switch c {
	case NoRoots:
		return "no roots"
	case OneRoot:
		return "one root"
	case TwoRoots:
		return "two roots"
	case InfiniteRoots:
		return "infinite roots"
	}
	return fmt.Sprintf("roots(%d)", int32(c))
}

// Roots of an equation. Only the first Count roots are meaningful; X1 <= X2
// when both are present.
type Solution struct {
	Count RootCount
	X1    float64
	X2    float64
}

// Returns the meaningful roots.
func (s Solution) Roots() []float64 {
	switch s.Count {
	case OneRoot:
		return []float64{s.X1}
	case TwoRoots:
		return []float64{s.X1, s.X2}
	}
	return nil
}

func (s Solution) String() string {
	switch s.Count {
	case OneRoot:
		return fmt.Sprintf("x = %g", s.X1)
	case TwoRoots:
		return fmt.Sprintf("x1 = %g, x2 = %g", s.X1, s.X2)
	}
	return s.Count.String()
}

// One grading item: an equation and the solution it is expected to have.
type TestCase struct {
	Coefficients Coefficients
	Expected     Solution
}

// Outcome of grading a single test case.
type Verdict uint32

const (
	Passed         Verdict = 0
	WrongRootCount Verdict = 1
	WrongRoots     Verdict = 2
)

func (v Verdict) String() string {
	switch v {
	case Passed:
		return "passed"
	case WrongRootCount:
		return "wrong root count"
	case WrongRoots:
		return "wrong roots"
	}
	return fmt.Sprintf("verdict(%d)", uint32(v))
}

// Grading feedback for one test case.
type Feedback struct {
	Verdict  Verdict
	Expected Solution
	Actual   Solution
}

// Payload of a Test request. Path is NUL-padded.
type TestRequest struct {
	Path [MaxPathLen]byte
}

// Creates a [TestRequest] for the given path.
//
// The path must fit in the fixed field with room for a terminating NUL and
// must not itself contain NUL bytes.
func NewTestRequest(path string) (TestRequest, error) {
	var req TestRequest
	if path == "" || strings.IndexByte(path, 0) >= 0 {
		return req, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if len(path) >= MaxPathLen {
		return req, fmt.Errorf("%w: %d bytes, limit %d", ErrPathTooLong, len(path), MaxPathLen-1)
	}
	copy(req.Path[:], path)
	return req, nil
}

// Returns the path up to the first NUL byte.
func (r TestRequest) PathString() string {
	b := r.Path[:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Payload of a Solve request.
type SolveRequest struct {
	Coefficients Coefficients
}

// Status of a Solve response.
type SolveStatus uint32

const (
	SolveOK    SolveStatus = 0
	SolveError SolveStatus = 1
)

func (s SolveStatus) String() string {
	switch s {
	case SolveOK:
		return "ok"
	case SolveError:
		return "error"
	}
	return fmt.Sprintf("solve-status(%d)", uint32(s))
}

// Response to a Solve request.
type SolveResponse struct {
	Status   SolveStatus
	Solution Solution
}

// Status of a Test response header.
type TestStatus uint32

const (
	TestOK              TestStatus = 0
	TestDoesntExist     TestStatus = 1
	TestParsingError    TestStatus = 2
	TestExecutorCrashed TestStatus = 3
)

func (s TestStatus) String() string {
	switch s {
	case TestOK:
		return "ok"
	case TestDoesntExist:
		return "test doesn't exist"
	case TestParsingError:
		return "test parsing error"
	case TestExecutorCrashed:
		return "executor crashed"
	}
	return fmt.Sprintf("test-status(%d)", uint32(s))
}

// Leading frame of a Test response.
type TestResponseHeader struct {
	Status     TestStatus
	EntryCount uint64
}

// How the worker fared on one test case.
type ExecutorStatus uint32

const (
	NormallyExecuted ExecutorStatus = 0
	ExecutorCrashed  ExecutorStatus = 1
)

func (s ExecutorStatus) String() string {
	switch s {
	case NormallyExecuted:
		return "normally executed"
	case ExecutorCrashed:
		return "executor crashed"
	}
	return fmt.Sprintf("executor-status(%d)", uint32(s))
}

// One per-case frame of a Test response.
type TestResponseEntry struct {
	ExecutorStatus ExecutorStatus
	Feedback       Feedback
}

// Kind of a worker task.
type TaskType uint32

const (
	TaskSolve TaskType = 1
	TaskTest  TaskType = 2
	TaskQuit  TaskType = 3
)

func (t TaskType) String() string {
	switch t {
	case TaskSolve:
		return "solve"
	case TaskTest:
		return "test"
	case TaskQuit:
		return "quit"
	}
	return fmt.Sprintf("task(%d)", uint32(t))
}

// Status of a worker result.
type TaskStatus uint32

const (
	TaskOK      TaskStatus = 0
	TaskCrashed TaskStatus = 1
)

func (s TaskStatus) String() string {
	switch s {
	case TaskOK:
		return "ok"
	case TaskCrashed:
		return "crashed"
	}
	return fmt.Sprintf("task-status(%d)", uint32(s))
}

// Payload emitted by a dying worker.
type CrashReport struct {
	Signal int32 // Signal number that caused the crash.
}

// One unit of work for a worker. Only the payload matching Type is encoded.
type Task struct {
	Type         TaskType
	Coefficients Coefficients // Payload for [TaskSolve].
	Case         TestCase     // Payload for [TaskTest].
}

// Creates a solve task.
func SolveTask(c Coefficients) Task {
	return Task{Type: TaskSolve, Coefficients: c}
}

// Creates a test task.
func TestTask(tc TestCase) Task {
	return Task{Type: TaskTest, Case: tc}
}

// Creates a quit task.
func QuitTask() Task {
	return Task{Type: TaskQuit}
}

// A worker's answer to one task.
type Result struct {
	Status   TaskStatus
	Solution Solution     // Set for a successful [TaskSolve].
	Feedback Feedback     // Set for a successful [TaskTest].
	Crash    *CrashReport // Set when the worker reported its own crash.
}

// Returns true if the task did not complete.
func (r Result) Crashed() bool {
	return r.Status != TaskOK
}

// Creates a result describing a crash. A nil report means the worker died
// without saying why.
func CrashedResult(report *CrashReport) Result {
	return Result{Status: TaskCrashed, Crash: report}
}
