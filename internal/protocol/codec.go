package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Byte order of every multi-byte field on both channels.
var ByteOrder = binary.LittleEndian

// Encodes the given values back to back and writes them as one frame.
//
// Values must be fixed-size (see [binary.Write]).
func WriteFrame(w io.Writer, values ...any) error {
	var buf bytes.Buffer
	for _, v := range values {
		if err := binary.Write(&buf, ByteOrder, v); err != nil {
			return fmt.Errorf("%w: encode %T: %w", ErrProtocol, v, err)
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// Reads one fixed-size value.
//
// A clean end of stream before any byte is returned as [io.EOF]; a value cut
// short is returned as [io.ErrUnexpectedEOF].
func ReadFrame(r io.Reader, v any) error {
	return binary.Read(r, ByteOrder, v)
}

// Writes a request tag followed by its payload. Shutdown requests take a nil
// payload.
func WriteRequest(w io.Writer, t RequestType, payload any) error {
	if payload == nil {
		return WriteFrame(w, t)
	}
	return WriteFrame(w, t, payload)
}

// Reads a request tag.
func ReadRequestType(r io.Reader) (RequestType, error) {
	var t RequestType
	if err := ReadFrame(r, &t); err != nil {
		return 0, err
	}
	return t, nil
}

// Writes a task frame.
func WriteTask(w io.Writer, task Task) error {
	switch task.Type {
	case TaskSolve:
		return WriteFrame(w, task.Type, task.Coefficients)
	case TaskTest:
		return WriteFrame(w, task.Type, task.Case)
	default:
		return WriteFrame(w, task.Type)
	}
}

// Reads a task frame.
//
// An unrecognized type is returned without a payload and without error; what
// to do about it is the worker's decision.
func ReadTask(r io.Reader) (Task, error) {
	var task Task
	if err := ReadFrame(r, &task.Type); err != nil {
		return task, err
	}

	var err error
	switch task.Type {
	case TaskSolve:
		err = ReadFrame(r, &task.Coefficients)
	case TaskTest:
		err = ReadFrame(r, &task.Case)
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return task, err
}

// Writes a result frame for a completed task of the given type.
func WriteResult(w io.Writer, t TaskType, res Result) error {
	if res.Crashed() {
		report := CrashReport{}
		if res.Crash != nil {
			report = *res.Crash
		}
		return WriteFrame(w, TaskCrashed, report)
	}

	switch t {
	case TaskSolve:
		return WriteFrame(w, res.Status, res.Solution)
	case TaskTest:
		return WriteFrame(w, res.Status, res.Feedback)
	default:
		return fmt.Errorf("%w: no result payload for %s", ErrProtocol, t)
	}
}

// Writes a crash frame. Used by the fault trap, which does not know which
// task was in flight.
func WriteCrash(w io.Writer, report CrashReport) error {
	return WriteFrame(w, TaskCrashed, report)
}

// Reads the result of a task of the given type.
//
// Errors are returned as-is. Callers supervising a worker treat any error as
// a crash with no report.
func ReadResult(r io.Reader, t TaskType) (Result, error) {
	var res Result
	if err := ReadFrame(r, &res.Status); err != nil {
		return res, err
	}

	var err error
	switch {
	case res.Status == TaskCrashed:
		var report CrashReport
		err = ReadFrame(r, &report)
		res.Crash = &report
	case res.Status != TaskOK:
		return res, fmt.Errorf("%w: unknown task status %d", ErrProtocol, uint32(res.Status))
	case t == TaskSolve:
		err = ReadFrame(r, &res.Solution)
	case t == TaskTest:
		err = ReadFrame(r, &res.Feedback)
	default:
		return res, fmt.Errorf("%w: no result payload for %s", ErrProtocol, t)
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return res, err
}
