package worker

import "errors"

var (
	ErrWorker          = errors.New("worker error")
	ErrUnknownTaskType = errors.New("unknown task type")
)
