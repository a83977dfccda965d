package executor

import "errors"

var (
	ErrExecutor = errors.New("executor error")
	ErrSpawn    = errors.New("failed to start worker")
	ErrNotAlive = errors.New("worker is not alive")
	ErrBusy     = errors.New("worker already has a task in flight")
	ErrIdle     = errors.New("no task in flight")
)
