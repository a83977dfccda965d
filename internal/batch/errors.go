package batch

import "errors"

var (
	ErrBatch = errors.New("batch failed")
)
