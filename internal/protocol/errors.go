package protocol

import "errors"

var (
	ErrProtocol    = errors.New("protocol error")
	ErrPathTooLong = errors.New("test path too long")
	ErrInvalidPath = errors.New("invalid test path")
)
