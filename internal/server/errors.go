package server

import (
	"errors"
	"fmt"

	"github.com/cruciblehq/quadd/internal/protocol"
)

var (
	ErrServer  = errors.New("server error")
	ErrSession = errors.New("session ended")
)

// Ends a session at the client's request.
var errShutdown = fmt.Errorf("%w: shutdown requested", ErrSession)

func errUnknownRequest(t protocol.RequestType) error {
	return fmt.Errorf("%w: unknown request tag %d", ErrSession, uint32(t))
}
