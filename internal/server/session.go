package server

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/cruciblehq/quadd/internal/protocol"
)

// One client connection.
type session struct {
	server *Server
	conn   net.Conn      // Client connection; responses are written here.
	r      *bufio.Reader // Buffered view of conn for request frames.
	log    *slog.Logger  // Logger carrying the session identifier.
}

// Serves requests on conn until the session ends.
func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	sess := &session{
		server: s,
		conn:   conn,
		r:      bufio.NewReader(conn),
		log:    slog.With("session", uuid.NewString()),
	}

	s.metrics.SessionOpened()
	sess.log.Info("session opened")

	for {
		t, err := protocol.ReadRequestType(sess.r)
		if err != nil {
			sess.closed(err)
			return
		}

		if err := sess.dispatch(t); err != nil {
			sess.closed(err)
			return
		}
	}
}

// Routes a request to its handler. A non-nil error ends the session.
func (c *session) dispatch(t protocol.RequestType) error {
	c.log.Debug("request received", "request", t.String())

	switch t {
	case protocol.RequestSolve:
		return c.handleSolve()
	case protocol.RequestTest:
		return c.handleTest()
	case protocol.RequestShutdown:
		return c.handleShutdown()
	}

	c.server.metrics.RequestHandled(t.String(), "rejected")
	return errUnknownRequest(t)
}

// Logs why the session ended.
func (c *session) closed(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, errShutdown):
		c.log.Info("session closed")
	case errors.Is(err, net.ErrClosed):
		c.log.Info("session closed by server")
	default:
		c.log.Warn("session aborted", "error", err)
	}
}
