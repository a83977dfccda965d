package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cruciblehq/quadd/internal/batch"
	"github.com/cruciblehq/quadd/internal/metrics"
	"github.com/cruciblehq/quadd/internal/paths"
)

// Holds server configuration.
type Config struct {
	SocketPath string            // Unix socket path. Empty uses [paths.Socket].
	PIDFile    string            // PID file written while running. Empty skips it.
	Opener     batch.Opener      // Source of worker processes. Required.
	Metrics    metrics.Collector // Receives daemon events. Nil discards them.
}

// Listens on a Unix domain socket and serves client sessions one at a time.
type Server struct {
	socketPath string             // Path to the Unix socket file.
	pidFile    string             // Path to the PID file, or empty.
	opener     batch.Opener       // Source of worker processes.
	metrics    metrics.Collector  // Receives daemon events.
	listener   net.Listener       // Listener for incoming connections.
	startedAt  time.Time          // Timestamp when the server started.
	sessions   int                // Total number of sessions served.
	ctx        context.Context    // Cancelled on stop; bounds worker lifetimes.
	cancel     context.CancelFunc // Cancels ctx.
	conn       net.Conn           // Connection of the active session, if any.
	done       chan struct{}      // Closed when the server is stopping.
	stopped    chan struct{}      // Closed when the accept loop has returned.
	stopOnce   sync.Once          // Guards Stop.
	mu         sync.Mutex         // Protects conn and sessions.
}

// Creates a new server instance.
//
// The socket is not opened until [Server.Start] is called.
func New(cfg Config) (*Server, error) {
	if cfg.Opener == nil {
		return nil, fmt.Errorf("%w: no worker opener configured", ErrServer)
	}

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = paths.Socket()
	}

	collector := cfg.Metrics
	if collector == nil {
		collector = metrics.Noop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		socketPath: socketPath,
		pidFile:    cfg.PIDFile,
		opener:     cfg.Opener,
		metrics:    collector,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// Opens the Unix socket and begins accepting connections.
func (s *Server) Start() error {
	listener, err := listen(s.socketPath)
	if err != nil {
		return err
	}

	s.listener = listener
	s.startedAt = time.Now()

	if s.pidFile != "" {
		if err := writePID(s.pidFile); err != nil {
			slog.Warn("failed to write PID file", "path", s.pidFile, "error", err)
		}
	}

	slog.Info("server listening on socket", "path", s.socketPath)

	go s.accept()
	return nil
}

// Creates the Unix socket listener, removes any stale socket from a previous
// run, and restricts access to the owner.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServer, err)
	}

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to listen on %s: %w", ErrServer, socketPath, err)
	}

	if err := os.Chmod(socketPath, paths.SocketMode); err != nil {
		listener.Close()
		return nil, fmt.Errorf("%w: failed to chmod socket %s: %w", ErrServer, socketPath, err)
	}

	return listener, nil
}

// Shuts down the server and cleans up resources.
//
// The listener is closed, the active session (if any) is disconnected, and
// workers still running are killed. Stop returns once the accept loop has
// exited. It is safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.cancel()

		if s.listener != nil {
			s.listener.Close()
		}

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()

		if s.listener == nil {
			return
		}
		<-s.stopped

		os.Remove(s.socketPath)
		if s.pidFile != "" {
			os.Remove(s.pidFile)
		}

		s.mu.Lock()
		sessions := s.sessions
		s.mu.Unlock()

		slog.Info("server stopped",
			"sessions", sessions,
			"uptime", time.Since(s.startedAt).Truncate(time.Second).String(),
		)
	})
	return nil
}

// Blocks until the server stops.
func (s *Server) Wait() {
	<-s.done
}

// Accepts connections until the server shuts down, serving each session to
// completion before accepting the next.
func (s *Server) accept() {
	defer close(s.stopped)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				slog.Error("accept error", "error", err)
				continue
			}
		}

		if !s.track(conn) {
			conn.Close()
			return
		}

		s.serve(conn)
		s.track(nil)
	}
}

// Records the active connection. Returns false if the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		s.conn = nil
		return false
	default:
	}

	s.conn = conn
	if conn != nil {
		s.sessions++
	}
	return true
}

// Writes the daemon PID to path so the CLI can detect whether the daemon is
// already running and send it signals.
func writePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), paths.DefaultFileMode)
}
