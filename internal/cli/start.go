package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cruciblehq/quadd/internal"
	"github.com/cruciblehq/quadd/internal/executor"
	"github.com/cruciblehq/quadd/internal/metrics"
	"github.com/cruciblehq/quadd/internal/paths"
	"github.com/cruciblehq/quadd/internal/server"
	"github.com/cruciblehq/quadd/internal/settings"
)

// How long the metrics endpoint gets to finish in-flight scrapes on shutdown.
const metricsShutdownTimeout = 5 * time.Second

// Represents the 'quadd start' command.
type StartCmd struct{}

// Executes the start command.
//
// Starts the daemon on a Unix domain socket and blocks until the context is
// cancelled (e.g. via SIGINT or SIGTERM).
func (c *StartCmd) Run(ctx context.Context) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	launcher, err := workerLauncher(cfg)
	if err != nil {
		return err
	}

	collector := metrics.NewPrometheus(internal.Name)
	supervisor := executor.NewSupervisor(launcher,
		executor.WithGrace(cfg.WorkerGrace),
		executor.WithMetrics(collector),
	)

	srv, err := server.New(server.Config{
		SocketPath: socketPath(cfg),
		PIDFile:    paths.PIDFile(),
		Opener:     supervisor,
		Metrics:    collector,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	if cfg.MetricsAddress != "" {
		stop, err := serveMetrics(cfg.MetricsAddress, collector.Handler())
		if err != nil {
			srv.Stop()
			return err
		}
		defer stop()
	}

	slog.Info("quadd is running", "worker", launcher.Path, "grace", cfg.WorkerGrace.String())

	<-ctx.Done()

	slog.Info("shutting down")
	return srv.Stop()
}

// Returns a launcher that runs "<worker_path> worker", defaulting to this
// executable.
func workerLauncher(cfg settings.Settings) (*executor.CommandLauncher, error) {
	path := cfg.WorkerPath
	if path == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate worker executable: %w", err)
		}
		path = self
	}

	return &executor.CommandLauncher{
		Path:   path,
		Args:   workerArgs(internal.Mode()),
		Stderr: os.Stderr,
	}, nil
}

// Returns the worker command line, carrying over the daemon's log switches.
func workerArgs(mode internal.LogMode) []string {
	args := []string{"worker"}
	if mode.Debug {
		args = append(args, "--debug")
	}
	if mode.Quiet {
		args = append(args, "--quiet")
	}
	if mode.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// Serves /metrics on addr. The returned function shuts the endpoint down.
func serveMetrics(addr string, handler http.Handler) (func(), error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics endpoint: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	hs := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := hs.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()

	slog.Info("serving metrics", "address", l.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		hs.Shutdown(ctx)
	}, nil
}
