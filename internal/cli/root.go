package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/cruciblehq/quadd/internal"
	"github.com/cruciblehq/quadd/internal/paths"
	"github.com/cruciblehq/quadd/internal/settings"
)

// Represents the root command for quadd.
var RootCmd struct {
	Quiet    bool        `short:"q" help:"Suppress informational output."`
	Verbose  bool        `short:"v" help:"Include source locations in log output."`
	Debug    bool        `short:"d" help:"Enable debug output."`
	Socket   string      `short:"s" help:"Override the Unix socket path." placeholder:"PATH"`
	Config   string      `short:"c" help:"Configuration file (default: ${config_file})." type:"path" placeholder:"PATH"`
	Start    StartCmd    `cmd:"" help:"Start the daemon."`
	Solve    SolveCmd    `cmd:"" help:"Solve a quadratic equation."`
	Test     TestCmd     `cmd:"" help:"Grade a test-set file."`
	Shutdown ShutdownCmd `cmd:"" help:"End the current session with the daemon."`
	Worker   WorkerCmd   `cmd:"" hidden:"" help:"Run a worker on stdin and stdout."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Quadratic equation daemon.\n\nSolves equations and grades test sets in isolated worker processes."),
		kong.UsageOnError(),
		kong.Vars{
			"version":     internal.VersionString(),
			"config_file": paths.ConfigFile(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Rebuilds the global logger from CLI flags.
//
// Output goes to stderr, as text on a terminal and as JSON otherwise.
func configureLogger() {
	mode := internal.ApplyFlags(internal.LogMode{
		Quiet:   RootCmd.Quiet,
		Debug:   RootCmd.Debug,
		Verbose: RootCmd.Verbose,
	})
	slog.SetDefault(slog.New(newHandler(os.Stderr, mode)))
}

// Creates a log handler writing to f.
func newHandler(f *os.File, mode internal.LogMode) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     mode.Level(),
		AddSource: mode.Verbose,
	}

	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return slog.NewTextHandler(f, opts)
	}
	return slog.NewJSONHandler(f, opts)
}

// Loads the configuration file named by --config, or the default one.
func loadSettings() (settings.Settings, error) {
	return settings.Load(RootCmd.Config)
}

// Returns the socket path: --socket, then the configuration file, then the
// default location.
func socketPath(cfg settings.Settings) string {
	if RootCmd.Socket != "" {
		return RootCmd.Socket
	}
	if cfg.Socket != "" {
		return cfg.Socket
	}
	return paths.Socket()
}
