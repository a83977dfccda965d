// Parses flags, configures logging and runs quadd subcommands.
//
// The root command accepts the following flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Include source locations in log output.
//	-d, --debug     Enable debug output.
//	-s, --socket    Unix socket path.
//	-c, --config    Configuration file.
//
// Flags override build-time defaults set via linker flags and values from the
// configuration file. After parsing, the global logger is rebuilt to reflect
// the final level and verbosity before the subcommand runs.
//
// "start" runs the daemon. "solve", "test" and "shutdown" are clients of a
// running daemon. "worker" is started by the daemon itself and is hidden.
package cli
