package cli

import (
	"os"

	"github.com/cruciblehq/quadd/internal/worker"
)

// Represents the hidden 'quadd worker' command, started by the daemon.
type WorkerCmd struct{}

// Executes the worker command.
//
// Tasks arrive on stdin and results leave on stdout, so nothing else may
// write to stdout.
func (c *WorkerCmd) Run() error {
	return worker.Main(os.Stdin, os.Stdout)
}
