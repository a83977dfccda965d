// Package settings loads the daemon configuration file.
//
// The file is TOML. Every key is optional:
//
//	socket          = "/run/user/1000/quadd/quadd.sock"
//	worker_path     = "/usr/local/bin/quadd"
//	worker_grace    = "2s"
//	metrics_address = "127.0.0.1:9464"
//
// Command-line flags take precedence over the file.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cruciblehq/quadd/internal/executor"
	"github.com/cruciblehq/quadd/internal/paths"
)

var ErrSettings = errors.New("invalid settings")

// Daemon configuration.
type Settings struct {
	Socket         string        // Unix socket path. Empty uses the default.
	WorkerPath     string        // Worker executable. Empty uses the running executable.
	WorkerGrace    time.Duration // How long a closing worker may take to exit.
	MetricsAddress string        // Listen address for /metrics. Empty disables it.
}

// Returns the built-in configuration.
func Defaults() Settings {
	return Settings{
		WorkerGrace: executor.DefaultGrace,
	}
}

// On-disk form.
type file struct {
	Socket         *string `toml:"socket"`
	WorkerPath     *string `toml:"worker_path"`
	WorkerGrace    *string `toml:"worker_grace"`
	MetricsAddress *string `toml:"metrics_address"`
}

// Loads settings from path, layered over [Defaults].
//
// An empty path means the default location, where a missing file is not an
// error. A path given explicitly must exist.
func Load(path string) (Settings, error) {
	explicit := path != ""
	if !explicit {
		path = paths.ConfigFile()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("%w: %w", ErrSettings, err)
	}

	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parses TOML settings, layered over [Defaults]. Unknown keys are rejected.
func Parse(data []byte) (Settings, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrSettings, err)
	}

	s := Defaults()
	if f.Socket != nil {
		s.Socket = *f.Socket
	}
	if f.WorkerPath != nil {
		s.WorkerPath = *f.WorkerPath
	}
	if f.MetricsAddress != nil {
		s.MetricsAddress = *f.MetricsAddress
	}
	if f.WorkerGrace != nil {
		d, err := time.ParseDuration(*f.WorkerGrace)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: worker_grace: %w", ErrSettings, err)
		}
		if d < 0 {
			return Settings{}, fmt.Errorf("%w: worker_grace must not be negative, got %s", ErrSettings, d)
		}
		s.WorkerGrace = d
	}
	return s, nil
}
