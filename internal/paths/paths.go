package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	daemonName = "quadd"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Permission mode for the daemon socket. Only the owner may connect.
	SocketMode os.FileMode = 0600
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/quadd or /run/user/<uid>/quadd
//	macOS:   ~/Library/Caches/quadd/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, daemonName)
	}
	return filepath.Join(xdg.CacheHome, daemonName, "run")
}

// Default path to the Unix domain socket clients connect to.
//
//	Linux:   $XDG_RUNTIME_DIR/quadd/quadd.sock
//	macOS:   ~/Library/Caches/quadd/run/quadd.sock
func Socket() string {
	return filepath.Join(Runtime(), daemonName+".sock")
}

// Default path to the PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/quadd/quadd.pid
//	macOS:   ~/Library/Caches/quadd/run/quadd.pid
func PIDFile() string {
	return filepath.Join(Runtime(), daemonName+".pid")
}

// Directory holding the daemon's configuration.
//
//	Linux:   $XDG_CONFIG_HOME/quadd
//	macOS:   ~/Library/Application Support/quadd
func Config() string {
	return filepath.Join(xdg.ConfigHome, daemonName)
}

// Default path to the daemon configuration file.
func ConfigFile() string {
	return filepath.Join(Config(), daemonName+".toml")
}
