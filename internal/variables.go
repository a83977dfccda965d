package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Program name, used for the binary, the socket and the config directory.
const Name = "quadd"

const (

	// Placeholder for a build variable that was not set.
	undefined = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	localBuild = "(local)"

	// Branch whose builds carry no stage suffix.
	releaseBranch = "main"
)

// Set through -ldflags "-X github.com/cruciblehq/quadd/internal.version=..."
var (
	version   = "" // Release version (e.g., "v1.4.0").
	stage     = "" // Branch the build came from (e.g., "main", "staging").
	gitCommit = "" // Commit hash.

	rawQuiet   = "false" // Default for --quiet.
	rawDebug   = "false" // Default for --debug.
	rawVerbose = "false" // Default for --verbose.
)

// Returns the release version without a leading "v", or "(undefined)".
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return undefined
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the branch the build came from, or "(undefined)".
func Stage() string {
	s := strings.ToLower(strings.TrimSpace(stage))
	if s == "" {
		return undefined
	}
	return s
}

// Returns the commit hash, or "(undefined)".
func GitCommit() string {
	if c := strings.TrimSpace(gitCommit); c != "" {
		return c
	}
	return undefined
}

// Returns true unless the release pipeline set version, stage and commit.
func IsLocal() bool {
	for _, v := range []string{version, stage, gitCommit} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Returns "(local)" for local builds, otherwise
// "<version>[+<stage>] <commit> [<arch>]". Builds from the release branch
// omit the stage.
func VersionString() string {
	if IsLocal() {
		return localBuild
	}

	suffix := ""
	if s := Stage(); s != releaseBranch {
		suffix = "+" + s
	}
	return fmt.Sprintf("%s%s %s [%s]", Version(), suffix, GitCommit(), runtime.GOARCH)
}
