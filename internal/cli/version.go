package cli

import (
	"fmt"

	"github.com/cruciblehq/quadd/internal"
)

// Represents the 'quadd version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run() error {
	fmt.Println(internal.VersionString())
	return nil
}
