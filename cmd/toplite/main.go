package main

import (
	"github.com/Dicklesworthstone/toplite/internal/cli"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	cli.Version = Version
	cli.Execute()
}
