package main

import (
	"fmt"
	"os"

	"github.com/unkn0wn-root/invcache/internal/cli"
)

// Set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersion(version, commit)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
