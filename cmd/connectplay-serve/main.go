// Command connectplay-serve runs the analysis feed without the interactive game.
// It accepts the same flags as "connectplay serve".
package main

import (
	"os"

	"github.com/hailam/connectplay/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(append([]string{"serve"}, os.Args[1:]...))
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
