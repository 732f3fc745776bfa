// ConnectPlay - connect four with a live analysis engine
package main

import (
	"os"

	"github.com/hailam/connectplay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
