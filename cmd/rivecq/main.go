// Command rivecq drives the simulator backend from the command line: inspect
// scenes, read properties, run scenarios and print journaled traces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rivecq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rivecq:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
