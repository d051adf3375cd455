// Command blocktest builds JUnit 5 test classes from block documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/blocktest/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
