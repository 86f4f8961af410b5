// Command shadowfeed runs the wallet record feed synchronizer.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/shadowfeed/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
