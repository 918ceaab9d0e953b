// Command docgolden manages document fixtures and compares generated
// output against golden baselines.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/docgolden/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
