// Command stratum is the reference CLI: it runs, builds, and disassembles
// .strat source, offers a REPL, and manages self-installed toolchain
// versions under $STRATUM_HOME.
package main

import (
	"fmt"
	"os"

	"github.com/horizonanalytic/stratum/cmd/stratum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
