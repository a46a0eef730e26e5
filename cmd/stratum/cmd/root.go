// Package cmd wires the stratum CLI's cobra command tree: run, build,
// disasm, repl, and the self subcommand group.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is stamped by build flags (-ldflags "-X ...Version=...").
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Stratum language toolchain",
	Long: `stratum compiles and runs Stratum (.strat) source through a single
pipeline: lex, parse, type-check, compile to bytecode, and execute on the
stack-based VM.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("stratum version {{.Version}} (%s)\n", GitCommit))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
