package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/horizonanalytic/stratum/internal/bytecode"
	"github.com/horizonanalytic/stratum/internal/cache"
)

var (
	runEval    string
	runNoCache bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile and execute a Stratum source file",
	Long: `Run lexes, parses, type-checks, compiles, and executes a .strat
program on the bytecode VM.

Examples:
  stratum run script.strat
  stratum run -e 'fx main(){ println(1+2) }'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runEval, "eval", "e", "", "evaluate inline code instead of reading a file")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "skip the compilation cache")
}

func runRun(_ *cobra.Command, args []string) error {
	var file string
	if len(args) == 1 {
		file = args[0]
	}
	source, name, err := readSource(file, runEval)
	if err != nil {
		return err
	}

	start := time.Now()
	chunk, err := compileWithCache(source, name, runNoCache)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("compiled %s in %s (%s bytecode)\n", name, time.Since(start), humanize.Bytes(uint64(len(chunk.Code))))
	}

	machine := newHostVM()
	result, err := machine.Run(chunk)
	if err != nil {
		return fmt.Errorf("%s: runtime error: %w", name, err)
	}
	if verbose {
		fmt.Printf("result: %v\n", result)
	}
	return nil
}

// compileWithCache wraps compileSource with the on-disk bytecode cache,
// transparently falling back to an uncached compile when the cache
// directory can't be opened (e.g. a read-only $STRATUM_HOME).
func compileWithCache(source, name string, skip bool) (*bytecode.Chunk, error) {
	compile := func() (*bytecode.Chunk, error) { return compileSource(source, name) }
	if skip {
		return compile()
	}

	home, err := stratumHome()
	if err != nil {
		return compile()
	}
	c, err := cache.Open(cacheDBPath(home))
	if err != nil {
		return compile()
	}
	defer c.Close()

	key := cache.Key(source, Version)
	return c.GetOrCompile(key, time.Now().Unix(), compile)
}
