package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/horizonanalytic/stratum/internal/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// runRepl evaluates one line at a time, each as the body of its own
// implicit function whose result is printed — it is not a line at a time in
// a persistent module scope; globals defined on one line aren't visible on
// the next, which keeps each line an independently compilable unit.
func runRepl(_ *cobra.Command, _ []string) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	machine := newHostVM()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("stratum> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		evalReplLine(machine, line)
	}
	return scanner.Err()
}

func evalReplLine(machine *vm.VM, line string) {
	source := "fx __repl_line() {\n" + line + "\n}\nfx main() { __repl_line() }"
	chunk, err := compileSource(source, "<repl>")
	if err != nil {
		return
	}
	result, err := machine.Run(chunk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if result != nil {
		fmt.Println(vm.Inspect(result))
	}
}
