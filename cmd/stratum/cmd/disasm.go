package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/horizonanalytic/stratum/internal/bytecode"
)

var disasmEval string

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile a Stratum source file and print its disassembled bytecode",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVarP(&disasmEval, "eval", "e", "", "disassemble inline code instead of reading a file")
}

func runDisasm(_ *cobra.Command, args []string) error {
	var file string
	if len(args) == 1 {
		file = args[0]
	}
	source, name, err := readSource(file, disasmEval)
	if err != nil {
		return err
	}

	chunk, err := compileSource(source, name)
	if err != nil {
		return err
	}

	fmt.Print(bytecode.Disassemble(chunk, name))
	return nil
}
