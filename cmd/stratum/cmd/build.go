package cmd

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile a Stratum source file to a serialized bytecode chunk",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default: <input>.strc)")
}

func runBuild(_ *cobra.Command, args []string) error {
	file := args[0]
	source, name, err := readSource(file, "")
	if err != nil {
		return err
	}

	chunk, err := compileSource(source, name)
	if err != nil {
		return err
	}

	out := buildOutput
	if out == "" {
		out = strings.TrimSuffix(file, ".strat") + ".strc"
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(chunk); err != nil {
		return fmt.Errorf("serialize bytecode: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("wrote %s (%s)\n", out, humanize.Bytes(uint64(buf.Len())))
	return nil
}
