package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/horizonanalytic/stratum/internal/bytecode"
	"github.com/horizonanalytic/stratum/internal/checker"
	"github.com/horizonanalytic/stratum/internal/compiler"
	"github.com/horizonanalytic/stratum/internal/diagnostics"
	"github.com/horizonanalytic/stratum/internal/lexer"
	"github.com/horizonanalytic/stratum/internal/parser"
)

// readSource loads file, or returns source/"<eval>" directly when eval is
// non-empty (mirroring the -e/--eval inline-expression flag pattern).
func readSource(file, eval string) (source, name string, err error) {
	if eval != "" {
		return eval, "<eval>", nil
	}
	if file == "" {
		return "", "", fmt.Errorf("provide a source file or use -e for inline code")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(data), file, nil
}

// compileSource runs the full lex -> parse -> check -> compile pipeline,
// printing every collected diagnostic and stopping at the first stage that
// produced any error (no partial bytecode is ever returned alongside an
// error, per the compile-time error propagation policy).
func compileSource(source, name string) (*bytecode.Chunk, error) {
	toks, lexBag := lexer.Lex(source)
	if lexBag.HasErrors() {
		printDiagnostics(name, lexBag)
		return nil, fmt.Errorf("%s: lexing failed with %d error(s)", name, lexBag.Len())
	}

	mod, parseBag := parser.ParseModule(toks)
	if parseBag.HasErrors() {
		printDiagnostics(name, parseBag)
		return nil, fmt.Errorf("%s: parsing failed with %d error(s)", name, parseBag.Len())
	}

	if _, checkBag := checker.Check(mod); checkBag.HasErrors() {
		printDiagnostics(name, checkBag)
		return nil, fmt.Errorf("%s: type checking failed with %d error(s)", name, checkBag.Len())
	}

	chunk, compileBag := compiler.Compile(mod)
	if compileBag.HasErrors() {
		printDiagnostics(name, compileBag)
		return nil, fmt.Errorf("%s: compilation failed with %d error(s)", name, compileBag.Len())
	}
	return chunk, nil
}

func printDiagnostics(name string, bag *diagnostics.Bag) {
	var b strings.Builder
	for _, d := range bag.Items() {
		fmt.Fprintf(&b, "%s: %s\n", name, d.String())
	}
	fmt.Fprint(os.Stderr, b.String())
}
