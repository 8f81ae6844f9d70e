package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Smarticus81/psurRegOSv1/internal/compile"
)

// runCompileCmd implements `psurctl compile <dsl-file> [--out DIR]`: compiles
// a DSL source file (following its IMPORT declarations) and writes
// compiled_obligations.json / compiled_rules.json to --out, defaulting to
// stdout as a combined document when --out is omitted.
func runCompileCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("compile", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	out := cmd.String("out", "", "output directory for compiled_obligations.json and compiled_rules.json")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: dsl-file argument is required")
		return 2
	}
	dslFile := cmd.Arg(0)
	// Flags may also follow the positional dsl-file argument.
	if err := cmd.Parse(cmd.Args()[1:]); err != nil {
		return 2
	}

	obligations, rules, err := compile.CompileFile(dslFile)
	if err != nil {
		fmt.Fprintf(stderr, "Compilation error: %v\n", err)
		return 1
	}
	logger.Info("compiled DSL", "file", dslFile, "sources", len(obligations.Sources), "obligations", len(obligations.Obligations), "constraints", len(rules.Constraints))

	if *out == "" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"compiled_obligations": obligations, "compiled_rules": rules}); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := writeJSON(filepath.Join(*out, "compiled_obligations.json"), obligations); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := writeJSON(filepath.Join(*out, "compiled_rules.json"), rules); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Compiled %d sources, %d obligations, %d constraints to %s\n", len(obligations.Sources), len(obligations.Obligations), len(rules.Constraints), *out)
	return 0
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
