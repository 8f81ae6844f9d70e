// Command psurctl is the CLI front-end: a thin dispatcher over internal/compile,
// internal/qualify, internal/adjudicate, internal/trace, internal/render
// and internal/period. It never implements adjudication semantics itself.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Smarticus81/psurRegOSv1/internal/config"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// cfg is the active configuration; subcommands read defaults (storage
// DSN) from it. Replaced by Run when --config is given.
var cfg = config.Default()

// Run is the dispatcher entrypoint, separated from main for testing. A
// leading `--config FILE` pair is consumed before subcommand dispatch.
func Run(args []string, stdout, stderr io.Writer) int {
	rest := args[1:]
	if len(rest) >= 1 && rest[0] == "--config" {
		if len(rest) < 2 {
			fmt.Fprintln(stderr, "Error: --config requires a file argument")
			return 2
		}
		loaded, err := config.Load(rest[1])
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg = loaded
		applyLogLevel(cfg.LogLevel, stderr)
		rest = rest[2:]
	}
	if len(rest) < 1 {
		printUsage(stderr)
		return 2
	}

	switch rest[0] {
	case "compile":
		return runCompileCmd(rest[1:], stdout, stderr)
	case "qualify":
		return runQualifyCmd(rest[1:], stdout, stderr)
	case "adjudicate":
		return runAdjudicateCmd(rest[1:], stdout, stderr)
	case "trace-export":
		return runTraceExportCmd(rest[1:], stdout, stderr)
	case "render":
		return runRenderCmd(rest[1:], stdout, stderr)
	case "periods":
		return runPeriodsCmd(rest[1:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", rest[0])
		printUsage(stderr)
		return 2
	}
}

func applyLogLevel(level string, w io.Writer) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})))
	logger = slog.Default().With("component", "psurctl")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "psurctl - PSUR regulatory compliance kernel CLI")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  psurctl [--config FILE] <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  compile <dsl-file> [--out DIR]")
	fmt.Fprintln(w, "  qualify --obligations FILE --template FILE --mapping FILE")
	fmt.Fprintln(w, "  adjudicate --obligations FILE --rules FILE --template FILE --mapping FILE --proposal FILE [--evidence FILE]... [--trace-out DIR] [--db DSN]")
	fmt.Fprintln(w, "  trace-export [--traces-dir DIR | --db DSN] [--out FILE]")
	fmt.Fprintln(w, "  render --template FILE --proposals FILE --adjudications FILE [--out FILE]")
	fmt.Fprintln(w, "  periods <periods-file>")
}

var logger = slog.Default().With("component", "psurctl")
