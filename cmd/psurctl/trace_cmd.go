package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// runTraceExportCmd implements `psurctl trace-export`: reads TraceNodes
// either from a directory of JSON files (--traces-dir) or from the
// document store (--db) and emits them as line-delimited JSON, one node
// per line. psur_ref filtering is reserved for future use and not applied
// here, matching internal/store's ExportTraces.
func runTraceExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("trace-export", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	tracesDir := cmd.String("traces-dir", "", "directory of TraceNode JSON files")
	dbDSN := cmd.String("db", "", "SQLite DSN of the document store to export from")
	out := cmd.String("out", "", "output file; defaults to stdout")
	_ = cmd.String("psur-ref", "", "reserved for future use; not applied")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *tracesDir == "" && *dbDSN == "" {
		fmt.Fprintln(stderr, "Error: one of --traces-dir or --db is required")
		return 2
	}

	var nodes []model.TraceNode
	if *dbDSN != "" {
		docs, db, err := openStore(*dbDSN)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer db.Close()
		nodes, err = docs.ExportTraces(context.Background(), nil)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		entries, err := os.ReadDir(*tracesDir)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			var node model.TraceNode
			if err := readJSON(filepath.Join(*tracesDir, e.Name()), &node); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			nodes = append(nodes, node)
		}
	}

	w := io.Writer(stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		w = f
	}

	for _, node := range nodes {
		data, err := json.Marshal(node)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(w, string(data))
	}
	logger.Info("exported traces", "count", len(nodes))
	if *out != "" {
		fmt.Fprintf(stdout, "Exported %d trace nodes to %s\n", len(nodes), *out)
	}
	return 0
}
