package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/internal/period"
)

// runPeriodsCmd implements `psurctl periods <periods-file>`: checks the
// contiguity invariants on a JSON array of PSURPeriods.
func runPeriodsCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("periods", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() < 1 {
		fmt.Fprintln(stderr, "Error: periods-file argument is required")
		return 2
	}

	var periods []model.PSURPeriod
	if err := readJSON(cmd.Arg(0), &periods); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	valid, issues := period.ValidatePeriodContiguity(periods)
	logger.Info("period contiguity checked", "count", len(periods), "valid", valid, "issues", len(issues))

	if valid {
		fmt.Fprintln(stdout, "CONTIGUOUS")
		return 0
	}
	fmt.Fprintln(stdout, "NOT CONTIGUOUS")
	for _, issue := range issues {
		fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return 1
}
