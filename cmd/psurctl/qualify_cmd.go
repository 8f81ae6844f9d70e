package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/internal/qualify"
)

// runQualifyCmd implements `psurctl qualify`: statically checks a
// (TemplateSchema, ObligationMapping) pair against a CompiledObligations
// document and prints the complete QualificationReport.
func runQualifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("qualify", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	obligationsPath := cmd.String("obligations", "", "path to compiled_obligations.json (REQUIRED)")
	templatePath := cmd.String("template", "", "path to TemplateSchema JSON (REQUIRED)")
	mappingPath := cmd.String("mapping", "", "path to ObligationMapping JSON (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *obligationsPath == "" || *templatePath == "" || *mappingPath == "" {
		fmt.Fprintln(stderr, "Error: --obligations, --template and --mapping are all required")
		return 2
	}

	var obligations model.CompiledObligations
	var template model.TemplateSchema
	var mapping model.ObligationMapping
	for _, pair := range []struct {
		path string
		dest any
	}{
		{*obligationsPath, &obligations},
		{*templatePath, &template},
		{*mappingPath, &mapping},
	} {
		if err := readJSON(pair.path, pair.dest); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	report := qualify.QualifyTemplate(&obligations, &template, &mapping)
	logger.Info("qualification complete", "template_id", template.TemplateID, "status", report.Status, "issues", len(report.Issues))

	if report.Status == model.Pass {
		fmt.Fprintln(stdout, "QUALIFICATION PASSED")
		return 0
	}

	fmt.Fprintln(stdout, "QUALIFICATION FAILED")
	if len(report.MissingMandatoryObligations) > 0 {
		fmt.Fprintln(stdout, "\nMissing Mandatory Obligations:")
		for _, id := range report.MissingMandatoryObligations {
			fmt.Fprintf(stdout, "  - %s\n", id)
		}
	}
	if len(report.DanglingMappings) > 0 {
		fmt.Fprintln(stdout, "\nDangling Mappings:")
		for _, id := range report.DanglingMappings {
			fmt.Fprintf(stdout, "  - %s\n", id)
		}
	}
	if len(report.IncompatibleSlotTypes) > 0 {
		fmt.Fprintln(stdout, "\nIncompatible Slot Types:")
		for _, issue := range report.IncompatibleSlotTypes {
			fmt.Fprintf(stdout, "  - %s\n", issue.Message)
		}
	}
	return 1
}
