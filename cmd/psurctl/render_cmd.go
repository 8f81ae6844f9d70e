package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/internal/render"
)

// runRenderCmd implements `psurctl render`: pairs a JSON array of
// SlotProposals with a JSON array of AdjudicationResults by proposal_id
// and renders the accepted ones against a TemplateSchema as markdown.
func runRenderCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("render", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	templatePath := cmd.String("template", "", "path to TemplateSchema JSON (REQUIRED)")
	proposalsPath := cmd.String("proposals", "", "path to a JSON array of SlotProposals (REQUIRED)")
	adjudicationsPath := cmd.String("adjudications", "", "path to a JSON array of AdjudicationResults (REQUIRED)")
	out := cmd.String("out", "", "output file; defaults to stdout")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *templatePath == "" || *proposalsPath == "" || *adjudicationsPath == "" {
		fmt.Fprintln(stderr, "Error: --template, --proposals and --adjudications are all required")
		return 2
	}

	var template model.TemplateSchema
	var proposals []model.SlotProposal
	var adjudications []model.AdjudicationResult
	for _, pair := range []struct {
		path string
		dest any
	}{
		{*templatePath, &template},
		{*proposalsPath, &proposals},
		{*adjudicationsPath, &adjudications},
	} {
		if err := readJSON(pair.path, pair.dest); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	byProposal := make(map[string]model.AdjudicationResult, len(adjudications))
	for _, a := range adjudications {
		byProposal[a.ProposalID] = a
	}
	var accepted []render.Accepted
	for _, p := range proposals {
		a, ok := byProposal[p.ProposalID]
		if !ok {
			continue
		}
		accepted = append(accepted, render.Accepted{Proposal: p, Adjudication: a})
	}

	doc := render.NewMarkdownRenderer(&template).Render(accepted)
	logger.Info("rendered report", "template_id", template.TemplateID, "accepted", len(accepted))

	if *out == "" {
		fmt.Fprint(stdout, doc)
		return 0
	}
	if err := os.WriteFile(*out, []byte(doc), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Rendered report to %s\n", *out)
	return 0
}
