package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Smarticus81/psurRegOSv1/internal/adjudicate"
	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/internal/store"
	"github.com/Smarticus81/psurRegOSv1/internal/trace"
)

// stringList accumulates repeated -evidence flags.
type stringList []string

func (s *stringList) String() string { return fmt.Sprintf("%v", []string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// runAdjudicateCmd implements `psurctl adjudicate`: loads the compiled
// artefacts, the template+mapping, one proposal and its evidence atoms,
// runs the adjudication engine, and on ACCEPTED generates and writes
// the trace nodes.
func runAdjudicateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("adjudicate", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	obligationsPath := cmd.String("obligations", "", "path to compiled_obligations.json (REQUIRED)")
	rulesPath := cmd.String("rules", "", "path to compiled_rules.json (REQUIRED)")
	templatePath := cmd.String("template", "", "path to TemplateSchema JSON (REQUIRED)")
	mappingPath := cmd.String("mapping", "", "path to ObligationMapping JSON (REQUIRED)")
	proposalPath := cmd.String("proposal", "", "path to SlotProposal JSON (REQUIRED)")
	traceOut := cmd.String("trace-out", "", "directory to write generated TraceNode JSON files")
	persist := cmd.Bool("persist", false, "persist proposal, evidence, result and traces to the document store")
	dbDSN := cmd.String("db", "", "SQLite DSN for --persist; defaults to the configured storage DSN")
	var evidencePaths stringList
	cmd.Var(&evidencePaths, "evidence", "path to an EvidenceAtom JSON file (repeatable)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *obligationsPath == "" || *rulesPath == "" || *templatePath == "" || *mappingPath == "" || *proposalPath == "" {
		fmt.Fprintln(stderr, "Error: --obligations, --rules, --template, --mapping and --proposal are all required")
		return 2
	}

	var obligations model.CompiledObligations
	var rules model.CompiledRules
	var template model.TemplateSchema
	var mapping model.ObligationMapping
	var proposal model.SlotProposal
	for _, pair := range []struct {
		path string
		dest any
	}{
		{*obligationsPath, &obligations},
		{*rulesPath, &rules},
		{*templatePath, &template},
		{*mappingPath, &mapping},
		{*proposalPath, &proposal},
	} {
		if err := readJSON(pair.path, pair.dest); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	evidence := make(map[string]model.EvidenceAtom, len(evidencePaths))
	for _, p := range evidencePaths {
		var atom model.EvidenceAtom
		if err := readJSON(p, &atom); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		evidence[atom.AtomID] = atom
	}

	engine := adjudicate.NewEngine(&obligations, &rules, &template, &mapping)
	result := engine.Adjudicate(proposal, evidence)
	logger.Info("adjudication complete", "proposal_id", proposal.ProposalID, "status", result.Status, "rejections", len(result.RejectionReasons))

	var docs *store.SQLiteStore
	if *persist {
		s, db, err := openStore(*dbDSN)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer db.Close()
		docs = s

		ctx := context.Background()
		if err := docs.SaveSlotProposal(ctx, &proposal); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		for _, atom := range evidence {
			atom := atom
			if err := docs.SaveEvidenceAtom(ctx, &atom); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
		}
		if err := docs.SaveAdjudicationResult(ctx, result); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if result.Status == model.Rejected {
		fmt.Fprintln(stdout, "REJECTED")
		for _, reason := range result.RejectionReasons {
			fmt.Fprintf(stdout, "  - [%s] %s\n", reason.RuleType, reason.Message)
		}
		return 1
	}

	fmt.Fprintln(stdout, "ACCEPTED")
	slot, ok := template.GetSlot(proposal.SlotID)
	if !ok {
		return 0
	}
	traces, err := trace.Generate(proposal, *result, slot.SlotType)
	if err != nil {
		fmt.Fprintf(stderr, "Error generating trace: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Generated %d trace nodes.\n", len(traces))

	if docs != nil {
		ctx := context.Background()
		for i := range traces {
			if err := docs.SaveTraceNode(ctx, &traces[i]); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
		}
	}

	if *traceOut != "" {
		if err := os.MkdirAll(*traceOut, 0o755); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		for _, node := range traces {
			if err := writeJSON(filepath.Join(*traceOut, node.TraceID+".json"), node); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
		}
	}
	return 0
}
