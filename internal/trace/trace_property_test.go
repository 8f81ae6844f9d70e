//go:build property
// +build property

// Property-based tests for trace atomicity: the number of emitted
// TraceNodes always equals the number of fragments the payload decomposes
// into, and every node carries the proposal's full provenance.
package trace_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/internal/trace"
)

func accepted() model.AdjudicationResult {
	return model.AdjudicationResult{AdjudicationID: "adj-prop", Status: model.Accepted}
}

func proposalWith(payload model.Payload) model.SlotProposal {
	return model.SlotProposal{
		ProposalID:    "p1",
		AgentID:       "agent-1",
		SlotID:        "s1",
		Payload:       payload,
		EvidenceAtoms: []string{"a1", "a2"},
		ClaimedBasis:  []string{"OBL-1", "OBL-2"},
	}
}

// TestNarrativeAtomicity: N non-empty paragraphs joined by blank lines
// yield exactly N paragraph nodes, indexed 0..N-1.
func TestNarrativeAtomicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("N paragraphs yield N nodes", prop.ForAll(
		func(paragraphs []string) bool {
			text := strings.Join(paragraphs, "\n\n")
			proposal := proposalWith(model.Payload{Type: model.OutputNarrative, Text: text})
			nodes, err := trace.Generate(proposal, accepted(), model.SlotNarrative)
			if err != nil {
				return false
			}
			if len(nodes) != len(paragraphs) {
				return false
			}
			for i, node := range nodes {
				if node.FragmentIndex != i || node.FragmentType != "paragraph" {
					return false
				}
				if node.FragmentContent != paragraphs[i] {
					return false
				}
			}
			return trace.ValidateTraceCompleteness(proposal, nodes, model.SlotNarrative)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

// TestTableAtomicity: a table of R rows with C cells each yields exactly
// R*C cell nodes with one counter spanning all rows.
func TestTableAtomicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("R x C cells yield R*C nodes", prop.ForAll(
		func(rowCount, colCount int) bool {
			rows := make([][]model.Cell, rowCount)
			for r := range rows {
				cells := make([]model.Cell, colCount)
				for c := range cells {
					cells[c] = model.Cell{Value: r*colCount + c}
				}
				rows[r] = cells
			}
			proposal := proposalWith(model.Payload{Type: model.OutputTable, Rows: rows})
			nodes, err := trace.Generate(proposal, accepted(), model.SlotTable)
			if err != nil {
				return false
			}
			if len(nodes) != rowCount*colCount {
				return false
			}
			for i, node := range nodes {
				if node.FragmentIndex != i || node.FragmentType != "cell" {
					return false
				}
			}
			return trace.ValidateTraceCompleteness(proposal, nodes, model.SlotTable)
		},
		gen.IntRange(0, 10), gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

// TestKVAtomicityAndProvenance: K pairs yield K kv_pair nodes, each
// carrying the proposal's full evidence and regulatory basis.
func TestKVAtomicityAndProvenance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("K pairs yield K nodes with full provenance", prop.ForAll(
		func(keys []string) bool {
			pairs := make([]model.KVPair, len(keys))
			for i, k := range keys {
				pairs[i] = model.KVPair{Key: k, Value: "v"}
			}
			proposal := proposalWith(model.Payload{Type: model.OutputKV, Pairs: pairs})
			nodes, err := trace.Generate(proposal, accepted(), model.SlotKV)
			if err != nil {
				return false
			}
			if len(nodes) != len(pairs) {
				return false
			}
			for _, node := range nodes {
				if len(node.EvidenceAtoms) != 2 || len(node.RegulatoryBasis) != 2 {
					return false
				}
				if node.AgentID != "agent-1" || node.FragmentType != "kv_pair" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
