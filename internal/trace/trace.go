// Package trace implements the atomic trace generator: decomposing an
// accepted proposal's payload into fragment-level TraceNodes that each
// carry the full evidence and regulatory basis of the proposal they came
// from.
package trace

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// Generate produces the TraceNodes for one accepted proposal. Rejected
// adjudications are a programmer error: the generator refuses them rather
// than emitting a trace for content that was never accepted.
func Generate(proposal model.SlotProposal, adjudication model.AdjudicationResult, slotType model.SlotType) ([]model.TraceNode, error) {
	if adjudication.Status != model.Accepted {
		return nil, fmt.Errorf("%w: cannot generate trace for a %s adjudication", model.ErrProgrammerMisuse, adjudication.Status)
	}

	switch slotType {
	case model.SlotNarrative:
		return traceNarrative(proposal, adjudication), nil
	case model.SlotTable:
		return traceTable(proposal, adjudication), nil
	case model.SlotKV:
		return traceKV(proposal, adjudication), nil
	default:
		return nil, fmt.Errorf("%w: unknown slot type %q", model.ErrProgrammerMisuse, slotType)
	}
}

func baseNode(adjudication model.AdjudicationResult, proposal model.SlotProposal, index int, fragmentType, content string) model.TraceNode {
	return model.TraceNode{
		TraceID:         fmt.Sprintf("%s-%d", adjudication.AdjudicationID, index),
		AdjudicationID:  adjudication.AdjudicationID,
		SlotID:          proposal.SlotID,
		FragmentType:    fragmentType,
		FragmentIndex:   index,
		FragmentContent: content,
		EvidenceAtoms:   append([]string(nil), proposal.EvidenceAtoms...),
		Transformations: append([]model.Transformation(nil), proposal.TransformationsUsed...),
		RegulatoryBasis: append([]string(nil), proposal.ClaimedBasis...),
		AgentID:         proposal.AgentID,
		CreatedAt:       time.Now().UTC(),
	}
}

// blankLineSeparator matches a run of one or more blank lines, where a line
// holding only whitespace counts as blank.
var blankLineSeparator = regexp.MustCompile(`\n\s*\n`)

// narrativeParagraphs splits text on blank-line boundaries, trims each
// resulting paragraph, and discards empty ones. If the split produces no
// paragraphs but the trimmed text is non-empty, it is emitted whole.
func narrativeParagraphs(text string) []string {
	parts := blankLineSeparator.Split(text, -1)
	var paragraphs []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	if len(paragraphs) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			paragraphs = []string{trimmed}
		}
	}
	return paragraphs
}

func traceNarrative(proposal model.SlotProposal, adjudication model.AdjudicationResult) []model.TraceNode {
	paragraphs := narrativeParagraphs(proposal.Payload.Text)
	nodes := make([]model.TraceNode, 0, len(paragraphs))
	for idx, paragraph := range paragraphs {
		nodes = append(nodes, baseNode(adjudication, proposal, idx, "paragraph", paragraph))
	}
	return nodes
}

func cellContent(cell model.Cell) string {
	if m, ok := cell.Value.(map[string]any); ok {
		if v, ok := m["value"]; ok {
			return fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("%v", m)
	}
	return fmt.Sprintf("%v", cell.Value)
}

func traceTable(proposal model.SlotProposal, adjudication model.AdjudicationResult) []model.TraceNode {
	var nodes []model.TraceNode
	cellIdx := 0
	for _, row := range proposal.Payload.Rows {
		for _, cell := range row {
			nodes = append(nodes, baseNode(adjudication, proposal, cellIdx, "cell", cellContent(cell)))
			cellIdx++
		}
	}
	return nodes
}

func traceKV(proposal model.SlotProposal, adjudication model.AdjudicationResult) []model.TraceNode {
	pairs := proposal.Payload.Pairs
	nodes := make([]model.TraceNode, 0, len(pairs))
	for idx, pair := range pairs {
		content := fmt.Sprintf("%s: %s", pair.Key, pair.Value)
		nodes = append(nodes, baseNode(adjudication, proposal, idx, "kv_pair", content))
	}
	return nodes
}

// ValidateTraceCompleteness re-derives the expected fragment count from
// the payload using the same rules as Generate and checks that traces
// covers it. An empty trace set with a non-empty expected payload is
// always invalid.
func ValidateTraceCompleteness(proposal model.SlotProposal, traces []model.TraceNode, slotType model.SlotType) bool {
	var expected int
	switch slotType {
	case model.SlotNarrative:
		expected = len(narrativeParagraphs(proposal.Payload.Text))
	case model.SlotTable:
		for _, row := range proposal.Payload.Rows {
			expected += len(row)
		}
	case model.SlotKV:
		expected = len(proposal.Payload.Pairs)
	default:
		return false
	}

	if len(traces) == 0 {
		return expected == 0
	}
	return len(traces) >= expected
}
