// Package render is the markdown renderer collaborator, external to the
// adjudicated core: it consumes a TemplateSchema plus the accepted
// (SlotProposal, AdjudicationResult) pairs the adjudication engine
// produced and renders them to a markdown document. Nothing in
// internal/adjudicate, internal/qualify, internal/trace or internal/compile
// imports this package.
package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

var logger = slog.Default().With("component", "render")

// Accepted pairs a proposal with the AdjudicationResult that accepted it.
// MarkdownRenderer.Render skips and logs any pair whose status is not
// ACCEPTED rather than panicking; render sits outside the adjudicated
// core and does not share its error taxonomy.
type Accepted struct {
	Proposal   model.SlotProposal
	Adjudication model.AdjudicationResult
}

// MarkdownRenderer renders accepted slot content against the shape of one
// TemplateSchema, one slot-ordered section per slot declaration.
type MarkdownRenderer struct {
	template *model.TemplateSchema
}

// NewMarkdownRenderer binds a renderer to one template's slot ordering.
func NewMarkdownRenderer(template *model.TemplateSchema) *MarkdownRenderer {
	return &MarkdownRenderer{template: template}
}

// Render produces the full markdown document: one "## <slot path>" section
// per template slot, in template declaration order, followed by the
// accepted content for that slot or a placeholder if none was submitted.
func (r *MarkdownRenderer) Render(accepted []Accepted) string {
	bySlot := make(map[string]Accepted, len(accepted))
	for _, a := range accepted {
		if a.Adjudication.Status != model.Accepted {
			logger.Warn("skipping non-accepted proposal in render", "proposal_id", a.Proposal.ProposalID, "status", a.Adjudication.Status)
			continue
		}
		bySlot[a.Proposal.SlotID] = a
	}

	var b strings.Builder
	b.WriteString("# PSUR Report\n\n---\n\n")

	for _, slot := range r.template.Slots {
		b.WriteString(fmt.Sprintf("## %s\n\n", slot.Path))
		a, ok := bySlot[slot.SlotID]
		if !ok {
			b.WriteString("*[No content provided]*\n\n")
			continue
		}
		switch slot.SlotType {
		case model.SlotNarrative:
			b.WriteString(a.Proposal.Payload.Text)
			b.WriteString("\n\n")
		case model.SlotTable:
			b.WriteString(renderTable(a.Proposal.Payload))
			b.WriteString("\n\n")
		case model.SlotKV:
			b.WriteString(renderKV(a.Proposal.Payload))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func renderTable(payload model.Payload) string {
	if len(payload.Rows) == 0 {
		return ""
	}
	var lines []string
	headerCells := make([]string, len(payload.Rows[0]))
	for i := range headerCells {
		headerCells[i] = fmt.Sprintf("Col %d", i+1)
	}
	lines = append(lines, "| "+strings.Join(headerCells, " | ")+" |")
	sep := make([]string, len(headerCells))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")

	for _, row := range payload.Rows {
		values := make([]string, len(row))
		for i, cell := range row {
			values[i] = cellString(cell)
		}
		lines = append(lines, "| "+strings.Join(values, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

func cellString(cell model.Cell) string {
	if m, ok := cell.Value.(map[string]any); ok {
		if v, ok := m["value"]; ok {
			return fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("%v", m)
	}
	return fmt.Sprintf("%v", cell.Value)
}

func renderKV(payload model.Payload) string {
	lines := make([]string, 0, len(payload.Pairs))
	for _, p := range payload.Pairs {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", p.Key, p.Value))
	}
	return strings.Join(lines, "\n")
}
