// Package qualify implements the static template qualification check: can
// a (TemplateSchema, ObligationMapping) pair satisfy a CompiledObligations.
package qualify

import (
	"fmt"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// slotOutputCompatibility is the static compatibility table between slot
// shapes and the output types an obligation may demand.
var slotOutputCompatibility = map[model.SlotType]map[model.OutputType]struct{}{
	model.SlotNarrative: {model.OutputNarrative: {}},
	model.SlotTable:     {model.OutputTable: {}, model.OutputTableRef: {}},
	model.SlotKV:        {model.OutputKV: {}},
}

// QualifyTemplate runs all three qualification checks, in order, with no
// early exit, so the returned report is always complete.
func QualifyTemplate(obligations *model.CompiledObligations, template *model.TemplateSchema, mapping *model.ObligationMapping) *model.QualificationReport {
	obligationLookup := make(map[string]model.Obligation, len(obligations.Obligations))
	for _, o := range obligations.Obligations {
		obligationLookup[o.ID] = o
	}
	slotLookup := make(map[string]model.Slot, len(template.Slots))
	for _, s := range template.Slots {
		slotLookup[s.SlotID] = s
	}
	mappedObligations := make(map[string]struct{}, len(mapping.Mappings))
	for _, m := range mapping.Mappings {
		mappedObligations[m.ObligationID] = struct{}{}
	}

	var issues []model.QualificationIssue
	var missingMandatory []string
	var danglingMappings []string
	var incompatibleTypes []model.QualificationIssue

	for _, obligation := range obligations.GetMandatory() {
		if _, ok := mappedObligations[obligation.ID]; !ok {
			missingMandatory = append(missingMandatory, obligation.ID)
			issues = append(issues, model.QualificationIssue{
				IssueType:    "missing_mandatory",
				ObligationID: obligation.ID,
				Message:      fmt.Sprintf("Mandatory obligation %q is not mapped to any slot", obligation.ID),
			})
		}
	}

	for _, sm := range mapping.Mappings {
		for _, slotID := range sm.SlotIDs {
			if _, ok := slotLookup[slotID]; !ok {
				danglingMappings = append(danglingMappings, slotID)
				issues = append(issues, model.QualificationIssue{
					IssueType:    "dangling_mapping",
					ObligationID: sm.ObligationID,
					SlotID:       slotID,
					Message:      fmt.Sprintf("Slot %q referenced in mapping does not exist in template", slotID),
				})
			}
		}
	}

	for _, sm := range mapping.Mappings {
		obligation, ok := obligationLookup[sm.ObligationID]
		if !ok || len(obligation.AllowedOutputTypes) == 0 {
			continue
		}
		for _, slotID := range sm.SlotIDs {
			slot, ok := slotLookup[slotID]
			if !ok {
				continue
			}
			compatible := slotOutputCompatibility[slot.SlotType]
			hasCompatible := false
			for _, out := range obligation.AllowedOutputTypes {
				if _, ok := compatible[out]; ok {
					hasCompatible = true
					break
				}
			}
			if !hasCompatible {
				issue := model.QualificationIssue{
					IssueType:    "incompatible_type",
					ObligationID: obligation.ID,
					SlotID:       slotID,
					Message:      fmt.Sprintf("Slot %q type %q is not compatible with obligation allowed outputs: %v", slotID, slot.SlotType, obligation.AllowedOutputTypes),
				}
				incompatibleTypes = append(incompatibleTypes, issue)
				issues = append(issues, issue)
			}
		}
	}

	status := model.Pass
	if len(issues) > 0 {
		status = model.Fail
	}

	return &model.QualificationReport{
		Status:                      status,
		TemplateID:                  template.TemplateID,
		MissingMandatoryObligations: missingMandatory,
		DanglingMappings:            danglingMappings,
		IncompatibleSlotTypes:       incompatibleTypes,
		Issues:                      issues,
	}
}
