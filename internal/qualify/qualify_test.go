package qualify

import (
	"testing"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

func baseObligations() *model.CompiledObligations {
	return &model.CompiledObligations{
		Obligations: []model.Obligation{
			{
				ID:                 "o1",
				Mandatory:          true,
				AllowedOutputTypes: []model.OutputType{model.OutputNarrative},
			},
		},
	}
}

func baseTemplate() *model.TemplateSchema {
	return &model.TemplateSchema{
		TemplateID: "t1",
		Slots: []model.Slot{
			{SlotID: "s1", SlotType: model.SlotNarrative},
		},
	}
}

func TestQualifyTemplatePasses(t *testing.T) {
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: "o1", SlotIDs: []string{"s1"}}},
	}
	report := QualifyTemplate(baseObligations(), baseTemplate(), mapping)
	if report.Status != model.Pass {
		t.Fatalf("status = %q, want PASS; issues = %+v", report.Status, report.Issues)
	}
	if len(report.Issues) != 0 {
		t.Errorf("issues = %+v, want none", report.Issues)
	}
}

func TestQualifyTemplateMissingMandatory(t *testing.T) {
	mapping := &model.ObligationMapping{}
	report := QualifyTemplate(baseObligations(), baseTemplate(), mapping)
	if report.Status != model.Fail {
		t.Fatalf("status = %q, want FAIL", report.Status)
	}
	if len(report.MissingMandatoryObligations) != 1 || report.MissingMandatoryObligations[0] != "o1" {
		t.Errorf("missing mandatory = %+v", report.MissingMandatoryObligations)
	}
}

func TestQualifyTemplateDanglingMapping(t *testing.T) {
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: "o1", SlotIDs: []string{"ghost_slot"}}},
	}
	report := QualifyTemplate(baseObligations(), baseTemplate(), mapping)
	if report.Status != model.Fail {
		t.Fatalf("status = %q, want FAIL", report.Status)
	}
	if len(report.DanglingMappings) != 1 || report.DanglingMappings[0] != "ghost_slot" {
		t.Errorf("dangling mappings = %+v", report.DanglingMappings)
	}
}

func TestQualifyTemplateIncompatibleType(t *testing.T) {
	obligations := baseObligations()
	template := &model.TemplateSchema{
		TemplateID: "t1",
		Slots:      []model.Slot{{SlotID: "s1", SlotType: model.SlotTable}},
	}
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: "o1", SlotIDs: []string{"s1"}}},
	}
	report := QualifyTemplate(obligations, template, mapping)
	if report.Status != model.Fail {
		t.Fatalf("status = %q, want FAIL", report.Status)
	}
	if len(report.IncompatibleSlotTypes) != 1 {
		t.Errorf("incompatible types = %+v", report.IncompatibleSlotTypes)
	}
}

func TestQualifyTemplateTableRefIsCompatibleWithTable(t *testing.T) {
	obligations := &model.CompiledObligations{
		Obligations: []model.Obligation{
			{ID: "o1", Mandatory: true, AllowedOutputTypes: []model.OutputType{model.OutputTableRef}},
		},
	}
	template := &model.TemplateSchema{
		Slots: []model.Slot{{SlotID: "s1", SlotType: model.SlotTable}},
	}
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: "o1", SlotIDs: []string{"s1"}}},
	}
	report := QualifyTemplate(obligations, template, mapping)
	if report.Status != model.Pass {
		t.Fatalf("status = %q, want PASS; issues = %+v", report.Status, report.Issues)
	}
}

func TestQualifyTemplateRunsAllChecksWithoutEarlyExit(t *testing.T) {
	obligations := baseObligations()
	template := baseTemplate()
	// o1 is left out of the mapping; the only entry points at a slot the
	// template does not have.
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: "o_other", SlotIDs: []string{"ghost_slot"}}},
	}
	report := QualifyTemplate(obligations, template, mapping)
	if len(report.MissingMandatoryObligations) != 1 {
		t.Errorf("expected the unmapped mandatory obligation to still be reported alongside the dangling mapping, got %+v", report.MissingMandatoryObligations)
	}
	if len(report.DanglingMappings) != 1 {
		t.Errorf("dangling mappings = %+v", report.DanglingMappings)
	}
}

func TestQualifyTemplateSkipsTypeCheckWhenNoAllowedOutputsDeclared(t *testing.T) {
	obligations := &model.CompiledObligations{
		Obligations: []model.Obligation{{ID: "o1", Mandatory: true}},
	}
	template := &model.TemplateSchema{
		Slots: []model.Slot{{SlotID: "s1", SlotType: model.SlotTable}},
	}
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: "o1", SlotIDs: []string{"s1"}}},
	}
	report := QualifyTemplate(obligations, template, mapping)
	if report.Status != model.Pass {
		t.Fatalf("status = %q, want PASS when no allowed output types are declared", report.Status)
	}
}
