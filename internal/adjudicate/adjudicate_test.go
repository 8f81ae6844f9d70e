package adjudicate

import (
	"reflect"
	"testing"
	"time"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

func fixtureEngine(obligation model.Obligation) *Engine {
	obligations := &model.CompiledObligations{Obligations: []model.Obligation{obligation}}
	rules := &model.CompiledRules{}
	template := &model.TemplateSchema{Slots: []model.Slot{{SlotID: "s1", SlotType: model.SlotNarrative}}}
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: obligation.ID, SlotIDs: []string{"s1"}}},
	}
	return NewEngine(obligations, rules, template, mapping)
}

func TestAdjudicateRejectsUnknownSlot(t *testing.T) {
	engine := fixtureEngine(model.Obligation{ID: "o1"})
	result := engine.Adjudicate(model.SlotProposal{ProposalID: "p1", SlotID: "ghost"}, nil)
	if result.Status != model.Rejected {
		t.Fatalf("status = %q, want REJECTED", result.Status)
	}
	if len(result.RejectionReasons) != 1 || result.RejectionReasons[0].RuleID != "SLOT_EXISTS" {
		t.Errorf("rejection reasons = %+v", result.RejectionReasons)
	}
}

func TestAdjudicateAcceptsCleanProposal(t *testing.T) {
	obligation := model.Obligation{
		ID:                     "o1",
		RequiredEvidenceTypes:  []model.EvidenceType{model.SalesVolume},
		AllowedTransformations: []model.Transformation{model.Summarize},
	}
	engine := fixtureEngine(obligation)
	atoms := map[string]model.EvidenceAtom{
		"a1": {AtomID: "a1", EvidenceType: model.SalesVolume},
	}
	proposal := model.SlotProposal{
		ProposalID:          "p1",
		SlotID:              "s1",
		EvidenceAtoms:       []string{"a1"},
		TransformationsUsed: []model.Transformation{model.Summarize},
	}
	result := engine.Adjudicate(proposal, atoms)
	if result.Status != model.Accepted {
		t.Fatalf("status = %q, want ACCEPTED; reasons = %+v", result.Status, result.RejectionReasons)
	}
}

func TestAdjudicateRejectsMissingEvidenceType(t *testing.T) {
	obligation := model.Obligation{
		ID:                    "o1",
		RequiredEvidenceTypes: []model.EvidenceType{model.SalesVolume},
	}
	engine := fixtureEngine(obligation)
	proposal := model.SlotProposal{ProposalID: "p1", SlotID: "s1"}
	result := engine.Adjudicate(proposal, nil)
	if result.Status != model.Rejected {
		t.Fatalf("status = %q, want REJECTED", result.Status)
	}
	found := false
	for _, r := range result.RejectionReasons {
		if r.RuleID == "EVIDENCE_TYPES" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an EVIDENCE_TYPES rejection, got %+v", result.RejectionReasons)
	}
}

func TestAdjudicateAllowAbsenceStatementPassesDespiteMissingEvidence(t *testing.T) {
	obligation := model.Obligation{
		ID:                    "o1",
		RequiredEvidenceTypes: []model.EvidenceType{model.SalesVolume},
		AllowAbsenceStatement: true,
	}
	engine := fixtureEngine(obligation)
	result := engine.Adjudicate(model.SlotProposal{ProposalID: "p1", SlotID: "s1"}, nil)
	if result.Status != model.Accepted {
		t.Fatalf("status = %q, want ACCEPTED when absence statement is allowed", result.Status)
	}
}

func TestAdjudicateRejectsForbiddenTransformation(t *testing.T) {
	obligation := model.Obligation{
		ID:                       "o1",
		ForbiddenTransformations: []model.Transformation{model.Invent},
	}
	engine := fixtureEngine(obligation)
	proposal := model.SlotProposal{
		ProposalID:          "p1",
		SlotID:              "s1",
		TransformationsUsed: []model.Transformation{model.Invent},
	}
	result := engine.Adjudicate(proposal, nil)
	if result.Status != model.Rejected {
		t.Fatalf("status = %q, want REJECTED", result.Status)
	}
	found := false
	for _, r := range result.RejectionReasons {
		if r.RuleID == "TRANSFORMATIONS" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a TRANSFORMATIONS rejection, got %+v", result.RejectionReasons)
	}
}

func TestAdjudicateRejectsTransformationNotInAllowedList(t *testing.T) {
	obligation := model.Obligation{
		ID:                     "o1",
		AllowedTransformations: []model.Transformation{model.Summarize},
	}
	engine := fixtureEngine(obligation)
	proposal := model.SlotProposal{
		ProposalID:          "p1",
		SlotID:              "s1",
		TransformationsUsed: []model.Transformation{model.Cite},
	}
	result := engine.Adjudicate(proposal, nil)
	if result.Status != model.Rejected {
		t.Fatalf("status = %q, want REJECTED", result.Status)
	}
}

func TestAdjudicateIsDeterministic(t *testing.T) {
	obligation := model.Obligation{
		ID:                       "o1",
		RequiredEvidenceTypes:    []model.EvidenceType{model.SalesVolume},
		ForbiddenTransformations: []model.Transformation{model.Invent},
	}
	engine := fixtureEngine(obligation)
	proposal := model.SlotProposal{
		ProposalID:          "p1",
		SlotID:              "s1",
		TransformationsUsed: []model.Transformation{model.Invent},
	}
	r1 := engine.Adjudicate(proposal, nil)
	r2 := engine.Adjudicate(proposal, nil)

	r1.AdjudicationID, r2.AdjudicationID = "", ""
	r1.AdjudicatedAt, r2.AdjudicatedAt = time.Time{}, time.Time{}

	if r1.Status != r2.Status {
		t.Errorf("status differs across identical runs: %q vs %q", r1.Status, r2.Status)
	}
	if !reflect.DeepEqual(r1.CheckResults, r2.CheckResults) {
		t.Errorf("check results differ across identical runs:\n%+v\n%+v", r1.CheckResults, r2.CheckResults)
	}
	if !reflect.DeepEqual(r1.RejectionReasons, r2.RejectionReasons) {
		t.Errorf("rejection reasons differ across identical runs:\n%+v\n%+v", r1.RejectionReasons, r2.RejectionReasons)
	}
}

func TestAdjudicateUnregisteredConstraintIsANoOpPass(t *testing.T) {
	obligations := &model.CompiledObligations{}
	rules := &model.CompiledRules{
		Constraints: []model.Constraint{{ID: "NOT_A_REGISTERED_CHECK", Trigger: "on_proposal_submit"}},
	}
	template := &model.TemplateSchema{Slots: []model.Slot{{SlotID: "s1", SlotType: model.SlotNarrative}}}
	mapping := &model.ObligationMapping{}
	engine := NewEngine(obligations, rules, template, mapping)

	result := engine.Adjudicate(model.SlotProposal{ProposalID: "p1", SlotID: "s1"}, nil)
	if result.Status != model.Accepted {
		t.Fatalf("status = %q, want ACCEPTED for an unregistered constraint id", result.Status)
	}
}
