//go:build property
// +build property

// Property-based tests for the adjudication engine: determinism and the
// transformation/evidence verdict rules, over generated proposals.
package adjudicate_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Smarticus81/psurRegOSv1/internal/adjudicate"
	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

var allTransformations = []any{
	model.Summarize, model.Cite, model.CrossReference, model.Aggregate,
	model.Tabulate, model.Quote, model.Infer, model.Invent,
	model.ReWeightRisk, model.Extrapolate,
}

func genTransformations() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(allTransformations...))
}

func buildEngine(obligation model.Obligation) *adjudicate.Engine {
	obligations := &model.CompiledObligations{Obligations: []model.Obligation{obligation}}
	template := &model.TemplateSchema{Slots: []model.Slot{{SlotID: "s1", SlotType: model.SlotNarrative}}}
	mapping := &model.ObligationMapping{
		Mappings: []model.SlotMapping{{ObligationID: obligation.ID, SlotIDs: []string{"s1"}}},
	}
	return adjudicate.NewEngine(obligations, &model.CompiledRules{}, template, mapping)
}

func intersects(a, b []model.Transformation) bool {
	set := make(map[model.Transformation]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	for _, t := range a {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func subset(a, b []model.Transformation) bool {
	set := make(map[model.Transformation]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	for _, t := range a {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// TestAdjudicationDeterminism verifies two runs over identical input agree
// on status, check results and rejection reasons.
func TestAdjudicationDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("two runs over identical input are identical", prop.ForAll(
		func(used, forbidden, allowed []model.Transformation) bool {
			obligation := model.Obligation{
				ID:                       "o1",
				ForbiddenTransformations: forbidden,
				AllowedTransformations:   allowed,
			}
			engine := buildEngine(obligation)
			proposal := model.SlotProposal{
				ProposalID:          "p1",
				SlotID:              "s1",
				TransformationsUsed: used,
			}
			first := engine.Adjudicate(proposal, nil)
			second := engine.Adjudicate(proposal, nil)
			return first.Status == second.Status &&
				reflect.DeepEqual(first.CheckResults, second.CheckResults) &&
				reflect.DeepEqual(first.RejectionReasons, second.RejectionReasons)
		},
		genTransformations(), genTransformations(), genTransformations(),
	))

	properties.TestingRun(t)
}

// TestTransformationVerdictRules verifies the verdict follows the
// forbidden-intersection and allowed-subset rules for any generated
// combination of transformation lists.
func TestTransformationVerdictRules(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("forbidden intersection or allowed-list escape rejects", prop.ForAll(
		func(used, forbidden, allowed []model.Transformation) bool {
			obligation := model.Obligation{
				ID:                       "o1",
				ForbiddenTransformations: forbidden,
				AllowedTransformations:   allowed,
			}
			engine := buildEngine(obligation)
			result := engine.Adjudicate(model.SlotProposal{
				ProposalID:          "p1",
				SlotID:              "s1",
				TransformationsUsed: used,
			}, nil)

			shouldReject := intersects(used, forbidden) ||
				(len(allowed) > 0 && !subset(used, allowed))
			if shouldReject {
				return result.Status == model.Rejected
			}
			return result.Status == model.Accepted
		},
		genTransformations(), genTransformations(), genTransformations(),
	))

	properties.TestingRun(t)
}

// TestEvidenceCompleteness verifies the evidence-coverage rule: an
// obligation requiring types the referenced atoms do not cover rejects
// unless an absence statement is allowed.
func TestEvidenceCompleteness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	allEvidence := []any{
		model.SalesVolume, model.ComplaintRecord, model.SeriousIncident,
		model.TrendReport, model.LiteratureReview, model.PMCFSummary,
	}

	properties.Property("uncovered required types reject unless absence allowed", prop.ForAll(
		func(required, supplied []model.EvidenceType, allowAbsence bool) bool {
			obligation := model.Obligation{
				ID:                    "o1",
				RequiredEvidenceTypes: required,
				AllowAbsenceStatement: allowAbsence,
			}
			engine := buildEngine(obligation)

			atoms := make(map[string]model.EvidenceAtom, len(supplied))
			atomIDs := make([]string, 0, len(supplied))
			for i, et := range supplied {
				id := "atom-" + string(rune('a'+i))
				atoms[id] = model.EvidenceAtom{AtomID: id, EvidenceType: et}
				atomIDs = append(atomIDs, id)
			}
			result := engine.Adjudicate(model.SlotProposal{
				ProposalID:    "p1",
				SlotID:        "s1",
				EvidenceAtoms: atomIDs,
			}, atoms)

			present := make(map[model.EvidenceType]struct{}, len(supplied))
			for _, et := range supplied {
				present[et] = struct{}{}
			}
			covered := true
			for _, et := range required {
				if _, ok := present[et]; !ok {
					covered = false
					break
				}
			}
			if covered || allowAbsence {
				return result.Status == model.Accepted
			}
			return result.Status == model.Rejected
		},
		gen.SliceOf(gen.OneConstOf(allEvidence...)),
		gen.SliceOfN(6, gen.OneConstOf(allEvidence...)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
