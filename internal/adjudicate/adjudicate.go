// Package adjudicate implements the per-proposal adjudication engine: a
// structural gate, per-obligation checks, and global constraint
// evaluation producing a deterministic AdjudicationResult.
package adjudicate

import (
	"time"

	"github.com/google/uuid"

	"github.com/Smarticus81/psurRegOSv1/internal/checkregistry"
	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// Engine adjudicates SlotProposals against the compiled artefacts and the
// template+mapping it was constructed with. It holds no mutable state
// across calls and may be invoked concurrently on distinct proposals.
type Engine struct {
	obligations *model.CompiledObligations
	rules       *model.CompiledRules
	template    *model.TemplateSchema
	mapping     *model.ObligationMapping

	obligationLookup map[string]model.Obligation
}

// NewEngine constructs an Engine bound to one compiled artefact set, one
// template and one obligation mapping.
func NewEngine(obligations *model.CompiledObligations, rules *model.CompiledRules, template *model.TemplateSchema, mapping *model.ObligationMapping) *Engine {
	lookup := make(map[string]model.Obligation, len(obligations.Obligations))
	for _, o := range obligations.Obligations {
		lookup[o.ID] = o
	}
	return &Engine{
		obligations:      obligations,
		rules:            rules,
		template:         template,
		mapping:          mapping,
		obligationLookup: lookup,
	}
}

// ConstraintContextFunc builds the checkregistry.Context used to evaluate
// global constraints for one adjudication run. Callers supply this when
// the default (proposal + evidence atoms only) context is insufficient,
// e.g. to populate PreviousLeadingDevice or HasMHRAProcess, which the
// core has no way to derive on its own.
type ConstraintContextFunc func(proposal model.SlotProposal, evidence map[string]model.EvidenceAtom) checkregistry.Context

func defaultContext(proposal model.SlotProposal, evidence map[string]model.EvidenceAtom) checkregistry.Context {
	return checkregistry.Context{Proposal: proposal, EvidenceAtoms: evidence}
}

// Adjudicate runs the full adjudication algorithm: slot-existence gate,
// then per-obligation checks, then global constraint evaluation, then
// verdict aggregation. Given identical inputs it produces identical
// status, ordered check results and ordered rejection reasons, excluding
// adjudication_id and the timestamp.
func (e *Engine) Adjudicate(proposal model.SlotProposal, evidenceAtoms map[string]model.EvidenceAtom) *model.AdjudicationResult {
	return e.adjudicateWithContext(proposal, evidenceAtoms, defaultContext)
}

// AdjudicateWithContext is Adjudicate with an explicit constraint context
// builder, for callers that need to populate cross-proposal facts (period
// history, leading-device continuity, notified-body consistency) that the
// engine cannot derive from a single proposal.
func (e *Engine) AdjudicateWithContext(proposal model.SlotProposal, evidenceAtoms map[string]model.EvidenceAtom, buildContext ConstraintContextFunc) *model.AdjudicationResult {
	return e.adjudicateWithContext(proposal, evidenceAtoms, buildContext)
}

func (e *Engine) adjudicateWithContext(proposal model.SlotProposal, evidenceAtoms map[string]model.EvidenceAtom, buildContext ConstraintContextFunc) *model.AdjudicationResult {
	adjudicationID := uuid.NewString()[:8]
	var checkResults []model.CheckResult
	var rejectionReasons []model.RejectionReason

	if _, ok := e.template.GetSlot(proposal.SlotID); !ok {
		rejectionReasons = append(rejectionReasons, model.RejectionReason{
			RuleID:   "SLOT_EXISTS",
			RuleType: "structural",
			Message:  "Slot '" + proposal.SlotID + "' does not exist in template",
		})
		return e.buildResult(adjudicationID, proposal.ProposalID, model.Rejected, checkResults, rejectionReasons)
	}

	for _, obligationID := range e.mapping.GetObligationsForSlot(proposal.SlotID) {
		obligation, ok := e.obligationLookup[obligationID]
		if !ok {
			continue
		}

		evidenceCheck := checkEvidenceTypes(proposal, obligation, evidenceAtoms)
		checkResults = append(checkResults, evidenceCheck)
		if !evidenceCheck.Passed {
			rejectionReasons = append(rejectionReasons, model.RejectionReason{
				RuleID:       "EVIDENCE_TYPES",
				RuleType:     "obligation",
				ObligationID: obligationID,
				Message:      evidenceCheck.Message,
			})
		}

		timeCheck := checkTimeScope(obligation)
		checkResults = append(checkResults, timeCheck)
		if !timeCheck.Passed {
			rejectionReasons = append(rejectionReasons, model.RejectionReason{
				RuleID:       "TIME_SCOPE",
				RuleType:     "obligation",
				ObligationID: obligationID,
				Message:      timeCheck.Message,
			})
		}

		transformCheck := checkTransformations(proposal, obligation)
		checkResults = append(checkResults, transformCheck)
		if !transformCheck.Passed {
			rejectionReasons = append(rejectionReasons, model.RejectionReason{
				RuleID:       "TRANSFORMATIONS",
				RuleType:     "obligation",
				ObligationID: obligationID,
				Message:      transformCheck.Message,
			})
		}
	}

	constraintResults := e.evaluateConstraints(proposal, evidenceAtoms, buildContext)
	checkResults = append(checkResults, constraintResults...)
	for _, result := range constraintResults {
		if !result.Passed {
			rejectionReasons = append(rejectionReasons, model.RejectionReason{
				RuleID:       result.CheckID,
				RuleType:     "constraint",
				ConstraintID: result.ConstraintID,
				Message:      result.Message,
			})
		}
	}

	blocking := false
	for _, r := range rejectionReasons {
		if r.RuleType != "warning" {
			blocking = true
			break
		}
	}
	status := model.Accepted
	if blocking {
		status = model.Rejected
	}

	return e.buildResult(adjudicationID, proposal.ProposalID, status, checkResults, rejectionReasons)
}

func (e *Engine) buildResult(adjudicationID, proposalID string, status model.AdjudicationStatus, checkResults []model.CheckResult, rejectionReasons []model.RejectionReason) *model.AdjudicationResult {
	return &model.AdjudicationResult{
		AdjudicationID:   adjudicationID,
		ProposalID:       proposalID,
		Status:           status,
		CheckResults:     checkResults,
		RejectionReasons: rejectionReasons,
		AdjudicatedAt:    time.Now().UTC(),
	}
}

func checkEvidenceTypes(proposal model.SlotProposal, obligation model.Obligation, evidenceAtoms map[string]model.EvidenceAtom) model.CheckResult {
	if len(obligation.RequiredEvidenceTypes) == 0 {
		return model.CheckResult{
			CheckID: "evidence_types", CheckType: "obligation", Passed: true,
			Message: "No evidence types required", ObligationID: obligation.ID,
		}
	}

	present := make(map[model.EvidenceType]struct{})
	for _, atomID := range proposal.EvidenceAtoms {
		if atom, ok := evidenceAtoms[atomID]; ok {
			present[atom.EvidenceType] = struct{}{}
		}
	}

	var missing []model.EvidenceType
	for _, t := range obligation.RequiredEvidenceTypes {
		if _, ok := present[t]; !ok {
			missing = append(missing, t)
		}
	}

	if len(missing) > 0 && obligation.AllowAbsenceStatement {
		return model.CheckResult{
			CheckID: "evidence_types", CheckType: "obligation", Passed: true,
			Message: "Missing evidence types allowed via absence statement: " + joinEvidenceTypes(missing),
			ObligationID: obligation.ID,
		}
	}

	if len(missing) > 0 {
		return model.CheckResult{
			CheckID: "evidence_types", CheckType: "obligation", Passed: false,
			Message: "Missing required evidence types: " + joinEvidenceTypes(missing),
			ObligationID: obligation.ID,
		}
	}

	return model.CheckResult{
		CheckID: "evidence_types", CheckType: "obligation", Passed: true,
		Message: "All required evidence types present", ObligationID: obligation.ID,
	}
}

// checkTimeScope always passes. required_time_scope is parsed and
// carried by the compiler but its interpretation is not yet defined;
// this check records that the token was seen and nothing more.
func checkTimeScope(obligation model.Obligation) model.CheckResult {
	if obligation.RequiredTimeScope == "" {
		return model.CheckResult{
			CheckID: "time_scope", CheckType: "obligation", Passed: true,
			Message: "No time scope required", ObligationID: obligation.ID,
		}
	}
	return model.CheckResult{
		CheckID: "time_scope", CheckType: "obligation", Passed: true,
		Message: "Time scope validation passed", ObligationID: obligation.ID,
	}
}

// checkTransformations iterates proposal.TransformationsUsed in
// declaration order throughout, rather than via set membership, so the
// reported list of offending transformations is stable across repeated
// runs over identical input (the engine's determinism contract).
func checkTransformations(proposal model.SlotProposal, obligation model.Obligation) model.CheckResult {
	forbidden := make(map[model.Transformation]struct{}, len(obligation.ForbiddenTransformations))
	for _, t := range obligation.ForbiddenTransformations {
		forbidden[t] = struct{}{}
	}

	var usedForbidden []model.Transformation
	for _, t := range proposal.TransformationsUsed {
		if _, ok := forbidden[t]; ok {
			usedForbidden = append(usedForbidden, t)
		}
	}
	if len(usedForbidden) > 0 {
		return model.CheckResult{
			CheckID: "transformations", CheckType: "obligation", Passed: false,
			Message:      "Forbidden transformations used: " + joinTransformations(usedForbidden),
			ObligationID: obligation.ID,
		}
	}

	if len(obligation.AllowedTransformations) > 0 {
		allowed := make(map[model.Transformation]struct{}, len(obligation.AllowedTransformations))
		for _, t := range obligation.AllowedTransformations {
			allowed[t] = struct{}{}
		}
		var notAllowed []model.Transformation
		for _, t := range proposal.TransformationsUsed {
			if _, ok := allowed[t]; !ok {
				notAllowed = append(notAllowed, t)
			}
		}
		if len(notAllowed) > 0 {
			return model.CheckResult{
				CheckID: "transformations", CheckType: "obligation", Passed: false,
				Message:      "Transformations not in allowed list: " + joinTransformations(notAllowed),
				ObligationID: obligation.ID,
			}
		}
	}

	return model.CheckResult{
		CheckID: "transformations", CheckType: "obligation", Passed: true,
		Message: "All transformations valid", ObligationID: obligation.ID,
	}
}

func (e *Engine) evaluateConstraints(proposal model.SlotProposal, evidenceAtoms map[string]model.EvidenceAtom, buildContext ConstraintContextFunc) []model.CheckResult {
	var results []model.CheckResult
	for _, constraint := range e.rules.GetByTrigger("on_proposal_submit") {
		results = append(results, e.evaluateConstraint(constraint, proposal, evidenceAtoms, buildContext))
	}
	return results
}

// evaluateConstraint dispatches constraint.ID to the check registry. An
// id with no registered check is a no-op that passes, so constraint ids
// the registry does not yet know about never block a proposal.
func (e *Engine) evaluateConstraint(constraint model.Constraint, proposal model.SlotProposal, evidenceAtoms map[string]model.EvidenceAtom, buildContext ConstraintContextFunc) model.CheckResult {
	fn, ok := checkregistry.Get(constraint.ID)
	if !ok {
		return model.CheckResult{
			CheckID: constraint.ID, CheckType: "constraint", Passed: true,
			Message: "Constraint passed", ConstraintID: constraint.ID,
		}
	}
	ctx := buildContext(proposal, evidenceAtoms)
	passed, message := fn(ctx)
	return model.CheckResult{
		CheckID: constraint.ID, CheckType: "constraint", Passed: passed,
		Message: message, ConstraintID: constraint.ID,
	}
}

func joinEvidenceTypes(types []model.EvidenceType) string {
	s := ""
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += string(t)
	}
	return "[" + s + "]"
}

func joinTransformations(types []model.Transformation) string {
	s := ""
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += string(t)
	}
	return "[" + s + "]"
}
