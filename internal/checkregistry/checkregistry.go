// Package checkregistry holds the named constraint check functions that
// back Constraint.ID lookups at adjudication time. Unlike a lookup table
// that is merely defined but never consulted, every check here is called
// from internal/adjudicate for any Constraint whose id matches a
// registered name; an unmatched id is a no-op that passes, preserving
// forward compatibility with constraint ids the registry does not yet
// know about.
package checkregistry

import (
	"fmt"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/internal/period"
)

// Context is everything a named check needs to evaluate one constraint
// against one proposal submission.
type Context struct {
	Proposal      model.SlotProposal
	EvidenceAtoms map[string]model.EvidenceAtom
	Period        *model.PSURPeriod
	Periods       []model.PSURPeriod

	PreviousLeadingDevice string
	CurrentLeadingDevice  string
	NotifiedBodies        []string
	HasMHRAProcess        bool
}

// CheckFunc is a named constraint check: given a Context, report whether
// the constraint holds and a human-readable message.
type CheckFunc func(ctx Context) (passed bool, message string)

var registry = map[string]CheckFunc{
	"no_invention":              NoInvention,
	"evidence_within_period":    EvidenceWithinPeriod,
	"leading_device_unchanged":  LeadingDeviceUnchanged,
	"notified_body_consistent":  NotifiedBodyConsistent,
	"mhra_availability_process": MHRAAvailabilityProcess,
}

// Get looks up a check function by id. ok is false for any id not
// registered; callers must treat that as a passing no-op.
func Get(id string) (CheckFunc, bool) {
	fn, ok := registry[id]
	return fn, ok
}

// Register adds or replaces a named check. Registration is additive and
// safe to call before adjudication begins.
func Register(id string, fn CheckFunc) {
	registry[id] = fn
}

// List returns every registered check id.
func List() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

// NoInvention rejects a proposal that declares invent, infer, or
// extrapolate among its transformations.
func NoInvention(ctx Context) (bool, string) {
	forbidden := map[model.Transformation]struct{}{
		model.Invent:      {},
		model.Infer:       {},
		model.Extrapolate: {},
	}
	var used []model.Transformation
	for _, t := range ctx.Proposal.TransformationsUsed {
		if _, ok := forbidden[t]; ok {
			used = append(used, t)
		}
	}
	if len(used) > 0 {
		return false, fmt.Sprintf("Forbidden transformations used: %v", used)
	}
	return true, "No forbidden transformations"
}

// EvidenceWithinPeriod rejects a proposal whose referenced evidence atoms
// fall outside ctx.Period's date range.
func EvidenceWithinPeriod(ctx Context) (bool, string) {
	if ctx.Period == nil {
		return true, "No PSUR period supplied"
	}
	var issues []string
	for _, atomID := range ctx.Proposal.EvidenceAtoms {
		atom, ok := ctx.EvidenceAtoms[atomID]
		if !ok {
			continue
		}
		if atom.PeriodStart != nil && atom.PeriodStart.Before(ctx.Period.StartDate) {
			issues = append(issues, fmt.Sprintf("Atom %s starts before PSUR period", atom.AtomID))
		}
		if atom.PeriodEnd != nil && atom.PeriodEnd.After(ctx.Period.EndDate) {
			issues = append(issues, fmt.Sprintf("Atom %s ends after PSUR period", atom.AtomID))
		}
	}
	if len(issues) > 0 {
		return false, fmt.Sprintf("%v", issues)
	}
	return true, "All evidence atoms within PSUR period"
}

// LeadingDeviceUnchanged implements the EU grouping rule: the leading
// device of a device group must not change between PSURs.
func LeadingDeviceUnchanged(ctx Context) (bool, string) {
	if ctx.PreviousLeadingDevice == "" {
		return true, "No previous leading device"
	}
	if ctx.PreviousLeadingDevice != ctx.CurrentLeadingDevice {
		return false, "Leading device cannot change. Issue a new PSUR."
	}
	return true, "Leading device unchanged"
}

// NotifiedBodyConsistent rejects a proposal whose grouped devices carry
// more than one distinct notified body.
func NotifiedBodyConsistent(ctx Context) (bool, string) {
	seen := make(map[string]struct{})
	for _, nb := range ctx.NotifiedBodies {
		if nb != "" {
			seen[nb] = struct{}{}
		}
	}
	if len(seen) > 1 {
		return false, fmt.Sprintf("Grouped devices have different notified bodies: %d distinct", len(seen))
	}
	return true, "Notified body consistent"
}

// MHRAAvailabilityProcess enforces the UK requirement that a documented
// process exists to provide the PSUR to the MHRA within 3 working days.
func MHRAAvailabilityProcess(ctx Context) (bool, string) {
	if !ctx.HasMHRAProcess {
		return false, "UK requires documented process to provide PSUR to MHRA within 3 working days"
	}
	return true, "MHRA availability process documented"
}

// PeriodOverlapCheck and PeriodGapCheck let a constraint gate a proposal
// on the contiguity of the supplied period history.
func PeriodOverlapCheck(ctx Context) (bool, string) {
	if ok, issues := period.ValidatePeriodContiguity(ctx.Periods); !ok {
		for _, msg := range issues {
			return false, msg
		}
	}
	return true, "No period overlap detected"
}

func PeriodGapCheck(ctx Context) (bool, string) {
	if ok, issues := period.ValidatePeriodContiguity(ctx.Periods); !ok {
		for _, msg := range issues {
			return false, msg
		}
	}
	return true, "No period gap detected"
}

func init() {
	Register("period_overlap", PeriodOverlapCheck)
	Register("period_gap", PeriodGapCheck)
}
