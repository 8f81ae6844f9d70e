package model

import (
	"fmt"
	"time"

	"github.com/Smarticus81/psurRegOSv1/internal/canon"
)

// RegulatorySource is the provenance of a rule: a named regulatory
// instrument (a directive, guidance document, or statute).
type RegulatorySource struct {
	ID            string       `json:"id"`
	Jurisdiction  Jurisdiction `json:"jurisdiction"`
	Instrument    string       `json:"instrument,omitempty"`
	EffectiveDate *time.Time   `json:"effective_date,omitempty"`
	Title         string       `json:"title,omitempty"`
}

// Obligation is a single regulatory demand on PSUR content.
type Obligation struct {
	ID                      string          `json:"id"`
	Title                   string          `json:"title"`
	Jurisdiction            Jurisdiction    `json:"jurisdiction"`
	Mandatory               bool            `json:"mandatory"`
	RequiredEvidenceTypes   []EvidenceType  `json:"required_evidence_types,omitempty"`
	AllowedTransformations  []Transformation `json:"allowed_transformations,omitempty"`
	ForbiddenTransformations []Transformation `json:"forbidden_transformations,omitempty"`
	RequiredTimeScope       string          `json:"required_time_scope,omitempty"`
	AllowedOutputTypes      []OutputType    `json:"allowed_output_types,omitempty"`
	Sources                 []string        `json:"sources,omitempty"`
	AllowAbsenceStatement   bool            `json:"allow_absence_statement"`
}

// Constraint is a global rule evaluated at adjudication time. If and Then
// remain opaque strings at the IR level; they are interpreted by the check
// registry (internal/checkregistry), keyed on Constraint.ID.
type Constraint struct {
	ID           string        `json:"id"`
	Severity     Severity      `json:"severity"`
	Trigger      string        `json:"trigger"`
	If           string        `json:"if"`
	Then         string        `json:"then"`
	Sources      []string      `json:"sources,omitempty"`
	Jurisdiction *Jurisdiction `json:"jurisdiction,omitempty"`
}

// CompiledObligations is the versioned, timestamped output of the DSL
// compiler: a declaration-ordered bundle of sources and obligations.
type CompiledObligations struct {
	Version     string             `json:"version"`
	CompiledAt  time.Time          `json:"compiled_at"`
	Sources     []RegulatorySource `json:"sources"`
	Obligations []Obligation       `json:"obligations"`
}

// GetMandatory returns the subset of obligations with Mandatory == true,
// preserving declaration order.
func (c *CompiledObligations) GetMandatory() []Obligation {
	out := make([]Obligation, 0, len(c.Obligations))
	for _, o := range c.Obligations {
		if o.Mandatory {
			out = append(out, o)
		}
	}
	return out
}

// Get returns the obligation with the given id, or ErrNotFound. With
// duplicate ids (possible after IMPORT concatenation) the first
// declaration wins.
func (c *CompiledObligations) Get(id string) (Obligation, error) {
	for _, o := range c.Obligations {
		if o.ID == id {
			return o, nil
		}
	}
	return Obligation{}, fmt.Errorf("%w: obligation %q", ErrNotFound, id)
}

// GetByJurisdiction filters obligations by exact jurisdiction equality,
// preserving declaration order.
func (c *CompiledObligations) GetByJurisdiction(j Jurisdiction) []Obligation {
	out := make([]Obligation, 0)
	for _, o := range c.Obligations {
		if o.Jurisdiction == j {
			out = append(out, o)
		}
	}
	return out
}

// CompiledRules is the versioned, timestamped output of the DSL compiler's
// constraint set.
type CompiledRules struct {
	Version     string       `json:"version"`
	CompiledAt  time.Time    `json:"compiled_at"`
	Constraints []Constraint `json:"constraints"`
}

// GetByTrigger filters constraints by exact trigger-string equality,
// preserving declaration order.
func (c *CompiledRules) GetByTrigger(trigger string) []Constraint {
	out := make([]Constraint, 0)
	for _, cst := range c.Constraints {
		if cst.Trigger == trigger {
			out = append(out, cst)
		}
	}
	return out
}

// Slot is an addressable location in a report template.
type Slot struct {
	SlotID   string   `json:"slot_id"`
	Path     string   `json:"path"`
	SlotType SlotType `json:"slot_type"`
	Required bool     `json:"required"`
}

// TemplateSchema is an ordered list of slots with a unique slot_id per slot.
type TemplateSchema struct {
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Slots      []Slot `json:"slots"`
}

// GetSlot looks up a slot by id, or reports ok=false.
func (t *TemplateSchema) GetSlot(slotID string) (Slot, bool) {
	for _, s := range t.Slots {
		if s.SlotID == slotID {
			return s, true
		}
	}
	return Slot{}, false
}

// SlotMapping binds one obligation to the set of slots it may be satisfied
// by. Neither side of the mapping is required to be a function.
type SlotMapping struct {
	ObligationID string   `json:"obligation_id"`
	SlotIDs      []string `json:"slot_ids"`
}

// ObligationMapping is the complete obligation-to-slot mapping for one
// template.
type ObligationMapping struct {
	MappingID  string        `json:"mapping_id"`
	TemplateID string        `json:"template_id"`
	Mappings   []SlotMapping `json:"mappings"`
}

// GetSlotsForObligation returns the slot ids mapped to obligationID, in
// mapping declaration order. Returns nil if the obligation is unmapped.
func (m *ObligationMapping) GetSlotsForObligation(obligationID string) []string {
	for _, sm := range m.Mappings {
		if sm.ObligationID == obligationID {
			return sm.SlotIDs
		}
	}
	return nil
}

// GetObligationsForSlot returns, in mapping declaration order, every
// obligation id that maps to slotID.
func (m *ObligationMapping) GetObligationsForSlot(slotID string) []string {
	out := make([]string, 0)
	for _, sm := range m.Mappings {
		for _, sid := range sm.SlotIDs {
			if sid == slotID {
				out = append(out, sm.ObligationID)
				break
			}
		}
	}
	return out
}

// EvidenceAtom is an immutable, content-addressed unit of primary evidence.
type EvidenceAtom struct {
	AtomID         string         `json:"atom_id"`
	EvidenceType   EvidenceType   `json:"evidence_type"`
	Content        map[string]any `json:"content"`
	SourceFile     string         `json:"source_file,omitempty"`
	SourceHash     string         `json:"source_hash,omitempty"`
	PeriodStart    *time.Time     `json:"period_start,omitempty"`
	PeriodEnd      *time.Time     `json:"period_end,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ProvenanceHash string         `json:"provenance_hash"`
}

// KVPair is one key-value entry of a kv-shaped payload. Go maps have no
// stable iteration order, so pairs are always carried as an ordered list
// rather than a map; trace fragmentation depends on that order.
type KVPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Cell is one table cell. A cell value may be a bare scalar or a map with
// a "value" key; Value preserves whichever was submitted so the trace
// generator can apply the same rendering rule as the rest of the system.
type Cell struct {
	Value any `json:"value"`
}

// Payload is the proposed content for a slot. Exactly one of Text, Rows or
// Pairs is populated, selected by Type: narrative for Text, table/table_ref
// for Rows, kv for Pairs.
type Payload struct {
	Type  OutputType `json:"type"`
	Text  string     `json:"text,omitempty"`
	Rows  [][]Cell   `json:"rows,omitempty"`
	Pairs []KVPair   `json:"pairs,omitempty"`
}

// ComputeProvenanceHash derives ProvenanceHash from the content-identifying
// fields of the atom (atom_id, evidence_type, content, source_file) and
// sets it. It does not include CreatedAt, so re-deriving the hash of an
// otherwise-unchanged atom is stable across reloads.
func (e *EvidenceAtom) ComputeProvenanceHash() error {
	basis := map[string]any{
		"atom_id":       e.AtomID,
		"evidence_type": e.EvidenceType,
		"content":       e.Content,
		"source_file":   e.SourceFile,
	}
	h, err := canon.ShortHash(basis, 16)
	if err != nil {
		return err
	}
	e.ProvenanceHash = h
	return nil
}

// SlotProposal is a candidate piece of content for one slot, submitted by an
// agent along with the evidence and transformations it claims to rest on.
type SlotProposal struct {
	ProposalID          string           `json:"proposal_id"`
	AgentID             string           `json:"agent_id"`
	SlotID              string           `json:"slot_id"`
	Payload             Payload          `json:"payload"`
	EvidenceAtoms       []string         `json:"evidence_atoms,omitempty"`
	ClaimedBasis        []string         `json:"claimed_basis,omitempty"`
	TransformationsUsed []Transformation `json:"transformations_used,omitempty"`
	SubmittedAt         time.Time        `json:"submitted_at"`
}

// CheckResult is the audit record of one adjudication check, obligation or
// constraint, pass or fail.
type CheckResult struct {
	CheckID      string `json:"check_id"`
	CheckType    string `json:"check_type"` // "obligation" | "constraint"
	Passed       bool   `json:"passed"`
	Message      string `json:"message"`
	ObligationID string `json:"obligation_id,omitempty"`
	ConstraintID string `json:"constraint_id,omitempty"`
}

// RejectionReason is one specific, tagged cause of a REJECTED verdict.
type RejectionReason struct {
	RuleID       string `json:"rule_id"`
	RuleType     string `json:"rule_type"` // "structural" | "obligation" | "constraint"
	ObligationID string `json:"obligation_id,omitempty"`
	ConstraintID string `json:"constraint_id,omitempty"`
	Message      string `json:"message"`
}

// AdjudicationResult is the complete, deterministic audit of one adjudication
// run over a single SlotProposal.
type AdjudicationResult struct {
	AdjudicationID   string            `json:"adjudication_id"`
	ProposalID       string            `json:"proposal_id"`
	Status           AdjudicationStatus `json:"status"`
	CheckResults     []CheckResult     `json:"check_results"`
	RejectionReasons []RejectionReason `json:"rejection_reasons"`
	AdjudicatedAt    time.Time         `json:"adjudicated_at"`
}

// TraceNode is one atomic audit record binding a single output fragment to
// the evidence and regulatory clauses that justify it.
type TraceNode struct {
	TraceID          string           `json:"trace_id"`
	AdjudicationID   string           `json:"adjudication_id"`
	SlotID           string           `json:"slot_id"`
	FragmentType     string           `json:"fragment_type"` // "paragraph" | "cell" | "kv_pair"
	FragmentIndex    int              `json:"fragment_index"`
	FragmentContent  string           `json:"fragment_content"`
	EvidenceAtoms    []string         `json:"evidence_atoms"`
	Transformations  []Transformation `json:"transformations"`
	RegulatoryBasis  []string         `json:"regulatory_basis"`
	AgentID          string           `json:"agent_id"`
	CreatedAt        time.Time        `json:"created_at"`
}

// PSURPeriod is one reporting period in a device's PSUR history.
type PSURPeriod struct {
	PeriodID     string       `json:"period_id"`
	PSURRef      string       `json:"psur_ref"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	DeviceClass  string       `json:"device_class,omitempty"`
}

// Overlaps reports whether p and other share at least one day.
func (p PSURPeriod) Overlaps(other PSURPeriod) bool {
	return !p.StartDate.After(other.EndDate) && !other.StartDate.After(p.EndDate)
}

// HasGap reports whether p does not begin the day immediately after
// previous ends.
func (p PSURPeriod) HasGap(previous PSURPeriod) bool {
	expectedStart := previous.EndDate.AddDate(0, 0, 1)
	return !p.StartDate.Equal(expectedStart)
}

// QualificationIssue is one specific finding from the qualification engine.
type QualificationIssue struct {
	IssueType    string `json:"issue_type"` // "missing_mandatory" | "dangling_mapping" | "incompatible_type"
	ObligationID string `json:"obligation_id,omitempty"`
	SlotID       string `json:"slot_id,omitempty"`
	Message      string `json:"message"`
}

// QualificationReport is the complete, exhaustive result of statically
// checking a (TemplateSchema, ObligationMapping) pair against a
// CompiledObligations.
type QualificationReport struct {
	Status                     QualificationStatus  `json:"status"`
	TemplateID                 string                `json:"template_id"`
	MissingMandatoryObligations []string              `json:"missing_mandatory_obligations"`
	DanglingMappings           []string              `json:"dangling_mappings"`
	IncompatibleSlotTypes      []QualificationIssue  `json:"incompatible_slot_types"`
	Issues                     []QualificationIssue  `json:"issues"`
}
