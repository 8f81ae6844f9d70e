// Package model defines the shared, immutable data model for the PSUR
// compliance kernel: the closed enumerations and entity types of the DAG
// rooted at CompiledObligations (regulatory sources, obligations,
// constraints, templates, evidence, proposals, adjudications, traces, and
// reporting periods).
package model

import "fmt"

// Jurisdiction is a closed set of regulatory jurisdictions.
type Jurisdiction string

const (
	EU           Jurisdiction = "EU"
	UK           Jurisdiction = "UK"
	FDA          Jurisdiction = "FDA"
	HealthCanada Jurisdiction = "HEALTH_CANADA"
	TGA          Jurisdiction = "TGA"
)

var validJurisdictions = map[Jurisdiction]struct{}{
	EU: {}, UK: {}, FDA: {}, HealthCanada: {}, TGA: {},
}

// ParseJurisdiction resolves a case-insensitive literal to its canonical
// upper-case form. Unknown values are a compile error, never coerced.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	j := Jurisdiction(canonicalUpper(s))
	if _, ok := validJurisdictions[j]; !ok {
		return "", fmt.Errorf("%w: jurisdiction %q", ErrUnknownEnum, s)
	}
	return j, nil
}

// Severity is a closed set of constraint severities.
type Severity string

const (
	Block Severity = "BLOCK"
	Warn  Severity = "WARN"
)

func ParseSeverity(s string) (Severity, error) {
	sv := Severity(canonicalUpper(s))
	switch sv {
	case Block, Warn:
		return sv, nil
	}
	return "", fmt.Errorf("%w: severity %q", ErrUnknownEnum, s)
}

// SlotType is a closed set of template slot shapes.
type SlotType string

const (
	SlotNarrative SlotType = "narrative"
	SlotTable     SlotType = "table"
	SlotKV        SlotType = "kv"
)

func ParseSlotType(s string) (SlotType, error) {
	st := SlotType(canonicalLower(s))
	switch st {
	case SlotNarrative, SlotTable, SlotKV:
		return st, nil
	}
	return "", fmt.Errorf("%w: slot_type %q", ErrUnknownEnum, s)
}

// OutputType is a closed set of proposal output shapes.
type OutputType string

const (
	OutputNarrative OutputType = "narrative"
	OutputTable     OutputType = "table"
	OutputTableRef  OutputType = "table_ref"
	OutputKV        OutputType = "kv"
)

func ParseOutputType(s string) (OutputType, error) {
	ot := OutputType(canonicalLower(s))
	switch ot {
	case OutputNarrative, OutputTable, OutputTableRef, OutputKV:
		return ot, nil
	}
	return "", fmt.Errorf("%w: output_type %q", ErrUnknownEnum, s)
}

// EvidenceType is a closed set of evidence categories a PSUR obligation may
// require.
type EvidenceType string

const (
	SalesVolume           EvidenceType = "sales_volume"
	PopulationEstimate    EvidenceType = "population_estimate"
	ComplaintRecord       EvidenceType = "complaint_record"
	NonSeriousIncident    EvidenceType = "non_serious_incident"
	SeriousIncident       EvidenceType = "serious_incident"
	FSCA                  EvidenceType = "fsca"
	TrendReport           EvidenceType = "trend_report"
	LiteratureReview      EvidenceType = "literature_review"
	ExternalDatabaseScan  EvidenceType = "external_database_scan"
	PMCFSummary           EvidenceType = "pmcf_summary"
	CAPASummary           EvidenceType = "capa_summary"
	BenefitRiskAnalysis   EvidenceType = "benefit_risk_analysis"
	SimilarDeviceInfo     EvidenceType = "similar_device_info"
	StatisticalAnalysis   EvidenceType = "statistical_analysis"
)

var validEvidenceTypes = map[EvidenceType]struct{}{
	SalesVolume: {}, PopulationEstimate: {}, ComplaintRecord: {},
	NonSeriousIncident: {}, SeriousIncident: {}, FSCA: {}, TrendReport: {},
	LiteratureReview: {}, ExternalDatabaseScan: {}, PMCFSummary: {},
	CAPASummary: {}, BenefitRiskAnalysis: {}, SimilarDeviceInfo: {},
	StatisticalAnalysis: {},
}

func ParseEvidenceType(s string) (EvidenceType, error) {
	et := EvidenceType(canonicalLower(s))
	if _, ok := validEvidenceTypes[et]; !ok {
		return "", fmt.Errorf("%w: evidence_type %q", ErrUnknownEnum, s)
	}
	return et, nil
}

// Transformation is a closed set of operations an agent may declare it
// applied when synthesizing proposal content.
type Transformation string

const (
	Summarize     Transformation = "summarize"
	Cite          Transformation = "cite"
	CrossReference Transformation = "cross_reference"
	Aggregate     Transformation = "aggregate"
	Tabulate      Transformation = "tabulate"
	Quote         Transformation = "quote"
	Infer         Transformation = "infer"
	Invent        Transformation = "invent"
	ReWeightRisk  Transformation = "re_weight_risk"
	Extrapolate   Transformation = "extrapolate"
)

var validTransformations = map[Transformation]struct{}{
	Summarize: {}, Cite: {}, CrossReference: {}, Aggregate: {}, Tabulate: {},
	Quote: {}, Infer: {}, Invent: {}, ReWeightRisk: {}, Extrapolate: {},
}

func ParseTransformation(s string) (Transformation, error) {
	t := Transformation(canonicalLower(s))
	if _, ok := validTransformations[t]; !ok {
		return "", fmt.Errorf("%w: transformation %q", ErrUnknownEnum, s)
	}
	return t, nil
}

// AdjudicationStatus is the closed verdict set of the adjudication engine.
type AdjudicationStatus string

const (
	Accepted AdjudicationStatus = "ACCEPTED"
	Rejected AdjudicationStatus = "REJECTED"
)

// QualificationStatus is the closed verdict set of the qualification engine.
type QualificationStatus string

const (
	Pass QualificationStatus = "PASS"
	Fail QualificationStatus = "FAIL"
)
