// Package compile lowers a parsed internal/dsl.Program into the compiled
// intermediate representation consumed by every downstream engine:
// model.CompiledObligations and model.CompiledRules. It also resolves
// IMPORT declarations and validates the emitted documents against the
// wire-format JSON Schema.
package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Smarticus81/psurRegOSv1/internal/dsl"
	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// IRVersion is the version tag written into every compiled document.
const IRVersion = "1.0"

// CompileString compiles DSL source text with no import resolution (no
// base path to resolve relative IMPORT paths against).
func CompileString(src string) (*model.CompiledObligations, *model.CompiledRules, error) {
	prog, err := dsl.Parse(src)
	if err != nil {
		return nil, nil, err
	}
	return compileProgram(prog)
}

// CompileFile parses and compiles path, then resolves every IMPORT
// relative to path's directory. Resolution is single-pass and
// non-recursive: an imported file's own IMPORTs are never followed, and a
// referenced file that does not exist is silently skipped. Declarations
// from each import are concatenated after the importer's own, in import
// declaration order; duplicate ids across files are not deduplicated.
func CompileFile(path string) (*model.CompiledObligations, *model.CompiledRules, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("compile: read %s: %w", path, err)
	}
	prog, err := dsl.Parse(string(src))
	if err != nil {
		return nil, nil, err
	}

	dir := filepath.Dir(path)
	for _, imp := range prog.Imports {
		importPath := filepath.Join(dir, imp.Path)
		importSrc, err := os.ReadFile(importPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, fmt.Errorf("compile: read import %s: %w", importPath, err)
		}
		importedProg, err := dsl.Parse(string(importSrc))
		if err != nil {
			return nil, nil, err
		}
		prog.Sources = append(prog.Sources, importedProg.Sources...)
		prog.Obligations = append(prog.Obligations, importedProg.Obligations...)
		prog.Constraints = append(prog.Constraints, importedProg.Constraints...)
	}

	return compileProgram(prog)
}

func compileProgram(prog *dsl.Program) (*model.CompiledObligations, *model.CompiledRules, error) {
	sources := make([]model.RegulatorySource, 0, len(prog.Sources))
	for _, s := range prog.Sources {
		compiled, err := compileSource(s)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, compiled)
	}

	obligations := make([]model.Obligation, 0, len(prog.Obligations))
	for _, o := range prog.Obligations {
		compiled, err := compileObligation(o)
		if err != nil {
			return nil, nil, err
		}
		obligations = append(obligations, compiled)
	}

	constraints := make([]model.Constraint, 0, len(prog.Constraints))
	for _, c := range prog.Constraints {
		compiled, err := compileConstraint(c)
		if err != nil {
			return nil, nil, err
		}
		constraints = append(constraints, compiled)
	}

	now := time.Now().UTC()
	compiledObligations := &model.CompiledObligations{
		Version:     IRVersion,
		CompiledAt:  now,
		Sources:     sources,
		Obligations: obligations,
	}
	compiledRules := &model.CompiledRules{
		Version:     IRVersion,
		CompiledAt:  now,
		Constraints: constraints,
	}

	if err := ValidateObligationsDocument(compiledObligations); err != nil {
		return nil, nil, err
	}
	if err := ValidateRulesDocument(compiledRules); err != nil {
		return nil, nil, err
	}

	return compiledObligations, compiledRules, nil
}

func fieldScalar(fields map[string]dsl.FieldValue, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v.IsList {
		return "", false
	}
	return v.Scalar, true
}

func fieldList(fields map[string]dsl.FieldValue, key string) []string {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	if v.IsList {
		return v.List
	}
	return []string{v.Scalar}
}

func fieldBool(fields map[string]dsl.FieldValue, key string, def bool) (bool, error) {
	raw, ok := fieldScalar(fields, key)
	if !ok {
		return def, nil
	}
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: field %q expects true/false, got %q", model.ErrMissingField, key, raw)
	}
}

func jurisdictionOrDefault(fields map[string]dsl.FieldValue, def model.Jurisdiction) (model.Jurisdiction, error) {
	raw, ok := fieldScalar(fields, "jurisdiction")
	if !ok || raw == "" {
		return def, nil
	}
	return model.ParseJurisdiction(raw)
}

func optionalJurisdiction(fields map[string]dsl.FieldValue) (*model.Jurisdiction, error) {
	raw, ok := fieldScalar(fields, "jurisdiction")
	if !ok || raw == "" {
		return nil, nil
	}
	j, err := model.ParseJurisdiction(raw)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func parseISODate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ISO-8601 date %q", model.ErrMissingField, s)
	}
	return &t, nil
}

func compileSource(n dsl.SourceDecl) (model.RegulatorySource, error) {
	jurisdiction, err := jurisdictionOrDefault(n.Fields, model.EU)
	if err != nil {
		return model.RegulatorySource{}, err
	}
	instrument, _ := fieldScalar(n.Fields, "instrument")
	if instrument == "" {
		instrument = "Unknown"
	}
	title, _ := fieldScalar(n.Fields, "title")
	dateStr, _ := fieldScalar(n.Fields, "effective_date")
	effectiveDate, err := parseISODate(dateStr)
	if err != nil {
		return model.RegulatorySource{}, err
	}
	return model.RegulatorySource{
		ID:            n.ID,
		Jurisdiction:  jurisdiction,
		Instrument:    instrument,
		EffectiveDate: effectiveDate,
		Title:         title,
	}, nil
}

func parseEvidenceTypes(raw []string) ([]model.EvidenceType, error) {
	out := make([]model.EvidenceType, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		et, err := model.ParseEvidenceType(r)
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, nil
}

func parseTransformations(raw []string) ([]model.Transformation, error) {
	out := make([]model.Transformation, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		t, err := model.ParseTransformation(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func parseOutputTypes(raw []string) ([]model.OutputType, error) {
	out := make([]model.OutputType, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		ot, err := model.ParseOutputType(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ot)
	}
	return out, nil
}

func compileObligation(n dsl.ObligationDecl) (model.Obligation, error) {
	jurisdiction, err := jurisdictionOrDefault(n.Fields, model.EU)
	if err != nil {
		return model.Obligation{}, err
	}
	title, _ := fieldScalar(n.Fields, "title")
	if title == "" {
		title = n.ID
	}
	mandatory, err := fieldBool(n.Fields, "mandatory", true)
	if err != nil {
		return model.Obligation{}, err
	}
	allowAbsence, err := fieldBool(n.Fields, "allow_absence_statement", false)
	if err != nil {
		return model.Obligation{}, err
	}
	requiredEvidence, err := parseEvidenceTypes(fieldList(n.Fields, "required_evidence_types"))
	if err != nil {
		return model.Obligation{}, err
	}
	allowedTransforms, err := parseTransformations(fieldList(n.Fields, "allowed_transformations"))
	if err != nil {
		return model.Obligation{}, err
	}
	forbiddenTransforms, err := parseTransformations(fieldList(n.Fields, "forbidden_transformations"))
	if err != nil {
		return model.Obligation{}, err
	}
	allowedOutputs, err := parseOutputTypes(fieldList(n.Fields, "allowed_output_types"))
	if err != nil {
		return model.Obligation{}, err
	}
	requiredTimeScope, _ := fieldScalar(n.Fields, "required_time_scope")
	var obligationSources []string
	for _, s := range fieldList(n.Fields, "sources") {
		if s != "" {
			obligationSources = append(obligationSources, s)
		}
	}

	return model.Obligation{
		ID:                        n.ID,
		Title:                     title,
		Jurisdiction:              jurisdiction,
		Mandatory:                 mandatory,
		RequiredEvidenceTypes:     requiredEvidence,
		AllowedTransformations:    allowedTransforms,
		ForbiddenTransformations:  forbiddenTransforms,
		RequiredTimeScope:         requiredTimeScope,
		AllowedOutputTypes:        allowedOutputs,
		Sources:                   obligationSources,
		AllowAbsenceStatement:     allowAbsence,
	}, nil
}

func compileConstraint(n dsl.ConstraintDecl) (model.Constraint, error) {
	severityStr, ok := fieldScalar(n.Fields, "severity")
	if !ok || severityStr == "" {
		severityStr = "BLOCK"
	}
	severity, err := model.ParseSeverity(severityStr)
	if err != nil {
		return model.Constraint{}, err
	}
	jurisdiction, err := optionalJurisdiction(n.Fields)
	if err != nil {
		return model.Constraint{}, err
	}
	trigger, _ := fieldScalar(n.Fields, "trigger")
	ifExpr, _ := fieldScalar(n.Fields, "if")
	thenExpr, _ := fieldScalar(n.Fields, "then")
	var sources []string
	for _, s := range fieldList(n.Fields, "sources") {
		if s != "" {
			sources = append(sources, s)
		}
	}

	return model.Constraint{
		ID:           n.ID,
		Severity:     severity,
		Trigger:      trigger,
		If:           ifExpr,
		Then:         thenExpr,
		Sources:      sources,
		Jurisdiction: jurisdiction,
	}, nil
}
