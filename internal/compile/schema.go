package compile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
	"github.com/Smarticus81/psurRegOSv1/schemas"
)

const (
	obligationsSchemaURL = "https://psurRegOSv1/schemas/compiled_obligations.schema.json"
	rulesSchemaURL       = "https://psurRegOSv1/schemas/compiled_rules.schema.json"
)

var (
	schemaOnce           sync.Once
	obligationsSchema    *jsonschema.Schema
	rulesSchema          *jsonschema.Schema
	schemaCompileErr     error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(obligationsSchemaURL, bytes.NewReader(schemas.CompiledObligations)); err != nil {
		schemaCompileErr = err
		return
	}
	if err := c.AddResource(rulesSchemaURL, bytes.NewReader(schemas.CompiledRules)); err != nil {
		schemaCompileErr = err
		return
	}
	obligationsSchema, schemaCompileErr = c.Compile(obligationsSchemaURL)
	if schemaCompileErr != nil {
		return
	}
	rulesSchema, schemaCompileErr = c.Compile(rulesSchemaURL)
}

// ValidateObligationsDocument checks a *model.CompiledObligations against
// the embedded compiled_obligations.schema.json, the external contract
// that downstream engines and the storage collaborator rely on.
func ValidateObligationsDocument(doc *model.CompiledObligations) error {
	schemaOnce.Do(compileSchemas)
	if schemaCompileErr != nil {
		return fmt.Errorf("compile: loading schemas: %w", schemaCompileErr)
	}
	asAny, err := toGenericJSON(doc)
	if err != nil {
		return err
	}
	if err := obligationsSchema.Validate(asAny); err != nil {
		return fmt.Errorf("compile: compiled_obligations.json failed schema validation: %w", err)
	}
	return validateIRVersion(doc.Version)
}

// ValidateRulesDocument checks a *model.CompiledRules against the
// embedded compiled_rules.schema.json.
func ValidateRulesDocument(doc *model.CompiledRules) error {
	schemaOnce.Do(compileSchemas)
	if schemaCompileErr != nil {
		return fmt.Errorf("compile: loading schemas: %w", schemaCompileErr)
	}
	asAny, err := toGenericJSON(doc)
	if err != nil {
		return err
	}
	if err := rulesSchema.Validate(asAny); err != nil {
		return fmt.Errorf("compile: compiled_rules.json failed schema validation: %w", err)
	}
	return validateIRVersion(doc.Version)
}

func toGenericJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("compile: marshal for schema validation: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("compile: unmarshal for schema validation: %w", err)
	}
	return generic, nil
}

// validateIRVersion confirms the document's version field parses as a
// semantic version, since compiled_obligations.json/compiled_rules.json
// are versioned artefacts passed across the compilation/adjudication
// boundary.
func validateIRVersion(version string) error {
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("compile: IR version %q is not a valid semantic version: %w", version, err)
	}
	return nil
}
