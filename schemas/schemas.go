// Package schemas embeds the wire-format JSON Schema documents for the
// compiled IR. compiled_obligations.json and compiled_rules.json are the
// stable interchange format between compilation and the downstream
// engines; these schemas define that contract.
package schemas

import _ "embed"

//go:embed compiled_obligations.schema.json
var CompiledObligations []byte

//go:embed compiled_rules.schema.json
var CompiledRules []byte
