package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// The DSL grammar allows bare identifiers to be written in any case; they
// are matched case-insensitively against the canonical enum spelling.
var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

func canonicalUpper(s string) string {
	return upperCaser.String(s)
}

func canonicalLower(s string) string {
	return lowerCaser.String(s)
}
