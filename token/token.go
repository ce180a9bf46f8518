/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package token provides the design token record indexed by tokenrag.
package token

import (
	"fmt"
	"strings"
)

// BaseTheme is the theme tag assigned to every extracted token.
// Multi-theme token sets are not supported yet.
const BaseTheme = "base"

// Sigil is the prefix shared by all CSS custom property names.
const Sigil = "--"

// Record is a single CSS custom property declaration prepared for indexing.
type Record struct {
	// Name is the custom property name including its sigil (e.g., "--color-primary").
	Name string `json:"name"`

	// Value is the raw CSS value, trimmed of surrounding whitespace.
	Value string `json:"value"`

	// Theme classifies the token. Always BaseTheme for now.
	Theme string `json:"theme"`

	// Text is the natural-language description used as embedding input.
	// It is always derived from Name and Value, see Describe.
	Text string `json:"text"`
}

// New creates a record for a custom property. The name may be given with or
// without its sigil; the value is trimmed.
func New(name, value string) Record {
	name = CSSVariableName(name)
	value = strings.TrimSpace(value)
	return Record{
		Name:  name,
		Value: value,
		Theme: BaseTheme,
		Text:  Describe(name, value),
	}
}

// Describe returns the embedding text for a token,
// e.g. "Token color-primary has value #ff0000."
func Describe(name, value string) string {
	return fmt.Sprintf("Token %s has value %s.", BareName(name), strings.TrimSpace(value))
}

// CSSVariableName returns name with exactly one leading sigil.
// e.g., "color-primary" and "--color-primary" both yield "--color-primary".
func CSSVariableName(name string) string {
	if name == "" {
		return ""
	}
	return Sigil + BareName(name)
}

// BareName returns name without its leading sigil.
func BareName(name string) string {
	return strings.TrimPrefix(name, Sigil)
}

// Normalize re-derives the fields that depend on Name and Value. Records read
// back from storage go through Normalize so Text can never drift from its inputs.
func (r Record) Normalize() Record {
	out := New(r.Name, r.Value)
	if r.Theme != "" {
		out.Theme = r.Theme
	}
	return out
}
