/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// words splits text into case-folded words. Hyphenated and underscored
// identifiers are split into their parts, so "color-primary" yields
// "color" and "primary".
func words(text string) []string {
	folded := cases.Fold().String(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// terms splits text into case-folded terms for lexical matching. Unlike words
// it keeps compound identifiers and hex literals whole as well as their parts.
func terms(text string) []string {
	folded := cases.Fold().String(text)
	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '-' && r != '_'
	})

	var out []string
	for _, t := range raw {
		t = strings.Trim(t, "-_")
		if t == "" {
			continue
		}
		out = append(out, t)
		parts := strings.FieldsFunc(t, func(r rune) bool {
			return r == '-' || r == '_' || r == '#'
		})
		if len(parts) > 1 || (len(parts) == 1 && parts[0] != t) {
			out = append(out, parts...)
		}
	}
	return out
}
