/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package embedding

import (
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/csscolorparser"
)

// colorFunctionPattern matches functional color notation, which spans spaces.
var colorFunctionPattern = regexp.MustCompile(`(?i)\b(?:rgba?|hsla?|hwb|lab|lch|oklab|oklch)\([^)]*\)`)

// ColorTerms returns descriptive words for every CSS color literal in text:
// the word "color", the hue family ("red", "blue", "gray", ...) and a
// lightness word where one applies. Text without colors yields nil.
func ColorTerms(text string) []string {
	var out []string
	for _, lit := range colorLiterals(text) {
		c, err := csscolorparser.Parse(lit)
		if err != nil {
			continue
		}
		out = append(out, "color")
		out = append(out, describeColor(c)...)
	}
	return out
}

// colorLiterals finds candidate color literals: functional notations, hex
// literals and bare words that may be named colors.
func colorLiterals(text string) []string {
	var out []string
	out = append(out, colorFunctionPattern.FindAllString(text, -1)...)
	rest := colorFunctionPattern.ReplaceAllString(text, " ")

	for _, w := range strings.FieldsFunc(rest, func(r rune) bool {
		return !isWordRune(r) && r != '#'
	}) {
		w = strings.ToLower(strings.Trim(w, "-"))
		switch {
		case strings.HasPrefix(w, "#"):
			out = append(out, w)
		case w != "" && isLetters(w) && !isHex(w):
			// The parser also accepts hex without '#', so words such as
			// "bad" or "face" must not reach it as names.
			out = append(out, w)
		}
	}
	return out
}

// describeColor buckets a color by HSL.
func describeColor(c csscolorparser.Color) []string {
	if c.A < 0.01 {
		return []string{"transparent"}
	}

	h, s, l := colorful.Color{R: c.R, G: c.G, B: c.B}.Hsl()
	switch {
	case l >= 0.95:
		return []string{"white", "light"}
	case l <= 0.05:
		return []string{"black", "dark"}
	}

	var out []string
	if s < 0.15 {
		out = append(out, "gray")
	} else {
		out = append(out, hueName(h))
	}
	switch {
	case l >= 0.7:
		out = append(out, "light")
	case l <= 0.3:
		out = append(out, "dark")
	}
	return out
}

func hueName(h float64) string {
	switch {
	case h < 15 || h >= 345:
		return "red"
	case h < 45:
		return "orange"
	case h < 70:
		return "yellow"
	case h < 165:
		return "green"
	case h < 195:
		return "cyan"
	case h < 255:
		return "blue"
	case h < 290:
		return "purple"
	default:
		return "pink"
	}
}

func isWordRune(r rune) bool {
	return r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}
