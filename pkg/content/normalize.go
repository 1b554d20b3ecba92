// Package content decodes the packed "content" field of controller exports:
// punctuation normalization, tokenization into key/value fragments, numeric
// extraction and sensor label canonicalization.
package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// FieldSeparator is the canonical separator between content fragments
const FieldSeparator = ";"

// Normalize folds full-width forms (，：．＋－ and the digits among them) to
// ASCII, maps decimal digits of any other script to 0-9 and then turns every
// comma into the canonical field separator
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = foldDigits(width.Fold.String(s))
	return strings.ReplaceAll(s, ",", FieldSeparator)
}

// foldDigits rewrites every non-ASCII decimal digit to its ASCII value
func foldDigits(s string) string {
	ascii := true
	for _, r := range s {
		if r > unicode.MaxASCII && unicode.IsDigit(r) {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII || !unicode.IsDigit(r) {
			return r
		}
		return '0' + digitValue(r)
	}, s)
}

// digitValue returns the value of a decimal digit rune. Unicode lays decimal
// digits out in contiguous runs of ten starting at zero.
func digitValue(r rune) rune {
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return (r - start) % 10
}
