package community

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minNameRunes is the shortest name that is still worth searching for
const minNameRunes = 3

// Submittable is the primary allowed-code-point rule: the browser input
// channel only handles the Basic Multilingual Plane reliably.
func Submittable(r rune) bool {
	return r < 0x10000
}

// pictographic lists the emoji and symbol ranges removed by the fallback
// rule. It leaves other supplementary-plane letters (styled math
// alphanumerics, historic scripts) in place.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x231a, Hi: 0x231b, Stride: 1},
		{Lo: 0x23cf, Hi: 0x23cf, Stride: 1},
		{Lo: 0x23e9, Hi: 0x23f3, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
		{Lo: 0xe0020, Hi: 0xe007f, Stride: 1},
	},
}

// Pictographic is the fallback rule's removal predicate
func Pictographic(r rune) bool {
	return unicode.Is(pictographic, r)
}

// Keep returns the transformer that drops every rune allowed rejects
func Keep(allowed func(rune) bool) transform.Transformer {
	return transform.Chain(norm.NFC, runes.Remove(runes.Predicate(func(r rune) bool {
		return !allowed(r)
	})))
}

// SanitizeName prepares a community name for the search field. The primary
// rule keeps only Submittable runes. When that leaves fewer than three
// characters the narrower rule is used instead, which strips only
// pictographic runes.
func SanitizeName(name string) string {
	primary := apply(Keep(Submittable), name)
	if utf8.RuneCountInString(primary) >= minNameRunes {
		return primary
	}
	return apply(Keep(func(r rune) bool { return !Pictographic(r) }), name)
}

func apply(t transform.Transformer, s string) string {
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}
