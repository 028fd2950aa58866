// Package normalize holds the text helpers shared by filtering and projection
// Lower folds rule values and field values the same way so comparisons are case-insensitive
// Printable substitutes ill-formed UTF-8 instead of failing the write
package normalize

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// casers are not safe for concurrent use, keep a pool
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

// Lower returns the full Unicode lower-case form of s
func Lower(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	c := lowerPool.Get().(*cases.Caser)
	out := c.String(s)
	lowerPool.Put(c)
	return out
}

// LowerAll lowers every element, returning a new slice
func LowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Lower(s)
	}
	return out
}

// Printable replaces each ill-formed UTF-8 sequence in s with U+FFFD
func Printable(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, _, err := transform.String(runes.ReplaceIllFormed(), s)
	if err != nil {
		return strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
