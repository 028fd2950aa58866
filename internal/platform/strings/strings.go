// Package strings provides string slice helpers
package strings

import std "strings"

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Compact trims every element and drops the blank ones, preserving order
func Compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := std.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
