package strings

import (
	"slices"
	"testing"
)

func TestIfEmpty(t *testing.T) {
	def := []string{"author", "body"}
	if got := IfEmpty(nil, def); !slices.Equal(got, def) {
		t.Fatalf("nil input = %v", got)
	}
	if got := IfEmpty([]string{}, def); !slices.Equal(got, def) {
		t.Fatalf("empty input = %v", got)
	}
	if got := IfEmpty([]string{"id"}, def); !slices.Equal(got, []string{"id"}) {
		t.Fatalf("non empty input = %v", got)
	}
}

func TestCompact(t *testing.T) {
	got := Compact([]string{" a ", "", "   ", "b", "\tc\n"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("Compact = %q", got)
	}
	if got := Compact(nil); got == nil || len(got) != 0 {
		t.Fatalf("Compact(nil) = %#v", got)
	}
}
