package term

import (
	"fmt"
	"strings"
)

// Symbol is an interned function or constant name. Symbols created by the
// same Store with the same name are the same pointer; they are ordered by
// creation tag, which gives discrimination-tree edges a stable order.
type Symbol struct {
	tag  uint64
	name string
}

// Name returns the symbol's printed name.
func (sym *Symbol) Name() string { return sym.name }

// Tag returns the store-unique tag of the symbol.
func (sym *Symbol) Tag() uint64 { return sym.tag }

// String implements fmt.Stringer.
func (sym *Symbol) String() string { return sym.name }

// CompareSymbols orders symbols by creation tag.
func CompareSymbols(a, b *Symbol) int {
	switch {
	case a.tag < b.tag:
		return -1
	case a.tag > b.tag:
		return 1
	default:
		return 0
	}
}

// Sort is the result type of a term. A base sort has a name; an arrow sort
// maps a sequence of argument sorts to a result sort. Sorts are interned by
// their Store, so two sorts are equal iff they are the same pointer.
type Sort struct {
	tag    uint64
	name   string
	params []*Sort
	result *Sort
}

// IsArrow reports whether the sort is a function sort.
func (s *Sort) IsArrow() bool { return s.result != nil }

// Params returns the argument sorts of an arrow sort (nil for base sorts).
func (s *Sort) Params() []*Sort { return s.params }

// Result returns the result sort of an arrow sort (nil for base sorts).
func (s *Sort) Result() *Sort { return s.result }

// Arity is the number of arguments an arrow sort accepts.
func (s *Sort) Arity() int { return len(s.params) }

// Tag returns the store-unique tag of the sort.
func (s *Sort) Tag() uint64 { return s.tag }

// String renders base sorts by name and arrow sorts as "(a * b) > c".
func (s *Sort) String() string {
	if !s.IsArrow() {
		return s.name
	}
	parts := make([]string, len(s.params))
	for i, p := range s.params {
		parts[i] = p.String()
	}
	if len(parts) == 1 {
		return fmt.Sprintf("%s > %s", parts[0], s.result)
	}
	return fmt.Sprintf("(%s) > %s", strings.Join(parts, " * "), s.result)
}
