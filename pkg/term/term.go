// Package term provides hashconsed first-order terms.
//
// Every Term is built through a Store, which returns the canonical
// representative of each distinct term. Two terms built by the same Store
// are structurally equal if and only if they are the same pointer, so
// equality and hashing are O(1):
//
//	store := term.NewStore()
//	i := store.BaseSort("i")
//	f := store.Constant(store.Symbol("f"), store.ArrowSort(i, i, i))
//	a := store.Constant(store.Symbol("a"), i)
//	t1, _ := store.Application(f, a, a)
//	t2, _ := store.Application(f, a, a)
//	// t1 == t2
//
// Terms are immutable. Rebuilding a term (ReplaceAt, substitution
// application) always goes back through the Store.
package term

import (
	"fmt"
	"iter"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Kind distinguishes the three shapes of a term.
type Kind uint8

const (
	// KindVariable is a logic variable identified by an integer index.
	KindVariable Kind = iota
	// KindConstant is a 0-ary symbol.
	KindConstant
	// KindApplication is a constant head applied to one or more arguments.
	KindApplication
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

// Term is a canonical, immutable term node. Compare terms with ==.
type Term struct {
	kind  Kind
	tag   uint64
	sort  *Sort
	sym   *Symbol
	index int
	head  *Term
	args  []*Term
	vars  []*Term // free variables ordered by tag
	size  int
}

// Kind returns the shape of the term.
func (t *Term) Kind() Kind { return t.kind }

// Tag returns the unique tag assigned by the Store. It doubles as a hash.
func (t *Term) Tag() uint64 { return t.tag }

// Sort returns the result sort of the term.
func (t *Term) Sort() *Sort { return t.sort }

// IsVariable reports whether t is a variable.
func (t *Term) IsVariable() bool { return t.kind == KindVariable }

// IsConstant reports whether t is a constant.
func (t *Term) IsConstant() bool { return t.kind == KindConstant }

// IsApplication reports whether t is an application.
func (t *Term) IsApplication() bool { return t.kind == KindApplication }

// Index returns the variable index; it is -1 for non-variables.
func (t *Term) Index() int {
	if t.kind != KindVariable {
		return -1
	}
	return t.index
}

// HeadSymbol returns the symbol of a constant or of an application's head.
// Variables have no head symbol.
func (t *Term) HeadSymbol() (*Symbol, bool) {
	switch t.kind {
	case KindConstant:
		return t.sym, true
	case KindApplication:
		return t.head.sym, true
	default:
		return nil, false
	}
}

// Head returns the constant head of an application, or t itself for a
// constant. Variables return nil.
func (t *Term) Head() *Term {
	switch t.kind {
	case KindConstant:
		return t
	case KindApplication:
		return t.head
	default:
		return nil
	}
}

// Args returns the arguments of an application. The slice must not be modified.
func (t *Term) Args() []*Term { return t.args }

// Arity is the number of arguments (0 for variables and constants).
func (t *Term) Arity() int { return len(t.args) }

// IsGround reports whether t has no free variables.
func (t *Term) IsGround() bool { return len(t.vars) == 0 }

// Size is the number of symbol and variable occurrences in t.
func (t *Term) Size() int { return t.size }

// Vars returns the free variables of t ordered by tag. The slice is shared
// and must not be modified.
func (t *Term) Vars() []*Term { return t.vars }

// FreeVariables returns the set of free variables of t.
func (t *Term) FreeVariables() *set.TreeSet[*Term] {
	return set.TreeSetFrom(t.vars, CompareTags)
}

// HasVar reports whether variable v occurs in t.
func (t *Term) HasVar(v *Term) bool {
	for _, w := range t.vars {
		if w == v {
			return true
		}
		if w.tag > v.tag {
			return false
		}
	}
	return false
}

// Subterms yields every subterm of t in prefix order together with its path.
// The head constant of an application is not a subterm position.
func (t *Term) Subterms() iter.Seq2[Path, *Term] {
	return func(yield func(Path, *Term) bool) {
		t.walk(nil, yield)
	}
}

func (t *Term) walk(path Path, yield func(Path, *Term) bool) bool {
	if !yield(path, t) {
		return false
	}
	for i, a := range t.args {
		if !a.walk(path.Child(i), yield) {
			return false
		}
	}
	return true
}

// String renders t as X<index>, a constant name, or head(arg, ...).
func (t *Term) String() string {
	var sb strings.Builder
	t.format(&sb)
	return sb.String()
}

func (t *Term) format(sb *strings.Builder) {
	switch t.kind {
	case KindVariable:
		fmt.Fprintf(sb, "X%d", t.index)
	case KindConstant:
		sb.WriteString(t.sym.name)
	case KindApplication:
		sb.WriteString(t.head.sym.name)
		sb.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.format(sb)
		}
		sb.WriteByte(')')
	}
}

// CompareTags orders terms by their store tag.
func CompareTags(a, b *Term) int {
	switch {
	case a.tag < b.tag:
		return -1
	case a.tag > b.tag:
		return 1
	default:
		return 0
	}
}

// shallowEqual compares two nodes whose children are already canonical.
func (t *Term) shallowEqual(o *Term) bool {
	if t.kind != o.kind || t.sort != o.sort {
		return false
	}
	switch t.kind {
	case KindVariable:
		return t.index == o.index
	case KindConstant:
		return t.sym == o.sym
	default:
		if t.head != o.head || len(t.args) != len(o.args) {
			return false
		}
		for i := range t.args {
			if t.args[i] != o.args[i] {
				return false
			}
		}
		return true
	}
}
