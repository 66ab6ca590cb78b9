// Package subst provides persistent scoped substitutions.
//
// A term does not know which copy of its free variables it belongs to. A
// Scope disambiguates: variable X in scope 0 and variable X in scope 1 are
// different variables, so two clauses can be unified without renaming one
// of them first. A Subst maps a scoped variable to a scoped term.
//
// Substitutions are persistent values. Bind returns a new Subst and leaves
// the receiver untouched, so a caller backtracks by keeping the old value.
package subst

import (
	"fmt"
	"iter"
	"strings"

	"github.com/gitrdm/gokanterm/pkg/term"
)

// Scope identifies one instantiation of a term's variables.
type Scope int

// Scoped pairs a term with the scope its variables live in.
type Scoped struct {
	Term  *term.Term
	Scope Scope
}

// String renders the pair as term@scope.
func (s Scoped) String() string {
	return fmt.Sprintf("%s@%d", s.Term, s.Scope)
}

func compareKeys(v *term.Term, vs Scope, w *term.Term, ws Scope) int {
	if c := term.CompareTags(v, w); c != 0 {
		return c
	}
	switch {
	case vs < ws:
		return -1
	case vs > ws:
		return 1
	default:
		return 0
	}
}

type color uint8

const (
	red color = iota
	black
)

// node is a red-black tree node (Okazaki's persistent insertion).
type node struct {
	color       color
	left, right *node
	key         Scoped
	value       Scoped
	// refs counts the bindings whose value is key; used in image trees only.
	refs int
}

// Subst is a persistent map from scoped variables to scoped terms. The zero
// value and a nil *Subst are both the empty substitution.
type Subst struct {
	root *node
	size int
	// images counts, per scoped variable, the bindings that point straight
	// at it.
	images *node
}

// Empty returns the empty substitution.
func Empty() *Subst { return &Subst{} }

// Len returns the number of bindings.
func (s *Subst) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// IsEmpty reports whether s has no bindings.
func (s *Subst) IsEmpty() bool { return s.Len() == 0 }

// Lookup returns the binding of variable v in scope sc.
func (s *Subst) Lookup(v *term.Term, sc Scope) (Scoped, bool) {
	if s == nil {
		return Scoped{}, false
	}
	if n := find(s.root, v, sc); n != nil {
		return n.value, true
	}
	return Scoped{}, false
}

func find(n *node, v *term.Term, sc Scope) *node {
	for n != nil {
		switch c := compareKeys(v, sc, n.key.Term, n.key.Scope); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// IsBound reports whether variable v in scope sc has a binding.
func (s *Subst) IsBound(v *term.Term, sc Scope) bool {
	_, ok := s.Lookup(v, sc)
	return ok
}

// Bind returns a substitution extending s with v@vs ↦ t@ts. An existing
// binding for v@vs is replaced. Binding a variable to itself in the same
// scope returns s unchanged. Bind panics if v is not a variable.
func (s *Subst) Bind(v *term.Term, vs Scope, t *term.Term, ts Scope) *Subst {
	if !v.IsVariable() {
		panic(fmt.Sprintf("subst: binding non-variable %s", v))
	}
	if v == t && vs == ts {
		if s == nil {
			return Empty()
		}
		return s
	}
	var root, images *node
	size := 0
	if s != nil {
		root, size, images = s.root, s.size, s.images
	}
	key := Scoped{v, vs}
	val := Scoped{t, ts}
	if old := find(root, v, vs); old != nil && old.value.Term.IsVariable() {
		images = adjust(images, old.value, -1)
	}
	if t.IsVariable() {
		images = adjust(images, val, 1)
	}
	root, added := insert(root, key, func(n *node) { n.value = val })
	if added {
		size++
	}
	return &Subst{root: root, size: size, images: images}
}

func adjust(images *node, v Scoped, delta int) *node {
	root, _ := insert(images, v, func(n *node) { n.refs += delta })
	return root
}

// insert returns a copy of the tree rooted at n in which the node for key
// exists and has been passed to update. The root is always black.
func insert(n *node, key Scoped, update func(*node)) (*node, bool) {
	root, added := ins(n, key, update)
	out := *root
	out.color = black
	return &out, added
}

func ins(n *node, key Scoped, update func(*node)) (*node, bool) {
	if n == nil {
		fresh := &node{color: red, key: key}
		update(fresh)
		return fresh, true
	}
	ret := *n
	var added bool
	switch c := compareKeys(key.Term, key.Scope, n.key.Term, n.key.Scope); {
	case c < 0:
		ret.left, added = ins(n.left, key, update)
		ret.balance()
	case c > 0:
		ret.right, added = ins(n.right, key, update)
		ret.balance()
	default:
		update(&ret)
	}
	return &ret, added
}

func isRed(n *node) bool { return n != nil && n.color == red }

func (n *node) balance() {
	if n.color != black {
		return
	}
	var a, b, c, d *node
	var x, y, z *node
	switch {
	case isRed(n.left) && isRed(n.left.left):
		x, y, z = n.left.left, n.left, n
		a, b, c, d = x.left, x.right, y.right, n.right
	case isRed(n.left) && isRed(n.left.right):
		x, y, z = n.left, n.left.right, n
		a, b, c, d = x.left, y.left, y.right, n.right
	case isRed(n.right) && isRed(n.right.left):
		x, y, z = n, n.right.left, n.right
		a, b, c, d = n.left, y.left, y.right, z.right
	case isRed(n.right) && isRed(n.right.right):
		x, y, z = n, n.right, n.right.right
		a, b, c, d = n.left, y.left, z.left, z.right
	default:
		return
	}
	left := &node{color: black, left: a, right: b, key: x.key, value: x.value, refs: x.refs}
	right := &node{color: black, left: c, right: d, key: z.key, value: z.value, refs: z.refs}
	*n = node{color: red, left: left, right: right, key: y.key, value: y.value, refs: y.refs}
}

// Deref follows bindings from t@sc until it reaches a non-variable or an
// unbound variable.
func (s *Subst) Deref(t *term.Term, sc Scope) (*term.Term, Scope) {
	for t.IsVariable() {
		b, ok := s.Lookup(t, sc)
		if !ok {
			break
		}
		t, sc = b.Term, b.Scope
	}
	return t, sc
}

// All yields every binding in key order.
func (s *Subst) All() iter.Seq2[Scoped, Scoped] {
	return func(yield func(Scoped, Scoped) bool) {
		if s != nil {
			s.root.each(yield)
		}
	}
}

func (n *node) each(yield func(Scoped, Scoped) bool) bool {
	if n == nil {
		return true
	}
	return n.left.each(yield) && yield(n.key, n.value) && n.right.each(yield)
}

// IsImage reports whether some variable is bound directly to variable v in
// scope sc. It runs in O(log n).
func (s *Subst) IsImage(v *term.Term, sc Scope) bool {
	if s == nil {
		return false
	}
	n := find(s.images, v, sc)
	return n != nil && n.refs > 0
}

// String renders the substitution as {X0@0 ↦ f(a)@1, ...}.
func (s *Subst) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for k, v := range s.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s ↦ %s", k, v)
	}
	sb.WriteByte('}')
	return sb.String()
}
