package unif

import (
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// Unify is the budgeted form of the package-level Unify.
func (e Engine) Unify(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	out, ok := e.unify(t1, s1, t2, s2, orEmpty(sub))
	e.record("unify", ok)
	return out, ok
}

func (e Engine) unify(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	if !e.Fuel.spend() {
		return nil, false
	}
	t1, s1 = sub.Deref(t1, s1)
	t2, s2 = sub.Deref(t2, s2)
	if t1.Sort() != t2.Sort() {
		return nil, false
	}
	// Identity alone is not enough for non-ground terms: X@0 and X@1 differ.
	if t1 == t2 && (s1 == s2 || t1.IsGround()) {
		return sub, true
	}

	switch {
	case t1.IsVariable():
		if occurs(sub, t1, s1, t2, s2) {
			return nil, false
		}
		return sub.Bind(t1, s1, t2, s2), true
	case t2.IsVariable():
		if occurs(sub, t2, s2, t1, s1) {
			return nil, false
		}
		return sub.Bind(t2, s2, t1, s1), true
	case t1.IsApplication() && t2.IsApplication():
		if t1.Head() != t2.Head() || t1.Arity() != t2.Arity() {
			return nil, false
		}
		a1, a2 := t1.Args(), t2.Args()
		var ok bool
		for i := range a1 {
			if sub, ok = e.unify(a1[i], s1, a2[i], s2, sub); !ok {
				return nil, false
			}
		}
		return sub, true
	}
	return nil, false
}

// occurs reports whether v@vs appears in t@ts once bindings in sub are
// followed.
func occurs(sub *subst.Subst, v *term.Term, vs subst.Scope, t *term.Term, ts subst.Scope) bool {
	if t.IsGround() {
		return false
	}
	if t.IsVariable() {
		if t == v && ts == vs {
			return true
		}
		if b, ok := sub.Lookup(t, ts); ok {
			return occurs(sub, v, vs, b.Term, b.Scope)
		}
		return false
	}
	for _, w := range t.Vars() {
		if occurs(sub, v, vs, w, ts) {
			return true
		}
	}
	return false
}
