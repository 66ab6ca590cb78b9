package unif

import (
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// Variant is the budgeted form of the package-level Variant. Variables of
// s1 are bound to variables of s2, one to one. Two terms in the same scope
// are variants only if they are identical.
func (e Engine) Variant(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	var (
		out *subst.Subst
		ok  bool
	)
	if s1 == s2 {
		out, ok = orEmpty(sub), t1 == t2
		if !ok {
			out = nil
		}
	} else {
		out, ok = e.variant(t1, s1, t2, s2, orEmpty(sub))
	}
	e.record("variant", ok)
	return out, ok
}

func (e Engine) variant(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	if !e.Fuel.spend() {
		return nil, false
	}
	if t1.Sort() != t2.Sort() {
		return nil, false
	}
	if t1 == t2 && t1.IsGround() {
		return sub, true
	}

	switch {
	case t1.IsVariable() && t2.IsVariable():
		if b, ok := sub.Lookup(t1, s1); ok {
			if b.Term != t2 || b.Scope != s2 {
				return nil, false
			}
			return sub, true
		}
		if sub.IsImage(t2, s2) {
			return nil, false
		}
		return sub.Bind(t1, s1, t2, s2), true
	case t1.IsApplication() && t2.IsApplication():
		if t1.Head() != t2.Head() || t1.Arity() != t2.Arity() {
			return nil, false
		}
		a1, a2 := t1.Args(), t2.Args()
		var ok bool
		for i := range a1 {
			if sub, ok = e.variant(a1[i], s1, a2[i], s2, sub); !ok {
				return nil, false
			}
		}
		return sub, true
	}
	return nil, false
}
