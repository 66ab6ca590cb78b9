// Package unif implements scoped unification, matching and variant
// checking over hashconsed terms.
//
// Every algorithm takes two scoped terms and a starting substitution and
// returns an extended substitution together with a success flag. A false
// flag is the Fail outcome: an expected, frequent result that callers
// branch on, not an error.
//
//	sub, ok := unif.Unify(lit, 0, candidate, 1, nil)
//	if !ok {
//		continue // try the next candidate
//	}
//
// Term equality is pointer identity throughout; the term store guarantees
// identity implies structural equality.
package unif

import (
	"github.com/gitrdm/gokanterm/internal/metrics"
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// Fuel bounds the work of one or more calls. Every visited pair of
// subterms spends one step; once the budget is gone every call fails.
// A nil *Fuel is unlimited.
type Fuel struct {
	remaining int
	exhausted bool
}

// NewFuel returns a budget of steps.
func NewFuel(steps int) *Fuel {
	return &Fuel{remaining: steps}
}

// Remaining returns the number of steps left.
func (f *Fuel) Remaining() int {
	if f == nil {
		return -1
	}
	return f.remaining
}

// Exhausted reports whether some call ran out of steps.
func (f *Fuel) Exhausted() bool {
	return f != nil && f.exhausted
}

func (f *Fuel) spend() bool {
	if f == nil {
		return true
	}
	if f.remaining <= 0 {
		f.exhausted = true
		return false
	}
	f.remaining--
	return true
}

// Engine runs the unification family under an optional step budget. The
// zero Engine is unlimited.
type Engine struct {
	Fuel *Fuel
}

func (e Engine) record(op string, ok bool) {
	result := metrics.ResultSuccess
	switch {
	case ok:
	case e.Fuel.Exhausted():
		result = metrics.ResultExhausted
	default:
		result = metrics.ResultFail
	}
	metrics.Unifications.WithLabelValues(op, result).Inc()
}

// Unify computes a substitution extending sub that makes t1@s1 and t2@s2
// identical.
func Unify(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	return Engine{}.Unify(t1, s1, t2, s2, sub)
}

// Match computes a substitution extending sub, binding only variables of
// the pattern's scope, that makes pattern@sp identical to target@st.
func Match(pattern *term.Term, sp subst.Scope, target *term.Term, st subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	return Engine{}.Match(pattern, sp, target, st, sub)
}

// Variant checks that t1@s1 and t2@s2 are equal up to a bijective renaming
// of variables and returns that renaming, extending sub.
func Variant(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	return Engine{}.Variant(t1, s1, t2, s2, sub)
}

// AreUnifiable reports whether t1@s1 and t2@s2 unify.
func AreUnifiable(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope) bool {
	_, ok := Unify(t1, s1, t2, s2, nil)
	return ok
}

// Matches reports whether pattern@sp matches target@st.
func Matches(pattern *term.Term, sp subst.Scope, target *term.Term, st subst.Scope) bool {
	_, ok := Match(pattern, sp, target, st, nil)
	return ok
}

// AreVariant reports whether t1@s1 and t2@s2 are alpha-equivalent.
func AreVariant(t1 *term.Term, s1 subst.Scope, t2 *term.Term, s2 subst.Scope) bool {
	_, ok := Variant(t1, s1, t2, s2, nil)
	return ok
}

func orEmpty(sub *subst.Subst) *subst.Subst {
	if sub == nil {
		return subst.Empty()
	}
	return sub
}
