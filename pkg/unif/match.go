package unif

import (
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// Match is the budgeted form of the package-level Match.
//
// Only unbound variables of scope sp are bound. When sp == st the target's
// own variables are protected: a pattern variable that also occurs in the
// target may only match itself.
func (e Engine) Match(pattern *term.Term, sp subst.Scope, target *term.Term, st subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	m := matcher{e: e, sp: sp}
	if sp == st {
		m.protect = target
	}
	out, ok := m.match(pattern, sp, target, st, orEmpty(sub))
	e.record("match", ok)
	return out, ok
}

type matcher struct {
	e       Engine
	sp      subst.Scope
	protect *term.Term
}

func (m *matcher) protected(v *term.Term) bool {
	return m.protect != nil && m.protect.HasVar(v)
}

func (m *matcher) match(p *term.Term, ps subst.Scope, t *term.Term, ts subst.Scope, sub *subst.Subst) (*subst.Subst, bool) {
	if !m.e.Fuel.spend() {
		return nil, false
	}
	p, ps = sub.Deref(p, ps)
	t, ts = sub.Deref(t, ts)
	if p.Sort() != t.Sort() {
		return nil, false
	}
	if p == t && (ps == ts || p.IsGround()) {
		return sub, true
	}

	switch {
	case p.IsVariable():
		if ps != m.sp || m.protected(p) {
			return nil, false
		}
		return sub.Bind(p, ps, t, ts), true
	case t.IsVariable():
		return nil, false
	case p.IsApplication() && t.IsApplication():
		if p.Head() != t.Head() || p.Arity() != t.Arity() {
			return nil, false
		}
		pa, ta := p.Args(), t.Args()
		var ok bool
		for i := range pa {
			if sub, ok = m.match(pa[i], ps, ta[i], ts, sub); !ok {
				return nil, false
			}
		}
		return sub, true
	}
	return nil, false
}
