package unif

import (
	"iter"

	"github.com/hashicorp/go-set/v3"

	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// maxACOperands caps the operand multiset a single pattern variable may
// split; subset enumeration is exponential beyond it.
const maxACOperands = 20

// ACSignature tells the AC matcher which symbols are associative and
// commutative. AC symbols must be binary.
type ACSignature interface {
	IsAC(sym *term.Symbol) bool
}

// ACSymbols is a set-backed ACSignature.
type ACSymbols struct {
	syms *set.Set[*term.Symbol]
}

// NewACSymbols declares syms associative and commutative.
func NewACSymbols(syms ...*term.Symbol) ACSymbols {
	return ACSymbols{syms: set.From(syms)}
}

// IsAC implements ACSignature.
func (a ACSymbols) IsAC(sym *term.Symbol) bool {
	return a.syms != nil && a.syms.Contains(sym)
}

// acGoal is one pending obligation. A plain goal matches pat against tgt;
// an AC goal distributes the pattern operands pats over the target operand
// multiset tgts under the AC head.
type acGoal struct {
	pat  subst.Scoped
	tgt  subst.Scoped
	head *term.Term
	pats []subst.Scoped
	tgts []*term.Term
	ts   subst.Scope
}

// acFrame is one search state: the goals still open (top of stack last)
// and the substitution built so far.
type acFrame struct {
	goals []acGoal
	sub   *subst.Subst
}

// ACMatches enumerates the matchers of a pattern against a target modulo
// associativity and commutativity of the declared symbols. The search is a
// depth-first backtracking over an explicit stack of frames, so it can be
// abandoned at any point and charged against the engine's Fuel.
//
// The same substitution may be produced more than once when a target has
// equal operands in different positions.
type ACMatches struct {
	e       Engine
	store   *term.Store
	sig     ACSignature
	pattern subst.Scoped
	target  subst.Scoped
	start   *subst.Subst
	protect *term.Term

	stack   []acFrame
	started bool
}

// MatchAC prepares an AC matching search of pattern@sp against target@st.
// Terms built to absorb surplus operands are interned in store.
func (e Engine) MatchAC(store *term.Store, sig ACSignature, pattern *term.Term, sp subst.Scope, target *term.Term, st subst.Scope, sub *subst.Subst) *ACMatches {
	m := &ACMatches{
		e:       e,
		store:   store,
		sig:     sig,
		pattern: subst.Scoped{Term: pattern, Scope: sp},
		target:  subst.Scoped{Term: target, Scope: st},
		start:   orEmpty(sub),
	}
	if sp == st {
		m.protect = target
	}
	return m
}

// Reset restarts the enumeration from the first solution. Spent fuel is
// not refunded.
func (m *ACMatches) Reset() {
	m.stack = m.stack[:0]
	m.started = false
}

// All yields the remaining solutions.
func (m *ACMatches) All() iter.Seq[*subst.Subst] {
	return func(yield func(*subst.Subst) bool) {
		for {
			sub, ok := m.Next()
			if !ok || !yield(sub) {
				return
			}
		}
	}
}

// Next returns the next matcher, or false when the search space (or the
// fuel) is exhausted.
func (m *ACMatches) Next() (*subst.Subst, bool) {
	if !m.started {
		m.started = true
		m.stack = append(m.stack, acFrame{
			goals: []acGoal{{pat: m.pattern, tgt: m.target}},
			sub:   m.start,
		})
	}
	for len(m.stack) > 0 {
		fr := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		if len(fr.goals) == 0 {
			m.e.record("ac_match", true)
			return fr.sub, true
		}
		if !m.e.Fuel.spend() {
			m.stack = m.stack[:0]
			break
		}
		alts := m.expand(fr)
		for i := len(alts) - 1; i >= 0; i-- {
			m.stack = append(m.stack, alts[i])
		}
	}
	m.e.record("ac_match", false)
	return nil, false
}

func (m *ACMatches) protected(v *term.Term) bool {
	return m.protect != nil && m.protect.HasVar(v)
}

func (m *ACMatches) isAC(t *term.Term) bool {
	if !t.IsApplication() || t.Arity() != 2 {
		return false
	}
	sym, _ := t.HeadSymbol()
	return m.sig.IsAC(sym)
}

// push returns goals with g on top, never aliasing the input slice.
func push(goals []acGoal, g ...acGoal) []acGoal {
	out := make([]acGoal, 0, len(goals)+len(g))
	out = append(out, goals...)
	return append(out, g...)
}

func (m *ACMatches) expand(fr acFrame) []acFrame {
	g := fr.goals[len(fr.goals)-1]
	rest := fr.goals[:len(fr.goals)-1]
	if g.head != nil {
		return m.expandAC(g, rest, fr.sub)
	}

	sub := fr.sub
	p, ps := sub.Deref(g.pat.Term, g.pat.Scope)
	t, ts := sub.Deref(g.tgt.Term, g.tgt.Scope)
	if p.Sort() != t.Sort() {
		return nil
	}
	if p == t && (ps == ts || p.IsGround()) {
		return []acFrame{{goals: rest, sub: sub}}
	}

	switch {
	case p.IsVariable():
		if ps != m.pattern.Scope || m.protected(p) {
			return nil
		}
		return []acFrame{{goals: rest, sub: sub.Bind(p, ps, t, ts)}}
	case t.IsVariable():
		return nil
	case p.IsApplication() && t.IsApplication():
		if p.Head() != t.Head() || p.Arity() != t.Arity() {
			return nil
		}
		if m.isAC(p) {
			ac := acGoal{
				head: p.Head(),
				pats: flattenScoped(p, ps, nil),
				tgts: flatten(t, nil),
				ts:   ts,
			}
			return []acFrame{{goals: push(rest, ac), sub: sub}}
		}
		pa, ta := p.Args(), t.Args()
		goals := push(rest)
		for i := len(pa) - 1; i >= 0; i-- {
			goals = append(goals, acGoal{
				pat: subst.Scoped{Term: pa[i], Scope: ps},
				tgt: subst.Scoped{Term: ta[i], Scope: ts},
			})
		}
		return []acFrame{{goals: goals, sub: sub}}
	}
	return nil
}

// expandAC picks the first pattern operand that is not an unbound pattern
// variable and tries it against every distinct target operand. Once only
// unbound variables remain, the first of them absorbs each admissible
// subset of the remaining operands.
func (m *ACMatches) expandAC(g acGoal, rest []acGoal, sub *subst.Subst) []acFrame {
	if len(g.pats) == 0 {
		if len(g.tgts) == 0 {
			return []acFrame{{goals: rest, sub: sub}}
		}
		return nil
	}

	for k, sp := range g.pats {
		p, ps := sub.Deref(sp.Term, sp.Scope)
		if p.IsVariable() && ps == m.pattern.Scope {
			continue
		}
		if p.IsApplication() && p.Head() == g.head {
			// A variable bound to an AC term contributes its operands.
			pats := make([]subst.Scoped, 0, len(g.pats)+1)
			pats = append(pats, g.pats[:k]...)
			pats = flattenScoped(p, ps, pats)
			pats = append(pats, g.pats[k+1:]...)
			ng := g
			ng.pats = pats
			return []acFrame{{goals: push(rest, ng), sub: sub}}
		}
		remaining := without(g.pats, k)
		var alts []acFrame
		var tried []*term.Term
		for j, t := range g.tgts {
			if containsTerm(tried, t) {
				continue
			}
			tried = append(tried, t)
			ng := g
			ng.pats = remaining
			ng.tgts = withoutTerm(g.tgts, j)
			plain := acGoal{
				pat: subst.Scoped{Term: p, Scope: ps},
				tgt: subst.Scoped{Term: t, Scope: g.ts},
			}
			alts = append(alts, acFrame{goals: push(rest, ng, plain), sub: sub})
		}
		return alts
	}

	// Only unbound pattern variables remain.
	n, total := len(g.pats), len(g.tgts)
	if total < n || total > maxACOperands {
		return nil
	}
	vt, vs := sub.Deref(g.pats[0].Term, g.pats[0].Scope)
	v := subst.Scoped{Term: vt, Scope: vs}
	if m.protected(v.Term) {
		return nil
	}
	if n == 1 {
		absorbed, err := m.build(g.head, g.tgts)
		if err != nil || absorbed.Sort() != v.Term.Sort() {
			return nil
		}
		return []acFrame{{goals: rest, sub: sub.Bind(v.Term, v.Scope, absorbed, g.ts)}}
	}

	maxTake := total - (n - 1)
	var alts []acFrame
	for mask := 1; mask < 1<<total; mask++ {
		take, leave := split(g.tgts, mask)
		if len(take) > maxTake {
			continue
		}
		absorbed, err := m.build(g.head, take)
		if err != nil || absorbed.Sort() != v.Term.Sort() {
			continue
		}
		ng := g
		ng.pats = g.pats[1:]
		ng.tgts = leave
		alts = append(alts, acFrame{
			goals: push(rest, ng),
			sub:   sub.Bind(v.Term, v.Scope, absorbed, g.ts),
		})
	}
	return alts
}

// build folds operands into a right-nested application of head.
func (m *ACMatches) build(head *term.Term, operands []*term.Term) (*term.Term, error) {
	acc := operands[len(operands)-1]
	for i := len(operands) - 2; i >= 0; i-- {
		var err error
		if acc, err = m.store.Application(head, operands[i], acc); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func flatten(t *term.Term, out []*term.Term) []*term.Term {
	for _, a := range t.Args() {
		if a.IsApplication() && a.Head() == t.Head() {
			out = flatten(a, out)
			continue
		}
		out = append(out, a)
	}
	return out
}

func flattenScoped(t *term.Term, sc subst.Scope, out []subst.Scoped) []subst.Scoped {
	for _, a := range t.Args() {
		if a.IsApplication() && a.Head() == t.Head() {
			out = flattenScoped(a, sc, out)
			continue
		}
		out = append(out, subst.Scoped{Term: a, Scope: sc})
	}
	return out
}

func without(xs []subst.Scoped, k int) []subst.Scoped {
	out := make([]subst.Scoped, 0, len(xs)-1)
	out = append(out, xs[:k]...)
	return append(out, xs[k+1:]...)
}

func withoutTerm(xs []*term.Term, k int) []*term.Term {
	out := make([]*term.Term, 0, len(xs)-1)
	out = append(out, xs[:k]...)
	return append(out, xs[k+1:]...)
}

func containsTerm(xs []*term.Term, t *term.Term) bool {
	for _, x := range xs {
		if x == t {
			return true
		}
	}
	return false
}

func split(xs []*term.Term, mask int) (take, leave []*term.Term) {
	for i, x := range xs {
		if mask&(1<<i) != 0 {
			take = append(take, x)
		} else {
			leave = append(leave, x)
		}
	}
	return take, leave
}
