package unif

import (
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// world is a small signature shared by the tests in this package.
type world struct {
	s          *term.Store
	i          *term.Sort
	a, b, c    *term.Term
	f, g, plus *term.Term
	p          *term.Term
}

func newWorld() *world {
	s := term.NewStore()
	i := s.BaseSort("i")
	o := s.BaseSort("o")
	return &world{
		s: s, i: i,
		a:    s.Constant(s.Symbol("a"), i),
		b:    s.Constant(s.Symbol("b"), i),
		c:    s.Constant(s.Symbol("c"), i),
		f:    s.Constant(s.Symbol("f"), s.ArrowSort(i, i, i)),
		g:    s.Constant(s.Symbol("g"), s.ArrowSort(i, i)),
		plus: s.Constant(s.Symbol("plus"), s.ArrowSort(i, i, i)),
		p:    s.Constant(s.Symbol("p"), s.ArrowSort(o, i, i)),
	}
}

func (w *world) v(n int) *term.Term { return w.s.Variable(n, w.i) }

func (w *world) app(head *term.Term, args ...*term.Term) *term.Term {
	return term.Must(w.s.Application(head, args...))
}

func (w *world) apply(sub *subst.Subst, ren *subst.Renaming, t *term.Term, sc subst.Scope) *term.Term {
	return term.Must(subst.Apply(w.s, sub, ren, t, sc))
}
