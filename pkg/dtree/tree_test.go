package dtree

import (
	"cmp"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanterm/pkg/term"
	"github.com/gitrdm/gokanterm/pkg/unif"
)

type item struct {
	id int
	t  *term.Term
}

func compareItems(a, b item) int { return cmp.Compare(a.id, b.id) }

type corpus struct {
	s       *term.Store
	i       *term.Sort
	a, b    *term.Term
	f, g, h *term.Term
	terms   []*term.Term
}

func newCorpus() *corpus {
	s := term.NewStore()
	i := s.BaseSort("i")
	c := &corpus{
		s: s, i: i,
		a: s.Constant(s.Symbol("a"), i),
		b: s.Constant(s.Symbol("b"), i),
		f: s.Constant(s.Symbol("f"), s.ArrowSort(i, i, i)),
		g: s.Constant(s.Symbol("g"), s.ArrowSort(i, i)),
		h: s.Constant(s.Symbol("h"), s.ArrowSort(i, i, i)),
	}
	x, y := s.Variable(0, i), s.Variable(1, i)
	app := func(h *term.Term, args ...*term.Term) *term.Term { return term.Must(s.Application(h, args...)) }
	c.terms = []*term.Term{
		x,
		c.a,
		c.b,
		app(c.g, x),
		app(c.g, c.a),
		app(c.g, app(c.g, c.b)),
		app(c.f, x, y),
		app(c.f, x, x),
		app(c.f, c.a, x),
		app(c.f, app(c.g, x), c.b),
		app(c.f, app(c.g, c.a), app(c.g, y)),
		app(c.h, c.a, c.b),
		app(c.h, x, app(c.f, c.a, y)),
		app(c.f, app(c.f, x, c.a), c.b),
	}
	return c
}

func (c *corpus) tree() *Tree[item] {
	tr := New(compareItems)
	for n, t := range c.terms {
		tr = tr.Insert(Linearize(t), item{n, t})
	}
	return tr
}

func ids(seq func(func(item) bool)) []int {
	var out []int
	for it := range seq {
		out = append(out, it.id)
	}
	slices.Sort(out)
	return out
}

func TestLinearize(t *testing.T) {
	c := newCorpus()
	x := c.s.Variable(0, c.i)
	k := Linearize(term.Must(c.s.Application(c.f, term.Must(c.s.Application(c.g, x)), c.a)))
	assert.Equal(t, "f/2 g/1 * a/0", k.String())
	assert.Equal(t, []int{4, 3, 3, 4}, k.skip)
	assert.Equal(t, 4, k.Len())

	toks := k.Tokens()
	require.Len(t, toks, 4)
	assert.Equal(t, VarToken, toks[2])
	toks[0] = VarToken
	assert.Equal(t, "f/2 g/1 * a/0", k.String(), "Tokens returns a copy")

	rebuilt, err := NewKey(k.Tokens()...)
	require.NoError(t, err)
	assert.Equal(t, k.String(), rebuilt.String())
	assert.Equal(t, k.skip, rebuilt.skip)
}

func TestCompare_VariablesFirst(t *testing.T) {
	c := newCorpus()
	fs, _ := c.f.HeadSymbol()
	as, _ := c.a.HeadSymbol()
	assert.Equal(t, -1, Compare(VarToken, SymToken(as, 0)))
	assert.Equal(t, 1, Compare(SymToken(fs, 2), VarToken))
	assert.Equal(t, -1, Compare(SymToken(as, 0), SymToken(fs, 2)))
	assert.Equal(t, -1, Compare(SymToken(fs, 1), SymToken(fs, 2)))
	assert.Equal(t, 0, Compare(SymToken(fs, 2), SymToken(fs, 2)))
}

func TestNewKey(t *testing.T) {
	c := newCorpus()
	fs, _ := c.f.HeadSymbol()

	k, err := NewKey(SymToken(fs, 2), VarToken, VarToken)
	require.NoError(t, err)
	assert.Equal(t, "f/2 * *", k.String())

	_, err = NewKey(SymToken(fs, 2), VarToken)
	assert.True(t, errors.Is(err, ErrMalformedKey))

	_, err = NewKey(VarToken, VarToken)
	assert.True(t, errors.Is(err, ErrMalformedKey))

	_, err = NewKey(SymToken(fs, 2), Token{Kind: Dead}, VarToken)
	assert.True(t, errors.Is(err, ErrReservedToken))

	_, err = NewKey(Token{Kind: Bound})
	assert.True(t, errors.Is(err, ErrReservedToken))
}

// TestRetrieve_Complete checks every mode against a brute-force scan with
// the unification engine: retrieval may return false positives but never
// misses a confirmed candidate.
func TestRetrieve_Complete(t *testing.T) {
	c := newCorpus()
	tr := c.tree()
	require.Equal(t, len(c.terms), tr.Len())

	for qi, q := range c.terms {
		key := Linearize(q)
		unifiable := ids(tr.RetrieveUnifiables(key))
		general := ids(tr.RetrieveGeneralizations(key))
		special := ids(tr.RetrieveSpecializations(key))

		for n, stored := range c.terms {
			if unif.AreUnifiable(q, 0, stored, 1) {
				assert.Contains(t, unifiable, n, "query %d %s vs %s", qi, q, stored)
			}
			if unif.Matches(stored, 1, q, 0) {
				assert.Contains(t, general, n, "generalization query %s vs %s", q, stored)
			}
			if unif.Matches(q, 0, stored, 1) {
				assert.Contains(t, special, n, "specialization query %s vs %s", q, stored)
			}
		}
		assert.Subset(t, unifiable, general)
		assert.Subset(t, unifiable, special)
	}
}

func TestRetrieve_Prunes(t *testing.T) {
	c := newCorpus()
	tr := c.tree()
	ga := term.Must(c.s.Application(c.g, c.a))

	// g(a): unifies with X, g(X), g(a) only.
	assert.Equal(t, []int{0, 3, 4}, ids(tr.RetrieveUnifiables(Linearize(ga))))
	assert.Equal(t, []int{0, 3, 4}, ids(tr.RetrieveGeneralizations(Linearize(ga))))
	assert.Equal(t, []int{4}, ids(tr.RetrieveSpecializations(Linearize(ga))))

	x := c.s.Variable(5, c.i)
	gx := term.Must(c.s.Application(c.g, x))
	assert.Equal(t, []int{0, 3}, ids(tr.RetrieveGeneralizations(Linearize(gx))))
	assert.Equal(t, []int{3, 4, 5}, ids(tr.RetrieveSpecializations(Linearize(gx))))

	all := ids(tr.RetrieveUnifiables(Linearize(x)))
	assert.Len(t, all, len(c.terms))
	assert.Equal(t, []int{0}, ids(tr.RetrieveGeneralizations(Linearize(x))))
}

func TestTree_Persistence(t *testing.T) {
	c := newCorpus()
	empty := New(compareItems)
	full := c.tree()
	ga := term.Must(c.s.Application(c.g, c.a))
	key := Linearize(ga)

	t.Run("older snapshot unchanged", func(t *testing.T) {
		assert.Equal(t, 0, empty.Len())
		assert.Empty(t, ids(empty.RetrieveUnifiables(key)))
	})

	t.Run("duplicate insert collapses", func(t *testing.T) {
		again := full.Insert(key, item{4, ga})
		assert.Same(t, full, again)
	})

	t.Run("remove is the inverse of insert", func(t *testing.T) {
		removed := full.Remove(key, item{4, ga})
		assert.Equal(t, full.Len()-1, removed.Len())
		assert.False(t, removed.Contains(key, item{4, ga}))
		assert.True(t, full.Contains(key, item{4, ga}))

		for _, q := range c.terms {
			k := Linearize(q)
			want := slices.DeleteFunc(ids(full.RetrieveUnifiables(k)), func(id int) bool { return id == 4 })
			assert.Equal(t, want, ids(removed.RetrieveUnifiables(k)))
		}
	})

	t.Run("removing an absent entry is a no-op", func(t *testing.T) {
		assert.Same(t, full, full.Remove(key, item{99, ga}))
		assert.Same(t, empty, empty.Remove(key, item{4, ga}))
	})

	t.Run("insert then remove is observationally empty", func(t *testing.T) {
		one := empty.Insert(key, item{4, ga}).Remove(key, item{4, ga})
		assert.Equal(t, 0, one.Len())
		for _, q := range c.terms {
			assert.Empty(t, ids(one.RetrieveUnifiables(Linearize(q))))
		}
	})
}

func TestRetrieve_LazyAndRestartable(t *testing.T) {
	c := newCorpus()
	tr := c.tree()
	x := c.s.Variable(9, c.i)
	seq := tr.RetrieveUnifiables(Linearize(x))

	first := 0
	for range seq {
		first++
		if first == 3 {
			break
		}
	}
	assert.Equal(t, 3, first)
	assert.Len(t, ids(seq), len(c.terms))
	assert.Len(t, ids(tr.All()), len(c.terms))
}
