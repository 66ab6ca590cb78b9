package subst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanterm/pkg/term"
)

type sig struct {
	s    *term.Store
	i    *term.Sort
	a, b *term.Term
	f, g *term.Term
}

func newSig() *sig {
	s := term.NewStore()
	i := s.BaseSort("i")
	return &sig{
		s: s, i: i,
		a: s.Constant(s.Symbol("a"), i),
		b: s.Constant(s.Symbol("b"), i),
		f: s.Constant(s.Symbol("f"), s.ArrowSort(i, i, i)),
		g: s.Constant(s.Symbol("g"), s.ArrowSort(i, i)),
	}
}

func TestSubst_BindIsPersistent(t *testing.T) {
	sg := newSig()
	x := sg.s.Variable(0, sg.i)
	y := sg.s.Variable(1, sg.i)

	s0 := Empty()
	s1 := s0.Bind(x, 0, sg.a, 1)
	s2 := s1.Bind(y, 0, sg.b, 1)

	assert.Equal(t, 0, s0.Len())
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 2, s2.Len())
	assert.False(t, s1.IsBound(y, 0))

	b, ok := s2.Lookup(x, 0)
	require.True(t, ok)
	assert.Equal(t, Scoped{sg.a, 1}, b)

	t.Run("scopes separate variables", func(t *testing.T) {
		assert.False(t, s2.IsBound(x, 1))
	})

	t.Run("rebinding replaces", func(t *testing.T) {
		s3 := s2.Bind(x, 0, sg.b, 2)
		assert.Equal(t, 2, s3.Len())
		b, _ := s3.Lookup(x, 0)
		assert.Equal(t, Scoped{sg.b, 2}, b)
		b, _ = s2.Lookup(x, 0)
		assert.Equal(t, Scoped{sg.a, 1}, b)
	})

	t.Run("self binding is a no-op", func(t *testing.T) {
		assert.Same(t, s2, s2.Bind(x, 5, x, 5))
	})

	t.Run("nil is empty", func(t *testing.T) {
		var none *Subst
		assert.True(t, none.IsEmpty())
		assert.Equal(t, 1, none.Bind(x, 0, sg.a, 0).Len())
	})
}

func TestSubst_ManyBindingsStayOrdered(t *testing.T) {
	sg := newSig()
	s := Empty()
	const n = 200
	for k := n - 1; k >= 0; k-- {
		s = s.Bind(sg.s.Variable(k, sg.i), Scope(k%3), sg.a, 0)
	}
	assert.Equal(t, n, s.Len())

	var prev *term.Term
	count := 0
	for k := range s.All() {
		if prev != nil {
			assert.LessOrEqual(t, prev.Tag(), k.Term.Tag())
		}
		prev = k.Term
		count++
	}
	assert.Equal(t, n, count)
	for k := 0; k < n; k++ {
		assert.True(t, s.IsBound(sg.s.Variable(k, sg.i), Scope(k%3)), "variable %d", k)
	}
}

func TestSubst_DerefAndImage(t *testing.T) {
	sg := newSig()
	x := sg.s.Variable(0, sg.i)
	y := sg.s.Variable(1, sg.i)
	s := Empty().Bind(x, 0, y, 1).Bind(y, 1, sg.a, 0)

	got, sc := s.Deref(x, 0)
	assert.Same(t, sg.a, got)
	assert.Equal(t, Scope(0), sc)

	got, sc = s.Deref(x, 3)
	assert.Same(t, x, got)
	assert.Equal(t, Scope(3), sc)

	assert.True(t, s.IsImage(y, 1))
	assert.False(t, s.IsImage(y, 0))
	assert.Contains(t, s.String(), "↦")
}

func TestSubst_ImageTracksRebinding(t *testing.T) {
	sg := newSig()
	x := sg.s.Variable(0, sg.i)
	y := sg.s.Variable(1, sg.i)
	z := sg.s.Variable(2, sg.i)

	one := Empty().Bind(x, 0, y, 1)
	two := one.Bind(z, 0, y, 1)
	assert.True(t, two.IsImage(y, 1))

	// Rebinding x away from y leaves z as y's only preimage.
	moved := two.Bind(x, 0, sg.a, 1)
	assert.True(t, moved.IsImage(y, 1))
	assert.True(t, one.IsImage(y, 1))

	gone := moved.Bind(z, 0, x, 1)
	assert.False(t, gone.IsImage(y, 1))
	assert.True(t, gone.IsImage(x, 1))
	assert.Equal(t, 2, gone.Len())

	var nilSubst *Subst
	assert.False(t, nilSubst.IsImage(y, 1))
}

func TestSubst_ImageAgreesWithBindings(t *testing.T) {
	sg := newSig()
	vars := make([]*term.Term, 40)
	for n := range vars {
		vars[n] = sg.s.Variable(n, sg.i)
	}
	s := Empty()
	for n := range vars {
		s = s.Bind(vars[n], 0, vars[(n*7)%len(vars)], 1)
		if n%3 == 0 {
			s = s.Bind(vars[n], 0, sg.a, 1)
		}
	}
	for _, v := range vars {
		want := false
		for _, val := range s.All() {
			if val.Term == v && val.Scope == 1 {
				want = true
			}
		}
		assert.Equal(t, want, s.IsImage(v, 1), "image of %s", v)
	}
}

func TestApply(t *testing.T) {
	sg := newSig()
	st := sg.s
	x := st.Variable(0, sg.i)
	y := st.Variable(1, sg.i)
	fxy := term.Must(st.Application(sg.f, x, y))

	t.Run("dereferences chains and rebuilds", func(t *testing.T) {
		s := Empty().Bind(x, 0, term.Must(st.Application(sg.g, y)), 1).Bind(y, 1, sg.b, 0)
		got, err := Apply(st, s, nil, fxy, 0)
		require.NoError(t, err)
		assert.Equal(t, "f(g(b), X1)", got.String())
	})

	t.Run("ground terms are returned as is", func(t *testing.T) {
		fab := term.Must(st.Application(sg.f, sg.a, sg.b))
		got, err := Apply(st, Empty().Bind(x, 0, sg.a, 0), nil, fab, 0)
		require.NoError(t, err)
		assert.Same(t, fab, got)
	})

	t.Run("renaming separates scopes", func(t *testing.T) {
		ren := NewRenaming(st)
		left, err := Apply(st, Empty(), ren, fxy, 0)
		require.NoError(t, err)
		right, err := Apply(st, Empty(), ren, fxy, 1)
		require.NoError(t, err)
		assert.NotSame(t, left, right)
		assert.Equal(t, 4, ren.Len())

		again, err := Apply(st, Empty(), ren, fxy, 0)
		require.NoError(t, err)
		assert.Same(t, left, again)
	})
}
