package term

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a small signature: sort i, constants a and b, binary f,
// unary g, predicate p : i -> o.
type fixture struct {
	s    *Store
	i, o *Sort
	a, b *Term
	f, g *Term
	p    *Term
}

func newFixture() *fixture {
	s := NewStore()
	i := s.BaseSort("i")
	o := s.BaseSort("o")
	return &fixture{
		s: s, i: i, o: o,
		a: s.Constant(s.Symbol("a"), i),
		b: s.Constant(s.Symbol("b"), i),
		f: s.Constant(s.Symbol("f"), s.ArrowSort(i, i, i)),
		g: s.Constant(s.Symbol("g"), s.ArrowSort(i, i)),
		p: s.Constant(s.Symbol("p"), s.ArrowSort(o, i)),
	}
}

func TestStore_IdentityIsStructuralEquality(t *testing.T) {
	fx := newFixture()
	s := fx.s

	t.Run("same application built twice", func(t *testing.T) {
		t1, err := s.Application(fx.f, fx.a, fx.b)
		require.NoError(t, err)
		t2, err := s.Application(fx.f, s.Constant(s.Symbol("a"), fx.i), fx.b)
		require.NoError(t, err)
		assert.Same(t, t1, t2)
		assert.Equal(t, t1.Tag(), t2.Tag())
	})

	t.Run("argument order matters", func(t *testing.T) {
		t1 := Must(s.Application(fx.f, fx.a, fx.b))
		t2 := Must(s.Application(fx.f, fx.b, fx.a))
		assert.NotSame(t, t1, t2)
	})

	t.Run("variables are keyed by index and sort", func(t *testing.T) {
		x1 := s.Variable(0, fx.i)
		x2 := s.Variable(0, fx.i)
		y := s.Variable(0, fx.o)
		z := s.Variable(1, fx.i)
		assert.Same(t, x1, x2)
		assert.NotSame(t, x1, y)
		assert.NotSame(t, x1, z)
	})

	t.Run("same symbol at different sorts", func(t *testing.T) {
		c1 := s.Constant(s.Symbol("c"), fx.i)
		c2 := s.Constant(s.Symbol("c"), fx.o)
		assert.NotSame(t, c1, c2)
	})

	t.Run("symbols and sorts are interned", func(t *testing.T) {
		assert.Same(t, s.Symbol("f"), s.Symbol("f"))
		assert.Same(t, s.BaseSort("i"), fx.i)
		assert.Same(t, s.ArrowSort(fx.i, fx.i, fx.i), fx.f.Sort())
		assert.NotSame(t, s.ArrowSort(fx.i, fx.i), s.ArrowSort(fx.o, fx.i))
		assert.Same(t, fx.i, s.ArrowSort(fx.i))
	})
}

func TestStore_ApplicationValidation(t *testing.T) {
	fx := newFixture()
	s := fx.s
	x := s.Variable(0, fx.i)

	tests := []struct {
		name string
		head *Term
		args []*Term
	}{
		{"no arguments", fx.f, nil},
		{"variable head", x, []*Term{fx.a}},
		{"base-sorted head", fx.a, []*Term{fx.b}},
		{"too many arguments", fx.g, []*Term{fx.a, fx.b}},
		{"ill-sorted argument", fx.g, []*Term{Must(s.Application(fx.p, fx.a))}},
		{"nil head", nil, []*Term{fx.a}},
		{"nil argument", fx.g, []*Term{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Application(tt.head, tt.args...)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrInvalidTerm), "got %v", err)
		})
	}
}

func TestStore_PartialApplicationFlattens(t *testing.T) {
	fx := newFixture()
	s := fx.s

	partial, err := s.Application(fx.f, fx.a)
	require.NoError(t, err)
	assert.Same(t, s.ArrowSort(fx.i, fx.i), partial.Sort())

	full, err := s.Application(partial, fx.b)
	require.NoError(t, err)
	assert.Same(t, Must(s.Application(fx.f, fx.a, fx.b)), full)
	assert.Same(t, fx.f, full.Head())
	assert.Equal(t, 2, full.Arity())
	assert.Same(t, fx.i, full.Sort())
}

func TestTerm_FreeVariables(t *testing.T) {
	fx := newFixture()
	s := fx.s
	x := s.Variable(0, fx.i)
	y := s.Variable(1, fx.i)

	assert.True(t, fx.a.IsGround())
	assert.Empty(t, fx.a.Vars())
	assert.Equal(t, []*Term{x}, x.Vars())

	fxy := Must(s.Application(fx.f, Must(s.Application(fx.g, y)), Must(s.Application(fx.f, x, y))))
	assert.False(t, fxy.IsGround())
	assert.ElementsMatch(t, []*Term{x, y}, fxy.Vars())
	assert.Equal(t, 2, fxy.FreeVariables().Size())
	assert.True(t, fxy.HasVar(x))
	assert.False(t, fxy.HasVar(s.Variable(7, fx.i)))
	assert.Equal(t, 6, fxy.Size())
}

func TestTerm_Introspection(t *testing.T) {
	fx := newFixture()
	s := fx.s
	x := s.Variable(3, fx.i)
	app := Must(s.Application(fx.f, x, fx.a))

	sym, ok := app.HeadSymbol()
	require.True(t, ok)
	assert.Equal(t, "f", sym.Name())

	sym, ok = fx.a.HeadSymbol()
	require.True(t, ok)
	assert.Equal(t, "a", sym.Name())

	_, ok = x.HeadSymbol()
	assert.False(t, ok)

	assert.True(t, x.IsVariable())
	assert.True(t, fx.a.IsConstant())
	assert.True(t, app.IsApplication())
	assert.Equal(t, 3, x.Index())
	assert.Equal(t, -1, app.Index())
	assert.Equal(t, "f(X3, a)", app.String())
}

func TestStore_ConcurrentConstruction(t *testing.T) {
	fx := newFixture()
	s := fx.s

	const workers = 8
	results := make([]*Term, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			x := s.Variable(0, fx.i)
			results[w] = Must(s.Application(fx.f, Must(s.Application(fx.g, x)), fx.b))
		}(w)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
}

func TestStore_ReclaimsUnreferencedTerms(t *testing.T) {
	fx := newFixture()
	s := fx.s
	keep := Must(s.Application(fx.g, fx.a))
	before := s.Len()

	transient := make([]*Term, 64)
	for n := range transient {
		transient[n] = s.Variable(100+n, fx.i)
	}
	require.Equal(t, before+64, s.Len())
	runtime.KeepAlive(transient)

	assert.Eventually(t, func() bool {
		runtime.GC()
		return s.Len() == before
	}, 5*time.Second, 10*time.Millisecond)
	assert.Same(t, keep, Must(s.Application(fx.g, fx.a)))
	assert.Equal(t, before, s.Len())
	runtime.KeepAlive(fx)
	runtime.KeepAlive(keep)
}

func TestDefault_IsShared(t *testing.T) {
	d := Default()
	require.NotNil(t, d)
	assert.Same(t, d, Default())

	i := d.BaseSort("i")
	v := d.Variable(0, i)
	assert.Same(t, v, Default().Variable(0, Default().BaseSort("i")))
	runtime.KeepAlive(v)
}

func TestStore_NilParts(t *testing.T) {
	fx := newFixture()
	assertInvalid := func(fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			err, ok := r.(error)
			require.True(t, ok, "expected an error panic, got %v", r)
			assert.ErrorIs(t, err, ErrInvalidTerm)
		}()
		fn()
	}
	assertInvalid(func() { fx.s.Variable(0, nil) })
	assertInvalid(func() { fx.s.Constant(nil, fx.i) })
	assertInvalid(func() { fx.s.Constant(fx.s.Symbol("c"), nil) })
}
