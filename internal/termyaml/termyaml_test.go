package termyaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanterm/pkg/term"
)

const doc = `
signature:
  f: "i, i -> i"
  p: "i, i -> o"
clauses:
  - [{p: [X, a]}]
  - - {eq: [{f: [X, b]}, X]}
    - {not: {p: [b, Y]}}
  - {neq: [Z, {g: [c]}]}
`

func TestDecodeClauses(t *testing.T) {
	s := term.NewStore()
	d := NewDecoder(s)
	clauses, err := d.DecodeClauses([]byte(doc))
	require.NoError(t, err)
	require.Len(t, clauses, 3)

	assert.Equal(t, "{p(X0, a)}", clauses[0].String())
	assert.Equal(t, "{f(X0, b) = X0 | ~p(b, X1)}", clauses[1].String())
	assert.Equal(t, "{X0 != g(c)}", clauses[2].String())

	lits := clauses[1].Literals()
	assert.True(t, lits[0].Positive)
	assert.True(t, lits[0].IsEquation())
	assert.False(t, lits[1].Positive)
	assert.Same(t, s.BaseSort("o"), lits[1].Left.Sort())
	assert.Same(t, s.BaseSort("i"), clauses[2].Literal(0).Left.Sort())

	x, err := d.ParseTerm("{f: [X, b]}", Vars{})
	require.NoError(t, err)
	assert.Same(t, lits[0].Left, x)
}

func TestParseTerm_Variables(t *testing.T) {
	d := NewDecoder(term.NewStore())
	vars := Vars{}
	tm, err := d.ParseTerm("{h: [Y, _Z, Y, k]}", vars)
	require.NoError(t, err)
	assert.Equal(t, "h(X0, X1, X0, k)", tm.String())
	assert.Len(t, vars, 2)

	next, err := d.ParseTerm("W", vars)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Index())
}

func TestParseAtom(t *testing.T) {
	s := term.NewStore()
	d := NewDecoder(s)
	atom, err := d.ParseAtom("{q: [a]}", Vars{})
	require.NoError(t, err)
	assert.Same(t, s.BaseSort("o"), atom.Sort())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty args", "{f: []}", term.ErrInvalidTerm},
		{"two keys", "{f: [a], g: [b]}", ErrSyntax},
		{"variable head", "{F: [a]}", ErrSyntax},
		{"wrong arity", "{f: [a]}", term.ErrInvalidTerm},
		{"wrong sort", "{f: [{p: [a, a]}, a]}", term.ErrInvalidTerm},
		{"sequence", "[a, b]", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(term.NewStore())
			require.NoError(t, d.Declare("f", "i, i -> i"))
			require.NoError(t, d.Declare("p", "i, i -> o"))
			_, err := d.ParseTerm(tt.src, Vars{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	d := NewDecoder(term.NewStore())
	assert.ErrorIs(t, d.Declare("f", "i, -> i"), ErrSyntax)
	assert.ErrorIs(t, d.Declare("f", "i -> "), ErrSyntax)
	_, err := d.DecodeClauses([]byte("clauses:\n  - []\n"))
	assert.ErrorIs(t, err, ErrSyntax)
	_, err = d.DecodeClauses([]byte("clauses:\n  - [{eq: [a]}]\n"))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestIsVariableName(t *testing.T) {
	assert.True(t, IsVariableName("X"))
	assert.True(t, IsVariableName("_tmp"))
	assert.True(t, IsVariableName("Ärger"))
	assert.False(t, IsVariableName("x"))
	assert.False(t, IsVariableName("0"))
	assert.False(t, IsVariableName(""))
}
