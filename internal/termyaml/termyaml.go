// Package termyaml reads terms and clauses written in YAML.
//
// A scalar starting with an upper-case letter or '_' is a variable, any
// other scalar is a constant, and a single-key mapping {f: [args...]} is an
// application. Literals are atoms, {eq: [l, r]}, {neq: [l, r]} or
// {not: literal}. A clause is a sequence of literals.
//
//	signature:
//	  f: "i, i -> i"
//	  p: "i, i -> o"
//	  a: i
//	clauses:
//	  - [{p: [X, a]}]
//	  - [{eq: [{f: [X, b]}, X]}, {not: {p: [b, Y]}}]
//
// Symbols missing from the signature get sort i for every argument and
// result, except atoms which get result sort o.
package termyaml

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokanterm/pkg/index"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// ErrSyntax reports a document that does not spell a term, literal or
// clause.
var ErrSyntax = errors.New("termyaml: syntax error")

// Default sort names.
const (
	IndividualSort = "i"
	BoolSort       = "o"
)

type file struct {
	Signature map[string]string `yaml:"signature"`
	Clauses   []yaml.Node       `yaml:"clauses"`
}

// Decoder turns YAML into terms of one store. Declared symbol sorts
// persist across calls.
type Decoder struct {
	store *term.Store
	ind   *term.Sort
	prop  *term.Sort
	sig   map[string]*term.Sort
}

// NewDecoder returns a decoder building terms in store.
func NewDecoder(store *term.Store) *Decoder {
	return &Decoder{
		store: store,
		ind:   store.BaseSort(IndividualSort),
		prop:  store.BaseSort(BoolSort),
		sig:   map[string]*term.Sort{},
	}
}

// Declare records the sort of a symbol from text such as "i, i -> o" or
// "i".
func (d *Decoder) Declare(name, sort string) error {
	s, err := d.parseSort(sort)
	if err != nil {
		return fmt.Errorf("termyaml: symbol %s: %w", name, err)
	}
	d.sig[name] = s
	return nil
}

func (d *Decoder) parseSort(src string) (*term.Sort, error) {
	lhs, rhs, arrow := strings.Cut(src, "->")
	if !arrow {
		name := strings.TrimSpace(src)
		if name == "" {
			return nil, fmt.Errorf("empty sort: %w", ErrSyntax)
		}
		return d.store.BaseSort(name), nil
	}
	result := strings.TrimSpace(rhs)
	if result == "" || strings.Contains(result, "->") {
		return nil, fmt.Errorf("bad result sort %q: %w", rhs, ErrSyntax)
	}
	var params []*term.Sort
	for _, p := range strings.Split(lhs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("empty parameter sort in %q: %w", src, ErrSyntax)
		}
		params = append(params, d.store.BaseSort(p))
	}
	return d.store.ArrowSort(d.store.BaseSort(result), params...), nil
}

// IsVariableName reports whether a scalar denotes a variable.
func IsVariableName(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsUpper(r)
}

// Vars maps variable names to variables within one clause or query.
type Vars map[string]*term.Term

// DecodeClauses reads a document with optional signature and clauses
// sections.
func (d *Decoder) DecodeClauses(data []byte) ([]*index.Clause, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("termyaml: %w", err)
	}
	for name, sort := range f.Signature {
		if err := d.Declare(name, sort); err != nil {
			return nil, err
		}
	}
	out := make([]*index.Clause, 0, len(f.Clauses))
	for i := range f.Clauses {
		c, err := d.clause(&f.Clauses[i], Vars{})
		if err != nil {
			return nil, fmt.Errorf("termyaml: clause %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseTerm reads a single term such as "{f: [X, a]}". Variables are
// numbered in order of first appearance, continuing from vars.
func (d *Decoder) ParseTerm(src string, vars Vars) (*term.Term, error) {
	n, err := parseNode(src)
	if err != nil {
		return nil, err
	}
	t, err := d.term(n, nil, vars)
	if err != nil {
		return nil, fmt.Errorf("termyaml: %w", err)
	}
	return t, nil
}

// ParseAtom is ParseTerm for a term in predicate position: undeclared
// heads get result sort o.
func (d *Decoder) ParseAtom(src string, vars Vars) (*term.Term, error) {
	n, err := parseNode(src)
	if err != nil {
		return nil, err
	}
	t, err := d.term(n, d.prop, vars)
	if err != nil {
		return nil, fmt.Errorf("termyaml: %w", err)
	}
	return t, nil
}

func parseNode(src string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("termyaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("termyaml: empty document: %w", ErrSyntax)
	}
	return doc.Content[0], nil
}

func (d *Decoder) clause(n *yaml.Node, vars Vars) (*index.Clause, error) {
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		items = n.Content
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("line %d: empty clause: %w", n.Line, ErrSyntax)
	}
	lits := make([]index.Literal, 0, len(items))
	for _, item := range items {
		lit, err := d.literal(item, vars)
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	return index.NewClause(lits...), nil
}

func single(n *yaml.Node) (key string, val *yaml.Node, ok bool) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 || n.Content[0].Kind != yaml.ScalarNode {
		return "", nil, false
	}
	return n.Content[0].Value, n.Content[1], true
}

func (d *Decoder) literal(n *yaml.Node, vars Vars) (index.Literal, error) {
	key, val, ok := single(n)
	if ok {
		switch key {
		case "not":
			lit, err := d.literal(val, vars)
			lit.Positive = !lit.Positive
			return lit, err
		case "eq", "neq":
			if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
				return index.Literal{}, fmt.Errorf("line %d: %s needs two sides: %w", val.Line, key, ErrSyntax)
			}
			l, r, err := d.sides(val.Content[0], val.Content[1], vars)
			if err != nil {
				return index.Literal{}, err
			}
			return index.NewEquation(key == "eq", l, r), nil
		}
	}
	atom, err := d.term(n, d.prop, vars)
	if err != nil {
		return index.Literal{}, err
	}
	return index.NewPredicate(true, atom), nil
}

// sides decodes the two sides of an equation so that a variable side takes
// the sort of the other side.
func (d *Decoder) sides(ln, rn *yaml.Node, vars Vars) (l, r *term.Term, err error) {
	if ln.Kind == yaml.ScalarNode && IsVariableName(ln.Value) && !(rn.Kind == yaml.ScalarNode && IsVariableName(rn.Value)) {
		if r, err = d.term(rn, nil, vars); err != nil {
			return nil, nil, err
		}
		l, err = d.term(ln, r.Sort(), vars)
		return l, r, err
	}
	if l, err = d.term(ln, nil, vars); err != nil {
		return nil, nil, err
	}
	r, err = d.term(rn, l.Sort(), vars)
	return l, r, err
}

// term decodes n. want is the sort the context expects, or nil.
func (d *Decoder) term(n *yaml.Node, want *term.Sort, vars Vars) (*term.Term, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil, fmt.Errorf("line %d: empty term: %w", n.Line, ErrSyntax)
		}
		if IsVariableName(n.Value) {
			return d.variable(n, want, vars)
		}
		sort := d.sig[n.Value]
		if sort == nil {
			sort = d.orInd(want)
		}
		if want != nil && sort != want {
			return nil, fmt.Errorf("line %d: %s has sort %s, want %s: %w", n.Line, n.Value, sort, want, term.ErrInvalidTerm)
		}
		return d.store.Constant(d.store.Symbol(n.Value), sort), nil

	case yaml.MappingNode:
		name, val, ok := single(n)
		if !ok || IsVariableName(name) {
			return nil, fmt.Errorf("line %d: application must be {symbol: [args]}: %w", n.Line, ErrSyntax)
		}
		argNodes := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			argNodes = val.Content
		}
		if len(argNodes) == 0 {
			return nil, fmt.Errorf("line %d: %s has no arguments: %w", n.Line, name, term.ErrInvalidTerm)
		}
		headSort := d.sig[name]
		if headSort == nil {
			params := make([]*term.Sort, len(argNodes))
			for i := range params {
				params[i] = d.ind
			}
			headSort = d.store.ArrowSort(d.orInd(want), params...)
		}
		if headSort.Arity() != len(argNodes) {
			return nil, fmt.Errorf("line %d: %s takes %d arguments, got %d: %w", n.Line, name, headSort.Arity(), len(argNodes), term.ErrInvalidTerm)
		}
		args := make([]*term.Term, len(argNodes))
		for i, an := range argNodes {
			var argWant *term.Sort
			if i < headSort.Arity() {
				argWant = headSort.Params()[i]
			}
			a, err := d.term(an, argWant, vars)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		head := d.store.Constant(d.store.Symbol(name), headSort)
		t, err := d.store.Application(head, args...)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if want != nil && t.Sort() != want {
			return nil, fmt.Errorf("line %d: %s has sort %s, want %s: %w", n.Line, t, t.Sort(), want, term.ErrInvalidTerm)
		}
		return t, nil

	default:
		return nil, fmt.Errorf("line %d: unexpected %s: %w", n.Line, n.Tag, ErrSyntax)
	}
}

func (d *Decoder) variable(n *yaml.Node, want *term.Sort, vars Vars) (*term.Term, error) {
	if v, ok := vars[n.Value]; ok {
		if want != nil && v.Sort() != want {
			return nil, fmt.Errorf("line %d: variable %s used at sorts %s and %s: %w", n.Line, n.Value, v.Sort(), want, term.ErrInvalidTerm)
		}
		return v, nil
	}
	v := d.store.Variable(len(vars), d.orInd(want))
	vars[n.Value] = v
	return v, nil
}

func (d *Decoder) orInd(s *term.Sort) *term.Sort {
	if s == nil {
		return d.ind
	}
	return s
}
