package index

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gitrdm/gokanterm/pkg/term"
)

// Side names one side of an equational literal. Predicate literals only
// have a Left side.
type Side uint8

const (
	// Left is the only side of a predicate literal.
	Left Side = iota
	// Right is the second side of an equation.
	Right
)

// String returns "left" or "right".
func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Literal is a possibly negated equation Left = Right, or a predicate atom
// when Right is nil.
type Literal struct {
	Positive bool
	Left     *term.Term
	Right    *term.Term
}

// NewEquation returns the literal l = r (or l != r when positive is false).
func NewEquation(positive bool, l, r *term.Term) Literal {
	return Literal{Positive: positive, Left: l, Right: r}
}

// NewPredicate returns the literal atom (or its negation).
func NewPredicate(positive bool, atom *term.Term) Literal {
	return Literal{Positive: positive, Left: atom}
}

// IsEquation reports whether the literal has two sides.
func (l Literal) IsEquation() bool { return l.Right != nil }

// Side returns the term on side s, or nil if the literal has no such side.
func (l Literal) Side(s Side) *term.Term {
	if s == Left {
		return l.Left
	}
	return l.Right
}

// Sides lists the sides the literal has.
func (l Literal) Sides() []Side {
	if l.IsEquation() {
		return []Side{Left, Right}
	}
	return []Side{Left}
}

// String renders the literal as "l = r", "l != r", "p(...)" or "~p(...)".
func (l Literal) String() string {
	switch {
	case l.IsEquation() && l.Positive:
		return fmt.Sprintf("%s = %s", l.Left, l.Right)
	case l.IsEquation():
		return fmt.Sprintf("%s != %s", l.Left, l.Right)
	case l.Positive:
		return l.Left.String()
	default:
		return "~" + l.Left.String()
	}
}

// Clause is a disjunction of literals with a stable identity. Two clauses
// built from the same literals are distinct clauses.
type Clause struct {
	id   uuid.UUID
	lits []Literal
}

// NewClause returns a clause with a fresh identity.
func NewClause(lits ...Literal) *Clause {
	return &Clause{id: uuid.New(), lits: append([]Literal(nil), lits...)}
}

// ID returns the clause identity.
func (c *Clause) ID() uuid.UUID { return c.id }

// Literals returns a copy of the literals.
func (c *Clause) Literals() []Literal { return append([]Literal(nil), c.lits...) }

// Literal returns the i-th literal.
func (c *Clause) Literal(i int) Literal { return c.lits[i] }

// Len returns the number of literals.
func (c *Clause) Len() int { return len(c.lits) }

// IsUnitEquation reports whether the clause is a single positive equation.
func (c *Clause) IsUnitEquation() bool {
	return len(c.lits) == 1 && c.lits[0].Positive && c.lits[0].IsEquation()
}

// String renders the clause as {lit | lit ...}.
func (c *Clause) String() string {
	parts := make([]string, len(c.lits))
	for i, l := range c.lits {
		parts[i] = l.String()
	}
	return "{" + strings.Join(parts, " | ") + "}"
}

// Position locates a subterm inside a clause: the literal, the side of
// that literal, then argument indices from the side's root.
type Position struct {
	Literal int
	Side    Side
	Path    term.Path
}

// Compare orders positions by literal, side, then path.
func (p Position) Compare(q Position) int {
	if c := cmp.Compare(p.Literal, q.Literal); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Side, q.Side); c != 0 {
		return c
	}
	return p.Path.Compare(q.Path)
}

// String renders the position as literal:side:path.
func (p Position) String() string {
	return fmt.Sprintf("%d:%s:%s", p.Literal, p.Side, p.Path)
}

// Entry is what the indexes store: a term together with the clause and
// position it occurs at.
type Entry struct {
	Clause   *Clause
	Position Position
	Term     *term.Term
}

// CompareEntries is the total order of entries within a leaf set: by
// position, then clause identity, then term.
func CompareEntries(a, b Entry) int {
	if c := a.Position.Compare(b.Position); c != 0 {
		return c
	}
	if c := bytes.Compare(a.Clause.id[:], b.Clause.id[:]); c != 0 {
		return c
	}
	return term.CompareTags(a.Term, b.Term)
}

// String renders a short clause id, the position and the term.
func (e Entry) String() string {
	return fmt.Sprintf("%s@%s %s", e.Clause.id.String()[:8], e.Position, e.Term)
}
