// Package index is the clause index: three discrimination trees kept in
// step so an inference engine can find clauses with compatible literals or
// subterms without scanning the clause set.
//
//   - the root index holds the maximal side(s) of every literal, as chosen
//     by a SideSelector;
//   - the unit root index holds the maximal side(s) of unit positive
//     equations only;
//   - the subterm index holds every non-variable subterm of every literal
//     side, tagged with its exact position.
//
// A ClauseIndex is a persistent value. IndexClause and RemoveClause return
// a new index and leave the receiver untouched, so a snapshot can serve
// concurrent retrievals while a newer value is being built.
//
// Retrieval produces candidates. Confirm runs the unification engine over
// them to compute the substitutions.
package index

import (
	"context"
	"iter"
	"log/slog"

	"github.com/gitrdm/gokanterm/internal/logging"
	"github.com/gitrdm/gokanterm/internal/metrics"
	"github.com/gitrdm/gokanterm/pkg/dtree"
	"github.com/gitrdm/gokanterm/pkg/term"
)

// SideSelector is the ordering oracle deciding which sides of a literal
// are maximal. The index consumes it but never computes an ordering.
type SideSelector interface {
	MaximalSides(lit Literal) []Side
}

// SideSelectorFunc adapts a function to SideSelector.
type SideSelectorFunc func(lit Literal) []Side

// MaximalSides calls f.
func (f SideSelectorFunc) MaximalSides(lit Literal) []Side { return f(lit) }

// AllSides treats every side of every literal as maximal.
var AllSides SideSelector = SideSelectorFunc(Literal.Sides)

// Kind names one of the three trees.
type Kind uint8

const (
	// RootIndex holds the maximal sides of all literals.
	RootIndex Kind = iota
	// UnitRootIndex holds the maximal sides of unit positive equations.
	UnitRootIndex
	// SubtermIndex holds every non-variable subterm with its position.
	SubtermIndex
)

// String returns the tree name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case RootIndex:
		return "root"
	case UnitRootIndex:
		return "unit_root"
	default:
		return "subterm"
	}
}

// ClauseIndex combines the root, unit root and subterm indexes.
type ClauseIndex struct {
	trees    [3]*dtree.Tree[Entry]
	clauses  int
	selector SideSelector
	logger   *slog.Logger
}

// Option configures an empty index.
type Option func(*ClauseIndex)

// WithSideSelector sets the ordering oracle. The default is AllSides.
func WithSideSelector(sel SideSelector) Option {
	return func(ix *ClauseIndex) {
		if sel != nil {
			ix.selector = sel
		}
	}
}

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(ix *ClauseIndex) {
		if l != nil {
			ix.logger = l
		}
	}
}

// Empty returns an index with no clauses.
func Empty(opts ...Option) *ClauseIndex {
	ix := &ClauseIndex{
		selector: AllSides,
		logger:   logging.Discard(),
	}
	for k := range ix.trees {
		ix.trees[k] = dtree.New(CompareEntries)
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

type keyed struct {
	kind  Kind
	key   dtree.Key
	entry Entry
}

// entries lists every keyed entry c contributes, in a fixed order.
func (ix *ClauseIndex) entries(c *Clause) []keyed {
	var out []keyed
	unit := c.IsUnitEquation()
	for i, lit := range c.lits {
		for _, side := range ix.selector.MaximalSides(lit) {
			t := lit.Side(side)
			if t == nil {
				continue
			}
			e := Entry{Clause: c, Position: Position{Literal: i, Side: side}, Term: t}
			k := dtree.Linearize(t)
			out = append(out, keyed{RootIndex, k, e})
			if unit {
				out = append(out, keyed{UnitRootIndex, k, e})
			}
		}
		for _, side := range lit.Sides() {
			for path, sub := range lit.Side(side).Subterms() {
				if sub.IsVariable() {
					continue
				}
				e := Entry{Clause: c, Position: Position{Literal: i, Side: side, Path: path}, Term: sub}
				out = append(out, keyed{SubtermIndex, dtree.Linearize(sub), e})
			}
		}
	}
	return out
}

// IndexClause returns an index that also holds c. Indexing a clause twice
// is a no-op the second time.
func (ix *ClauseIndex) IndexClause(c *Clause) *ClauseIndex {
	next := *ix
	added := 0
	for _, ke := range ix.entries(c) {
		before := next.trees[ke.kind].Len()
		next.trees[ke.kind] = next.trees[ke.kind].Insert(ke.key, ke.entry)
		if next.trees[ke.kind].Len() > before {
			added++
			metrics.IndexOperations.WithLabelValues(ke.kind.String(), "insert").Inc()
		}
	}
	if added > 0 {
		next.clauses++
	}
	if ix.logger.Enabled(context.Background(), slog.LevelDebug) {
		ix.logger.Debug("indexed clause",
			slog.String("clause_id", c.id.String()),
			slog.String("clause", c.String()),
			slog.Int("entries", added),
		)
	}
	return &next
}

// RemoveClause returns an index without the entries IndexClause adds for
// c. Removing a clause that is not indexed returns an equivalent index.
func (ix *ClauseIndex) RemoveClause(c *Clause) *ClauseIndex {
	next := *ix
	removed := 0
	for _, ke := range ix.entries(c) {
		before := next.trees[ke.kind].Len()
		next.trees[ke.kind] = next.trees[ke.kind].Remove(ke.key, ke.entry)
		if next.trees[ke.kind].Len() < before {
			removed++
			metrics.IndexOperations.WithLabelValues(ke.kind.String(), "remove").Inc()
		}
	}
	if removed > 0 {
		next.clauses--
	}
	ix.logger.Debug("removed clause",
		slog.String("clause_id", c.id.String()),
		slog.Int("entries", removed),
	)
	return &next
}

// Contains reports whether c is indexed.
func (ix *ClauseIndex) Contains(c *Clause) bool {
	for _, ke := range ix.entries(c) {
		if !ix.trees[ke.kind].Contains(ke.key, ke.entry) {
			return false
		}
	}
	return true
}

// Stats reports entry counts per tree.
type Stats struct {
	Clauses  int
	Root     int
	UnitRoot int
	Subterm  int
}

// Stats returns the clause count and the entry count of each tree.
func (ix *ClauseIndex) Stats() Stats {
	return Stats{
		Clauses:  ix.clauses,
		Root:     ix.trees[RootIndex].Len(),
		UnitRoot: ix.trees[UnitRootIndex].Len(),
		Subterm:  ix.trees[SubtermIndex].Len(),
	}
}

// Retrieve yields candidate entries of tree kind whose term relates to q
// as mode asks. The sequence is lazy, finite and restartable.
func (ix *ClauseIndex) Retrieve(kind Kind, q *term.Term, mode dtree.Mode) iter.Seq[Entry] {
	seq := ix.trees[kind].Retrieve(dtree.Linearize(q), mode)
	return func(yield func(Entry) bool) {
		n := 0
		defer func() {
			metrics.RetrievalCandidates.WithLabelValues(kind.String(), mode.String()).Observe(float64(n))
		}()
		for e := range seq {
			n++
			if !yield(e) {
				return
			}
		}
	}
}

// RetrieveUnifiableSubterms yields subterm entries that may unify with q.
func (ix *ClauseIndex) RetrieveUnifiableSubterms(q *term.Term) iter.Seq[Entry] {
	return ix.Retrieve(SubtermIndex, q, dtree.Unifiable)
}

// RetrieveSubterms queries the subterm index.
func (ix *ClauseIndex) RetrieveSubterms(q *term.Term, mode dtree.Mode) iter.Seq[Entry] {
	return ix.Retrieve(SubtermIndex, q, mode)
}

// RetrieveRootMatches queries the root index.
func (ix *ClauseIndex) RetrieveRootMatches(q *term.Term, mode dtree.Mode) iter.Seq[Entry] {
	return ix.Retrieve(RootIndex, q, mode)
}

// RetrieveUnitRootMatches queries the unit root index.
func (ix *ClauseIndex) RetrieveUnitRootMatches(q *term.Term, mode dtree.Mode) iter.Seq[Entry] {
	return ix.Retrieve(UnitRootIndex, q, mode)
}

// All yields every entry of tree kind.
func (ix *ClauseIndex) All(kind Kind) iter.Seq[Entry] {
	return ix.trees[kind].All()
}
