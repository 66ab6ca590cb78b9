package dtree

import "iter"

// Mode selects the relation a retrieval looks for between the query and
// the stored keys.
type Mode uint8

const (
	// Unifiable finds stored terms that may unify with the query.
	Unifiable Mode = iota
	// Generalization finds stored terms that may match the query, i.e.
	// stored terms more general than the query.
	Generalization
	// Specialization finds stored terms the query may match, i.e. stored
	// terms that are instances of the query.
	Specialization
)

// String returns the mode name used in logs and metrics labels.
func (m Mode) String() string {
	switch m {
	case Unifiable:
		return "unifiable"
	case Generalization:
		return "generalization"
	case Specialization:
		return "specialization"
	default:
		return "unknown"
	}
}

// RetrieveUnifiables yields entries whose key may unify with q.
func (t *Tree[E]) RetrieveUnifiables(q Key) iter.Seq[E] {
	return t.Retrieve(q, Unifiable)
}

// RetrieveGeneralizations yields entries whose key is possibly more
// general than q.
func (t *Tree[E]) RetrieveGeneralizations(q Key) iter.Seq[E] {
	return t.Retrieve(q, Generalization)
}

// RetrieveSpecializations yields entries whose key is possibly an instance
// of q.
func (t *Tree[E]) RetrieveSpecializations(q Key) iter.Seq[E] {
	return t.Retrieve(q, Specialization)
}

// Retrieve yields the union of the leaf sets reached by walking the tree
// against q under mode. The sequence is lazy, finite and restartable: each
// range over it walks the tree snapshot t again.
func (t *Tree[E]) Retrieve(q Key, mode Mode) iter.Seq[E] {
	return func(yield func(E) bool) {
		if t.root == nil {
			return
		}
		w := walker[E]{q: q, mode: mode, yield: yield}
		w.walk(t.root, 0)
	}
}

type walker[E any] struct {
	q     Key
	mode  Mode
	yield func(E) bool
}

// walk returns false once the consumer stops.
func (w *walker[E]) walk(n *node[E], i int) bool {
	if i == len(w.q.toks) {
		return n.yieldLeaf(w.yield)
	}
	qt := w.q.toks[i]

	if qt.Kind == AnyVar {
		if w.mode == Generalization {
			if j, ok := n.find(VarToken); ok {
				return w.walk(n.edges[j].child, i+1)
			}
			return true
		}
		// A query variable stands for any stored subterm.
		for _, e := range n.edges {
			if e.tok.Kind == AnyVar {
				if !w.walk(e.child, i+1) {
					return false
				}
				continue
			}
			ok := skipSubterm(e.child, e.tok.Arity, func(m *node[E]) bool {
				return w.walk(m, i+1)
			})
			if !ok {
				return false
			}
		}
		return true
	}

	if w.mode != Specialization {
		// A stored variable stands for the whole query subterm at i.
		if j, ok := n.find(VarToken); ok {
			if !w.walk(n.edges[j].child, w.q.skip[i]) {
				return false
			}
		}
	}
	if j, ok := n.find(qt); ok {
		return w.walk(n.edges[j].child, i+1)
	}
	return true
}

// skipSubterm calls fn on every node reached after consuming pending more
// complete subterms below n.
func skipSubterm[E any](n *node[E], pending int, fn func(*node[E]) bool) bool {
	if pending == 0 {
		return fn(n)
	}
	for _, e := range n.edges {
		if !skipSubterm(e.child, pending-1+e.tok.Arity, fn) {
			return false
		}
	}
	return true
}
