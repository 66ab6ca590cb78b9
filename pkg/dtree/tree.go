// Package dtree implements a persistent discrimination tree.
//
// A discrimination tree is a trie keyed by the path-linearization of terms.
// Retrieval walks the trie in lock-step with a query key and prunes every
// stored term whose shape rules out unification (or matching) with the
// query, so candidates are found in roughly O(query size × branching)
// instead of by scanning every stored term. Results are candidates only:
// variables are abstracted to a wildcard, so callers confirm each one with
// the unification engine.
//
// Trees are persistent. Insert and Remove copy the nodes along one path and
// return a new tree; earlier values stay valid and can be read concurrently.
package dtree

import (
	"iter"
	"slices"

	"github.com/hashicorp/go-set/v3"
)

type edge[E any] struct {
	tok   Token
	child *node[E]
}

type node[E any] struct {
	edges []edge[E] // sorted by Compare
	leaf  *set.TreeSet[E]
}

func (n *node[E]) find(tok Token) (int, bool) {
	return slices.BinarySearchFunc(n.edges, tok, func(e edge[E], t Token) int {
		return Compare(e.tok, t)
	})
}

// Tree maps keys to sets of entries. Entries within a leaf are ordered by
// the comparator given to New; inserting an entry the comparator deems
// equal to a stored one is a no-op.
type Tree[E any] struct {
	root *node[E]
	cmp  func(a, b E) int
	size int
}

// New returns an empty tree whose leaf sets use cmp.
func New[E any](cmp func(a, b E) int) *Tree[E] {
	return &Tree[E]{cmp: cmp}
}

// Len returns the number of stored entries.
func (t *Tree[E]) Len() int { return t.size }

// Insert returns a tree that also maps k to e.
func (t *Tree[E]) Insert(k Key, e E) *Tree[E] {
	root, changed := t.insert(t.root, k.toks, e)
	if !changed {
		return t
	}
	return &Tree[E]{root: root, cmp: t.cmp, size: t.size + 1}
}

func (t *Tree[E]) insert(n *node[E], toks []Token, e E) (*node[E], bool) {
	var out node[E]
	if n != nil {
		out = *n
	}
	if len(toks) == 0 {
		if out.leaf != nil && out.leaf.Contains(e) {
			return n, false
		}
		var items []E
		if out.leaf != nil {
			items = out.leaf.Slice()
		}
		leaf := set.TreeSetFrom(items, t.cmp)
		leaf.Insert(e)
		out.leaf = leaf
		return &out, true
	}

	i, found := out.find(toks[0])
	var child *node[E]
	if found {
		child = out.edges[i].child
	}
	nc, changed := t.insert(child, toks[1:], e)
	if !changed {
		return n, false
	}
	edges := make([]edge[E], 0, len(out.edges)+1)
	edges = append(edges, out.edges[:i]...)
	edges = append(edges, edge[E]{tok: toks[0], child: nc})
	if found {
		i++
	}
	edges = append(edges, out.edges[i:]...)
	out.edges = edges
	return &out, true
}

// Remove returns a tree in which k no longer maps to e. Removing an absent
// entry returns t. Emptied nodes are kept; retrieval skips them.
func (t *Tree[E]) Remove(k Key, e E) *Tree[E] {
	root, changed := t.remove(t.root, k.toks, e)
	if !changed {
		return t
	}
	return &Tree[E]{root: root, cmp: t.cmp, size: t.size - 1}
}

func (t *Tree[E]) remove(n *node[E], toks []Token, e E) (*node[E], bool) {
	if n == nil {
		return nil, false
	}
	out := *n
	if len(toks) == 0 {
		if out.leaf == nil || !out.leaf.Contains(e) {
			return n, false
		}
		leaf := set.TreeSetFrom(out.leaf.Slice(), t.cmp)
		leaf.Remove(e)
		out.leaf = leaf
		return &out, true
	}
	i, found := out.find(toks[0])
	if !found {
		return n, false
	}
	nc, changed := t.remove(out.edges[i].child, toks[1:], e)
	if !changed {
		return n, false
	}
	out.edges = slices.Clone(out.edges)
	out.edges[i].child = nc
	return &out, true
}

// Contains reports whether k maps to e.
func (t *Tree[E]) Contains(k Key, e E) bool {
	n := t.root
	for _, tok := range k.toks {
		if n == nil {
			return false
		}
		i, found := n.find(tok)
		if !found {
			return false
		}
		n = n.edges[i].child
	}
	return n != nil && n.leaf != nil && n.leaf.Contains(e)
}

// All yields every stored entry, leaves in key order.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		if t.root != nil {
			t.root.each(yield)
		}
	}
}

func (n *node[E]) each(yield func(E) bool) bool {
	if !n.yieldLeaf(yield) {
		return false
	}
	for _, e := range n.edges {
		if !e.child.each(yield) {
			return false
		}
	}
	return true
}

func (n *node[E]) yieldLeaf(yield func(E) bool) bool {
	if n.leaf == nil {
		return true
	}
	for e := range n.leaf.Items() {
		if !yield(e) {
			return false
		}
	}
	return true
}
