package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a sequence of argument indices leading from a term to one of its
// subterms. The empty path denotes the term itself.
type Path []int

// Child returns a fresh path extending p with argument index i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Compare orders paths lexicographically; a prefix sorts first.
func (p Path) Compare(q Path) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			if p[i] < q[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	default:
		return 0
	}
}

// String renders the path as "0.2.1", or "ε" for the empty path.
func (p Path) String() string {
	if len(p) == 0 {
		return "ε"
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// SubtermAt returns the subterm of t found by following path.
func SubtermAt(t *Term, path Path) (*Term, error) {
	cur := t
	for depth, i := range path {
		if i < 0 || i >= len(cur.args) {
			return nil, fmt.Errorf("term: path %s step %d leaves %s: %w", path, depth, t, ErrBadPosition)
		}
		cur = cur.args[i]
	}
	return cur, nil
}

// ReplaceAt returns t with the subterm at path replaced by u. Untouched
// siblings are shared with t. The replacement must have the same sort as
// the subterm it replaces.
func (s *Store) ReplaceAt(t *Term, path Path, u *Term) (*Term, error) {
	if u == nil {
		return nil, fmt.Errorf("term: nil replacement: %w", ErrInvalidTerm)
	}
	if len(path) == 0 {
		if u.sort != t.sort {
			return nil, fmt.Errorf("term: replacing %s (sort %s) with %s (sort %s): %w",
				t, t.sort, u, u.sort, ErrInvalidTerm)
		}
		return u, nil
	}
	i := path[0]
	if i < 0 || i >= len(t.args) {
		return nil, fmt.Errorf("term: path %s leaves %s: %w", path, t, ErrBadPosition)
	}
	child, err := s.ReplaceAt(t.args[i], path[1:], u)
	if err != nil {
		return nil, err
	}
	if child == t.args[i] {
		return t, nil
	}
	args := make([]*Term, len(t.args))
	copy(args, t.args)
	args[i] = child
	return s.Application(t.head, args...)
}
