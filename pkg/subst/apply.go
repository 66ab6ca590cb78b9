package subst

import (
	"fmt"

	"github.com/gitrdm/gokanterm/pkg/term"
)

type renameKey struct {
	v  *term.Term
	sc Scope
}

// Renaming assigns fresh variables to unbound scoped variables met while
// applying a substitution, so terms from different scopes can be combined
// into one term without their variables colliding. A Renaming is shared
// across every Apply call whose results must agree.
type Renaming struct {
	store *term.Store
	next  int
	vars  map[renameKey]*term.Term
}

// NewRenaming returns a renaming whose fresh variables start at index 0.
func NewRenaming(store *term.Store) *Renaming {
	return &Renaming{store: store, vars: make(map[renameKey]*term.Term)}
}

// Rename returns the fresh variable standing for v@sc.
func (r *Renaming) Rename(v *term.Term, sc Scope) *term.Term {
	k := renameKey{v, sc}
	if w, ok := r.vars[k]; ok {
		return w
	}
	w := r.store.Variable(r.next, v.Sort())
	r.next++
	r.vars[k] = w
	return w
}

// Len returns the number of variables renamed so far.
func (r *Renaming) Len() int { return len(r.vars) }

// Apply rebuilds t@sc with every bound variable replaced by its binding,
// recursively, interning the result in store. Unbound variables are
// renamed through ren, or kept as they are when ren is nil.
func Apply(store *term.Store, s *Subst, ren *Renaming, t *term.Term, sc Scope) (*term.Term, error) {
	if t.IsGround() {
		return t, nil
	}
	if s.IsEmpty() && ren == nil {
		return t, nil
	}
	switch t.Kind() {
	case term.KindVariable:
		if b, ok := s.Lookup(t, sc); ok {
			return Apply(store, s, ren, b.Term, b.Scope)
		}
		if ren != nil {
			return ren.Rename(t, sc), nil
		}
		return t, nil
	case term.KindApplication:
		args := t.Args()
		var out []*term.Term
		for i, a := range args {
			na, err := Apply(store, s, ren, a, sc)
			if err != nil {
				return nil, err
			}
			if out == nil && na != a {
				out = make([]*term.Term, len(args))
				copy(out, args[:i])
			}
			if out != nil {
				out[i] = na
			}
		}
		if out == nil {
			return t, nil
		}
		res, err := store.Application(t.Head(), out...)
		if err != nil {
			return nil, fmt.Errorf("subst: applying to %s: %w", t, err)
		}
		return res, nil
	default:
		return t, nil
	}
}
