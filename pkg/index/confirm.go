package index

import (
	"iter"

	"github.com/gitrdm/gokanterm/pkg/dtree"
	"github.com/gitrdm/gokanterm/pkg/subst"
	"github.com/gitrdm/gokanterm/pkg/term"
	"github.com/gitrdm/gokanterm/pkg/unif"
)

// Confirm filters candidates down to the entries that actually stand in
// relation mode to q, yielding each with its substitution. The query lives
// in scope qs and stored terms in scope es.
//
//   - Unifiable: q and the entry term unify.
//   - Generalization: the entry term matches q.
//   - Specialization: q matches the entry term.
func Confirm(e unif.Engine, candidates iter.Seq[Entry], mode dtree.Mode, q *term.Term, qs, es subst.Scope) iter.Seq2[Entry, *subst.Subst] {
	return func(yield func(Entry, *subst.Subst) bool) {
		for c := range candidates {
			var (
				sub *subst.Subst
				ok  bool
			)
			switch mode {
			case dtree.Generalization:
				sub, ok = e.Match(c.Term, es, q, qs, nil)
			case dtree.Specialization:
				sub, ok = e.Match(q, qs, c.Term, es, nil)
			default:
				sub, ok = e.Unify(q, qs, c.Term, es, nil)
			}
			if !ok {
				continue
			}
			if !yield(c, sub) {
				return
			}
		}
	}
}
