package term

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"weak"

	"github.com/hashicorp/go-set/v3"
	"github.com/spaolacci/murmur3"

	"github.com/gitrdm/gokanterm/internal/metrics"
)

// fingerprint is the 128-bit structural hash of a node whose children are
// already canonical.
type fingerprint struct{ hi, lo uint64 }

// Store canonicalizes terms. It holds weak references only: a canonical
// term that no caller references any more is reclaimed by the garbage
// collector and its table entry pruned.
//
// A Store is created once per process or solving session and is never
// reset while in use. All methods are safe for concurrent use; the single
// mutex is the exclusive-access discipline for shared construction.
type Store struct {
	mu        sync.Mutex
	nextTag   uint64
	symbols   map[string]*Symbol
	baseSorts map[string]*Sort
	arrows    map[fingerprint][]*Sort
	terms     map[fingerprint][]weak.Pointer[Term]
	live      int
}

// NewStore creates an empty term store.
func NewStore() *Store {
	return &Store{
		symbols:   make(map[string]*Symbol),
		baseSorts: make(map[string]*Sort),
		arrows:    make(map[fingerprint][]*Sort),
		terms:     make(map[fingerprint][]weak.Pointer[Term]),
	}
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// Default returns the process-wide store, creating it on first use.
func Default() *Store {
	defaultStoreOnce.Do(func() { defaultStore = NewStore() })
	return defaultStore
}

// Len returns the number of canonical terms currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *Store) tag() uint64 {
	s.nextTag++
	return s.nextTag
}

// Symbol returns the interned symbol with the given name.
func (s *Store) Symbol(name string) *Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{tag: s.tag(), name: name}
	s.symbols[name] = sym
	return sym
}

// BaseSort returns the interned base sort with the given name.
func (s *Store) BaseSort(name string) *Sort {
	s.mu.Lock()
	defer s.mu.Unlock()
	if so, ok := s.baseSorts[name]; ok {
		return so
	}
	so := &Sort{tag: s.tag(), name: name}
	s.baseSorts[name] = so
	return so
}

// ArrowSort returns the interned sort params -> result. With no params the
// result sort itself is returned.
func (s *Store) ArrowSort(result *Sort, params ...*Sort) *Sort {
	if len(params) == 0 {
		return result
	}
	buf := make([]byte, 0, 8*(len(params)+1))
	buf = binary.LittleEndian.AppendUint64(buf, result.tag)
	for _, p := range params {
		buf = binary.LittleEndian.AppendUint64(buf, p.tag)
	}
	hi, lo := murmur3.Sum128(buf)
	fp := fingerprint{hi, lo}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, so := range s.arrows[fp] {
		if so.result == result && sameSorts(so.params, params) {
			return so
		}
	}
	so := &Sort{tag: s.tag(), params: append([]*Sort(nil), params...), result: result}
	s.arrows[fp] = append(s.arrows[fp], so)
	return so
}

func sameSorts(a, b []*Sort) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Variable returns the canonical variable with the given index and sort.
// sort must not be nil; Variable panics with an error wrapping
// ErrInvalidTerm otherwise.
func (s *Store) Variable(index int, sort *Sort) *Term {
	if sort == nil {
		panic(fmt.Errorf("term: variable X%d without sort: %w", index, ErrInvalidTerm))
	}
	v := &Term{kind: KindVariable, sort: sort, index: index, size: 1}
	v.vars = []*Term{v}
	return s.intern(v)
}

// Constant returns the canonical constant for sym with the given sort.
// Function symbols are constants of an arrow sort. sym and sort must not
// be nil; Constant panics with an error wrapping ErrInvalidTerm otherwise.
func (s *Store) Constant(sym *Symbol, sort *Sort) *Term {
	if sym == nil || sort == nil {
		panic(fmt.Errorf("term: constant needs a symbol and a sort: %w", ErrInvalidTerm))
	}
	return s.intern(&Term{kind: KindConstant, sort: sort, sym: sym, size: 1})
}

// Application returns the canonical application of head to args.
//
// A head that is itself an application is flattened, so the stored head is
// always a constant. The head's sort must be an arrow sort accepting at
// least len(args) arguments of the matching sorts; fewer arguments than the
// arrow's arity give a partial application whose sort is the residual
// arrow. Any violation returns an error wrapping ErrInvalidTerm.
func (s *Store) Application(head *Term, args ...*Term) (*Term, error) {
	if head == nil {
		return nil, fmt.Errorf("term: nil application head: %w", ErrInvalidTerm)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("term: application of %s to no arguments: %w", head, ErrInvalidTerm)
	}
	var all []*Term
	switch head.kind {
	case KindVariable:
		return nil, fmt.Errorf("term: variable %s used as application head: %w", head, ErrInvalidTerm)
	case KindApplication:
		all = make([]*Term, 0, len(head.args)+len(args))
		all = append(all, head.args...)
		all = append(all, args...)
		head = head.head
	default:
		all = append([]*Term(nil), args...)
	}

	hs := head.sort
	if !hs.IsArrow() || hs.Arity() < len(all) {
		return nil, fmt.Errorf("term: %s of sort %s cannot take %d arguments: %w", head, hs, len(all), ErrInvalidTerm)
	}
	for i, a := range all {
		if a == nil {
			return nil, fmt.Errorf("term: nil argument %d to %s: %w", i, head, ErrInvalidTerm)
		}
		if a.sort != hs.params[i] {
			return nil, fmt.Errorf("term: argument %d of %s has sort %s, want %s: %w",
				i, head, a.sort, hs.params[i], ErrInvalidTerm)
		}
	}
	result := hs.result
	if len(all) < hs.Arity() {
		result = s.ArrowSort(hs.result, hs.params[len(all):]...)
	}

	app := &Term{kind: KindApplication, sort: result, head: head, args: all, size: 1}
	vars := set.NewTreeSet[*Term](CompareTags)
	for _, a := range all {
		app.size += a.size
		vars.InsertSlice(a.vars)
	}
	if !vars.Empty() {
		app.vars = vars.Slice()
	}
	return s.intern(app), nil
}

// Must unwraps a construction result, panicking on error. It is meant for
// literals in tests and examples whose shape is known to be valid.
func Must(t *Term, err error) *Term {
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Term) fingerprint() fingerprint {
	buf := make([]byte, 0, 32+8*len(t.args))
	buf = append(buf, byte(t.kind))
	buf = binary.LittleEndian.AppendUint64(buf, t.sort.tag)
	switch t.kind {
	case KindVariable:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(t.index))
	case KindConstant:
		buf = binary.LittleEndian.AppendUint64(buf, t.sym.tag)
	case KindApplication:
		buf = binary.LittleEndian.AppendUint64(buf, t.head.tag)
		for _, a := range t.args {
			buf = binary.LittleEndian.AppendUint64(buf, a.tag)
		}
	}
	hi, lo := murmur3.Sum128(buf)
	return fingerprint{hi, lo}
}

// intern returns the canonical node equal to candidate, registering
// candidate if none exists. The candidate must not be used afterwards.
func (s *Store) intern(candidate *Term) *Term {
	fp := candidate.fingerprint()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.terms[fp] {
		if t := w.Value(); t != nil && t.shallowEqual(candidate) {
			metrics.TermsInterned.WithLabelValues("hit").Inc()
			return t
		}
	}
	candidate.tag = s.tag()
	s.terms[fp] = append(s.terms[fp], weak.Make(candidate))
	s.live++
	runtime.AddCleanup(candidate, s.reclaim, fp)
	metrics.TermsInterned.WithLabelValues("miss").Inc()
	metrics.TermsLive.Inc()
	return candidate
}

// reclaim drops dead weak references from one bucket.
func (s *Store) reclaim(fp fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.terms[fp]
	kept := bucket[:0]
	for _, w := range bucket {
		if w.Value() != nil {
			kept = append(kept, w)
		}
	}
	dropped := len(bucket) - len(kept)
	s.live -= dropped
	metrics.TermsLive.Sub(float64(dropped))
	if len(kept) == 0 {
		delete(s.terms, fp)
		return
	}
	s.terms[fp] = kept
}
