package dtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gitrdm/gokanterm/pkg/term"
)

// ErrReservedToken reports a bookkeeping token inside a key. Keys derived
// from concrete terms never contain one; seeing one is a logic error.
var ErrReservedToken = errors.New("reserved token in key")

// ErrMalformedKey reports a token sequence that does not spell exactly one
// term in prefix order.
var ErrMalformedKey = errors.New("malformed key")

// TokenKind classifies key tokens.
type TokenKind uint8

const (
	// AnyVar stands for any variable; it sorts before every symbol.
	AnyVar TokenKind = iota
	// Sym is a symbol with its arity.
	Sym
	// Dead and Bound are reserved for term-store bookkeeping and never
	// appear in keys.
	Dead
	Bound
)

// Token is one step of a path-linearization.
type Token struct {
	Kind   TokenKind
	Symbol *term.Symbol
	Arity  int
}

// VarToken is the wildcard token.
var VarToken = Token{Kind: AnyVar}

// SymToken returns the token for sym applied to arity arguments.
func SymToken(sym *term.Symbol, arity int) Token {
	return Token{Kind: Sym, Symbol: sym, Arity: arity}
}

// Compare orders tokens: AnyVar first, then symbols by (symbol, arity).
func Compare(a, b Token) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	if a.Kind != Sym {
		return 0
	}
	if c := term.CompareSymbols(a.Symbol, b.Symbol); c != 0 {
		return c
	}
	switch {
	case a.Arity < b.Arity:
		return -1
	case a.Arity > b.Arity:
		return 1
	default:
		return 0
	}
}

// String renders the token as "*" or "f/2".
func (t Token) String() string {
	switch t.Kind {
	case AnyVar:
		return "*"
	case Sym:
		return fmt.Sprintf("%s/%d", t.Symbol.Name(), t.Arity)
	case Dead:
		return "<dead>"
	default:
		return "<bound>"
	}
}

// Key is the path-linearization of a term: its tokens in prefix order,
// with a variable contributing a single AnyVar and no descent.
type Key struct {
	toks []Token
	// skip[i] is the index just past the subterm starting at i.
	skip []int
}

// Linearize returns the key of t.
func Linearize(t *term.Term) Key {
	toks := make([]Token, 0, t.Size())
	toks = appendTokens(toks, t)
	return Key{toks: toks, skip: skipTable(toks)}
}

func appendTokens(toks []Token, t *term.Term) []Token {
	switch t.Kind() {
	case term.KindVariable:
		return append(toks, VarToken)
	default:
		sym, _ := t.HeadSymbol()
		toks = append(toks, SymToken(sym, t.Arity()))
		for _, a := range t.Args() {
			toks = appendTokens(toks, a)
		}
		return toks
	}
}

// NewKey validates a hand-built token sequence.
func NewKey(toks ...Token) (Key, error) {
	pending := 1
	for i, tok := range toks {
		if tok.Kind != AnyVar && tok.Kind != Sym {
			return Key{}, fmt.Errorf("dtree: token %d is %s: %w", i, tok, ErrReservedToken)
		}
		if pending == 0 {
			return Key{}, fmt.Errorf("dtree: trailing tokens from %d: %w", i, ErrMalformedKey)
		}
		if tok.Kind == Sym && (tok.Symbol == nil || tok.Arity < 0) {
			return Key{}, fmt.Errorf("dtree: token %d has no symbol: %w", i, ErrMalformedKey)
		}
		pending += tok.Arity - 1
	}
	if pending != 0 {
		return Key{}, fmt.Errorf("dtree: %d subterms missing: %w", pending, ErrMalformedKey)
	}
	toks = append([]Token(nil), toks...)
	return Key{toks: toks, skip: skipTable(toks)}, nil
}

func skipTable(toks []Token) []int {
	skip := make([]int, len(toks))
	for i := len(toks) - 1; i >= 0; i-- {
		j := i + 1
		for k := 0; k < toks[i].Arity; k++ {
			j = skip[j]
		}
		skip[i] = j
	}
	return skip
}

// Len returns the number of tokens.
func (k Key) Len() int { return len(k.toks) }

// Tokens returns a copy of the token sequence.
func (k Key) Tokens() []Token { return append([]Token(nil), k.toks...) }

// String renders the key as space-separated tokens.
func (k Key) String() string {
	parts := make([]string, len(k.toks))
	for i, t := range k.toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
