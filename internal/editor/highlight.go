package editor

import (
	"github.com/horizonanalytic/stratum/internal/lexer"
	"github.com/horizonanalytic/stratum/internal/token"
)

// HighlightKind buckets token kinds into the coarse categories a syntax
// theme actually colors; the editor doesn't need the lexer's full kind
// enum, just which bucket each span falls into.
type HighlightKind int

const (
	HighlightNone HighlightKind = iota
	HighlightKeyword
	HighlightIdent
	HighlightNumber
	HighlightString
	HighlightComment
	HighlightOperator
	HighlightBracket
)

// HighlightSpan marks that columns [Start, End) on a line belong to Kind.
type HighlightSpan struct {
	Start int
	End   int
	Kind  HighlightKind
}

// rebuildHighlightCache retokenizes every line marked dirty since the last
// call and replaces its cached spans, leaving clean lines' entries alone.
func (s *State) rebuildHighlightCache() {
	if s.highlightCache == nil || len(s.highlightCache) != s.Buffer.LineCount() {
		s.resizeHighlightCache()
	}
	for line := range s.dirtyLines {
		if line < 0 || line >= s.Buffer.LineCount() {
			continue
		}
		s.highlightCache[line] = highlightLine(s.Buffer.lines[line])
	}
	s.dirtyLines = make(map[int]bool)
}

func (s *State) resizeHighlightCache() {
	cache := make([][]HighlightSpan, s.Buffer.LineCount())
	n := len(s.highlightCache)
	if n > len(cache) {
		n = len(cache)
	}
	copy(cache, s.highlightCache)
	s.highlightCache = cache
	s.markAllDirty()
}

// Highlights returns the cached spans for line i.
func (s *State) Highlights(i int) []HighlightSpan {
	if i < 0 || i >= len(s.highlightCache) {
		return nil
	}
	return s.highlightCache[i]
}

func highlightLine(runes []rune) []HighlightSpan {
	toks, _ := lexer.Lex(string(runes) + "\n")
	spans := make([]HighlightSpan, 0, len(toks))
	for _, t := range toks {
		kind := highlightKindFor(t.Kind)
		if kind == HighlightNone {
			continue
		}
		if t.Line != 1 {
			continue
		}
		start := t.Column - 1
		if start < 0 {
			start = 0
		}
		end := start + len([]rune(t.Lexeme))
		if end > len(runes) {
			end = len(runes)
		}
		if end <= start {
			continue
		}
		spans = append(spans, HighlightSpan{Start: start, End: end, Kind: kind})
	}
	return spans
}

func highlightKindFor(k token.Kind) HighlightKind {
	switch k {
	case token.FX, token.ASYNC, token.LET, token.MUT, token.IF, token.ELSE,
		token.MATCH, token.FOR, token.WHILE, token.LOOP, token.BREAK,
		token.CONTINUE, token.RETURN, token.STRUCT, token.ENUM,
		token.INTERFACE, token.IMPL, token.IMPORT, token.TRY, token.CATCH,
		token.FINALLY, token.THROW, token.TRUE, token.FALSE, token.NULL,
		token.AWAIT, token.IS, token.IN, token.AS:
		return HighlightKeyword
	case token.IDENT:
		return HighlightIdent
	case token.INT, token.FLOAT, token.HEX_INT, token.BINARY_INT, token.OCTAL_INT:
		return HighlightNumber
	case token.STRING, token.CHAR, token.STRING_START, token.STRING_PART, token.STRING_END:
		return HighlightString
	case token.COMMENT_LINE, token.COMMENT_BLOCK:
		return HighlightComment
	case token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.LBRACKET, token.RBRACKET:
		return HighlightBracket
	case token.NEWLINE, token.EOF, token.ILLEGAL, token.INTERP_START, token.INTERP_END:
		return HighlightNone
	default:
		return HighlightOperator
	}
}
