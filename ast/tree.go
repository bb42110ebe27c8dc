package ast

import (
	"reflect"

	"j5.nz/zparse/token"
)

// Mode distinguishes the two parse entry points: a full program parse and
// the restricted "object notation" (ZON) single-expression parse.
type Mode uint8

const (
	ModeZig Mode = iota
	ModeZon
)

// Tree is the finished, read-only product of a parse: the node array, the
// extra arena, and the diagnostics list, plus the inputs that produced
// them. Once Parse returns, nothing mutates a Tree — downstream consumers
// only ever read it.
type Tree struct {
	Source []byte
	Tokens token.List
	Mode   Mode

	Nodes []Node
	Extra []uint32
	Errors []Error
}

// RootDecls returns the top-level member/declaration list stored in the
// root node's ExtraRange payload.
func (t *Tree) RootDecls() []Index {
	root := t.Nodes[0]
	return t.ExtraRange(root.Data)
}

// ExtraRange reinterprets data as a KindExtraRange payload and returns the
// Index slice it denotes.
func (t *Tree) ExtraRange(data NodeData) []Index {
	return toIndexSlice(t.Extra[data.LHS:data.RHS])
}

func toIndexSlice(words []uint32) []Index {
	out := make([]Index, len(words))
	copy(out, words)
	return out
}

// AddExtraRange appends a slice of Index values to Extra and returns the
// SubRange bounding it. Extra is append-only; a sub-range, once emitted,
// is immutable.
func (t *Tree) AddExtraRange(items []Index) SubRange {
	start := uint32(len(t.Extra))
	t.Extra = append(t.Extra, items...)
	return SubRange{Start: start, End: uint32(len(t.Extra))}
}

// AddExtra appends a packed struct of uint32-kind fields to Extra and
// returns the index it starts at, reflecting over a small, fixed set of
// packed struct types declared in payload.go.
func AddExtra[T any](t *Tree, v T) uint32 {
	rv := reflect.ValueOf(v)
	start := uint32(len(t.Extra))
	for i := 0; i < rv.NumField(); i++ {
		t.Extra = append(t.Extra, uint32(rv.Field(i).Uint()))
	}
	return start
}

// ExtraData reads a packed struct of type T back out of Extra starting at
// index. The field order must match the corresponding AddExtra call.
func ExtraData[T any](t *Tree, index uint32) T {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	n := rv.NumField()
	for i := 0; i < n; i++ {
		rv.Field(i).SetUint(uint64(t.Extra[index+uint32(i)]))
	}
	return out
}

// TokenTag returns the tag of the token at i.
func (t *Tree) TokenTag(i token.Index) token.Tag { return t.Tokens.Tags[i] }

// TokenStart returns the byte offset of the token at i.
func (t *Tree) TokenStart(i token.Index) uint32 { return t.Tokens.Starts[i] }

// TokenSlice returns the raw source bytes of the token at i. List does not
// store lengths, so the token's text runs to the next token's start with the
// gap (whitespace, plain comments) trimmed back off.
func (t *Tree) TokenSlice(i token.Index) []byte {
	start := t.Tokens.Starts[i]
	var end uint32
	if int(i)+1 < len(t.Tokens.Starts) {
		end = t.Tokens.Starts[i+1]
	} else {
		end = uint32(len(t.Source))
	}
	s := t.Source[start:end]
	switch t.Tokens.Tags[i] {
	case token.StringLiteral, token.CharLiteral, token.MultilineStringLiteralLine,
		token.DocComment, token.ContainerDocComment:
		// Literal and comment tokens may legitimately contain "//"; only
		// whitespace can be trimmed off them.
	default:
		if j := indexComment(s); j >= 0 {
			s = s[:j]
		}
	}
	for len(s) > 0 && isTrailingGap(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func indexComment(s []byte) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '/' && s[i+1] == '/' {
			return i
		}
	}
	return -1
}

func isTrailingGap(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// TokenLocation resolves a token index to a 1-based line/column pair by
// scanning Source. It is intentionally lazy (only called when rendering a
// diagnostic) so the hot parse loop never pays for it.
type Location struct {
	Line, Column int
}

func (t *Tree) TokenLocation(i token.Index) Location {
	start := t.Tokens.Starts[i]
	line, col := 1, 1
	for _, b := range t.Source[:start] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Location{Line: line, Column: col}
}

// AmpersandsAdjacent reports whether the `&` token at i is immediately
// followed, with no space, by a second `&`. This backs the `&&` typo
// diagnostic and, like MismatchedBinaryOpWhitespace, reads raw source
// bytes rather than token boundaries.
func (t *Tree) AmpersandsAdjacent(i token.Index) bool {
	start := t.Tokens.Starts[i]
	pos := int(start) + 1
	return pos < len(t.Source) && t.Source[pos] == '&'
}

// MismatchedBinaryOpWhitespace reports whether the whitespace surrounding
// the operator token at i is asymmetric (space on one side only), which
// triggers mismatched_binary_op_whitespace.
func (t *Tree) MismatchedBinaryOpWhitespace(i token.Index) bool {
	start := int(t.Tokens.Starts[i])
	opLen := t.tokenByteLen(i)
	before := start > 0 && isSpaceByte(t.Source[start-1])
	afterIdx := start + opLen
	after := afterIdx < len(t.Source) && isSpaceByte(t.Source[afterIdx])
	return before != after
}

func (t *Tree) tokenByteLen(i token.Index) int {
	return len(t.TokenSlice(i))
}

func isSpaceByte(b byte) bool { return b == ' ' || b == '\t' }
