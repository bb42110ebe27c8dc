package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagsOf(t *testing.T, src string) []Tag {
	t.Helper()
	list := NewLexer([]byte(src)).Tokenize()
	return append([]Tag(nil), list.Tags...)
}

func TestLexerAlwaysEndsWithEof(t *testing.T) {
	list := NewLexer([]byte("const x = 1;")).Tokenize()
	require.Greater(t, list.Len(), 0)
	assert.Equal(t, Eof, list.Tags[list.Len()-1])
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	got := tagsOf(t, "const foo = bar;")
	assert.Equal(t, []Tag{KeywordConst, Identifier, Equal, Identifier, Semicolon, Eof}, got)
}

func TestLexerSkipsLineCommentsButKeepsDocComments(t *testing.T) {
	got := tagsOf(t, "// plain comment\n/// doc comment\nconst x = 1;")
	assert.Equal(t, []Tag{DocComment, KeywordConst, Identifier, Equal, NumberLiteral, Semicolon, Eof}, got)
}

func TestLexerContainerDocComment(t *testing.T) {
	got := tagsOf(t, "//! module doc\nconst x = 1;")
	assert.Equal(t, []Tag{ContainerDocComment, KeywordConst, Identifier, Equal, NumberLiteral, Semicolon, Eof}, got)
}

func TestLexerNumberLiterals(t *testing.T) {
	for _, src := range []string{"0", "123", "0x1F", "0o17", "0b1010", "1.5", "1_000"} {
		got := tagsOf(t, src)
		require.Equalf(t, []Tag{NumberLiteral, Eof}, got, "source %q", src)
	}
}

func TestLexerRangeDotsNotSwallowedByNumber(t *testing.T) {
	got := tagsOf(t, "1..2")
	assert.Equal(t, []Tag{NumberLiteral, DotDot, NumberLiteral, Eof}, got)
}

func TestLexerStringAndCharLiterals(t *testing.T) {
	got := tagsOf(t, `"hello \"world\"" 'a'`)
	assert.Equal(t, []Tag{StringLiteral, CharLiteral, Eof}, got)
}

func TestLexerBuiltinCall(t *testing.T) {
	got := tagsOf(t, `@import("std")`)
	assert.Equal(t, []Tag{Builtin, LParen, StringLiteral, RParen, Eof}, got)
}

func TestLexerMultiCharOperators(t *testing.T) {
	got := tagsOf(t, "a <<= b >>= c ** d")
	assert.Equal(t, []Tag{
		Identifier, LArrowLArrowEqual, Identifier, RArrowRArrowEqual, Identifier,
		AsteriskAsterisk, Identifier, Eof,
	}, got)
}

func TestLexerCompoundAssignmentOperators(t *testing.T) {
	got := tagsOf(t, "a += b -= c *= d /= e %= f")
	assert.Equal(t, []Tag{
		Identifier, PlusEqual, Identifier, MinusEqual, Identifier, AsteriskEqual,
		Identifier, SlashEqual, Identifier, PercentEqual, Identifier, Eof,
	}, got)
}

func TestLexerSlicePreservesSourceText(t *testing.T) {
	src := []byte("const myVariable = 1;")
	list := NewLexer(src).Tokenize()
	require.GreaterOrEqual(t, list.Len(), 2)
	ident := Slice(src, list.Starts[1], list.Starts[2])
	assert.Equal(t, "myVariable", string(ident))
}

func TestLexerInvalidCharacter(t *testing.T) {
	got := tagsOf(t, "`")
	assert.Equal(t, []Tag{Invalid, Eof}, got)
}
