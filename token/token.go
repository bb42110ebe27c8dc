// Package token defines the lexical token set consumed by package parser.
//
// A Lexer is the only producer of a List; the parser reads source bytes
// itself only to recover token text and for the narrow whitespace checks
// on Tree (AmpersandsAdjacent, MismatchedBinaryOpWhitespace) and the
// new-line check behind a missing `;` diagnostic.
package token

// Tag enumerates every lexical category the lexer can produce. Keyword tags
// are grouped so Keywords could be checked with a contiguous range if ever
// needed; that property isn't relied on today.
type Tag uint8

const (
	Invalid Tag = iota

	Identifier
	Builtin // @name
	NumberLiteral
	StringLiteral
	CharLiteral
	MultilineStringLiteralLine
	DocComment
	ContainerDocComment

	// Keywords
	KeywordAddrspace
	KeywordAlign
	KeywordAllowzero
	KeywordAnd
	KeywordAnyframe
	KeywordAnytype
	KeywordAsm
	KeywordAsync
	KeywordAwait
	KeywordBreak
	KeywordCallconv
	KeywordCatch
	KeywordComptime
	KeywordConst
	KeywordContinue
	KeywordDefer
	KeywordElse
	KeywordEnum
	KeywordErrdefer
	KeywordError
	KeywordExport
	KeywordExtern
	KeywordFn
	KeywordFor
	KeywordIf
	KeywordInline
	KeywordNoalias
	KeywordNoinline
	KeywordNosuspend
	KeywordOpaque
	KeywordOr
	KeywordOrelse
	KeywordPacked
	KeywordPub
	KeywordResume
	KeywordReturn
	KeywordLinksection
	KeywordStruct
	KeywordSuspend
	KeywordSwitch
	KeywordTest
	KeywordThreadlocal
	KeywordTry
	KeywordUnion
	KeywordUnreachable
	KeywordUsingnamespace
	KeywordVar
	KeywordVolatile
	KeywordWhile

	// Punctuation and operators
	Ampersand
	AmpersandEqual
	Asterisk
	AsteriskAsterisk
	AsteriskEqual
	AsteriskPercent
	AsteriskPercentEqual
	AsteriskPipe
	AsteriskPipeEqual
	Caret
	CaretEqual
	Colon
	Comma
	Dot
	DotAsterisk
	DotAsteriskAsterisk
	DotDot
	DotDotDot
	DotQuestionMark
	Equal
	EqualEqual
	EqualAngleBracketRight
	ExclamationMark
	ExclamationMarkEqual
	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	LArrow
	LArrowEqual
	LArrowLArrow
	LArrowLArrowPipe
	LArrowLArrowPipeEqual
	LArrowLArrowEqual
	RArrow
	RArrowEqual
	RArrowRArrow
	RArrowRArrowEqual
	Minus
	MinusEqual
	MinusPercent
	MinusPercentEqual
	MinusPipe
	MinusPipeEqual
	MinusRArrow
	Percent
	PercentEqual
	Pipe
	PipeEqual
	PipePipe
	Plus
	PlusEqual
	PlusPercent
	PlusPercentEqual
	PlusPipe
	PlusPipeEqual
	PlusPlus
	QuestionMark
	Semicolon
	Slash
	SlashEqual
	Tilde

	Eof
)

// Keywords maps every reserved word to its Tag.
var Keywords = map[string]Tag{
	"addrspace":       KeywordAddrspace,
	"align":           KeywordAlign,
	"allowzero":       KeywordAllowzero,
	"and":             KeywordAnd,
	"anyframe":        KeywordAnyframe,
	"anytype":         KeywordAnytype,
	"asm":             KeywordAsm,
	"async":           KeywordAsync,
	"await":           KeywordAwait,
	"break":           KeywordBreak,
	"callconv":        KeywordCallconv,
	"catch":           KeywordCatch,
	"comptime":        KeywordComptime,
	"const":           KeywordConst,
	"continue":        KeywordContinue,
	"defer":           KeywordDefer,
	"else":            KeywordElse,
	"enum":            KeywordEnum,
	"errdefer":        KeywordErrdefer,
	"error":           KeywordError,
	"export":          KeywordExport,
	"extern":          KeywordExtern,
	"fn":              KeywordFn,
	"for":             KeywordFor,
	"if":              KeywordIf,
	"inline":          KeywordInline,
	"noalias":         KeywordNoalias,
	"noinline":        KeywordNoinline,
	"nosuspend":       KeywordNosuspend,
	"opaque":          KeywordOpaque,
	"or":              KeywordOr,
	"orelse":          KeywordOrelse,
	"packed":          KeywordPacked,
	"pub":             KeywordPub,
	"resume":          KeywordResume,
	"return":          KeywordReturn,
	"linksection":     KeywordLinksection,
	"struct":          KeywordStruct,
	"suspend":         KeywordSuspend,
	"switch":          KeywordSwitch,
	"test":            KeywordTest,
	"threadlocal":     KeywordThreadlocal,
	"try":             KeywordTry,
	"union":           KeywordUnion,
	"unreachable":     KeywordUnreachable,
	"usingnamespace":  KeywordUsingnamespace,
	"var":             KeywordVar,
	"volatile":        KeywordVolatile,
	"while":           KeywordWhile,
}

// names holds a human-readable label for every tag, used in diagnostics and
// in the "expected X, found Y" style messages.
var names = map[Tag]string{
	Invalid: "invalid token", Identifier: "an identifier", Builtin: "a builtin",
	NumberLiteral: "a number literal", StringLiteral: "a string literal",
	CharLiteral: "a character literal", MultilineStringLiteralLine: "a multiline string literal",
	DocComment: "a document comment", ContainerDocComment: "a container document comment",
	Eof: "EOF",
	Ampersand: "&", AmpersandEqual: "&=", Asterisk: "*", AsteriskAsterisk: "**",
	AsteriskEqual: "*=", AsteriskPercent: "*%", AsteriskPercentEqual: "*%=",
	AsteriskPipe: "*|", AsteriskPipeEqual: "*|=", Caret: "^", CaretEqual: "^=",
	Colon: ":", Comma: ",", Dot: ".", DotAsterisk: ".*", DotAsteriskAsterisk: ".**",
	DotDot: "..", DotDotDot: "...", DotQuestionMark: ".?", Equal: "=",
	EqualEqual: "==", EqualAngleBracketRight: "=>", ExclamationMark: "!",
	ExclamationMarkEqual: "!=", LBrace: "{", RBrace: "}", LBracket: "[",
	RBracket: "]", LParen: "(", RParen: ")",
	LArrow: "<", LArrowEqual: "<=", LArrowLArrow: "<<", LArrowLArrowPipe: "<<|",
	LArrowLArrowPipeEqual: "<<|=", LArrowLArrowEqual: "<<=",
	RArrow: ">", RArrowEqual: ">=", RArrowRArrow: ">>", RArrowRArrowEqual: ">>=",
	Minus: "-", MinusEqual: "-=", MinusPercent: "-%", MinusPercentEqual: "-%=",
	MinusPipe: "-|", MinusPipeEqual: "-|=", MinusRArrow: "->",
	Percent: "%", PercentEqual: "%=", Pipe: "|", PipeEqual: "|=", PipePipe: "||",
	Plus: "+", PlusEqual: "+=", PlusPercent: "+%", PlusPercentEqual: "+%=",
	PlusPipe: "+|", PlusPipeEqual: "+|=", PlusPlus: "++",
	QuestionMark: "?", Semicolon: ";", Slash: "/", SlashEqual: "/=", Tilde: "~",
}

// prose is the set of tags whose name reads naturally without quoting
// ("an identifier" vs. "';'").
var prose = map[Tag]bool{
	Invalid: true, Identifier: true, Builtin: true, NumberLiteral: true,
	StringLiteral: true, CharLiteral: true, MultilineStringLiteralLine: true,
	DocComment: true, ContainerDocComment: true, Eof: true,
}

func init() {
	for word, tag := range Keywords {
		names[tag] = word
	}
}

// String returns the diagnostic label for tag, e.g. "';'" or "an identifier".
func (tag Tag) String() string {
	s, ok := names[tag]
	if !ok {
		return "unknown token"
	}
	if prose[tag] {
		return s
	}
	return "'" + s + "'"
}

// Index is a position in a List; it is the unit diagnostics are anchored to.
type Index = uint32

// Token is a single lexical record: a tag and the byte offset of its first
// character in the source. Token text is recovered on demand by slicing the
// source from Start up to the next token's Start (see Slice and
// ast.Tree.TokenSlice), which keeps a List allocation-free beyond the two
// backing slices.
type Token struct {
	Tag   Tag
	Start uint32
}

// List is the parallel-array token stream the parser walks. Tags and
// Starts are separate slices rather than a []Token so indexing one field
// does not pull the other along for cache purposes.
type List struct {
	Tags   []Tag
	Starts []uint32
}

// Len returns the number of tokens, including the trailing Eof sentinel.
func (l *List) Len() int { return len(l.Tags) }

// At returns the token at i as a value type, for callers that want both
// fields together.
func (l *List) At(i Index) Token {
	return Token{Tag: l.Tags[i], Start: l.Starts[i]}
}

func (l *List) append(tag Tag, start uint32) {
	l.Tags = append(l.Tags, tag)
	l.Starts = append(l.Starts, start)
}
