package ast

import (
	"fmt"

	"j5.nz/zparse/token"
)

// DiagTag enumerates the named syntactic-fault conditions a parse can
// report.
type DiagTag uint8

const (
	ExpectedToken DiagTag = iota
	ExpectedExpr
	ExpectedSemiAfterStmt
	ExpectedCommaAfterField
	DeclBetweenFields
	PreviousField
	NextField
	ChainedComparisonOperators
	InvalidAmpersandAmpersand
	MismatchedBinaryOpWhitespace
	WrongEqualVarDecl
	ExtraConstQualifier
	ExtraAlignQualifier
	ExtraAddrspaceQualifier
	ExtraAllowzeroQualifier
	ExtraVolatileQualifier
	VarargsNonfinal
	ExtraForCapture
	ForInputNotCaptured
	CStyleContainer
	ZigStyleContainer
	SameLineDocComment
	TestDocComment
	ComptimeDocComment
	UnattachedDocComment
	PtrModOnArrayChildType
	InvalidBitRange
	ExpectedLabelable
	ExpectedVarConst
	ExpectedBlockOrAssignment
	ExpectedBlockOrExpr
	ExpectedContainerMembers
	ExpectedStatement
	ExpectedTypeExpr
	ExpectedPrimaryTypeExpr
	ExpectedPubItem
	ExpectedParamList
	ExpectedSuffixOp
	InvalidToken
	ExternFnBody
)

// Error is a single reported diagnostic: a condition tag, the token it is
// anchored to, and the adjustment/payload flags below.
type Error struct {
	Tag     DiagTag
	Token   token.Index
	IsNote  bool
	// TokenIsPrev records that Token was retargeted to the token *before*
	// the one the fault was first detected at, which improves locality of
	// messages like "missing semicolon" when the offending token starts a
	// new line.
	TokenIsPrev bool
	// Expected holds the token.Tag the parser wanted, when Tag is
	// ExpectedToken; zero otherwise.
	Expected token.Tag
}

// diagText maps a DiagTag to its message template. %s, where present, is
// filled with the Expected tag's label.
var diagText = map[DiagTag]string{
	ExpectedToken:                "expected %s",
	ExpectedExpr:                 "expected expression",
	ExpectedSemiAfterStmt:        "expected ';' after statement",
	ExpectedCommaAfterField:      "expected ',' after field",
	DeclBetweenFields:            "declarations are not allowed between container fields",
	PreviousField:                "field before declarations here",
	NextField:                    "field after declarations here",
	ChainedComparisonOperators:   "comparison operators cannot be chained",
	InvalidAmpersandAmpersand:    "`&&` is invalid; use `and` for boolean AND",
	MismatchedBinaryOpWhitespace: "operator whitespace is inconsistent",
	WrongEqualVarDecl:            "variable initialized with '==' instead of '='",
	ExtraConstQualifier:          "duplicate const qualifier",
	ExtraAlignQualifier:          "duplicate align qualifier",
	ExtraAddrspaceQualifier:      "duplicate addrspace qualifier",
	ExtraAllowzeroQualifier:      "duplicate allowzero qualifier",
	ExtraVolatileQualifier:       "duplicate volatile qualifier",
	VarargsNonfinal:              "varargs may only be the last parameter",
	ExtraForCapture:              "extra capture in for loop",
	ForInputNotCaptured:          "for input is not captured",
	CStyleContainer:              "C-style container declaration is not supported",
	ZigStyleContainer:            "put the container's name after the parentheses",
	SameLineDocComment:           "same-line doc comment",
	TestDocComment:               "doc comment is not allowed on a test",
	ComptimeDocComment:           "doc comment is not allowed on a comptime block",
	UnattachedDocComment:         "unattached doc comment",
	PtrModOnArrayChildType:       "pointer modifier not allowed on array child type",
	InvalidBitRange:              "bit range requires an alignment",
	ExpectedLabelable:            "expected a labelable statement",
	ExpectedVarConst:             "expected 'var' or 'const'",
	ExpectedBlockOrAssignment:    "expected block or assignment",
	ExpectedBlockOrExpr:          "expected block or expression",
	ExpectedContainerMembers:     "expected container members",
	ExpectedStatement:            "expected a statement",
	ExpectedTypeExpr:             "expected type expression",
	ExpectedPrimaryTypeExpr:      "expected primary type expression",
	ExpectedPubItem:              "expected function, variable, or const after 'pub'",
	ExpectedParamList:            "expected parameter list",
	ExpectedSuffixOp:             "expected suffix operator",
	InvalidToken:                 "invalid token",
	ExternFnBody:                 "extern functions have no body",
}

// String renders a human-readable message for e, filling in the Expected
// tag where the template calls for it. Locating the line/column requires a
// Tree, since Error alone only carries a token index.
func (e Error) String() string {
	msg, ok := diagText[e.Tag]
	if !ok {
		return "unknown diagnostic"
	}
	if e.Tag == ExpectedToken {
		return fmt.Sprintf(msg, e.Expected)
	}
	return msg
}

// RenderTo writes "line:col: error: message" (or "note:" when IsNote) for e
// against t.
func (t *Tree) RenderTo(w interface{ Write([]byte) (int, error) }, e Error) {
	loc := t.TokenLocation(e.Token)
	kind := "error"
	if e.IsNote {
		kind = "note"
	}
	fmt.Fprintf(w, "%d:%d: %s: %s\n", loc.Line, loc.Column, kind, e.String())
}

// AddError appends a non-note diagnostic.
func (t *Tree) AddError(tag DiagTag, tok token.Index) {
	t.Errors = append(t.Errors, Error{Tag: tag, Token: tok})
}

// AddErrorExpected appends an ExpectedToken diagnostic.
func (t *Tree) AddErrorExpected(expected token.Tag, tok token.Index) {
	t.Errors = append(t.Errors, Error{Tag: ExpectedToken, Token: tok, Expected: expected})
}

// AddNote appends a note attached to the most recently reported error.
func (t *Tree) AddNote(tag DiagTag, tok token.Index) {
	t.Errors = append(t.Errors, Error{Tag: tag, Token: tok, IsNote: true})
}
