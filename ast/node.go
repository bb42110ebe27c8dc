// Package ast defines the compact, index-based abstract syntax tree package
// parser builds: a flat Node array, an auxiliary Extra arena, and a
// diagnostics list. Nothing in this package walks or interprets source
// text; Tree is a read-only value once a parse returns.
package ast

import "j5.nz/zparse/token"

// Index identifies a Node within a Tree's Nodes slice. Index(0) is always
// the root node but is also reused as the "no node" sentinel for optional
// fields: no well-formed optional ever needs to reference the root itself,
// since nothing in the grammar treats the whole file as a sub-expression.
type Index = uint32

// nullNode is the reserved "no node" sentinel every optional Index field
// uses. It is spelled out as its own name, instead of bare 0, everywhere a
// field is actually optional, so a reader can tell an omitted child from
// node 0.
const nullNode Index = 0

// OptionalIndex is an Index that may be "none", for payload fields the
// producing grammar rule is allowed to omit.
type OptionalIndex = Index

// IsNone reports whether idx denotes "no node".
func IsNone(idx OptionalIndex) bool { return idx == nullNode }

// Tag discriminates a Node's grammar production and, with it, the
// interpretation of its Data payload. The full tag→payload table lives in
// payload.go as nodeDataKind; every tag added here must get an entry there.
type Tag uint8

const (
	// Root is reserved for node 0: Data is an ExtraRange of the top-level
	// member/decl list.
	Root Tag = iota

	// Declarations
	TestDecl
	GlobalVarDecl
	LocalVarDecl
	SimpleVarDecl
	AlignedVarDecl
	FnProto
	FnProtoSimple
	FnProtoMulti
	FnProtoOne
	FnDecl
	ContainerField
	ContainerFieldInit
	ContainerFieldAlign
	UsingNamespace

	// Blocks
	Block
	BlockTwo
	BlockSemicolon
	BlockTwoSemicolon

	// Control flow statements/expressions
	Errdefer
	Defer
	Comptime
	Nosuspend
	Suspend
	Break
	Continue
	Return
	Resume

	IfSimple
	If
	ForSimple
	For
	ForRange
	WhileSimple
	WhileCont
	While

	Switch
	SwitchComma
	SwitchCaseOne
	SwitchCaseOneInline
	SwitchCase
	SwitchCaseInline
	SwitchRange

	Asm
	AsmSimple
	AsmOutput
	AsmInput

	// Assignment operators
	Assign
	AssignDestructure
	AssignMul
	AssignDiv
	AssignMod
	AssignAdd
	AssignSub
	AssignShl
	AssignShlSat
	AssignShr
	AssignBitAnd
	AssignBitXor
	AssignBitOr
	AssignMulWrap
	AssignAddWrap
	AssignSubWrap
	AssignMulSat
	AssignAddSat
	AssignSubSat

	// Binary operators
	BoolOr
	BoolAnd
	EqualEqual
	BangEqual
	LessThan
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	BitAnd
	BitOr
	BitXor
	MergeErrorSets
	Orelse
	Catch
	Shl
	ShlSat
	Shr
	Add
	AddWrap
	AddSat
	Sub
	SubWrap
	SubSat
	ArrayCat
	Mul
	Div
	Mod
	MulWrap
	MulSat
	ArrayMult

	// Prefix operators
	BoolNot
	Negation
	NegationWrap
	BitNot
	AddressOf
	Try
	OptionalType
	AnyframeType

	// Pointer / array / slice type syntax
	PtrTypeAligned
	PtrTypeSentinel
	PtrType
	PtrTypeBitRange
	ArrayType
	ArrayTypeSentinel
	SliceOpen
	Slice
	SliceSentinel

	// Suffix operators
	Deref
	FieldAccess
	UnwrapOptional
	ArrayAccess
	CallOne
	CallOneComma
	Call
	CallComma

	// Builtin calls
	BuiltinCallTwo
	BuiltinCallTwoComma
	BuiltinCall
	BuiltinCallComma

	// Aggregate initializers
	StructInitOne
	StructInitOneComma
	StructInit
	StructInitComma
	StructInitDotTwo
	StructInitDotTwoComma
	StructInitDot
	StructInitDotComma
	ArrayInitOne
	ArrayInitOneComma
	ArrayInit
	ArrayInitComma
	ArrayInitDotTwo
	ArrayInitDotTwoComma
	ArrayInitDot
	ArrayInitDotComma

	// Errors
	ErrorUnion
	ErrorSetDecl
	ErrorValue

	// Literals and leaves
	GroupedExpression
	StringLiteral
	MultilineStringLiteral
	NumberLiteral
	CharLiteral
	UnreachableLiteral
	Identifier
	EnumLiteral
	AnyframeLiteral

	// Containers
	ContainerDeclTwo
	ContainerDeclTwoTrailing
	ContainerDecl
	ContainerDeclTrailing
	ContainerDeclArg
	ContainerDeclArgTrailing
	TaggedUnionTwo
	TaggedUnionTwoTrailing
	TaggedUnion
	TaggedUnionTrailing
	TaggedUnionEnumTag
	TaggedUnionEnumTagTrailing
)

// NodeData is the 2×u32 payload every Node carries. Its interpretation is a
// function of Node.Tag alone (see payload.go): a closed sum type keyed by
// the tag, kept as a flat pair instead of an interface or tagged struct
// because the tag already makes the discriminant free and the flat pair
// keeps the node array cache-friendly.
type NodeData struct {
	LHS uint32
	RHS uint32
}

// Node is a single AST record: tag, anchor token, and payload.
type Node struct {
	Tag       Tag
	MainToken token.Index
	Data      NodeData
}
