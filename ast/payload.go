package ast

import "j5.nz/zparse/token"

// DataKind names one interpretation of a Node's 2×u32 Data payload. Every
// Tag maps to exactly one DataKind for the program's lifetime; NodeDataKind
// is the single source of truth callers (including tests) use to assert
// the mapping stays exhaustive.
type DataKind uint8

const (
	// KindNone: both words unused (e.g. UnreachableLiteral, Identifier —
	// their value lives entirely in MainToken).
	KindNone DataKind = iota
	// KindOptNodeAndOptNode: LHS, RHS are each an optional Index.
	KindOptNodeAndOptNode
	// KindNodeAndOptNode: LHS is a required Index, RHS optional.
	KindNodeAndOptNode
	// KindNodeAndNode: LHS and RHS are both required Index values.
	KindNodeAndNode
	// KindNodeAndToken: LHS an Index, RHS a token.Index.
	KindNodeAndToken
	// KindTokenAndNode: LHS a token.Index (possibly the null sentinel where
	// the grammar makes it optional), RHS an Index.
	KindTokenAndNode
	// KindTokenAndToken: LHS, RHS are both token.Index.
	KindTokenAndToken
	// KindNodeAndExtra: LHS an Index, RHS an index into Extra of a
	// tag-specific packed struct.
	KindNodeAndExtra
	// KindExtraRange: LHS, RHS are the (start, end) bounds of a SubRange
	// of Index values in Extra.
	KindExtraRange
	// KindNode: only LHS is used, a single required Index.
	KindNode
	// KindToken: only LHS is used, a single token.Index.
	KindToken
	// KindExtra: only LHS is used, an index into Extra of a packed struct.
	KindExtra
	// KindForPayload: LHS is the start index of the for-loop's packed
	// inputs in Extra; RHS packs {inputs: 31 bits, has_else: 1 bit}.
	KindForPayload
)

// nodeDataKind is the tag→payload table: the one place each tag's Data
// interpretation is written down, asserted total and stable by tests and
// available to generic consumers through NodeDataKind.
var nodeDataKind = map[Tag]DataKind{
	Root: KindExtraRange,

	TestDecl:      KindTokenAndNode, // LHS the optional name token, RHS the body block
	GlobalVarDecl: KindExtra,
	LocalVarDecl:  KindExtra,
	SimpleVarDecl: KindOptNodeAndOptNode,
	AlignedVarDecl: KindNodeAndOptNode,
	FnProto:        KindExtra,
	FnProtoSimple:  KindOptNodeAndOptNode,
	FnProtoMulti:   KindNodeAndExtra,
	FnProtoOne:     KindExtra,
	FnDecl:         KindNodeAndNode,
	ContainerField:      KindNode, // bare "name: Type" field; no align, no value
	ContainerFieldInit:  KindNodeAndOptNode,
	ContainerFieldAlign: KindNodeAndExtra,
	UsingNamespace:      KindNode,

	// Block covers 3-or-more statements (an ExtraRange); BlockTwo covers
	// 0, 1, or 2 (packed inline). BlockSemicolon/BlockTwoSemicolon are the
	// alternate shapes real Zig reserves for a trailing bare-expression
	// statement that needed a semicolon recorded for round-tripping; since
	// this package never pretty-prints, the parser never emits them, but
	// the tags and their payload kinds stay documented here.
	Block:             KindExtraRange,
	BlockTwo:          KindOptNodeAndOptNode,
	BlockSemicolon:    KindExtraRange,
	BlockTwoSemicolon: KindOptNodeAndOptNode,

	Errdefer:  KindTokenAndNode, // LHS the optional |payload| token, RHS the body
	Defer:     KindNode,
	Comptime:  KindNode,
	Nosuspend: KindNode,
	Suspend:   KindNode,
	Break:     KindTokenAndNode, // LHS the optional label token, RHS the optional value
	Continue:  KindToken,       // LHS the optional label token
	Return:    KindOptNodeAndOptNode,
	Resume:    KindNode,

	IfSimple:   KindNodeAndNode,
	If:         KindNodeAndExtra,
	ForSimple:  KindNodeAndNode,
	For:        KindForPayload,
	ForRange:   KindNodeAndOptNode,
	WhileSimple: KindNodeAndNode,
	WhileCont:   KindNodeAndExtra,
	While:       KindNodeAndExtra,

	Switch:              KindNodeAndExtra,
	SwitchComma:         KindNodeAndExtra,
	SwitchCaseOne:       KindNodeAndOptNode,
	SwitchCaseOneInline: KindNodeAndOptNode,
	SwitchCase:          KindExtra,
	SwitchCaseInline:    KindExtra,
	SwitchRange:         KindNodeAndNode,

	Asm:       KindExtra,
	AsmSimple: KindNodeAndToken,
	AsmOutput: KindNodeAndToken, // LHS the optional `->` type, RHS the rparen token
	AsmInput:  KindNodeAndToken, // LHS the input expression, RHS the rparen token

	Assign: KindNodeAndNode, AssignDestructure: KindNodeAndExtra,
	AssignMul: KindNodeAndNode, AssignDiv: KindNodeAndNode, AssignMod: KindNodeAndNode,
	AssignAdd: KindNodeAndNode, AssignSub: KindNodeAndNode,
	AssignShl: KindNodeAndNode, AssignShlSat: KindNodeAndNode, AssignShr: KindNodeAndNode,
	AssignBitAnd: KindNodeAndNode, AssignBitXor: KindNodeAndNode, AssignBitOr: KindNodeAndNode,
	AssignMulWrap: KindNodeAndNode, AssignAddWrap: KindNodeAndNode, AssignSubWrap: KindNodeAndNode,
	AssignMulSat: KindNodeAndNode, AssignAddSat: KindNodeAndNode, AssignSubSat: KindNodeAndNode,

	BoolOr: KindNodeAndNode, BoolAnd: KindNodeAndNode,
	EqualEqual: KindNodeAndNode, BangEqual: KindNodeAndNode,
	LessThan: KindNodeAndNode, GreaterThan: KindNodeAndNode,
	LessOrEqual: KindNodeAndNode, GreaterOrEqual: KindNodeAndNode,
	BitAnd: KindNodeAndNode, BitOr: KindNodeAndNode, BitXor: KindNodeAndNode,
	MergeErrorSets: KindNodeAndNode,
	Orelse:         KindNodeAndNode, Catch: KindNodeAndNode,
	Shl: KindNodeAndNode, ShlSat: KindNodeAndNode, Shr: KindNodeAndNode,
	Add: KindNodeAndNode, AddWrap: KindNodeAndNode, AddSat: KindNodeAndNode,
	Sub: KindNodeAndNode, SubWrap: KindNodeAndNode, SubSat: KindNodeAndNode,
	ArrayCat: KindNodeAndNode,
	Mul:      KindNodeAndNode, Div: KindNodeAndNode, Mod: KindNodeAndNode,
	MulWrap: KindNodeAndNode, MulSat: KindNodeAndNode, ArrayMult: KindNodeAndNode,

	BoolNot: KindNode, Negation: KindNode, NegationWrap: KindNode,
	BitNot: KindNode, AddressOf: KindNode, Try: KindNode,
	OptionalType: KindNode, AnyframeType: KindTokenAndNode,

	PtrTypeAligned:  KindOptNodeAndOptNode, // LHS the optional align expr, RHS the child type
	PtrTypeSentinel: KindNodeAndOptNode,
	PtrType:         KindNodeAndExtra,
	PtrTypeBitRange: KindExtra,
	ArrayType:       KindNodeAndNode,
	ArrayTypeSentinel: KindExtra,
	SliceOpen:       KindNodeAndNode,
	Slice:           KindNodeAndExtra,
	SliceSentinel:   KindNodeAndExtra,

	Deref: KindNode, FieldAccess: KindNodeAndToken, UnwrapOptional: KindNodeAndToken,
	ArrayAccess: KindNodeAndNode,
	CallOne:     KindNodeAndOptNode, CallOneComma: KindNodeAndOptNode,
	Call: KindNodeAndExtra, CallComma: KindNodeAndExtra,

	BuiltinCallTwo: KindOptNodeAndOptNode, BuiltinCallTwoComma: KindOptNodeAndOptNode,
	BuiltinCall: KindExtraRange, BuiltinCallComma: KindExtraRange,

	StructInitOne: KindNodeAndOptNode, StructInitOneComma: KindNodeAndOptNode,
	StructInit: KindNodeAndExtra, StructInitComma: KindNodeAndExtra,
	StructInitDotTwo: KindOptNodeAndOptNode, StructInitDotTwoComma: KindOptNodeAndOptNode,
	StructInitDot: KindExtraRange, StructInitDotComma: KindExtraRange,
	ArrayInitOne: KindNodeAndOptNode, ArrayInitOneComma: KindNodeAndOptNode,
	ArrayInit: KindNodeAndExtra, ArrayInitComma: KindNodeAndExtra,
	ArrayInitDotTwo: KindOptNodeAndOptNode, ArrayInitDotTwoComma: KindOptNodeAndOptNode,
	ArrayInitDot: KindExtraRange, ArrayInitDotComma: KindExtraRange,

	ErrorUnion: KindNodeAndNode, ErrorSetDecl: KindTokenAndToken, ErrorValue: KindTokenAndToken,

	GroupedExpression: KindNodeAndToken,
	StringLiteral:      KindNone,
	MultilineStringLiteral: KindTokenAndToken,
	NumberLiteral: KindNone, CharLiteral: KindNone, UnreachableLiteral: KindNone,
	Identifier: KindNone, EnumLiteral: KindNone, AnyframeLiteral: KindNone,

	ContainerDeclTwo: KindOptNodeAndOptNode, ContainerDeclTwoTrailing: KindOptNodeAndOptNode,
	ContainerDecl: KindExtraRange, ContainerDeclTrailing: KindExtraRange,
	ContainerDeclArg: KindNodeAndExtra, ContainerDeclArgTrailing: KindNodeAndExtra,
	TaggedUnionTwo: KindOptNodeAndOptNode, TaggedUnionTwoTrailing: KindOptNodeAndOptNode,
	TaggedUnion: KindExtraRange, TaggedUnionTrailing: KindExtraRange,
	TaggedUnionEnumTag: KindNodeAndExtra, TaggedUnionEnumTagTrailing: KindNodeAndExtra,
}

// NodeDataKind returns the payload interpretation for tag, so generic tools
// (formatters, visitors, tests) can assert the tag→layout table is
// exhaustive without duplicating it.
func NodeDataKind(tag Tag) DataKind {
	kind, ok := nodeDataKind[tag]
	if !ok {
		panic("ast: tag has no registered payload kind")
	}
	return kind
}

// --- Packed extra-arena structs ---

// SubRange is a (start, end) pair of Index values in Tree.Extra.
type SubRange struct{ Start, End uint32 }

// IfExtra is the packed payload for Tag If: then/else branches of a full if.
type IfExtra struct{ Then, Else uint32 }

// WhileExtra is the packed payload for Tag While.
type WhileExtra struct {
	Cont uint32 // optional
	Then uint32
	Else uint32 // optional
}

// WhileContExtra is the packed payload for Tag WhileCont.
type WhileContExtra struct{ Cont, Then uint32 }

// FnProtoOneExtra is the packed payload for Tag FnProtoOne (zero-or-one
// param, at least one modifier present).
type FnProtoOneExtra struct {
	Param      uint32 // optional
	AlignExpr  uint32 // optional
	AddrSpace  uint32 // optional
	Section    uint32 // optional
	CallConv   uint32 // optional
	ReturnType uint32
}

// FnProtoExtra is the packed payload for Tag FnProto (many params, at least
// one modifier present).
type FnProtoExtra struct {
	ParamsStart uint32
	ParamsEnd   uint32
	Align       uint32 // optional
	AddrSpace   uint32 // optional
	Section     uint32 // optional
	CallConv    uint32 // optional
	ReturnType  uint32
}

// GlobalVarDeclExtra is the packed payload for Tag GlobalVarDecl. Init
// holds the optional initializer expression, since GlobalVarDecl's Data is
// KindExtra (a single word, so nowhere else to put it).
type GlobalVarDeclExtra struct {
	Type      uint32 // optional
	Align     uint32 // optional
	AddrSpace uint32 // optional
	Section   uint32 // optional
	Init      uint32 // optional
}

// LocalVarDeclExtra is the packed payload for Tag LocalVarDecl. Init is the
// optional initializer, for the same reason as GlobalVarDeclExtra.Init.
type LocalVarDeclExtra struct{ Type, Align, Init uint32 }

// PtrTypeExtra is the packed payload for Tag PtrType.
type PtrTypeExtra struct {
	Sentinel  uint32 // optional
	Align     uint32 // optional
	AddrSpace uint32 // optional
}

// PtrTypeBitRangeExtra is the packed payload for Tag PtrTypeBitRange.
type PtrTypeBitRangeExtra struct {
	Sentinel uint32 // optional
	Align    uint32
	AddrSpace uint32 // optional
	BitStart uint32
	BitEnd   uint32
}

// SliceExtra is the packed payload for Tag Slice.
type SliceExtra struct{ Start, End uint32 }

// SliceSentinelExtra is the packed payload for Tag SliceSentinel.
type SliceSentinelExtra struct {
	Start    uint32
	End      uint32 // optional
	Sentinel uint32
}

// ArrayTypeSentinelExtra is the packed payload for Tag ArrayTypeSentinel.
type ArrayTypeSentinelExtra struct{ Sentinel, ElemType uint32 }

// ContainerFieldExtra is the packed payload for Tag ContainerFieldAlign.
type ContainerFieldExtra struct{ AlignExpr, ValueExpr uint32 }

// AsmExtra is the packed payload for Tag Asm.
type AsmExtra struct {
	Template   uint32
	ItemsStart uint32
	ItemsEnd   uint32
	RParen     token.Index
}

// DestructureLhsExtra describes an assign_destructure: Extra[idx] holds
// Count followed by Count Index values naming the destructured LHS nodes.
type DestructureLhsExtra struct {
	Count uint32
}

// SwitchCaseExtra is the packed payload for Tags SwitchCase/SwitchCaseInline
// (a prong with more than one item; an else prong always uses
// SwitchCaseOne/SwitchCaseOneInline).
type SwitchCaseExtra struct {
	ItemsStart uint32
	ItemsEnd   uint32
	Body       uint32
}

// PackForPayload combines a for-loop's input count and else-presence into
// a single RHS word: {inputs: u31, has_else: u1}.
func PackForPayload(inputs uint32, hasElse bool) uint32 {
	v := inputs << 1
	if hasElse {
		v |= 1
	}
	return v
}

// UnpackForPayload reverses PackForPayload.
func UnpackForPayload(v uint32) (inputs uint32, hasElse bool) {
	return v >> 1, v&1 != 0
}
