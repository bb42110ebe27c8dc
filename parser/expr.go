package parser

import (
	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

// expectExpr requires an expression at the cursor, raising parseError and
// reporting expected_expr if none is present.
func (p *Parser) expectExpr() ast.Index {
	idx, ok := p.parseExpr()
	if !ok {
		p.addErrorHere(ast.ExpectedExpr)
		panic(parseError{})
	}
	return idx
}

// expectTypeExpr requires a type expression: the prefix/suffix grammar
// without binary operators and without a trailing init list, so that a `{`
// after a function's return type (or a field's type) is left for the
// caller. An init list attaches to a type only in value position, through
// parsePrefixExpr's curly suffix.
func (p *Parser) expectTypeExpr() ast.Index {
	idx, ok := p.parsePrefixExpr(false)
	if !ok {
		p.addErrorHere(ast.ExpectedTypeExpr)
		panic(parseError{})
	}
	return idx
}

// parseExpr attempts an expression at the cursor without requiring one.
func (p *Parser) parseExpr() (ast.Index, bool) {
	return p.parseBinExpr(0)
}

// parseAssignExpr parses an expression optionally followed by a single
// assignment operator, the AssignExpr production loop bodies, switch prong
// bodies, and while-continue expressions all share.
func (p *Parser) parseAssignExpr() ast.Index {
	lhs := p.expectExpr()
	op, ok := assignOpTable[p.peek()]
	if !ok {
		return lhs
	}
	opTok := p.advanceToken()
	rhs := p.expectExpr()
	return p.addNode(ast.Node{Tag: op, MainToken: opTok, Data: ast.NodeData{LHS: lhs, RHS: rhs}})
}

// --- Precedence climbing ---

type assoc int

const (
	assocLeft assoc = iota
	assocNone
)

type binOp struct {
	tag   ast.Tag
	prec  int
	assoc assoc
}

var binOpTable = map[token.Tag]binOp{
	token.KeywordOr: {ast.BoolOr, 10, assocLeft},

	token.KeywordAnd: {ast.BoolAnd, 20, assocLeft},

	token.EqualEqual:           {ast.EqualEqual, 30, assocNone},
	token.ExclamationMarkEqual: {ast.BangEqual, 30, assocNone},
	token.LArrow:               {ast.LessThan, 30, assocNone},
	token.RArrow:               {ast.GreaterThan, 30, assocNone},
	token.LArrowEqual:          {ast.LessOrEqual, 30, assocNone},
	token.RArrowEqual:          {ast.GreaterOrEqual, 30, assocNone},

	token.Ampersand:     {ast.BitAnd, 40, assocLeft},
	token.Caret:         {ast.BitXor, 40, assocLeft},
	token.Pipe:          {ast.BitOr, 40, assocLeft},
	token.KeywordOrelse: {ast.Orelse, 40, assocLeft},
	token.KeywordCatch:  {ast.Catch, 40, assocLeft},

	token.LArrowLArrow:     {ast.Shl, 50, assocLeft},
	token.LArrowLArrowPipe: {ast.ShlSat, 50, assocLeft},
	token.RArrowRArrow:     {ast.Shr, 50, assocLeft},

	token.Plus:         {ast.Add, 60, assocLeft},
	token.Minus:        {ast.Sub, 60, assocLeft},
	token.PlusPlus:     {ast.ArrayCat, 60, assocLeft},
	token.PlusPercent:  {ast.AddWrap, 60, assocLeft},
	token.MinusPercent: {ast.SubWrap, 60, assocLeft},
	token.PlusPipe:     {ast.AddSat, 60, assocLeft},
	token.MinusPipe:    {ast.SubSat, 60, assocLeft},

	token.PipePipe:         {ast.MergeErrorSets, 70, assocLeft},
	token.Asterisk:         {ast.Mul, 70, assocLeft},
	token.Slash:            {ast.Div, 70, assocLeft},
	token.Percent:          {ast.Mod, 70, assocLeft},
	token.AsteriskAsterisk: {ast.ArrayMult, 70, assocLeft},
	token.AsteriskPercent:  {ast.MulWrap, 70, assocLeft},
	token.AsteriskPipe:     {ast.MulSat, 70, assocLeft},
}

// parseBinExpr is the precedence-climbing loop, folding in the
// operator-specific diagnostics (chained comparisons, mismatched operator
// whitespace, `&&` typo detection, `catch`'s optional payload) at the
// point each operator is consumed.
func (p *Parser) parseBinExpr(minPrec int) (ast.Index, bool) {
	lhs, ok := p.parsePrefixExpr(true)
	if !ok {
		return noNode, false
	}

	reportedChain := false
	for {
		op, ok := binOpTable[p.peek()]
		if !ok || op.prec < minPrec {
			break
		}
		opTok := p.tok

		if p.tree.MismatchedBinaryOpWhitespace(opTok) {
			p.addErrorHere(ast.MismatchedBinaryOpWhitespace)
		}
		if p.peek() == token.Ampersand && p.tree.AmpersandsAdjacent(opTok) {
			p.addErrorHere(ast.InvalidAmpersandAmpersand)
		}
		p.advanceToken()

		if op.tag == ast.Catch {
			if _, ok := p.eatToken(token.Pipe); ok {
				p.expectToken(token.Identifier)
				p.expectToken(token.Pipe)
			}
		}

		rhs, ok := p.parseBinExpr(op.prec + 1)
		if !ok {
			p.addErrorHere(ast.ExpectedExpr)
			panic(parseError{})
		}

		// With every operator climbing at prec+1, a second comparison at the
		// same level lands back here rather than in the recursion; none
		// associativity turns that into a single diagnostic per chain and
		// keeps folding so the caller still gets a usable tree.
		if op.assoc == assocNone && !reportedChain {
			if next, ok := binOpTable[p.peek()]; ok && next.prec == op.prec {
				p.addErrorHere(ast.ChainedComparisonOperators)
				reportedChain = true
			}
		}

		lhs = p.addNode(ast.Node{Tag: op.tag, MainToken: opTok, Data: ast.NodeData{LHS: lhs, RHS: rhs}})
	}
	return lhs, true
}

// --- Prefix operators and type-prefix chaining ---

// parsePrefixExpr parses a prefix-operated, suffixed operand. allowCurly
// distinguishes value position from type position: in value position a
// trailing `{...}` attaches as an init list (`Point{.x = 1}`, `[2]u8{1, 2}`),
// while in type position (a field's type, a function's return type, a
// pointer's child) the brace belongs to whatever follows. An infix `!` binds
// its operands into an error union in both positions.
func (p *Parser) parsePrefixExpr(allowCurly bool) (ast.Index, bool) {
	lhs, ok := p.parsePrefixInner(allowCurly)
	if !ok {
		return noNode, false
	}
	if p.peek() == token.ExclamationMark {
		bang := p.advanceToken()
		rhs := p.expectPrefixOperand(false)
		lhs = p.addNode(ast.Node{Tag: ast.ErrorUnion, MainToken: bang, Data: ast.NodeData{LHS: lhs, RHS: rhs}})
	}
	if allowCurly {
		if lbrace, ok := p.eatToken(token.LBrace); ok {
			lhs = p.parseInitList(lbrace, lhs)
		}
	}
	return lhs, true
}

// parsePrefixInner handles the unary operator set (`! - ~ -% & try`) plus
// the type-prefix forms (`?`, `anyframe->`, and the
// pointer/array/slice heads), each wrapping a recursively parsed prefix
// expression, before falling through to a suffixed primary expression.
func (p *Parser) parsePrefixInner(allowCurly bool) (ast.Index, bool) {
	switch p.peek() {
	case token.ExclamationMark:
		return p.wrapPrefix(ast.BoolNot, allowCurly)
	case token.Minus:
		return p.wrapPrefix(ast.Negation, allowCurly)
	case token.Tilde:
		return p.wrapPrefix(ast.BitNot, allowCurly)
	case token.MinusPercent:
		return p.wrapPrefix(ast.NegationWrap, allowCurly)
	case token.KeywordTry:
		return p.wrapPrefix(ast.Try, allowCurly)
	case token.QuestionMark:
		return p.wrapPrefix(ast.OptionalType, false)
	case token.Ampersand:
		tok := p.advanceToken()
		if p.tree.AmpersandsAdjacent(tok) {
			p.addErrorHere(ast.InvalidAmpersandAmpersand)
		}
		rhs := p.expectPrefixOperand(allowCurly)
		return p.addNode(ast.Node{Tag: ast.AddressOf, MainToken: tok, Data: ast.NodeData{LHS: rhs}}), true
	case token.KeywordAnyframe:
		if p.peekAhead(1) == token.MinusRArrow {
			tok := p.advanceToken()
			arrow := p.advanceToken()
			rhs := p.expectPrefixOperand(false)
			return p.addNode(ast.Node{Tag: ast.AnyframeType, MainToken: tok, Data: ast.NodeData{LHS: arrow, RHS: rhs}}), true
		}
	case token.Asterisk, token.AsteriskAsterisk:
		return p.parsePointerTypeHead()
	case token.LBracket:
		return p.parseBracketTypeHead()
	}
	return p.parseSuffixChain()
}

func (p *Parser) wrapPrefix(tag ast.Tag, allowCurly bool) (ast.Index, bool) {
	tok := p.advanceToken()
	rhs := p.expectPrefixOperand(allowCurly)
	return p.addNode(ast.Node{Tag: tag, MainToken: tok, Data: ast.NodeData{LHS: rhs}}), true
}

func (p *Parser) expectPrefixOperand(allowCurly bool) ast.Index {
	idx, ok := p.parsePrefixExpr(allowCurly)
	if !ok {
		p.addErrorHere(ast.ExpectedExpr)
		panic(parseError{})
	}
	return idx
}

// ptrModifiers collects the modifier suite (`align`, `addrspace`, `const`,
// `volatile`, `allowzero`) that may follow a pointer or array/slice head.
// Each duplicated modifier gets its own diagnostic.
type ptrModifiers struct {
	alignExpr    ast.OptionalIndex
	bitStart     ast.OptionalIndex
	bitEnd       ast.OptionalIndex
	addrSpace    ast.OptionalIndex
	hasConst     bool
	hasVolatile  bool
	hasAllowzero bool
}

func (m *ptrModifiers) any() bool {
	return m.alignExpr != noNode || m.addrSpace != noNode || m.hasConst || m.hasVolatile || m.hasAllowzero
}

func isPtrModifierToken(tag token.Tag) bool {
	switch tag {
	case token.KeywordAlign, token.KeywordAddrspace, token.KeywordConst,
		token.KeywordVolatile, token.KeywordAllowzero:
		return true
	}
	return false
}

func (p *Parser) parsePtrModifiers() ptrModifiers {
	var m ptrModifiers
	m.alignExpr, m.bitStart, m.bitEnd, m.addrSpace = noNode, noNode, noNode, noNode
	for {
		switch p.peek() {
		case token.KeywordAlign:
			if m.alignExpr != noNode {
				p.addErrorHere(ast.ExtraAlignQualifier)
			}
			p.advanceToken()
			p.expectToken(token.LParen)
			m.alignExpr = p.expectExpr()
			if _, ok := p.eatToken(token.Colon); ok {
				m.bitStart = p.expectExpr()
				p.expectToken(token.Colon)
				m.bitEnd = p.expectExpr()
			}
			p.expectToken(token.RParen)
			continue
		case token.KeywordAddrspace:
			if m.addrSpace != noNode {
				p.addErrorHere(ast.ExtraAddrspaceQualifier)
			}
			p.advanceToken()
			p.expectToken(token.LParen)
			m.addrSpace = p.expectExpr()
			p.expectToken(token.RParen)
			continue
		case token.KeywordConst:
			if m.hasConst {
				p.addErrorHere(ast.ExtraConstQualifier)
			}
			m.hasConst = true
			p.advanceToken()
			continue
		case token.KeywordVolatile:
			if m.hasVolatile {
				p.addErrorHere(ast.ExtraVolatileQualifier)
			}
			m.hasVolatile = true
			p.advanceToken()
			continue
		case token.KeywordAllowzero:
			if m.hasAllowzero {
				p.addErrorHere(ast.ExtraAllowzeroQualifier)
			}
			m.hasAllowzero = true
			p.advanceToken()
			continue
		}
		break
	}
	return m
}

// parsePointerTypeHead parses a bare `*` or `**` single-item pointer head.
// `**` is accepted as sugar for two nested single-item pointers collapsed
// into one node, a simplification over fully desugaring to two AST nodes.
func (p *Parser) parsePointerTypeHead() (ast.Index, bool) {
	tok := p.advanceToken()
	m := p.parsePtrModifiers()
	child := p.expectPrefixOperand(false)
	return p.addNode(p.makePtrNode(tok, noNode, m, child)), true
}

// parseBracketTypeHead parses the `[` … `]` family: many-pointer `[*]`,
// C-pointer `[*c]`, array `[n]`, array-with-sentinel `[n:s]`, slice `[]`,
// and slice-with-sentinel `[:s]`.
func (p *Parser) parseBracketTypeHead() (ast.Index, bool) {
	lbracket := p.advanceToken()

	if p.peek() == token.Asterisk {
		p.advanceToken()
		if p.peek() == token.Identifier { // `c` in `[*c]`, consumed as a plain marker
			p.advanceToken()
		}
		var sentinel ast.OptionalIndex = noNode
		if _, ok := p.eatToken(token.Colon); ok {
			sentinel = p.expectExpr()
		}
		p.expectToken(token.RBracket)
		m := p.parsePtrModifiers()
		child := p.expectPrefixOperand(false)
		return p.addNode(p.makePtrNode(lbracket, sentinel, m, child)), true
	}

	if p.peek() == token.RBracket {
		p.advanceToken()
		m := p.parsePtrModifiers()
		child := p.expectPrefixOperand(false)
		return p.addNode(p.makePtrNode(lbracket, noNode, m, child)), true
	}

	if _, ok := p.eatToken(token.Colon); ok {
		sentinel := p.expectExpr()
		p.expectToken(token.RBracket)
		m := p.parsePtrModifiers()
		child := p.expectPrefixOperand(false)
		return p.addNode(p.makePtrNode(lbracket, sentinel, m, child)), true
	}

	// Array form: a length expression, optionally followed by `:sentinel`.
	// Pointer modifiers belong on the pointer head, never on the array's
	// child type.
	length := p.expectExpr()
	if _, ok := p.eatToken(token.Colon); ok {
		sentinel := p.expectExpr()
		p.expectToken(token.RBracket)
		p.rejectArrayChildPtrModifiers()
		child := p.expectPrefixOperand(false)
		extra := ast.AddExtra(&p.tree, ast.ArrayTypeSentinelExtra{Sentinel: sentinel, ElemType: child})
		return p.addNode(ast.Node{Tag: ast.ArrayTypeSentinel, MainToken: lbracket, Data: ast.NodeData{LHS: length, RHS: extra}}), true
	}
	p.expectToken(token.RBracket)
	p.rejectArrayChildPtrModifiers()
	child := p.expectPrefixOperand(false)
	return p.addNode(ast.Node{Tag: ast.ArrayType, MainToken: lbracket, Data: ast.NodeData{LHS: length, RHS: child}}), true
}

// rejectArrayChildPtrModifiers diagnoses ptr_mod_on_array_child_type when a
// sized array's child type carries pointer modifiers, consuming them so the
// parse continues on the child type itself.
func (p *Parser) rejectArrayChildPtrModifiers() {
	if !isPtrModifierToken(p.peek()) {
		return
	}
	p.addErrorHere(ast.PtrModOnArrayChildType)
	p.parsePtrModifiers()
}

// makePtrNode picks the smallest pointer-type node shape that can hold m
// and sentinel.
func (p *Parser) makePtrNode(mainTok token.Index, sentinel ast.OptionalIndex, m ptrModifiers, child ast.Index) ast.Node {
	if m.bitStart != noNode {
		if m.alignExpr == noNode {
			p.addErrorHere(ast.InvalidBitRange)
		}
		extra := ast.AddExtra(&p.tree, ast.PtrTypeBitRangeExtra{
			Sentinel: sentinel, Align: m.alignExpr, AddrSpace: m.addrSpace,
			BitStart: m.bitStart, BitEnd: m.bitEnd,
		})
		return ast.Node{Tag: ast.PtrTypeBitRange, MainToken: mainTok, Data: ast.NodeData{LHS: child, RHS: extra}}
	}
	if sentinel == noNode && m.addrSpace == noNode {
		if m.alignExpr == noNode {
			return ast.Node{Tag: ast.PtrTypeAligned, MainToken: mainTok, Data: ast.NodeData{LHS: noNode, RHS: child}}
		}
		return ast.Node{Tag: ast.PtrTypeAligned, MainToken: mainTok, Data: ast.NodeData{LHS: m.alignExpr, RHS: child}}
	}
	if m.alignExpr == noNode && m.addrSpace == noNode {
		return ast.Node{Tag: ast.PtrTypeSentinel, MainToken: mainTok, Data: ast.NodeData{LHS: sentinel, RHS: child}}
	}
	extra := ast.AddExtra(&p.tree, ast.PtrTypeExtra{Sentinel: sentinel, Align: m.alignExpr, AddrSpace: m.addrSpace})
	return ast.Node{Tag: ast.PtrType, MainToken: mainTok, Data: ast.NodeData{LHS: child, RHS: extra}}
}

// --- Suffix chain ---

// parseSuffixChain parses a primary expression and then greedily applies
// suffix operators: field access, optional unwrap, deref, subscript,
// slice, and call.
func (p *Parser) parseSuffixChain() (ast.Index, bool) {
	lhs, ok := p.parsePrimaryExpr()
	if !ok {
		return noNode, false
	}
	for {
		switch p.peek() {
		case token.DotQuestionMark:
			tok := p.advanceToken()
			lhs = p.addNode(ast.Node{Tag: ast.UnwrapOptional, MainToken: tok, Data: ast.NodeData{LHS: lhs, RHS: tok}})
		case token.DotAsterisk:
			tok := p.advanceToken()
			lhs = p.addNode(ast.Node{Tag: ast.Deref, MainToken: tok, Data: ast.NodeData{LHS: lhs}})
		case token.DotAsteriskAsterisk:
			// ".**" is always a typo for a chained ".*.*"; keep parsing as a
			// single deref so the rest of the chain survives.
			tok := p.advanceToken()
			p.addErrorAt(ast.ExpectedSuffixOp, tok)
			lhs = p.addNode(ast.Node{Tag: ast.Deref, MainToken: tok, Data: ast.NodeData{LHS: lhs}})
		case token.Dot:
			if p.peekAhead(1) != token.Identifier {
				return lhs, true
			}
			dot := p.advanceToken()
			name := p.advanceToken()
			lhs = p.addNode(ast.Node{Tag: ast.FieldAccess, MainToken: dot, Data: ast.NodeData{LHS: lhs, RHS: name}})
		case token.LBracket:
			lbracket := p.advanceToken()
			idxExpr := p.expectExpr()
			if _, ok := p.eatToken(token.DotDot); ok {
				var end ast.OptionalIndex = noNode
				if p.peek() != token.RBracket && p.peek() != token.Colon {
					end = p.expectExpr()
				}
				var sentinel ast.OptionalIndex = noNode
				if _, ok := p.eatToken(token.Colon); ok {
					sentinel = p.expectExpr()
				}
				p.expectToken(token.RBracket)
				if sentinel != noNode {
					extra := ast.AddExtra(&p.tree, ast.SliceSentinelExtra{Start: idxExpr, End: end, Sentinel: sentinel})
					lhs = p.addNode(ast.Node{Tag: ast.SliceSentinel, MainToken: lbracket, Data: ast.NodeData{LHS: lhs, RHS: extra}})
				} else if end != noNode {
					extra := ast.AddExtra(&p.tree, ast.SliceExtra{Start: idxExpr, End: end})
					lhs = p.addNode(ast.Node{Tag: ast.Slice, MainToken: lbracket, Data: ast.NodeData{LHS: lhs, RHS: extra}})
				} else {
					lhs = p.addNode(ast.Node{Tag: ast.SliceOpen, MainToken: lbracket, Data: ast.NodeData{LHS: lhs, RHS: idxExpr}})
				}
				continue
			}
			p.expectToken(token.RBracket)
			lhs = p.addNode(ast.Node{Tag: ast.ArrayAccess, MainToken: lbracket, Data: ast.NodeData{LHS: lhs, RHS: idxExpr}})
		case token.LParen:
			lhs = p.parseCallSuffix(lhs)
		default:
			return lhs, true
		}
	}
}

func (p *Parser) parseCallSuffix(callee ast.Index) ast.Index {
	lparen := p.advanceToken()
	mark := p.scratchMark()
	trailing := false
	if p.peek() != token.RParen {
		for {
			p.scratchPush(p.expectExpr())
			if _, ok := p.eatToken(token.Comma); ok {
				trailing = true
				if p.peek() == token.RParen {
					break
				}
				trailing = false
				continue
			}
			break
		}
	}
	p.expectToken(token.RParen)
	args := p.scratchSince(mark)

	switch {
	case len(args) == 0:
		return p.addNode(ast.Node{Tag: ast.CallOne, MainToken: lparen, Data: ast.NodeData{LHS: callee, RHS: noNode}})
	case len(args) == 1 && !trailing:
		return p.addNode(ast.Node{Tag: ast.CallOne, MainToken: lparen, Data: ast.NodeData{LHS: callee, RHS: args[0]}})
	case len(args) == 1:
		return p.addNode(ast.Node{Tag: ast.CallOneComma, MainToken: lparen, Data: ast.NodeData{LHS: callee, RHS: args[0]}})
	default:
		rng := p.addExtraRange(args)
		extra := ast.AddExtra(&p.tree, rng)
		tag := ast.Call
		if trailing {
			tag = ast.CallComma
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: lparen, Data: ast.NodeData{LHS: callee, RHS: extra}})
	}
}

// --- Primary expressions ---

func (p *Parser) parsePrimaryExpr() (ast.Index, bool) {
	switch p.peek() {
	case token.NumberLiteral:
		return p.addNode(ast.Node{Tag: ast.NumberLiteral, MainToken: p.advanceToken()}), true
	case token.StringLiteral:
		return p.addNode(ast.Node{Tag: ast.StringLiteral, MainToken: p.advanceToken()}), true
	case token.CharLiteral:
		return p.addNode(ast.Node{Tag: ast.CharLiteral, MainToken: p.advanceToken()}), true
	case token.MultilineStringLiteralLine:
		start := p.advanceToken()
		end := start
		for p.peek() == token.MultilineStringLiteralLine {
			end = p.advanceToken()
		}
		return p.addNode(ast.Node{Tag: ast.MultilineStringLiteral, MainToken: start, Data: ast.NodeData{LHS: start, RHS: end}}), true
	case token.KeywordUnreachable:
		return p.addNode(ast.Node{Tag: ast.UnreachableLiteral, MainToken: p.advanceToken()}), true
	case token.Identifier:
		if p.peekAhead(1) == token.Colon {
			switch p.peekAhead(2) {
			case token.LBrace:
				label := p.advanceToken()
				p.advanceToken() // `:`
				return p.parseBlock(label), true
			case token.KeywordWhile:
				label := p.advanceToken()
				p.advanceToken()
				return p.parseWhileExpr(label, false), true
			case token.KeywordFor:
				label := p.advanceToken()
				p.advanceToken()
				return p.parseForExpr(label, false), true
			case token.KeywordSwitch:
				p.advanceToken()
				p.advanceToken()
				return p.parseSwitchExpr(), true
			}
		}
		return p.addNode(ast.Node{Tag: ast.Identifier, MainToken: p.advanceToken()}), true
	case token.KeywordAnyframe:
		return p.addNode(ast.Node{Tag: ast.AnyframeLiteral, MainToken: p.advanceToken()}), true
	case token.Builtin:
		return p.parseBuiltinCall(), true
	case token.LParen:
		lparen := p.advanceToken()
		inner := p.expectExpr()
		rparen := p.expectToken(token.RParen)
		return p.addNode(ast.Node{Tag: ast.GroupedExpression, MainToken: lparen, Data: ast.NodeData{LHS: inner, RHS: rparen}}), true
	case token.KeywordFn:
		return p.parseFnProto(), true
	case token.KeywordIf:
		return p.parseIfExpr(false), true
	case token.KeywordWhile:
		return p.parseWhileExpr(noNode, false), true
	case token.KeywordFor:
		return p.parseForExpr(noNode, false), true
	case token.KeywordSwitch:
		return p.parseSwitchExpr(), true
	case token.LBrace:
		return p.parseBlock(noNode), true
	case token.KeywordStruct, token.KeywordOpaque, token.KeywordEnum, token.KeywordUnion:
		return p.parseContainerDecl(), true
	case token.KeywordError:
		if p.peekAhead(1) == token.LBrace {
			return p.parseErrorSetDecl(), true
		}
		errTok := p.advanceToken()
		dot := p.expectToken(token.Dot)
		name := p.expectToken(token.Identifier)
		return p.addNode(ast.Node{Tag: ast.ErrorValue, MainToken: errTok, Data: ast.NodeData{LHS: dot, RHS: name}}), true
	case token.Dot:
		return p.parseDotInitializer(), true
	case token.KeywordAsm:
		return p.parseAsmExpr(), true
	case token.KeywordBreak:
		return p.parseBreak(), true
	case token.KeywordContinue:
		return p.parseContinue(), true
	case token.KeywordReturn:
		return p.parseReturn(), true
	case token.KeywordResume:
		tok := p.advanceToken()
		value := p.expectExpr()
		return p.addNode(ast.Node{Tag: ast.Resume, MainToken: tok, Data: ast.NodeData{LHS: value}}), true
	}
	return noNode, false
}

// parseBreakLabel parses an optional `:label` reference shared by break and
// continue, returning the label identifier token (or noNode).
func (p *Parser) parseBreakLabel() ast.OptionalIndex {
	if _, ok := p.eatToken(token.Colon); !ok {
		return noNode
	}
	return ast.Index(p.expectToken(token.Identifier))
}

// parseBreak parses `break (:label)? (expr)?`.
func (p *Parser) parseBreak() ast.Index {
	tok := p.advanceToken()
	label := p.parseBreakLabel()
	var value ast.OptionalIndex = noNode
	if canStartExpr(p.peek()) {
		value = p.expectExpr()
	}
	return p.addNode(ast.Node{Tag: ast.Break, MainToken: tok, Data: ast.NodeData{LHS: label, RHS: value}})
}

// parseContinue parses `continue (:label)?`.
func (p *Parser) parseContinue() ast.Index {
	tok := p.advanceToken()
	label := p.parseBreakLabel()
	return p.addNode(ast.Node{Tag: ast.Continue, MainToken: tok, Data: ast.NodeData{LHS: label}})
}

// parseReturn parses `return (expr)?`.
func (p *Parser) parseReturn() ast.Index {
	tok := p.advanceToken()
	var value ast.OptionalIndex = noNode
	if canStartExpr(p.peek()) {
		value = p.expectExpr()
	}
	return p.addNode(ast.Node{Tag: ast.Return, MainToken: tok, Data: ast.NodeData{LHS: value}})
}

// canStartExpr reports whether tag can begin an expression, used to decide
// whether break/return carry a value or are immediately terminated (by `;`,
// a closing delimiter, or a following `,`/`else`/`}`).
func canStartExpr(tag token.Tag) bool {
	switch tag {
	case token.Semicolon, token.RParen, token.RBrace, token.RBracket,
		token.Comma, token.Colon, token.Eof, token.KeywordElse:
		return false
	}
	return true
}

// parseBuiltinCall parses `@name(arg, arg, ...)`.
func (p *Parser) parseBuiltinCall() ast.Index {
	tok := p.advanceToken()
	p.expectToken(token.LParen)
	mark := p.scratchMark()
	trailing := false
	if p.peek() != token.RParen {
		for {
			p.scratchPush(p.expectExpr())
			if _, ok := p.eatToken(token.Comma); ok {
				trailing = true
				if p.peek() == token.RParen {
					break
				}
				trailing = false
				continue
			}
			break
		}
	}
	p.expectToken(token.RParen)
	args := p.scratchSince(mark)

	switch {
	case len(args) <= 2:
		var a, b ast.OptionalIndex = noNode, noNode
		if len(args) > 0 {
			a = args[0]
		}
		if len(args) > 1 {
			b = args[1]
		}
		tag := ast.BuiltinCallTwo
		if trailing {
			tag = ast.BuiltinCallTwoComma
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: tok, Data: ast.NodeData{LHS: a, RHS: b}})
	default:
		rng := p.addExtraRange(args)
		tag := ast.BuiltinCall
		if trailing {
			tag = ast.BuiltinCallComma
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: tok, Data: ast.NodeData{LHS: rng.Start, RHS: rng.End}})
	}
}

// parseDotInitializer parses `.{ ... }` (struct or array init, dot form) and
// `.identifier` enum literals.
func (p *Parser) parseDotInitializer() ast.Index {
	dot := p.tok
	if p.peekAhead(1) == token.Identifier {
		p.advanceToken()
		name := p.advanceToken()
		return p.addNode(ast.Node{Tag: ast.EnumLiteral, MainToken: name})
	}
	p.advanceToken() // `.`
	p.expectToken(token.LBrace)
	return p.parseInitList(dot, noNode)
}

// parseInitList parses the body of a `Type{ ... }` or `.{ ... }`
// initializer after the opening `{`, distinguishing array-init (positional
// expressions) from struct-init (`.name = expr` pairs) by the first token.
// Struct-field items contribute just their value expression node; the field
// name is recoverable as the token two before the value's first token.
func (p *Parser) parseInitList(mainTok token.Index, typeExpr ast.OptionalIndex) ast.Index {
	mark := p.scratchMark()
	trailing := false
	isStruct := p.peek() == token.Dot && p.peekAhead(1) == token.Identifier && p.peekAhead(2) == token.Equal

	if p.peek() != token.RBrace {
		for {
			if isStruct {
				p.expectToken(token.Dot)
				p.expectToken(token.Identifier)
				p.expectToken(token.Equal)
				p.scratchPush(p.expectExpr())
			} else {
				p.scratchPush(p.expectExpr())
			}
			if _, ok := p.eatToken(token.Comma); ok {
				trailing = true
				if p.peek() == token.RBrace {
					break
				}
				trailing = false
				continue
			}
			break
		}
	}
	p.expectToken(token.RBrace)
	items := p.scratchSince(mark)

	// The dot form packs up to two items inline; the typed form packs only
	// one (the type expression occupies the other word).
	if typeExpr == noNode {
		switch {
		case len(items) <= 2:
			var a, b ast.OptionalIndex = noNode, noNode
			if len(items) > 0 {
				a = items[0]
			}
			if len(items) > 1 {
				b = items[1]
			}
			tag := pickInitTag(isStruct, trailing, ast.StructInitDotTwo, ast.StructInitDotTwoComma, ast.ArrayInitDotTwo, ast.ArrayInitDotTwoComma)
			return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: a, RHS: b}})
		default:
			rng := p.addExtraRange(items)
			tag := pickInitTag(isStruct, trailing, ast.StructInitDot, ast.StructInitDotComma, ast.ArrayInitDot, ast.ArrayInitDotComma)
			return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: rng.Start, RHS: rng.End}})
		}
	}

	switch {
	case len(items) <= 1:
		var elem ast.OptionalIndex = noNode
		if len(items) == 1 {
			elem = items[0]
		}
		tag := pickInitTag(isStruct, trailing, ast.StructInitOne, ast.StructInitOneComma, ast.ArrayInitOne, ast.ArrayInitOneComma)
		return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: typeExpr, RHS: elem}})
	default:
		rng := p.addExtraRange(items)
		extra := ast.AddExtra(&p.tree, rng)
		tag := pickInitTag(isStruct, trailing, ast.StructInit, ast.StructInitComma, ast.ArrayInit, ast.ArrayInitComma)
		return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: typeExpr, RHS: extra}})
	}
}

func pickInitTag(isStruct, trailing bool, s, sc, a, ac ast.Tag) ast.Tag {
	if isStruct {
		if trailing {
			return sc
		}
		return s
	}
	if trailing {
		return ac
	}
	return a
}

// parseErrorSetDecl parses `error { Ident, Ident, ... }`.
func (p *Parser) parseErrorSetDecl() ast.Index {
	errTok := p.advanceToken()
	p.expectToken(token.LBrace)
	first := p.tok
	for p.peek() != token.RBrace && p.peek() != token.Eof {
		p.eatDocComments()
		p.expectToken(token.Identifier)
		if _, ok := p.eatToken(token.Comma); !ok {
			break
		}
	}
	last := p.tok
	p.expectToken(token.RBrace)
	return p.addNode(ast.Node{Tag: ast.ErrorSetDecl, MainToken: errTok, Data: ast.NodeData{LHS: first, RHS: last}})
}
