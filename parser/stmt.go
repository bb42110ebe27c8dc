package parser

import (
	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

// parseBlock parses `{ stmt* }`, the opening brace not yet consumed. label,
// when not noNode, is the label token index a caller already parsed and
// consumed the trailing `:` for; it is not stored in the node, since it is
// always recoverable as MainToken minus two.
func (p *Parser) parseBlock(label ast.OptionalIndex) ast.Index {
	_ = label
	lbrace := p.expectToken(token.LBrace)
	mark := p.scratchMark()
	for p.peek() != token.RBrace && p.peek() != token.Eof {
		idx, ok := p.recoveringStmt()
		if ok {
			p.scratchPush(idx)
		}
	}
	p.expectToken(token.RBrace)
	stmts := p.scratchSince(mark)

	switch {
	case len(stmts) <= 2:
		var a, b ast.OptionalIndex = noNode, noNode
		if len(stmts) > 0 {
			a = stmts[0]
		}
		if len(stmts) > 1 {
			b = stmts[1]
		}
		return p.addNode(ast.Node{Tag: ast.BlockTwo, MainToken: lbrace, Data: ast.NodeData{LHS: a, RHS: b}})
	default:
		rng := p.addExtraRange(stmts)
		return p.addNode(ast.Node{Tag: ast.Block, MainToken: lbrace, Data: ast.NodeData{LHS: rng.Start, RHS: rng.End}})
	}
}

// expectBlock requires a `{`-led block at the cursor.
func (p *Parser) expectBlock() ast.Index {
	if p.peek() != token.LBrace {
		p.addErrorHere(ast.ExpectedBlockOrExpr)
		panic(parseError{})
	}
	return p.parseBlock(noNode)
}

// parseBlockOrAssign parses a defer/errdefer/suspend/nosuspend body (if and
// loop bodies go through parseBody): either a block, or a single-assignment
// expression that must be terminated by `;`.
func (p *Parser) parseBlockOrAssign() ast.Index {
	if p.peek() == token.LBrace {
		return p.parseBlock(noNode)
	}
	e := p.parseAssignExpr()
	p.expectSemicolon(true)
	return e
}

// parseBody parses an if/loop branch body: a block, or a bare expression.
// In statement context the expression form is a single-assignment expression
// and the caller owes a trailing semicolon (reported by finishCtrlFlow); in
// value position it is a plain expression and the enclosing statement's own
// terminator follows the whole construct. The second result reports whether
// the body was a block.
func (p *Parser) parseBody(stmtCtx bool) (ast.Index, bool) {
	if p.peek() == token.LBrace {
		return p.parseBlock(noNode), true
	}
	if stmtCtx {
		// `else if (...)` and friends chain as statements: the nested
		// construct terminates itself, so the outer one owes no semicolon.
		switch p.peek() {
		case token.KeywordIf:
			return p.parseIfExpr(true), true
		case token.KeywordWhile:
			return p.parseWhileExpr(noNode, true), true
		case token.KeywordFor:
			return p.parseForExpr(noNode, true), true
		case token.KeywordSwitch:
			return p.parseSwitchExpr(), true
		}
		return p.parseAssignExpr(), false
	}
	return p.expectExpr(), false
}

// finishCtrlFlow closes out an if/while/for used as a statement: when the
// construct's final body was a bare expression rather than a block, the
// statement still needs its `;`.
func (p *Parser) finishCtrlFlow(stmtCtx, lastBodyWasBlock bool) {
	if stmtCtx && !lastBodyWasBlock {
		p.expectSemicolon(true)
	}
}

// recoveringStmt runs parseStatement with findNextStmt as the recovery
// scanner.
func (p *Parser) recoveringStmt() (ast.Index, bool) {
	var idx ast.Index
	ok := p.withRecovery(p.findNextStmt, func() {
		idx = p.parseStatement()
	})
	return idx, ok
}

// parseStatement dispatches on the statement's head token.
func (p *Parser) parseStatement() ast.Index {
	switch p.peek() {
	case token.KeywordComptime:
		tok := p.advanceToken()
		if p.peek() == token.LBrace {
			body := p.parseBlock(noNode)
			return p.addNode(ast.Node{Tag: ast.Comptime, MainToken: tok, Data: ast.NodeData{LHS: body}})
		}
		inner := p.expectVarDeclExprStatement()
		return p.addNode(ast.Node{Tag: ast.Comptime, MainToken: tok, Data: ast.NodeData{LHS: inner}})

	case token.KeywordNosuspend:
		tok := p.advanceToken()
		body := p.parseBlockOrAssign()
		return p.addNode(ast.Node{Tag: ast.Nosuspend, MainToken: tok, Data: ast.NodeData{LHS: body}})

	case token.KeywordSuspend:
		tok := p.advanceToken()
		body := p.parseBlockOrAssign()
		return p.addNode(ast.Node{Tag: ast.Suspend, MainToken: tok, Data: ast.NodeData{LHS: body}})

	case token.KeywordDefer:
		tok := p.advanceToken()
		body := p.parseBlockOrAssign()
		return p.addNode(ast.Node{Tag: ast.Defer, MainToken: tok, Data: ast.NodeData{LHS: body}})

	case token.KeywordErrdefer:
		tok := p.advanceToken()
		var payloadTok ast.OptionalIndex = noNode
		if _, ok := p.eatToken(token.Pipe); ok {
			payloadTok = ast.Index(p.expectToken(token.Identifier))
			p.expectToken(token.Pipe)
		}
		body := p.parseBlockOrAssign()
		return p.addNode(ast.Node{Tag: ast.Errdefer, MainToken: tok, Data: ast.NodeData{LHS: payloadTok, RHS: body}})

	case token.KeywordIf:
		return p.parseIfExpr(true)

	case token.KeywordWhile:
		return p.parseWhileExpr(noNode, true)

	case token.KeywordFor:
		return p.parseForExpr(noNode, true)

	case token.KeywordSwitch:
		return p.parseSwitchExpr()

	case token.Identifier:
		if p.peekAhead(1) == token.Colon {
			return p.parseLabeledStatement()
		}
	}
	return p.expectVarDeclExprStatement()
}

// parseLabeledStatement handles `ident: <loop|block|switch>`. A label
// followed by a non-labelable construct is diagnosed
// expected_labelable — unless the tokens after the "label" read as a C-style
// variable declaration (`x: i32 = 5;`), which gets expected_var_const at the
// would-be name instead.
func (p *Parser) parseLabeledStatement() ast.Index {
	labelTok := p.advanceToken()
	p.advanceToken() // `:`

	switch p.peek() {
	case token.LBrace:
		return p.parseBlock(labelTok)
	case token.KeywordWhile:
		return p.parseWhileExpr(labelTok, true)
	case token.KeywordFor:
		return p.parseForExpr(labelTok, true)
	case token.KeywordSwitch:
		return p.parseSwitchExpr()
	default:
		if p.looksLikeVarDeclAfterLabel() {
			p.addErrorAt(ast.ExpectedVarConst, labelTok)
			panic(parseError{})
		}
		p.addErrorAt(ast.ExpectedLabelable, labelTok)
		return p.expectVarDeclExprStatement()
	}
}

// looksLikeVarDeclAfterLabel scans ahead (without consuming) for an `=`,
// `align`, `addrspace`, or `linksection` at bracket depth zero before the
// statement ends, the signature of a C-style `name: Type = value;` var decl
// masquerading as a labeled statement.
func (p *Parser) looksLikeVarDeclAfterLabel() bool {
	depth := 0
	for i := 0; ; i++ {
		switch p.peekAhead(i) {
		case token.Equal, token.KeywordAlign, token.KeywordAddrspace, token.KeywordLinksection:
			if depth == 0 {
				return true
			}
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			depth--
		case token.Semicolon, token.LBrace, token.RBrace:
			if depth <= 0 {
				return false
			}
		case token.Eof:
			return false
		}
	}
}

// --- Control flow ---

func (p *Parser) parseIfExpr(stmtCtx bool) ast.Index {
	ifTok := p.advanceToken()
	p.expectToken(token.LParen)
	cond := p.expectExpr()
	p.expectToken(token.RParen)

	if _, ok := p.eatToken(token.Pipe); ok {
		p.eatToken(token.Asterisk)
		p.expectToken(token.Identifier)
		p.expectToken(token.Pipe)
	}
	then, lastBlock := p.parseBody(stmtCtx)

	var elseBody ast.OptionalIndex = noNode
	hasElse := false
	if _, ok := p.eatToken(token.KeywordElse); ok {
		hasElse = true
		if _, ok := p.eatToken(token.Pipe); ok {
			p.expectToken(token.Identifier)
			p.expectToken(token.Pipe)
		}
		elseBody, lastBlock = p.parseBody(stmtCtx)
	}
	p.finishCtrlFlow(stmtCtx, lastBlock)

	if !hasElse {
		return p.addNode(ast.Node{Tag: ast.IfSimple, MainToken: ifTok, Data: ast.NodeData{LHS: cond, RHS: then}})
	}
	extra := ast.AddExtra(&p.tree, ast.IfExtra{Then: then, Else: elseBody})
	return p.addNode(ast.Node{Tag: ast.If, MainToken: ifTok, Data: ast.NodeData{LHS: cond, RHS: extra}})
}

func (p *Parser) parseWhileExpr(label ast.OptionalIndex, stmtCtx bool) ast.Index {
	_ = label
	whileTok := p.advanceToken()
	p.expectToken(token.LParen)
	cond := p.expectExpr()
	p.expectToken(token.RParen)

	if _, ok := p.eatToken(token.Pipe); ok {
		p.eatToken(token.Asterisk)
		p.expectToken(token.Identifier)
		p.expectToken(token.Pipe)
	}

	var contExpr ast.OptionalIndex = noNode
	if _, ok := p.eatToken(token.Colon); ok {
		p.expectToken(token.LParen)
		contExpr = p.parseAssignExpr()
		p.expectToken(token.RParen)
	}

	then, lastBlock := p.parseBody(stmtCtx)

	var elseBody ast.OptionalIndex = noNode
	hasElse := false
	if _, ok := p.eatToken(token.KeywordElse); ok {
		hasElse = true
		if _, ok := p.eatToken(token.Pipe); ok {
			p.expectToken(token.Identifier)
			p.expectToken(token.Pipe)
		}
		elseBody, lastBlock = p.parseBody(stmtCtx)
	}
	p.finishCtrlFlow(stmtCtx, lastBlock)

	switch {
	case contExpr == noNode && !hasElse:
		return p.addNode(ast.Node{Tag: ast.WhileSimple, MainToken: whileTok, Data: ast.NodeData{LHS: cond, RHS: then}})
	case !hasElse:
		extra := ast.AddExtra(&p.tree, ast.WhileContExtra{Cont: contExpr, Then: then})
		return p.addNode(ast.Node{Tag: ast.WhileCont, MainToken: whileTok, Data: ast.NodeData{LHS: cond, RHS: extra}})
	default:
		extra := ast.AddExtra(&p.tree, ast.WhileExtra{Cont: contExpr, Then: then, Else: elseBody})
		return p.addNode(ast.Node{Tag: ast.While, MainToken: whileTok, Data: ast.NodeData{LHS: cond, RHS: extra}})
	}
}

func (p *Parser) parseForExpr(label ast.OptionalIndex, stmtCtx bool) ast.Index {
	_ = label
	forTok := p.advanceToken()
	p.expectToken(token.LParen)

	mark := p.scratchMark()
	for {
		input := p.expectExpr()
		if rangeTok, ok := p.eatToken(token.DotDot); ok {
			var end ast.OptionalIndex = noNode
			if p.peek() != token.RParen && p.peek() != token.Comma {
				end = p.expectExpr()
			}
			input = p.addNode(ast.Node{Tag: ast.ForRange, MainToken: rangeTok, Data: ast.NodeData{LHS: input, RHS: end}})
		}
		p.scratchPush(input)
		if _, ok := p.eatToken(token.Comma); !ok {
			break
		}
		if p.peek() == token.RParen {
			break
		}
	}
	p.expectToken(token.RParen)
	inputs := p.scratchSince(mark)

	numCaptures := 0
	if _, ok := p.eatToken(token.Pipe); ok {
		for {
			p.eatToken(token.Asterisk)
			p.expectToken(token.Identifier)
			numCaptures++
			if _, ok := p.eatToken(token.Comma); !ok {
				break
			}
			if p.peek() == token.Pipe {
				break
			}
		}
		p.expectToken(token.Pipe)
	}
	if numCaptures > len(inputs) {
		p.addErrorHere(ast.ExtraForCapture)
	} else if numCaptures < len(inputs) {
		p.addErrorHere(ast.ForInputNotCaptured)
	}

	then, lastBlock := p.parseBody(stmtCtx)

	var elseBody ast.OptionalIndex = noNode
	hasElse := false
	if _, ok := p.eatToken(token.KeywordElse); ok {
		hasElse = true
		elseBody, lastBlock = p.parseBody(stmtCtx)
	}
	p.finishCtrlFlow(stmtCtx, lastBlock)

	if len(inputs) == 1 && !hasElse {
		return p.addNode(ast.Node{Tag: ast.ForSimple, MainToken: forTok, Data: ast.NodeData{LHS: inputs[0], RHS: then}})
	}

	items := make([]ast.Index, 0, len(inputs)+2)
	items = append(items, inputs...)
	items = append(items, then)
	if hasElse {
		items = append(items, elseBody)
	}
	rng := p.addExtraRange(items)
	packed := ast.PackForPayload(uint32(len(inputs)), hasElse)
	return p.addNode(ast.Node{Tag: ast.For, MainToken: forTok, Data: ast.NodeData{LHS: rng.Start, RHS: packed}})
}

func (p *Parser) parseSwitchExpr() ast.Index {
	switchTok := p.advanceToken()
	p.expectToken(token.LParen)
	cond := p.expectExpr()
	p.expectToken(token.RParen)
	p.expectToken(token.LBrace)

	mark := p.scratchMark()
	trailing := false
	for p.peek() != token.RBrace && p.peek() != token.Eof {
		caseIdx := p.parseSwitchProng()
		p.scratchPush(caseIdx)
		if _, ok := p.eatToken(token.Comma); !ok {
			break
		}
		trailing = true
		if p.peek() == token.RBrace {
			break
		}
		trailing = false
	}
	p.expectToken(token.RBrace)
	cases := p.scratchSince(mark)

	rng := p.addExtraRange(cases)
	extra := ast.AddExtra(&p.tree, rng)
	tag := ast.Switch
	if trailing {
		tag = ast.SwitchComma
	}
	return p.addNode(ast.Node{Tag: tag, MainToken: switchTok, Data: ast.NodeData{LHS: cond, RHS: extra}})
}

// parseSwitchProng parses a single prong: an optional `inline`, then either
// `else` or a comma-separated item list (each item possibly a range), `=>`,
// an optional capture, and a body expression.
func (p *Parser) parseSwitchProng() ast.Index {
	mainTok := p.tok
	isInline := false
	if _, ok := p.eatToken(token.KeywordInline); ok {
		isInline = true
	}

	var items []ast.Index
	isElse := false
	if _, ok := p.eatToken(token.KeywordElse); ok {
		isElse = true
	} else {
		mark := p.scratchMark()
		for {
			item := p.expectExpr()
			if _, ok := p.eatToken(token.DotDot); ok {
				hi := p.expectExpr()
				item = p.addNode(ast.Node{Tag: ast.SwitchRange, MainToken: p.tok, Data: ast.NodeData{LHS: item, RHS: hi}})
			}
			p.scratchPush(item)
			if _, ok := p.eatToken(token.Comma); !ok {
				break
			}
			if p.peek() == token.EqualAngleBracketRight {
				break
			}
		}
		items = p.scratchSince(mark)
	}

	p.expectToken(token.EqualAngleBracketRight)

	if _, ok := p.eatToken(token.Pipe); ok {
		for {
			p.eatToken(token.Asterisk)
			p.expectToken(token.Identifier)
			if _, ok := p.eatToken(token.Comma); !ok {
				break
			}
			if p.peek() == token.Pipe {
				break
			}
		}
		p.expectToken(token.Pipe)
	}

	body := p.parseAssignExpr()

	caseOneTag := ast.SwitchCaseOne
	caseTag := ast.SwitchCase
	if isInline {
		caseOneTag = ast.SwitchCaseOneInline
		caseTag = ast.SwitchCaseInline
	}

	switch {
	case isElse || len(items) == 1:
		var item ast.OptionalIndex = noNode
		if !isElse {
			item = items[0]
		}
		return p.addNode(ast.Node{Tag: caseOneTag, MainToken: mainTok, Data: ast.NodeData{LHS: body, RHS: item}})
	default:
		rng := p.addExtraRange(items)
		extra := ast.AddExtra(&p.tree, ast.SwitchCaseExtra{ItemsStart: rng.Start, ItemsEnd: rng.End, Body: body})
		return p.addNode(ast.Node{Tag: caseTag, MainToken: mainTok, Data: ast.NodeData{LHS: extra}})
	}
}

// --- Inline assembly ---

func (p *Parser) parseAsmExpr() ast.Index {
	asmTok := p.advanceToken()
	p.eatToken(token.KeywordVolatile)
	p.expectToken(token.LParen)
	template := p.expectExpr()

	mark := p.scratchMark()
	haveSections := false
	for i := 0; i < 3 && p.peek() == token.Colon; i++ {
		haveSections = true
		p.advanceToken()
		if p.peek() == token.RParen || p.peek() == token.Colon {
			continue
		}
		for {
			switch i {
			case 0:
				p.scratchPush(p.parseAsmOutputItem())
			case 1:
				p.scratchPush(p.parseAsmInputItem())
			default:
				p.scratchPush(p.addNode(ast.Node{Tag: ast.StringLiteral, MainToken: p.expectToken(token.StringLiteral)}))
			}
			if _, ok := p.eatToken(token.Comma); ok {
				if p.peek() == token.Colon || p.peek() == token.RParen {
					break
				}
				continue
			}
			if p.peek() == token.Colon || p.peek() == token.RParen {
				break
			}
			// A missing comma between list items is recoverable: report it
			// and keep consuming items.
			p.addErrorExpected(token.Comma)
			if p.peek() != token.LBracket && p.peek() != token.StringLiteral {
				break
			}
		}
	}
	rparen := p.expectToken(token.RParen)
	items := p.scratchSince(mark)

	if !haveSections {
		return p.addNode(ast.Node{Tag: ast.AsmSimple, MainToken: asmTok, Data: ast.NodeData{LHS: template, RHS: rparen}})
	}
	rng := p.addExtraRange(items)
	extra := ast.AddExtra(&p.tree, ast.AsmExtra{Template: template, ItemsStart: rng.Start, ItemsEnd: rng.End, RParen: rparen})
	return p.addNode(ast.Node{Tag: ast.Asm, MainToken: asmTok, Data: ast.NodeData{LHS: extra}})
}

// parseAsmOutputItem parses `[name] "constraint" (-> Type)` or
// `[name] "constraint" (variable)`. The `->` form records the type
// expression; the variable form records no node, the identifier being
// reachable through the tokens before the closing paren.
func (p *Parser) parseAsmOutputItem() ast.Index {
	lbracket := p.expectToken(token.LBracket)
	p.expectToken(token.Identifier)
	p.expectToken(token.RBracket)
	p.expectToken(token.StringLiteral)
	p.expectToken(token.LParen)
	var typeExpr ast.OptionalIndex = noNode
	if _, ok := p.eatToken(token.MinusRArrow); ok {
		typeExpr = p.expectTypeExpr()
	} else {
		p.expectToken(token.Identifier)
	}
	rparen := p.expectToken(token.RParen)
	return p.addNode(ast.Node{Tag: ast.AsmOutput, MainToken: lbracket, Data: ast.NodeData{LHS: typeExpr, RHS: rparen}})
}

// parseAsmInputItem parses `[name] "constraint" (expr)`.
func (p *Parser) parseAsmInputItem() ast.Index {
	lbracket := p.expectToken(token.LBracket)
	p.expectToken(token.Identifier)
	p.expectToken(token.RBracket)
	p.expectToken(token.StringLiteral)
	p.expectToken(token.LParen)
	expr := p.expectExpr()
	rparen := p.expectToken(token.RParen)
	return p.addNode(ast.Node{Tag: ast.AsmInput, MainToken: lbracket, Data: ast.NodeData{LHS: expr, RHS: rparen}})
}

// --- var-decl-expr statement unification ---

// assignOpTable maps an assignment operator token to its AST tag.
var assignOpTable = map[token.Tag]ast.Tag{
	token.Equal:                 ast.Assign,
	token.AsteriskEqual:         ast.AssignMul,
	token.SlashEqual:            ast.AssignDiv,
	token.PercentEqual:          ast.AssignMod,
	token.PlusEqual:             ast.AssignAdd,
	token.MinusEqual:            ast.AssignSub,
	token.LArrowLArrowEqual:     ast.AssignShl,
	token.LArrowLArrowPipeEqual: ast.AssignShlSat,
	token.RArrowRArrowEqual:     ast.AssignShr,
	token.AmpersandEqual:        ast.AssignBitAnd,
	token.CaretEqual:            ast.AssignBitXor,
	token.PipeEqual:             ast.AssignBitOr,
	token.AsteriskPercentEqual:  ast.AssignMulWrap,
	token.PlusPercentEqual:      ast.AssignAddWrap,
	token.MinusPercentEqual:     ast.AssignSubWrap,
	token.AsteriskPipeEqual:     ast.AssignMulSat,
	token.PlusPipeEqual:         ast.AssignAddSat,
	token.MinusPipeEqual:        ast.AssignSubSat,
}

// lhsItem is one element of a var-decl-expr statement's LHS list: either a
// var-decl-proto (awaiting an init expression) or a plain expression.
type lhsItem struct {
	isDecl bool
	proto  varDeclProto
	expr   ast.Index
}

func (p *Parser) parseStmtLhsItem() lhsItem {
	if p.peek() == token.KeywordConst || p.peek() == token.KeywordVar {
		return lhsItem{isDecl: true, proto: p.parseVarDeclProto()}
	}
	return lhsItem{expr: p.expectExpr()}
}

// expectVarDeclExprStatement is the unifying production for the
// "LHS, LHS, ... = RHS;" and "expr;" statement forms.
func (p *Parser) expectVarDeclExprStatement() ast.Index {
	startTok := p.tok
	first := p.parseStmtLhsItem()

	if !first.isDecl && p.peek() != token.Comma {
		if op, ok := assignOpTable[p.peek()]; ok {
			opTok := p.advanceToken()
			rhs := p.expectExpr()
			p.expectSemicolon(true)
			return p.addNode(ast.Node{Tag: op, MainToken: opTok, Data: ast.NodeData{LHS: first.expr, RHS: rhs}})
		}
		p.expectSemicolon(true)
		return first.expr
	}

	items := []lhsItem{first}
	for {
		if _, ok := p.eatToken(token.Comma); !ok {
			break
		}
		items = append(items, p.parseStmtLhsItem())
	}

	if len(items) == 1 {
		item := items[0]
		var initExpr ast.OptionalIndex = noNode
		if _, ok := p.eatToken(token.Equal); ok {
			initExpr = p.expectExpr()
		} else if eqeq, ok := p.eatToken(token.EqualEqual); ok {
			p.addErrorAt(ast.WrongEqualVarDecl, eqeq)
			initExpr = p.expectExpr()
		}
		p.expectSemicolon(true)
		return p.finishVarDecl(item.proto, initExpr)
	}

	if eqeq, ok := p.eatToken(token.EqualEqual); ok {
		p.addErrorAt(ast.WrongEqualVarDecl, eqeq)
	} else {
		p.expectToken(token.Equal)
	}
	rhs := p.expectExpr()
	p.expectSemicolon(true)

	lhsNodes := make([]ast.Index, len(items))
	for i, it := range items {
		if it.isDecl {
			lhsNodes[i] = p.finishVarDecl(it.proto, noNode)
		} else {
			lhsNodes[i] = it.expr
		}
	}
	extra := p.packDestructureLhs(lhsNodes)
	return p.addNode(ast.Node{Tag: ast.AssignDestructure, MainToken: startTok, Data: ast.NodeData{LHS: rhs, RHS: extra}})
}

// packDestructureLhs appends an AssignDestructure's inline {count,
// nodes...} layout to Extra and returns its start index.
func (p *Parser) packDestructureLhs(lhsNodes []ast.Index) uint32 {
	start := uint32(len(p.tree.Extra))
	p.tree.Extra = append(p.tree.Extra, uint32(len(lhsNodes)))
	p.tree.Extra = append(p.tree.Extra, lhsNodes...)
	return start
}
