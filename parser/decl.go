package parser

import (
	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

// expectTopLevelDecl consumes the extern/export/inline/noinline modifier
// set, then tries a function prototype; failing that, an optional
// threadlocal and a global var-decl.
func (p *Parser) expectTopLevelDecl() ast.Index {
	var isExtern, isExport, isInline, isNoinline bool
	var externTok token.Index

	for {
		switch p.peek() {
		case token.KeywordExtern:
			externTok = p.advanceToken()
			isExtern = true
			// extern fn/var may be followed by a string literal ABI name.
			if p.peek() == token.StringLiteral {
				p.advanceToken()
			}
			continue
		case token.KeywordExport:
			p.advanceToken()
			isExport = true
			continue
		case token.KeywordInline:
			p.advanceToken()
			isInline = true
			continue
		case token.KeywordNoinline:
			p.advanceToken()
			isNoinline = true
			continue
		}
		break
	}
	_ = isExport
	_ = isInline
	_ = isNoinline

	if p.peek() == token.KeywordFn {
		proto := p.parseFnProto()
		if _, ok := p.eatToken(token.Semicolon); ok {
			return proto
		}
		if p.peek() == token.LBrace {
			if isExtern {
				p.addErrorAt(ast.ExternFnBody, externTok)
			}
			// Reserve the decl node before the body so a fault inside the
			// block can give the slot back (or neutralize it) instead of
			// leaving a half-filled FnDecl behind.
			decl := p.reserveNode(ast.FnDecl)
			filled := false
			defer func() {
				if !filled {
					p.unreserveNode(decl)
				}
			}()
			body := p.expectBlock()
			p.setNode(decl, ast.Node{
				Tag:       ast.FnDecl,
				MainToken: p.tree.Nodes[proto].MainToken,
				Data:      ast.NodeData{LHS: proto, RHS: body},
			})
			filled = true
			return decl
		}
		p.addErrorExpected(token.Semicolon)
		panic(parseError{})
	}

	if _, ok := p.eatToken(token.KeywordUsingnamespace); ok {
		usingTok := p.tok - 1
		expr := p.expectExpr()
		p.expectSemicolon(false)
		return p.addNode(ast.Node{Tag: ast.UsingNamespace, MainToken: usingTok, Data: ast.NodeData{LHS: expr}})
	}

	p.eatToken(token.KeywordThreadlocal)

	proto := p.parseVarDeclProto()

	var initExpr ast.OptionalIndex = noNode
	if _, ok := p.eatToken(token.Equal); ok {
		initExpr = p.expectExpr()
	} else if eqeq, ok := p.eatToken(token.EqualEqual); ok {
		p.addErrorAt(ast.WrongEqualVarDecl, eqeq)
		initExpr = p.expectExpr()
	}
	p.expectSemicolon(true)

	return p.finishVarDecl(proto, initExpr)
}

// varDeclProto holds the pieces of a var-decl-proto production until the
// init expression (parsed separately by the caller) selects its final node
// shape; the init is patched into that shape afterwards.
type varDeclProto struct {
	mutToken  token.Index
	typeExpr  ast.OptionalIndex
	alignExpr ast.OptionalIndex
	addrSpace ast.OptionalIndex
	section   ast.OptionalIndex
}

// parseVarDeclProto parses `(var|const) IDENT (: Type)? (align(e))?
// (addrspace(e))? (linksection(e))?`, stopping before `=` or `;`.
func (p *Parser) parseVarDeclProto() varDeclProto {
	var mutTok token.Index
	switch p.peek() {
	case token.KeywordConst, token.KeywordVar:
		mutTok = p.advanceToken()
	default:
		p.addErrorHere(ast.ExpectedVarConst)
		panic(parseError{})
	}
	p.expectToken(token.Identifier)

	proto := varDeclProto{mutToken: mutTok, typeExpr: noNode, alignExpr: noNode, addrSpace: noNode, section: noNode}

	if _, ok := p.eatToken(token.Colon); ok {
		proto.typeExpr = p.expectTypeExpr()
	}
	if _, ok := p.eatToken(token.KeywordAlign); ok {
		p.expectToken(token.LParen)
		proto.alignExpr = p.expectExpr()
		p.expectToken(token.RParen)
	}
	if _, ok := p.eatToken(token.KeywordAddrspace); ok {
		p.expectToken(token.LParen)
		proto.addrSpace = p.expectExpr()
		p.expectToken(token.RParen)
	}
	if _, ok := p.eatToken(token.KeywordLinksection); ok {
		p.expectToken(token.LParen)
		proto.section = p.expectExpr()
		p.expectToken(token.RParen)
	}
	return proto
}

// finishVarDecl selects the smallest node shape that can hold whichever of
// {type, align, addrspace, section} proto carries, and writes init into it.
func (p *Parser) finishVarDecl(proto varDeclProto, initExpr ast.OptionalIndex) ast.Index {
	switch {
	case proto.addrSpace != noNode || proto.section != noNode:
		extra := ast.AddExtra(&p.tree, ast.GlobalVarDeclExtra{
			Type: proto.typeExpr, Align: proto.alignExpr,
			AddrSpace: proto.addrSpace, Section: proto.section, Init: initExpr,
		})
		return p.addNode(ast.Node{Tag: ast.GlobalVarDecl, MainToken: proto.mutToken, Data: ast.NodeData{LHS: extra}})
	case proto.typeExpr != noNode && proto.alignExpr != noNode:
		extra := ast.AddExtra(&p.tree, ast.LocalVarDeclExtra{Type: proto.typeExpr, Align: proto.alignExpr, Init: initExpr})
		return p.addNode(ast.Node{Tag: ast.LocalVarDecl, MainToken: proto.mutToken, Data: ast.NodeData{LHS: extra}})
	case proto.alignExpr != noNode:
		return p.addNode(ast.Node{Tag: ast.AlignedVarDecl, MainToken: proto.mutToken, Data: ast.NodeData{LHS: proto.alignExpr, RHS: initExpr}})
	default:
		return p.addNode(ast.Node{Tag: ast.SimpleVarDecl, MainToken: proto.mutToken, Data: ast.NodeData{LHS: proto.typeExpr, RHS: initExpr}})
	}
}

// parseFnProto parses `fn IDENT? ( params ) modifiers? ReturnType`, selecting
// among the four prototype node shapes by parameter count and modifier
// presence.
func (p *Parser) parseFnProto() ast.Index {
	fnTok := p.advanceToken() // `fn`
	if p.peek() == token.Identifier {
		p.advanceToken()
	}
	p.expectToken(token.LParen)
	params := p.parseParamList()
	p.expectToken(token.RParen)

	var alignExpr, addrSpace, section, callConv ast.OptionalIndex = noNode, noNode, noNode, noNode
	for {
		switch {
		case p.peek() == token.KeywordAlign:
			p.advanceToken()
			p.expectToken(token.LParen)
			alignExpr = p.expectExpr()
			p.expectToken(token.RParen)
			continue
		case p.peek() == token.KeywordAddrspace:
			p.advanceToken()
			p.expectToken(token.LParen)
			addrSpace = p.expectExpr()
			p.expectToken(token.RParen)
			continue
		case p.peek() == token.KeywordLinksection:
			p.advanceToken()
			p.expectToken(token.LParen)
			section = p.expectExpr()
			p.expectToken(token.RParen)
			continue
		case p.peek() == token.KeywordCallconv:
			p.advanceToken()
			p.expectToken(token.LParen)
			callConv = p.expectExpr()
			p.expectToken(token.RParen)
			continue
		}
		break
	}

	// An error-union return type ("!T") is parsed as part of the return
	// type expression itself; the leading `!`, if present, belongs there.
	returnType := p.expectTypeExpr()

	hasModifier := alignExpr != noNode || addrSpace != noNode || section != noNode || callConv != noNode

	switch {
	case !hasModifier && len(params) <= 1:
		var param ast.OptionalIndex = noNode
		if len(params) == 1 {
			param = params[0]
		}
		return p.addNode(ast.Node{Tag: ast.FnProtoSimple, MainToken: fnTok, Data: ast.NodeData{LHS: param, RHS: returnType}})
	case !hasModifier:
		rng := p.addExtraRange(params)
		return p.addNode(ast.Node{Tag: ast.FnProtoMulti, MainToken: fnTok, Data: ast.NodeData{LHS: returnType, RHS: p.extraRangeIndex(rng)}})
	case len(params) <= 1:
		var param ast.OptionalIndex = noNode
		if len(params) == 1 {
			param = params[0]
		}
		extra := ast.AddExtra(&p.tree, ast.FnProtoOneExtra{
			Param: param, AlignExpr: alignExpr, AddrSpace: addrSpace,
			Section: section, CallConv: callConv, ReturnType: returnType,
		})
		return p.addNode(ast.Node{Tag: ast.FnProtoOne, MainToken: fnTok, Data: ast.NodeData{LHS: extra}})
	default:
		rng := p.addExtraRange(params)
		extra := ast.AddExtra(&p.tree, ast.FnProtoExtra{
			ParamsStart: rng.Start, ParamsEnd: rng.End, Align: alignExpr,
			AddrSpace: addrSpace, Section: section, CallConv: callConv, ReturnType: returnType,
		})
		return p.addNode(ast.Node{Tag: ast.FnProto, MainToken: fnTok, Data: ast.NodeData{LHS: extra}})
	}
}

// parseParamList parses a comma-separated parameter list up to (but not
// including) the closing `)`. Each parameter contributes one node index:
// its type expression, or a bare Identifier node anchored at the `anytype`
// token standing in for a generic parameter, since neither carries a
// meaningful Data payload of its own. A `...` varargs marker contributes
// no node.
func (p *Parser) parseParamList() []ast.Index {
	mark := p.scratchMark()
	if p.peek() == token.RParen {
		return p.scratchSince(mark)
	}
	for {
		if p.peek() == token.KeywordComptime || p.peek() == token.KeywordNoalias {
			p.advanceToken()
		}
		if p.peek() == token.Identifier && p.peekAhead(1) == token.Colon {
			p.advanceToken()
			p.advanceToken()
		}

		switch p.peek() {
		case token.DotDotDot:
			p.advanceToken()
			if p.peek() != token.RParen {
				p.addErrorHere(ast.VarargsNonfinal)
			}
		case token.KeywordAnytype:
			tok := p.advanceToken()
			p.scratchPush(p.addNode(ast.Node{Tag: ast.Identifier, MainToken: tok}))
		default:
			p.scratchPush(p.expectTypeExpr())
		}

		if _, ok := p.eatToken(token.Comma); !ok {
			break
		}
		if p.peek() == token.RParen {
			break
		}
	}
	return p.scratchSince(mark)
}

// extraRangeIndex packs rng (a SubRange already in Extra) as a fresh
// KindExtra-compatible index by re-appending it, so FnProtoMulti's
// KindNodeAndExtra payload can reference it without aliasing Extra slices.
func (p *Parser) extraRangeIndex(rng ast.SubRange) uint32 {
	return ast.AddExtra(&p.tree, rng)
}
