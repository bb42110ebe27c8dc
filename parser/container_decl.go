package parser

import (
	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

// parseContainerDecl parses `(struct|opaque|enum|union) (arg)? { members }`.
// union accepts the special `(enum)` / `(enum(Tag))` arg
// spelling a tagged union's enum tag; every other arg is a plain expression
// (an enum's backing integer type, or a packed struct's backing layout).
func (p *Parser) parseContainerDecl() ast.Index {
	mainTok := p.advanceToken() // struct/opaque/enum/union

	var arg ast.OptionalIndex = noNode
	isUnionEnumTag := false
	if _, ok := p.eatToken(token.LParen); ok {
		if mainTok2 := p.tagAt(mainTok); mainTok2 == token.KeywordUnion && p.peek() == token.KeywordEnum {
			p.advanceToken() // `enum`
			isUnionEnumTag = true
			if _, ok := p.eatToken(token.LParen); ok {
				arg = p.expectTypeExpr()
				p.expectToken(token.RParen)
			}
		} else {
			arg = p.expectTypeExpr()
		}
		p.expectToken(token.RParen)
	}

	// C-style container declarations ("struct Foo { ... }") are not valid
	// Zig; Zig names a container through the const it's assigned to.
	if p.peek() == token.Identifier && p.peekAhead(1) == token.LBrace {
		p.addErrorHere(ast.CStyleContainer)
		nameTok := p.advanceToken()
		p.addNoteAt(ast.ZigStyleContainer, nameTok)
	}

	p.expectToken(token.LBrace)
	members, trailing := p.parseContainerMembers(false)
	p.expectToken(token.RBrace)

	switch {
	case isUnionEnumTag:
		rng := p.addExtraRange(members)
		membersExtra := ast.AddExtra(&p.tree, rng)
		tag := ast.TaggedUnionEnumTag
		if trailing {
			tag = ast.TaggedUnionEnumTagTrailing
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: arg, RHS: membersExtra}})

	case arg != noNode:
		rng := p.addExtraRange(members)
		membersExtra := ast.AddExtra(&p.tree, rng)
		tag := ast.ContainerDeclArg
		if trailing {
			tag = ast.ContainerDeclArgTrailing
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: arg, RHS: membersExtra}})

	case len(members) <= 2:
		var a, b ast.OptionalIndex = noNode, noNode
		if len(members) > 0 {
			a = members[0]
		}
		if len(members) > 1 {
			b = members[1]
		}
		tag := ast.ContainerDeclTwo
		if trailing {
			tag = ast.ContainerDeclTwoTrailing
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: a, RHS: b}})

	default:
		rng := p.addExtraRange(members)
		tag := ast.ContainerDecl
		if trailing {
			tag = ast.ContainerDeclTrailing
		}
		return p.addNode(ast.Node{Tag: tag, MainToken: mainTok, Data: ast.NodeData{LHS: rng.Start, RHS: rng.End}})
	}
}
