package parser

import (
	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

// fieldState tracks whether a declaration has appeared sandwiched between
// two container fields: none, a field seen, a decl seen after it, and a
// terminal error state so one gap is only ever reported once.
type fieldState int

const (
	fsNone fieldState = iota
	fsSeen
	fsAfterDecl
	fsErr
)

type fieldTracker struct {
	state     fieldState
	lastField token.Index // MainToken of the most recent field
	declTok   token.Index // MainToken of the decl seen after that field
}

func (ft *fieldTracker) sawField(p *Parser, fieldTok token.Index) {
	switch ft.state {
	case fsNone, fsSeen:
		ft.state = fsSeen
		ft.lastField = fieldTok
	case fsAfterDecl:
		p.addErrorAt(ast.DeclBetweenFields, ft.declTok)
		p.addNoteAt(ast.PreviousField, ft.lastField)
		p.addNoteAt(ast.NextField, fieldTok)
		ft.state = fsErr
	case fsErr:
		// Already reported; keep tracking in case another field follows
		// so we don't drop legitimate later state, but never report
		// twice for the same gap.
		ft.lastField = fieldTok
	}
}

func (ft *fieldTracker) sawDecl(declTok token.Index) {
	if ft.state == fsSeen {
		ft.state = fsAfterDecl
		ft.declTok = declTok
	}
}

// parseContainerMembers accumulates members onto the scratch stack until
// end-of-input or a closing brace, dispatching on the head token. topLevel
// marks the file-level member list, which has no enclosing braces: a stray
// `}` there is a malformed member rather than a terminator.
func (p *Parser) parseContainerMembers(topLevel bool) ([]ast.Index, bool) {
	mark := p.scratchMark()
	var tracker fieldTracker
	trailing := false

	for {
		hasDoc, docTok := p.eatDocComments()

		switch p.peek() {
		case token.KeywordTest:
			if hasDoc {
				p.addErrorAt(ast.TestDocComment, docTok)
			}
			idx, ok := p.recoveringMember(p.parseTestDecl)
			if ok {
				p.scratchPush(idx)
				tracker.sawDecl(p.tree.Nodes[idx].MainToken)
			}
			trailing = false
			continue

		case token.KeywordComptime:
			if p.peekAhead(1) == token.LBrace {
				if hasDoc {
					p.addErrorAt(ast.ComptimeDocComment, docTok)
				}
				idx, ok := p.recoveringMember(p.parseComptimeBlockDecl)
				if ok {
					p.scratchPush(idx)
					tracker.sawDecl(p.tree.Nodes[idx].MainToken)
				}
				trailing = false
				continue
			}
			idx, comma, ok := p.recoveringField(func() (ast.Index, bool) {
				return p.parseContainerField()
			})
			if ok {
				p.scratchPush(idx)
				tracker.sawField(p, p.tree.Nodes[idx].MainToken)
				p.requireFieldSeparator(comma)
				trailing = comma
			}
			continue

		case token.KeywordPub:
			p.advanceToken()
			idx, ok := p.recoveringMember(p.expectTopLevelDecl)
			if ok {
				p.scratchPush(idx)
				tracker.sawDecl(p.tree.Nodes[idx].MainToken)
			}
			trailing = false
			continue

		case token.KeywordExport, token.KeywordExtern, token.KeywordInline,
			token.KeywordNoinline, token.KeywordThreadlocal, token.KeywordConst,
			token.KeywordVar, token.KeywordFn:
			idx, ok := p.recoveringMember(p.expectTopLevelDecl)
			if ok {
				p.scratchPush(idx)
				tracker.sawDecl(p.tree.Nodes[idx].MainToken)
			}
			trailing = false
			continue

		case token.RBrace:
			if !topLevel {
				goto done
			}
			// A stray '}' at top level is a malformed member; report and
			// recover past it rather than silently terminating the file.
			p.addErrorHere(ast.ExpectedContainerMembers)
			p.advanceToken()
			continue

		case token.Eof:
			goto done

		case token.Identifier:
			idx, comma, ok := p.recoveringField(func() (ast.Index, bool) {
				return p.parseContainerField()
			})
			if ok {
				p.scratchPush(idx)
				tracker.sawField(p, p.tree.Nodes[idx].MainToken)
				p.requireFieldSeparator(comma)
				trailing = comma
			}
			continue

		default:
			if hasDoc {
				p.addErrorAt(ast.UnattachedDocComment, docTok)
			}
			if head := p.peek(); (head == token.KeywordStruct || head == token.KeywordUnion || head == token.KeywordEnum) &&
				p.peekAhead(1) == token.Identifier {
				p.recoverCStyleContainer()
				trailing = false
				continue
			}
			p.addErrorHere(ast.ExpectedContainerMembers)
			p.findNextContainerMember()
			continue
		}
	}

done:
	return p.scratchSince(mark), trailing
}

// requireFieldSeparator implements "a container field with no trailing
// comma must be the last member": if comma wasn't consumed and another
// member clearly follows, report expected_comma_after_field without
// stopping the parse.
func (p *Parser) requireFieldSeparator(hadComma bool) {
	if hadComma {
		return
	}
	switch p.peek() {
	case token.RBrace, token.Eof:
		return
	default:
		p.addErrorHere(ast.ExpectedCommaAfterField)
	}
}

// recoveringMember runs fn (a production returning a single node) and, on a
// raised parseError, resynchronizes at the next container member.
func (p *Parser) recoveringMember(fn func() ast.Index) (ast.Index, bool) {
	var idx ast.Index
	ok := p.withRecovery(p.findNextContainerMember, func() {
		idx = fn()
	})
	return idx, ok
}

func (p *Parser) recoveringField(fn func() (ast.Index, bool)) (ast.Index, bool, bool) {
	var idx ast.Index
	var comma bool
	ok := p.withRecovery(p.findNextContainerMember, func() {
		idx, comma = fn()
	})
	return idx, comma, ok
}

// eatDocComments consumes zero or more contiguous doc_comment tokens,
// returning whether any were present and the index of the first.
func (p *Parser) eatDocComments() (bool, token.Index) {
	first, any := token.Index(0), false
	for p.peek() == token.DocComment {
		i := p.advanceToken()
		if !any {
			first = i
			any = true
		}
	}
	return any, first
}

// recoverCStyleContainer consumes an erroneous `struct/union/enum IDENT
// { ... } ;` member, reporting c_style_container at the name with a
// zig_style_container note, then skipping the body and any trailing
// semicolon so member parsing resumes cleanly after it.
func (p *Parser) recoverCStyleContainer() {
	p.advanceToken() // struct/union/enum
	nameTok := p.advanceToken()
	p.addErrorAt(ast.CStyleContainer, nameTok)
	p.addNoteAt(ast.ZigStyleContainer, nameTok)

	if _, ok := p.eatToken(token.LBrace); ok {
		depth := 1
		for depth > 0 && p.peek() != token.Eof {
			switch p.peek() {
			case token.LBrace:
				depth++
			case token.RBrace:
				depth--
			}
			p.advanceToken()
		}
	}
	p.eatToken(token.Semicolon)
}

// parseTestDecl parses `test ["name"|ident] block`.
func (p *Parser) parseTestDecl() ast.Index {
	testTok := p.advanceToken() // `test`
	var nameTok ast.OptionalIndex = noNode
	switch p.peek() {
	case token.StringLiteral, token.Identifier:
		nameTok = ast.Index(p.advanceToken())
	}
	body := p.expectBlock()
	return p.addNode(ast.Node{Tag: ast.TestDecl, MainToken: testTok, Data: ast.NodeData{LHS: nameTok, RHS: body}})
}

// parseComptimeBlockDecl parses a top-level `comptime { ... }`.
func (p *Parser) parseComptimeBlockDecl() ast.Index {
	comptimeTok := p.advanceToken()
	body := p.expectBlock()
	return p.addNode(ast.Node{Tag: ast.Comptime, MainToken: comptimeTok, Data: ast.NodeData{LHS: body}})
}

// parseContainerField parses `(comptime)? IDENT : Type (align(expr))? (=
// expr)?` and reports whether it was followed by a trailing comma.
func (p *Parser) parseContainerField() (ast.Index, bool) {
	p.eatToken(token.KeywordComptime)
	nameTok := p.expectToken(token.Identifier)
	p.expectToken(token.Colon)
	typeExpr := p.expectTypeExpr()

	var alignExpr ast.OptionalIndex = noNode
	if _, ok := p.eatToken(token.KeywordAlign); ok {
		p.expectToken(token.LParen)
		alignExpr = p.expectExpr()
		p.expectToken(token.RParen)
	}

	var valueExpr ast.OptionalIndex = noNode
	if _, ok := p.eatToken(token.Equal); ok {
		valueExpr = p.expectExpr()
	}

	var node ast.Node
	switch {
	case alignExpr == noNode && valueExpr == noNode:
		node = ast.Node{Tag: ast.ContainerField, MainToken: nameTok, Data: ast.NodeData{LHS: typeExpr, RHS: 0}}
	case alignExpr == noNode:
		node = ast.Node{Tag: ast.ContainerFieldInit, MainToken: nameTok, Data: ast.NodeData{LHS: typeExpr, RHS: valueExpr}}
	default:
		extra := ast.AddExtra(&p.tree, ast.ContainerFieldExtra{AlignExpr: alignExpr, ValueExpr: valueExpr})
		node = ast.Node{Tag: ast.ContainerFieldAlign, MainToken: nameTok, Data: ast.NodeData{LHS: typeExpr, RHS: extra}}
	}
	idx := p.addNode(node)

	comma := false
	if _, ok := p.eatToken(token.Comma); ok {
		comma = true
	}
	return idx, comma
}
