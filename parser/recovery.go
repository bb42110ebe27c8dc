package parser

import "j5.nz/zparse/token"

// findNextContainerMember is the container-level recovery scan: it walks
// forward tracking bracket depth and stops at the next plausible start of a
// container member (a keyword that begins a decl, an identifier followed by
// a comma, or a comma/semicolon/closing-brace at depth zero).
func (p *Parser) findNextContainerMember() {
	depth := 0
	for {
		tag := p.peek()
		switch tag {
		case token.KeywordTest, token.KeywordComptime, token.KeywordPub,
			token.KeywordExport, token.KeywordExtern, token.KeywordInline,
			token.KeywordNoinline, token.KeywordThreadlocal, token.KeywordConst,
			token.KeywordVar, token.KeywordFn:
			if depth == 0 {
				return
			}
		case token.Identifier:
			if depth == 0 && p.peekAhead(1) == token.Comma {
				return
			}
		case token.Comma, token.Semicolon:
			if depth == 0 {
				p.advanceToken()
				return
			}
		case token.LParen, token.LBrace, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Eof:
			return
		}
		p.advanceToken()
	}
}

// findNextStmt implements the statement-level recovery scanner: it scans
// for a `;` at bracket depth zero, or a `}`/EOF at depth zero.
func (p *Parser) findNextStmt() {
	depth := 0
	for {
		tag := p.peek()
		switch tag {
		case token.LParen, token.LBrace, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Semicolon:
			if depth == 0 {
				p.advanceToken()
				return
			}
		case token.Eof:
			return
		}
		p.advanceToken()
	}
}
