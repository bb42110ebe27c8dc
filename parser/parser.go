// Package parser implements a recursive-descent, precedence-climbing
// parser: it turns a token.List produced by the lexer into an ast.Tree
// (node arena + extra arena) plus a list of structured diagnostics,
// recovering from syntax errors at container-member and statement
// boundaries.
//
// Grammar productions are mutually recursive methods on a cursor-holding
// Parser struct, with expect/eat/peek helpers driving token consumption
// and diagnostics accumulated onto a slice instead of being raised.
package parser

import (
	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

// parseError is the internal recoverable-syntactic-fault signal. It is
// never returned to callers of Parse/ParseZon; every production that can
// raise it is wrapped by a caller that either converts it into a
// diagnostic-and-resynchronize, or lets it propagate one level up to a
// wider synchronization point.
type parseError struct{}

// Parser holds all mutable state for one parse: the token cursor, the
// growing node/extra arenas, and the scratch stack list-productions use to
// stage children before a single contiguous extra-range append. A Parser
// is used once and discarded; it owns its arenas exclusively for the
// duration of the parse.
type Parser struct {
	tree ast.Tree

	tok token.Index // cursor: index of the next unconsumed token

	// scratch is the list-parsing scratch stack: container members,
	// statements, switch prongs, call arguments, and similar
	// comma/semicolon-separated lists are appended here and then copied
	// into a single contiguous Extra range once the list is known to be
	// complete.
	scratch []ast.Index
}

// Parse parses a whole file: node 0 is allocated as Root up front, the
// file's top-level members are parsed, end-of-input is required (diagnosed
// if missing), and the root's payload is patched to the member list's
// ExtraRange. It never returns an error: on any recoverable fault the
// returned Tree still has node 0 == Root and a non-empty Errors list, so
// callers must check Errors before trusting the tree.
func Parse(src []byte, tokens token.List) *ast.Tree {
	p := &Parser{tree: ast.Tree{Source: src, Tokens: tokens, Mode: ast.ModeZig}}
	// Reserve node 0 for Root before parsing anything else, so every
	// other node index is guaranteed nonzero and 0 can double as the
	// optional-field sentinel.
	p.addNode(ast.Node{Tag: ast.Root})

	members, _ := p.parseContainerMembers(true)
	rng := p.addExtraRange(members)

	if p.tok != p.eofIndex() {
		p.addErrorExpected(token.Eof)
	}

	p.tree.Nodes[0].Data = ast.NodeData{LHS: rng.Start, RHS: rng.End}
	return &p.tree
}

// ParseZon parses object notation: node 0 is Root, exactly one expression
// is parsed, end-of-input is required. The restricted literal-value subset
// ZON is meant to enforce is not yet checked here.
//
// TODO(zon): enforcement of the restricted ZON expression subset is
// deferred until it lands behind a flag; until then ParseZon accepts any
// expression form parseExpr accepts.
func ParseZon(src []byte, tokens token.List) *ast.Tree {
	p := &Parser{tree: ast.Tree{Source: src, Tokens: tokens, Mode: ast.ModeZon}}
	p.addNode(ast.Node{Tag: ast.Root})

	expr := p.expectExpr()

	if p.tok != p.eofIndex() {
		p.addErrorExpected(token.Eof)
	}

	p.tree.Nodes[0].Data = ast.NodeData{LHS: expr, RHS: 0}
	return &p.tree
}

func (p *Parser) eofIndex() token.Index {
	return token.Index(p.tree.Tokens.Len() - 1)
}

// --- Token cursor ---

func (p *Parser) tagAt(i token.Index) token.Tag { return p.tree.Tokens.Tags[i] }

// peek returns the tag of the token the cursor is on.
func (p *Parser) peek() token.Tag { return p.tagAt(p.tok) }

// peekAhead returns the tag n tokens ahead of the cursor (n=0 is peek()).
func (p *Parser) peekAhead(n int) token.Tag {
	i := int(p.tok) + n
	if i >= p.tree.Tokens.Len() {
		return token.Eof
	}
	return p.tagAt(token.Index(i))
}

// advanceToken consumes and returns the current token's index.
func (p *Parser) advanceToken() token.Index {
	i := p.tok
	if p.tok+1 < token.Index(p.tree.Tokens.Len()) {
		p.tok++
	}
	return i
}

// eatToken consumes and returns the current token if it matches tag,
// otherwise leaves the cursor alone and reports no match.
func (p *Parser) eatToken(tag token.Tag) (token.Index, bool) {
	if p.peek() == tag {
		return p.advanceToken(), true
	}
	return 0, false
}

// expectToken consumes the current token if it matches tag; otherwise it
// reports ExpectedToken and raises parseError without consuming anything,
// so the caller's recovery scanner starts from the same place.
func (p *Parser) expectToken(tag token.Tag) token.Index {
	if i, ok := p.eatToken(tag); ok {
		return i
	}
	p.addErrorExpected(tag)
	panic(parseError{})
}

// expectSemicolon is expectToken(Semicolon) with a look-back adjustment:
// if the cursor's token starts a new source line relative to the previous
// token, the diagnostic is anchored to the *previous* token instead, since
// that is where the missing `;` visually belongs.
func (p *Parser) expectSemicolon(recoverable bool) {
	if _, ok := p.eatToken(token.Semicolon); ok {
		return
	}
	tok := p.tok
	isPrev := p.onNewLine(tok)
	if isPrev && tok > 0 {
		tok--
	}
	p.tree.Errors = append(p.tree.Errors, ast.Error{
		Tag: ast.ExpectedSemiAfterStmt, Token: tok, TokenIsPrev: isPrev,
	})
	if !recoverable {
		panic(parseError{})
	}
}

// onNewLine reports whether the token at i starts on a later source line
// than the token before it.
func (p *Parser) onNewLine(i token.Index) bool {
	if i == 0 {
		return false
	}
	prevEnd := p.tree.TokenStart(i - 1)
	cur := p.tree.TokenStart(i)
	for _, b := range p.tree.Source[prevEnd:cur] {
		if b == '\n' {
			return true
		}
	}
	return false
}

func (p *Parser) addErrorExpected(tag token.Tag) {
	p.tree.AddErrorExpected(tag, p.tok)
}

func (p *Parser) addErrorHere(tag ast.DiagTag) {
	p.tree.AddError(tag, p.tok)
}

func (p *Parser) addErrorAt(tag ast.DiagTag, tok token.Index) {
	p.tree.AddError(tag, tok)
}

func (p *Parser) addNoteAt(tag ast.DiagTag, tok token.Index) {
	p.tree.AddNote(tag, tok)
}

// --- Node arena ---

// addNode appends a finished node and returns its index.
func (p *Parser) addNode(n ast.Node) ast.Index {
	p.tree.Nodes = append(p.tree.Nodes, n)
	return ast.Index(len(p.tree.Nodes) - 1)
}

// reserveNode appends a placeholder node (so its index is known before the
// node it describes is fully parsed — needed for FnDecl, whose prototype
// must precede its body in index order) and returns the index.
func (p *Parser) reserveNode(tag ast.Tag) ast.Index {
	return p.addNode(ast.Node{Tag: tag})
}

// setNode overwrites the node at idx in place once its real contents are
// known.
func (p *Parser) setNode(idx ast.Index, n ast.Node) {
	p.tree.Nodes[idx] = n
}

// unreserveNode "frees" a reserved node that turned out not to be needed.
// Shrinking the arena is only safe when idx is the very last node
// appended; otherwise the slot is rewritten in place as an
// UnreachableLiteral so no index ever dangles. Both branches are
// idempotent.
func (p *Parser) unreserveNode(idx ast.Index) {
	if int(idx) >= len(p.tree.Nodes) {
		return
	}
	if int(idx) == len(p.tree.Nodes)-1 {
		p.tree.Nodes = p.tree.Nodes[:idx]
		return
	}
	p.tree.Nodes[idx] = ast.Node{Tag: ast.UnreachableLiteral}
}

// --- Extra arena / scratch stack ---

func (p *Parser) addExtraRange(items []ast.Index) ast.SubRange {
	return p.tree.AddExtraRange(items)
}

// scratchMark/scratchSince implement the "scratch stack" pattern: callers
// mark the current length, append child indices as they're parsed, then
// slice from the mark to get just this list's items.
func (p *Parser) scratchMark() int { return len(p.scratch) }

func (p *Parser) scratchSince(mark int) []ast.Index {
	items := append([]ast.Index(nil), p.scratch[mark:]...)
	p.scratch = p.scratch[:mark]
	return items
}

func (p *Parser) scratchPush(idx ast.Index) { p.scratch = append(p.scratch, idx) }

// withRecovery runs fn, converting a raised parseError into resuming at the
// token findNext leaves the cursor on. It returns whether fn completed
// without a fault (false means the caller should treat this item as
// skipped, not as having produced a usable node).
func (p *Parser) withRecovery(findNext func(), fn func()) (ok bool) {
	mark := p.scratchMark()
	defer func() {
		if r := recover(); r != nil {
			if _, isParseError := r.(parseError); !isParseError {
				panic(r)
			}
			// A fault can unwind out of a nested list production before it
			// drained its scratch suffix; drop those partial entries so they
			// don't leak into the enclosing list.
			p.scratch = p.scratch[:mark]
			findNext()
			ok = false
		}
	}()
	fn()
	return true
}

const noNode ast.Index = 0
