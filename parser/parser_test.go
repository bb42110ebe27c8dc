package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/zparse/ast"
	"j5.nz/zparse/token"
)

func parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tokens := token.NewLexer([]byte(src)).Tokenize()
	return Parse([]byte(src), tokens)
}

// A well-formed program has an empty diagnostic list and node
// 0 is Root.
func TestWellFormedProgramHasNoDiagnostics(t *testing.T) {
	tree := parse(t, `const x: i32 = 1;
fn add(a: i32, b: i32) i32 {
    return a + b;
}
`)
	assert.Empty(t, tree.Errors)
	assert.Equal(t, ast.Root, tree.Nodes[0].Tag)
	assert.NotEmpty(t, tree.RootDecls())
}

// unreserveNode never leaves a dangling reserved index; it is
// idempotent whether or not the reserved node was the last one appended.
func TestUnreserveNodeIsIdempotentAndNeverDangles(t *testing.T) {
	p := &Parser{tree: ast.Tree{Mode: ast.ModeZig}}
	p.addNode(ast.Node{Tag: ast.Root})

	last := p.reserveNode(ast.FnDecl)
	before := len(p.tree.Nodes)
	p.unreserveNode(last)
	assert.Equal(t, before-1, len(p.tree.Nodes), "unreserving the last node should shrink the arena")
	p.unreserveNode(last) // idempotent even though `last` is now out of range of a shrunk arena use
	assert.Equal(t, before-1, len(p.tree.Nodes))

	mid := p.reserveNode(ast.FnDecl)
	p.addNode(ast.Node{Tag: ast.Identifier})
	p.unreserveNode(mid)
	assert.Equal(t, ast.UnreachableLiteral, p.tree.Nodes[mid].Tag)
	p.unreserveNode(mid) // idempotent: rewriting again is a no-op
	assert.Equal(t, ast.UnreachableLiteral, p.tree.Nodes[mid].Tag)
}

// "a or b and c" parses as or(a, and(b, c)).
func TestOperatorPrecedenceOrAndAnd(t *testing.T) {
	tree := parse(t, "const r = a or b and c;")
	decl := tree.Nodes[tree.RootDecls()[0]]
	require.Equal(t, ast.SimpleVarDecl, decl.Tag)
	orNode := tree.Nodes[decl.Data.RHS]
	require.Equal(t, ast.BoolOr, orNode.Tag)

	lhs := tree.Nodes[orNode.Data.LHS]
	assert.Equal(t, ast.Identifier, lhs.Tag)

	rhs := tree.Nodes[orNode.Data.RHS]
	require.Equal(t, ast.BoolAnd, rhs.Tag)
	assert.Equal(t, ast.Identifier, tree.Nodes[rhs.Data.LHS].Tag)
	assert.Equal(t, ast.Identifier, tree.Nodes[rhs.Data.RHS].Tag)
}

// "a == b == c" reports one chained_comparison_operators
// diagnostic and still produces a best-effort tree.
func TestChainedComparisonDiagnosesOnce(t *testing.T) {
	tree := parse(t, "const r = a == b == c;")
	var count int
	for _, e := range tree.Errors {
		if e.Tag == ast.ChainedComparisonOperators {
			count++
		}
	}
	assert.Equal(t, 1, count)

	decl := tree.Nodes[tree.RootDecls()[0]]
	outer := tree.Nodes[decl.Data.RHS]
	assert.Equal(t, ast.EqualEqual, outer.Tag)
}

// "a, b = x;" produces one assign_destructure with extra
// {2, idx(a), idx(b)} and RHS x.
func TestDestructureAssignmentShape(t *testing.T) {
	src := wrapInFn(t, "a, b = x;")
	tree := parse(t, src)
	require.Empty(t, tree.Errors)

	stmt := onlyStatement(t, tree)
	require.Equal(t, ast.AssignDestructure, stmt.Tag)

	count := tree.Extra[stmt.Data.RHS]
	require.EqualValues(t, 2, count)
	aIdx := tree.Extra[stmt.Data.RHS+1]
	bIdx := tree.Extra[stmt.Data.RHS+2]
	assert.Equal(t, ast.Identifier, tree.Nodes[aIdx].Tag)
	assert.Equal(t, ast.Identifier, tree.Nodes[bIdx].Tag)
	assert.Equal(t, "a", string(tree.TokenSlice(tree.Nodes[aIdx].MainToken)))
	assert.Equal(t, "b", string(tree.TokenSlice(tree.Nodes[bIdx].MainToken)))

	rhs := tree.Nodes[stmt.Data.LHS]
	assert.Equal(t, ast.Identifier, rhs.Tag)
	assert.Equal(t, "x", string(tree.TokenSlice(rhs.MainToken)))
}

// "const x == 1;" emits wrong_equal_var_decl but still produces
// a simple_var_decl whose init expression is 1.
func TestWrongEqualVarDeclStillProducesVarDecl(t *testing.T) {
	tree := parse(t, "const x == 1;")

	var found bool
	for _, e := range tree.Errors {
		if e.Tag == ast.WrongEqualVarDecl {
			found = true
		}
	}
	assert.True(t, found)

	decl := tree.Nodes[tree.RootDecls()[0]]
	require.Equal(t, ast.SimpleVarDecl, decl.Tag)
	init := tree.Nodes[decl.Data.RHS]
	assert.Equal(t, ast.NumberLiteral, init.Tag)
	assert.Equal(t, "1", string(tree.TokenSlice(init.MainToken)))
}

// A declaration between two container fields emits
// decl_between_fields, previous_field, next_field with correct tokens, and
// parsing continues.
func TestDeclBetweenFieldsDiagnosesTriple(t *testing.T) {
	tree := parse(t, "const S = struct { a: i32, fn f() void {} b: i32 };")

	require.Empty(t, filterErrorsExcept(tree.Errors,
		ast.DeclBetweenFields, ast.PreviousField, ast.NextField, ast.ExpectedCommaAfterField))

	var decl, prev, next ast.Error
	var haveDecl, havePrev, haveNext bool
	for _, e := range tree.Errors {
		switch e.Tag {
		case ast.DeclBetweenFields:
			decl, haveDecl = e, true
		case ast.PreviousField:
			prev, havePrev = e, true
		case ast.NextField:
			next, haveNext = e, true
		}
	}
	require.True(t, haveDecl)
	require.True(t, havePrev)
	require.True(t, haveNext)

	assert.Equal(t, "fn", string(tree.TokenSlice(decl.Token)))
	assert.Equal(t, "a", string(tree.TokenSlice(prev.Token)))
	assert.Equal(t, "b", string(tree.TokenSlice(next.Token)))

	// Parsing continued: the enclosing const decl still comes out as a
	// SimpleVarDecl.
	declNode := tree.Nodes[tree.RootDecls()[0]]
	require.Equal(t, ast.SimpleVarDecl, declNode.Tag)
}

// "outer: for (xs) |x| { break :outer x; }" succeeds, and the
// for node's main_token is `for` while the outer label is two tokens
// earlier (label, colon, for).
func TestLabeledForWithBreak(t *testing.T) {
	src := wrapInFn(t, "outer: for (xs) |x| { break :outer x; }")
	tree := parse(t, src)
	assert.Empty(t, tree.Errors)

	forNode := onlyStatement(t, tree)
	require.Equal(t, ast.ForSimple, forNode.Tag)
	assert.Equal(t, token.KeywordFor, tree.TokenTag(forNode.MainToken))
	assert.Equal(t, "outer", string(tree.TokenSlice(forNode.MainToken-2)))
	assert.Equal(t, token.Colon, tree.TokenTag(forNode.MainToken-1))

	body := tree.Nodes[forNode.Data.RHS]
	require.Equal(t, ast.BlockTwo, body.Tag)
	breakNode := tree.Nodes[body.Data.LHS]
	require.Equal(t, ast.Break, breakNode.Tag)
	assert.Equal(t, "outer", string(tree.TokenSlice(breakNode.Data.LHS)))
	value := tree.Nodes[breakNode.Data.RHS]
	assert.Equal(t, ast.Identifier, value.Tag)
	assert.Equal(t, "x", string(tree.TokenSlice(value.MainToken)))
}

// "struct Foo {}" inside a const's initializer emits c_style_container and
// a zig_style_container note, and parsing goes on to the next decl.
func TestCStyleContainerRecovery(t *testing.T) {
	tree := parse(t, "const S = struct Foo {};\nconst T = 1;")

	var haveErr, haveNote bool
	for _, e := range tree.Errors {
		if e.Tag == ast.CStyleContainer {
			haveErr = true
		}
		if e.Tag == ast.ZigStyleContainer {
			haveNote = true
			assert.True(t, e.IsNote)
		}
	}
	assert.True(t, haveErr)
	assert.True(t, haveNote)

	// Parsing recovered far enough to see the second top-level decl.
	decls := tree.RootDecls()
	require.Len(t, decls, 2)
	second := tree.Nodes[decls[1]]
	assert.Equal(t, ast.SimpleVarDecl, second.Tag)
}

func TestErrorUnionReturnType(t *testing.T) {
	tree := parse(t, "fn f() anyerror!void {\n    return;\n}\n")
	require.Empty(t, tree.Errors)

	fn := tree.Nodes[tree.RootDecls()[0]]
	require.Equal(t, ast.FnDecl, fn.Tag)
	proto := tree.Nodes[fn.Data.LHS]
	require.Equal(t, ast.FnProtoSimple, proto.Tag)
	ret := tree.Nodes[proto.Data.RHS]
	require.Equal(t, ast.ErrorUnion, ret.Tag)
	assert.Equal(t, "anyerror", string(tree.TokenSlice(tree.Nodes[ret.Data.LHS].MainToken)))
	assert.Equal(t, "void", string(tree.TokenSlice(tree.Nodes[ret.Data.RHS].MainToken)))
}

func TestTypedStructInit(t *testing.T) {
	tree := parse(t, "const p = Point{ .x = 1, .y = 2 };")
	require.Empty(t, tree.Errors)

	decl := tree.Nodes[tree.RootDecls()[0]]
	init := tree.Nodes[decl.Data.RHS]
	require.Equal(t, ast.StructInit, init.Tag)
	assert.Equal(t, ast.Identifier, tree.Nodes[init.Data.LHS].Tag)

	rng := ast.ExtraData[ast.SubRange](tree, init.Data.RHS)
	fields := tree.ExtraRange(ast.NodeData{LHS: rng.Start, RHS: rng.End})
	require.Len(t, fields, 2)
	assert.Equal(t, ast.NumberLiteral, tree.Nodes[fields[0]].Tag)
	assert.Equal(t, ast.NumberLiteral, tree.Nodes[fields[1]].Tag)
}

func TestTypedArrayInitOneElement(t *testing.T) {
	tree := parse(t, "const a = [1]u8{7};")
	require.Empty(t, tree.Errors)

	decl := tree.Nodes[tree.RootDecls()[0]]
	init := tree.Nodes[decl.Data.RHS]
	require.Equal(t, ast.ArrayInitOne, init.Tag)
	assert.Equal(t, ast.ArrayType, tree.Nodes[init.Data.LHS].Tag)
	assert.Equal(t, ast.NumberLiteral, tree.Nodes[init.Data.RHS].Tag)
}

func TestDotArrayInit(t *testing.T) {
	tree := parse(t, "const a = .{ 1, 2 };")
	require.Empty(t, tree.Errors)
	decl := tree.Nodes[tree.RootDecls()[0]]
	init := tree.Nodes[decl.Data.RHS]
	assert.Equal(t, ast.ArrayInitDotTwo, init.Tag)
}

func TestLabeledBlockExpression(t *testing.T) {
	tree := parse(t, "const x = blk: {\n    break :blk 1;\n};")
	require.Empty(t, tree.Errors)

	decl := tree.Nodes[tree.RootDecls()[0]]
	require.Equal(t, ast.SimpleVarDecl, decl.Tag)
	body := tree.Nodes[decl.Data.RHS]
	require.Equal(t, ast.BlockTwo, body.Tag)
	brk := tree.Nodes[body.Data.LHS]
	require.Equal(t, ast.Break, brk.Tag)
	assert.Equal(t, "blk", string(tree.TokenSlice(brk.Data.LHS)))
}

func TestWhileWithContinueExpression(t *testing.T) {
	src := wrapInFn(t, "while (i < n) : (i += 1) {\n    f(i);\n}")
	tree := parse(t, src)
	require.Empty(t, tree.Errors)

	stmt := onlyStatement(t, tree)
	require.Equal(t, ast.WhileCont, stmt.Tag)
	extra := ast.ExtraData[ast.WhileContExtra](tree, stmt.Data.RHS)
	assert.Equal(t, ast.AssignAdd, tree.Nodes[extra.Cont].Tag)
	assert.Equal(t, ast.BlockTwo, tree.Nodes[extra.Then].Tag)
}

func TestSwitchProngShapes(t *testing.T) {
	src := wrapInFn(t, `switch (x) {
    1, 2 => a = 1,
    3..4 => f(),
    inline else => g(),
}`)
	tree := parse(t, src)
	require.Empty(t, tree.Errors)

	sw := onlyStatement(t, tree)
	require.Equal(t, ast.SwitchComma, sw.Tag)
	rng := ast.ExtraData[ast.SubRange](tree, sw.Data.RHS)
	prongs := tree.ExtraRange(ast.NodeData{LHS: rng.Start, RHS: rng.End})
	require.Len(t, prongs, 3)

	multi := tree.Nodes[prongs[0]]
	require.Equal(t, ast.SwitchCase, multi.Tag)
	caseExtra := ast.ExtraData[ast.SwitchCaseExtra](tree, multi.Data.LHS)
	items := tree.ExtraRange(ast.NodeData{LHS: caseExtra.ItemsStart, RHS: caseExtra.ItemsEnd})
	assert.Len(t, items, 2)
	assert.Equal(t, ast.Assign, tree.Nodes[caseExtra.Body].Tag)

	ranged := tree.Nodes[prongs[1]]
	require.Equal(t, ast.SwitchCaseOne, ranged.Tag)
	assert.Equal(t, ast.SwitchRange, tree.Nodes[ranged.Data.RHS].Tag)

	inlineElse := tree.Nodes[prongs[2]]
	require.Equal(t, ast.SwitchCaseOneInline, inlineElse.Tag)
	assert.Equal(t, ast.Index(0), inlineElse.Data.RHS)
}

func TestAsmWithSections(t *testing.T) {
	src := wrapInFn(t, `const r = asm volatile ("syscall"
    : [ret] "={rax}" (-> usize),
    : [number] "{rax}" (n),
    : "rcx", "r11");`)
	tree := parse(t, src)
	require.Empty(t, tree.Errors)

	stmt := onlyStatement(t, tree)
	require.Equal(t, ast.SimpleVarDecl, stmt.Tag)
	asmNode := tree.Nodes[stmt.Data.RHS]
	require.Equal(t, ast.Asm, asmNode.Tag)

	extra := ast.ExtraData[ast.AsmExtra](tree, asmNode.Data.LHS)
	assert.Equal(t, ast.StringLiteral, tree.Nodes[extra.Template].Tag)
	items := tree.ExtraRange(ast.NodeData{LHS: extra.ItemsStart, RHS: extra.ItemsEnd})
	require.Len(t, items, 4)
	assert.Equal(t, ast.AsmOutput, tree.Nodes[items[0]].Tag)
	assert.Equal(t, ast.AsmInput, tree.Nodes[items[1]].Tag)
	assert.Equal(t, ast.StringLiteral, tree.Nodes[items[2]].Tag)
	assert.Equal(t, ast.StringLiteral, tree.Nodes[items[3]].Tag)
}

func TestBareCStyleContainerMemberRecovery(t *testing.T) {
	tree := parse(t, "struct Foo {};\nconst T = 1;")

	var haveErr, haveNote bool
	for _, e := range tree.Errors {
		if e.Tag == ast.CStyleContainer {
			haveErr = true
			assert.Equal(t, "Foo", string(tree.TokenSlice(e.Token)))
		}
		if e.Tag == ast.ZigStyleContainer {
			haveNote = true
		}
	}
	assert.True(t, haveErr)
	assert.True(t, haveNote)

	decls := tree.RootDecls()
	require.Len(t, decls, 1)
	assert.Equal(t, ast.SimpleVarDecl, tree.Nodes[decls[0]].Tag)
}

func TestExpectedVarConstAfterLabel(t *testing.T) {
	src := wrapInFn(t, "x: i32 = 5;")
	tree := parse(t, src)

	var found bool
	for _, e := range tree.Errors {
		if e.Tag == ast.ExpectedVarConst {
			found = true
			assert.Equal(t, "x", string(tree.TokenSlice(e.Token)))
		}
	}
	assert.True(t, found)
}

func TestPointerTypeCollapsesToSmallestShape(t *testing.T) {
	tree := parse(t, "const p: *align(8) const u8 = &b;")
	require.Empty(t, tree.Errors)

	decl := tree.Nodes[tree.RootDecls()[0]]
	require.Equal(t, ast.SimpleVarDecl, decl.Tag)
	ptr := tree.Nodes[decl.Data.LHS]
	require.Equal(t, ast.PtrTypeAligned, ptr.Tag)
	assert.Equal(t, ast.NumberLiteral, tree.Nodes[ptr.Data.LHS].Tag)
	assert.Equal(t, ast.Identifier, tree.Nodes[ptr.Data.RHS].Tag)
}

func TestDuplicatePtrModifierDiagnosed(t *testing.T) {
	tree := parse(t, "const p: *const const u8 = &b;")
	var found bool
	for _, e := range tree.Errors {
		if e.Tag == ast.ExtraConstQualifier {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDestructureWithVarDecls(t *testing.T) {
	src := wrapInFn(t, "const a, const b = t;")
	tree := parse(t, src)
	require.Empty(t, tree.Errors)

	stmt := onlyStatement(t, tree)
	require.Equal(t, ast.AssignDestructure, stmt.Tag)
	count := tree.Extra[stmt.Data.RHS]
	require.EqualValues(t, 2, count)
	assert.Equal(t, ast.SimpleVarDecl, tree.Nodes[tree.Extra[stmt.Data.RHS+1]].Tag)
	assert.Equal(t, ast.SimpleVarDecl, tree.Nodes[tree.Extra[stmt.Data.RHS+2]].Tag)
}

func TestForWithMultipleInputsPacksPayload(t *testing.T) {
	src := wrapInFn(t, "for (xs, 0..) |x, i| {\n    f(x, i);\n}")
	tree := parse(t, src)
	require.Empty(t, tree.Errors)

	forNode := onlyStatement(t, tree)
	require.Equal(t, ast.For, forNode.Tag)
	inputs, hasElse := ast.UnpackForPayload(forNode.Data.RHS)
	assert.EqualValues(t, 2, inputs)
	assert.False(t, hasElse)
	assert.Equal(t, ast.ForRange, tree.Nodes[tree.Extra[forNode.Data.LHS+1]].Tag)
}

func TestForCaptureCountMismatchDiagnosed(t *testing.T) {
	src := wrapInFn(t, "for (xs, ys) |x| {}")
	tree := parse(t, src)
	var found bool
	for _, e := range tree.Errors {
		if e.Tag == ast.ForInputNotCaptured {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIfElseChainAsStatement(t *testing.T) {
	src := wrapInFn(t, "if (a) {\n    f();\n} else if (b) g() else h();")
	tree := parse(t, src)
	assert.Empty(t, tree.Errors)
	stmt := onlyStatement(t, tree)
	assert.Equal(t, ast.If, stmt.Tag)
}

func TestSliceSuffixForms(t *testing.T) {
	tree := parse(t, "const a = s[1..];\nconst b = s[1..2];\nconst c = s[1..2 :0];\nconst d = s[1];")
	require.Empty(t, tree.Errors)

	decls := tree.RootDecls()
	require.Len(t, decls, 4)
	wantTags := []ast.Tag{ast.SliceOpen, ast.Slice, ast.SliceSentinel, ast.ArrayAccess}
	for i, want := range wantTags {
		decl := tree.Nodes[decls[i]]
		assert.Equalf(t, want, tree.Nodes[decl.Data.RHS].Tag, "decl %d", i)
	}
}

func TestDerefAndUnwrapSuffixTokens(t *testing.T) {
	tree := parse(t, "const a = p.*;\nconst b = q.?;\nconst c = r.field;")
	require.Empty(t, tree.Errors)

	decls := tree.RootDecls()
	require.Len(t, decls, 3)
	assert.Equal(t, ast.Deref, tree.Nodes[tree.Nodes[decls[0]].Data.RHS].Tag)
	assert.Equal(t, ast.UnwrapOptional, tree.Nodes[tree.Nodes[decls[1]].Data.RHS].Tag)
	fa := tree.Nodes[tree.Nodes[decls[2]].Data.RHS]
	require.Equal(t, ast.FieldAccess, fa.Tag)
	assert.Equal(t, "field", string(tree.TokenSlice(fa.Data.RHS)))
}

func TestZonModeParsesSingleExpression(t *testing.T) {
	src := ".{ .name = \"demo\", .version = \"1.0.0\" }"
	tokens := token.NewLexer([]byte(src)).Tokenize()
	tree := ParseZon([]byte(src), tokens)
	require.Empty(t, tree.Errors)
	require.Equal(t, ast.Root, tree.Nodes[0].Tag)
	root := tree.Nodes[0]
	assert.Equal(t, ast.StructInitDotTwo, tree.Nodes[root.Data.LHS].Tag)
}

func TestMissingSemicolonRetargetsPreviousToken(t *testing.T) {
	src := wrapInFn(t, "f()\ng();")
	tree := parse(t, src)

	var found bool
	for _, e := range tree.Errors {
		if e.Tag == ast.ExpectedSemiAfterStmt {
			found = true
			assert.True(t, e.TokenIsPrev)
		}
	}
	assert.True(t, found)
}

// --- helpers ---

func wrapInFn(t *testing.T, stmt string) string {
	t.Helper()
	return "fn f() void {\n" + stmt + "\n}\n"
}

func onlyStatement(t *testing.T, tree *ast.Tree) ast.Node {
	t.Helper()
	decls := tree.RootDecls()
	require.Len(t, decls, 1)
	fn := tree.Nodes[decls[0]]
	require.Equal(t, ast.FnDecl, fn.Tag)
	body := tree.Nodes[fn.Data.RHS]
	switch body.Tag {
	case ast.BlockTwo:
		require.NotEqual(t, ast.Index(0), body.Data.LHS)
		return tree.Nodes[body.Data.LHS]
	case ast.Block:
		items := tree.ExtraRange(body.Data)
		require.Len(t, items, 1)
		return tree.Nodes[items[0]]
	default:
		t.Fatalf("unexpected body tag %v", body.Tag)
		return ast.Node{}
	}
}

func filterErrorsExcept(errs []ast.Error, allowed ...ast.DiagTag) []ast.Error {
	allowedSet := make(map[ast.DiagTag]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}
	var out []ast.Error
	for _, e := range errs {
		if !allowedSet[e.Tag] {
			out = append(out, e)
		}
	}
	return out
}
