package trie

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/zparse/bytestream"
)

// literalScenario: insert two symbols sharing only a one-byte prefix,
// finalize, and compare the serialized stream against this known-good
// 42-byte dump (root, the "_" mid node, and two terminal leaves).
var literalScenario = []byte{
	0x00, 0x01, 0x5F, 0x00, 0x05,
	0x00, 0x02, 0x5F, 0x6D, 0x68, 0x5F, 0x65, 0x78, 0x65, 0x63, 0x75, 0x74, 0x65, 0x5F, 0x68, 0x65, 0x61, 0x64, 0x65, 0x72, 0x00, 0x21,
	0x6D, 0x61, 0x69, 0x6E, 0x00, 0x25,
	0x02, 0x00, 0x00,
	0x00, 0x03, 0x00, 0x80, 0x20,
	0x00,
}

func buildLiteralScenario(t *testing.T) *Trie {
	t.Helper()
	tr := New()
	tr.Insert(Symbol{Name: "__mh_execute_header", VMAddrOffset: 0})
	tr.Insert(Symbol{Name: "_main", VMAddrOffset: 0x1000})
	tr.Finalize()
	return tr
}

func TestInsertAndFinalizeMatchLiteral(t *testing.T) {
	tr := buildLiteralScenario(t)

	buf := bytestream.NewBuffer(nil)
	require.NoError(t, tr.Write(buf))
	assert.Equal(t, literalScenario, buf.Bytes())
	assert.EqualValues(t, len(literalScenario), tr.Size())
}

func TestReadRoundTripsLiteral(t *testing.T) {
	buf := bytestream.NewBuffer(append([]byte(nil), literalScenario...))
	got, err := Read(buf)
	require.NoError(t, err)

	require.NotNil(t, got.Root)
	require.Len(t, got.Root.Edges, 1)
	require.Equal(t, []byte("_"), got.Root.Edges[0].Label)

	mid := got.Root.Edges[0].To
	require.Len(t, mid.Edges, 2)
	require.Equal(t, []byte("_mh_execute_header"), mid.Edges[0].Label)
	require.Equal(t, []byte("main"), mid.Edges[1].Label)

	execHeader := mid.Edges[0].To
	assert.True(t, execHeader.HasTerminal)
	assert.EqualValues(t, 0, execHeader.VMAddrOffset)

	main := mid.Edges[1].To
	assert.True(t, main.HasTerminal)
	assert.EqualValues(t, 0x1000, main.VMAddrOffset)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	tr := New()
	symbols := []Symbol{
		{Name: "_foo", VMAddrOffset: 0x10},
		{Name: "_foobar", VMAddrOffset: 0x20},
		{Name: "_foobaz", VMAddrOffset: 0x30},
		{Name: "_quux", VMAddrOffset: 0x40},
	}
	for _, s := range symbols {
		tr.Insert(s)
	}
	tr.Finalize()

	buf := bytestream.NewBuffer(nil)
	require.NoError(t, tr.Write(buf))

	rbuf := bytestream.NewBuffer(buf.Bytes())
	got, err := Read(rbuf)
	require.NoError(t, err)

	for _, s := range symbols {
		node := lookup(got.Root, s.Name)
		require.NotNilf(t, node, "symbol %q not found after round trip", s.Name)
		assert.Truef(t, node.HasTerminal, "symbol %q missing terminal", s.Name)
		assert.EqualValuesf(t, s.VMAddrOffset, node.VMAddrOffset, "symbol %q", s.Name)
	}
}

func lookup(root *Node, name string) *Node {
	node := root
	remaining := []byte(name)
	for len(remaining) > 0 {
		edge := node.findEdge(remaining[0])
		if edge == nil {
			return nil
		}
		shared := commonPrefixLen(edge.Label, remaining)
		if shared != len(edge.Label) {
			return nil
		}
		node = edge.To
		remaining = remaining[shared:]
	}
	if !node.HasTerminal {
		return nil
	}
	return node
}

func TestInsertAfterShorterPrefixSplicesOneNewNode(t *testing.T) {
	tr := New()
	tr.Insert(Symbol{Name: "_st", VMAddrOffset: 1})
	before := tr.NodeCount()

	tr.Insert(Symbol{Name: "_start", VMAddrOffset: 2})
	after := tr.NodeCount()

	assert.Equal(t, before+1, after)

	st := lookup(tr.Root, "_st")
	require.NotNil(t, st)
	assert.EqualValues(t, 1, st.VMAddrOffset)

	require.Len(t, st.Edges, 1)
	assert.Equal(t, []byte("art"), st.Edges[0].Label)
	assert.True(t, st.Edges[0].To.HasTerminal)
	assert.EqualValues(t, 2, st.Edges[0].To.VMAddrOffset)
}

func TestFinalizeIsIdempotentAfterConvergence(t *testing.T) {
	tr := buildLiteralScenario(t)
	size1 := tr.Size()

	tr.Finalize()
	assert.Equal(t, size1, tr.Size())

	buf1 := bytestream.NewBuffer(nil)
	require.NoError(t, tr.Write(buf1))
	tr.Finalize()
	buf2 := bytestream.NewBuffer(nil)
	require.NoError(t, tr.Write(buf2))
	assert.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestBuildFinalizeWriteReadFinalizeWriteRoundTrip(t *testing.T) {
	tr := New()
	for _, s := range []Symbol{
		{Name: "_foo", VMAddrOffset: 1},
		{Name: "_foobar", VMAddrOffset: 2},
		{Name: "__mh_execute_header", VMAddrOffset: 0},
		{Name: "_main", VMAddrOffset: 0x1000},
	} {
		tr.Insert(s)
	}
	tr.Finalize()
	buf1 := bytestream.NewBuffer(nil)
	require.NoError(t, tr.Write(buf1))

	got, err := Read(bytestream.NewBuffer(buf1.Bytes()))
	require.NoError(t, err)
	got.Finalize()
	buf2 := bytestream.NewBuffer(nil)
	require.NoError(t, got.Write(buf2))

	assert.Equal(t, buf1.Bytes(), buf2.Bytes())
}

func TestReinsertingIdenticalSymbolDoesNotChangeNodeCount(t *testing.T) {
	tr := New()
	tr.Insert(Symbol{Name: "_main", VMAddrOffset: 0x1000})
	tr.Finalize()
	before := tr.NodeCount()

	tr.Insert(Symbol{Name: "_main", VMAddrOffset: 0x1000})
	tr.Finalize()

	assert.Equal(t, before, tr.NodeCount())
}

func TestWriteRejectsDirtyTrie(t *testing.T) {
	tr := New()
	tr.Insert(Symbol{Name: "_main", VMAddrOffset: 0})
	tr.Finalize()
	tr.Insert(Symbol{Name: "_other", VMAddrOffset: 0})

	err := tr.Write(bytestream.NewBuffer(nil))
	assert.ErrorIs(t, err, ErrDirty)
}

func TestWriteRejectsUnsupportedExportFlags(t *testing.T) {
	tr := New()
	tr.Insert(Symbol{Name: "_weird", VMAddrOffset: 0, ExportFlags: ExportSymbolFlagsReexport})
	tr.Finalize()

	err := tr.Write(bytestream.NewBuffer(nil))
	assert.ErrorIs(t, err, ErrUnsupportedFlags)
}

func TestEmptyTrieWritesNothing(t *testing.T) {
	tr := New()
	tr.Finalize()
	buf := bytestream.NewBuffer(nil)
	require.NoError(t, tr.Write(buf))
	assert.Empty(t, buf.Bytes())
	assert.True(t, bytes.Equal(buf.Bytes(), nil))
}
