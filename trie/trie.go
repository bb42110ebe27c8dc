// Package trie builds, lays out, and serializes the radix tree over symbol
// names that backs a Mach-O export-info blob: edges are spliced on insert,
// and an iterative fixed-point layout pass assigns every node its byte
// offset before serialization.
package trie

import "j5.nz/zparse/bytestream"

// Export symbol flag bits from the Mach-O export-info format. REEXPORT and
// STUB_AND_RESOLVER are not supported: neither writer nor reader accepts
// them, and both check for their absence.
const (
	ExportSymbolFlagsKindRegular     = 0x00
	ExportSymbolFlagsKindThreadLocal = 0x01
	ExportSymbolFlagsKindAbsolute    = 0x02
	ExportSymbolFlagsWeakDefinition  = 0x04
	ExportSymbolFlagsReexport        = 0x08
	ExportSymbolFlagsStubAndResolver = 0x10
)

// unsupportedFlags masks the bits this implementation never accepts.
const unsupportedFlags = ExportSymbolFlagsReexport | ExportSymbolFlagsStubAndResolver

// Symbol is one exported-symbol entry a caller inserts.
type Symbol struct {
	Name         string
	VMAddrOffset uint64
	ExportFlags  uint64
}

// Edge is a labeled, owned pointer to a child Node. Direction (from→to) is
// implicit in the owning Node's edges slice.
type Edge struct {
	Label []byte
	To    *Node
}

// Node is a trie node: an optional terminal export payload, and the edges
// it owns. trieOffset is Finalize's bookkeeping, not part of the logical
// tree; the dirty flag lives on Trie.
type Node struct {
	HasTerminal  bool
	ExportFlags  uint64
	VMAddrOffset uint64

	Edges []*Edge

	trieOffset uint64
}

func (n *Node) setTerminal(flags, addr uint64) {
	n.HasTerminal = true
	n.ExportFlags = flags
	n.VMAddrOffset = addr
}

func (n *Node) findEdge(b byte) *Edge {
	for _, e := range n.Edges {
		if len(e.Label) > 0 && e.Label[0] == b {
			return e
		}
	}
	return nil
}

// Trie is the radix tree over symbol names. The trie exclusively owns its
// root, and a node exclusively owns its outgoing edges and, transitively,
// its subtree; dropping the Trie releases the whole structure, so there is
// no explicit Destroy.
type Trie struct {
	Root  *Node
	nodes []*Node // breadth-first layout order, populated by Finalize; see Write.
	size  uint64
	dirty bool
}

// New returns an empty trie.
func New() *Trie { return &Trie{} }

// NodeCount returns the number of nodes currently in the tree: the root
// plus every node reachable through an edge. Re-inserting an identical
// symbol must not change it.
func (t *Trie) NodeCount() int {
	if t.Root == nil {
		return 0
	}
	return len(bfsOrder(t.Root))
}

// Size returns the last Finalize's total serialized byte size.
func (t *Trie) Size() uint64 { return t.size }

// Dirty reports whether Insert has run since the last Finalize.
func (t *Trie) Dirty() bool { return t.dirty }

// Insert walks from the root comparing the remaining label against each
// outgoing edge: splicing when an edge and the remaining label share a
// partial prefix, descending when the edge label is a full prefix, and
// appending a fresh edge+leaf when no edge shares any prefix at all.
func (t *Trie) Insert(sym Symbol) {
	if t.Root == nil {
		t.Root = &Node{}
	}
	t.dirty = true

	node := t.Root
	remaining := []byte(sym.Name)
	for {
		if len(remaining) == 0 {
			node.setTerminal(sym.ExportFlags, sym.VMAddrOffset)
			return
		}
		edge := node.findEdge(remaining[0])
		if edge == nil {
			leaf := &Node{}
			leaf.setTerminal(sym.ExportFlags, sym.VMAddrOffset)
			node.Edges = append(node.Edges, &Edge{Label: append([]byte(nil), remaining...), To: leaf})
			return
		}

		shared := commonPrefixLen(edge.Label, remaining)
		if shared == len(edge.Label) {
			// The edge's whole label matched; descend with the tail.
			node = edge.To
			remaining = remaining[shared:]
			continue
		}

		// Partial match: splice a new intermediate node in, re-parenting
		// the old child under it with the shortened remainder label.
		mid := &Node{}
		oldChild := edge.To
		oldTail := edge.Label[shared:]
		mid.Edges = append(mid.Edges, &Edge{Label: oldTail, To: oldChild})
		edge.Label = edge.Label[:shared]
		edge.To = mid

		if shared == len(remaining) {
			mid.setTerminal(sym.ExportFlags, sym.VMAddrOffset)
			return
		}
		leaf := &Node{}
		leaf.setTerminal(sym.ExportFlags, sym.VMAddrOffset)
		mid.Edges = append(mid.Edges, &Edge{Label: append([]byte(nil), remaining[shared:]...), To: leaf})
		return
	}
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func bfsOrder(root *Node) []*Node {
	order := []*Node{root}
	for i := 0; i < len(order); i++ {
		for _, e := range order[i].Edges {
			order = append(order, e.To)
		}
	}
	return order
}

// nodeSize computes a node's serialized byte length given the *current*
// trieOffset of each child: the terminal info (or a single zero byte), an
// edge-count byte, and each edge's label, NUL, and child offset.
func nodeSize(n *Node) int {
	var sz int
	if n.HasTerminal {
		inner := bytestream.SizeULEB128(n.ExportFlags) + bytestream.SizeULEB128(n.VMAddrOffset)
		sz = bytestream.SizeULEB128(uint64(inner)) + inner
	} else {
		sz = 1
	}
	sz++ // edge count byte
	for _, e := range n.Edges {
		sz += len(e.Label) + 1 + bytestream.SizeULEB128(e.To.trieOffset)
	}
	return sz
}

// Finalize runs the fixed-point layout: collect nodes breadth-first, then
// repeatedly recompute every node's offset from the current (possibly
// stale, from the prior pass) child offsets until a full pass makes no
// node move. Termination is guaranteed because offsets only
// grow and the set of representable ULEB128 lengths for a bounded tree is
// finite.
func (t *Trie) Finalize() {
	if t.Root == nil {
		t.size = 0
		t.dirty = false
		t.nodes = nil
		return
	}
	order := bfsOrder(t.Root)
	for {
		offset := uint64(0)
		changed := false
		for _, n := range order {
			if n.trieOffset != offset {
				changed = true
			}
			n.trieOffset = offset
			offset += uint64(nodeSize(n))
		}
		t.size = offset
		if !changed {
			break
		}
	}
	t.nodes = order
	t.dirty = false
}
