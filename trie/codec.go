package trie

import (
	"errors"
	"fmt"

	"j5.nz/zparse/bytestream"
)

// ErrDirty is returned by Write when Insert has run since the last
// Finalize, guarding against serializing stale offsets.
var ErrDirty = errors.New("trie: finalize required before write")

// ErrUnsupportedFlags is returned by the writer and the reader when
// EXPORT_SYMBOL_FLAGS_REEXPORT or _STUB_AND_RESOLVER appear; neither bit
// is supported in either direction, and silently accepting them would
// produce blobs other tools misread.
var ErrUnsupportedFlags = errors.New("trie: reexport/stub-and-resolver export flags are not supported")

// Write serializes t to w. Finalize assigns every node's offset as a
// prefix sum over a single fixed traversal order (breadth-first); because
// bytestream.Writer is a pure append stream with no seek, Write must emit
// nodes in that exact same order for a node's actual byte position to land
// on its recorded offset — otherwise a child edge's encoded ULEB128 offset
// would point at the wrong place.
func (t *Trie) Write(w bytestream.Writer) error {
	if t.dirty {
		return ErrDirty
	}
	if t.Root == nil {
		return nil
	}
	for _, n := range t.nodes {
		if err := writeNode(w, n); err != nil {
			return err
		}
	}
	return nil
}

func writeNode(w bytestream.Writer, n *Node) error {
	if n.ExportFlags&unsupportedFlags != 0 {
		return ErrUnsupportedFlags
	}
	if n.HasTerminal {
		inner := bytestream.SizeULEB128(n.ExportFlags) + bytestream.SizeULEB128(n.VMAddrOffset)
		if err := w.WriteULEB128(uint64(inner)); err != nil {
			return err
		}
		if err := w.WriteULEB128(n.ExportFlags); err != nil {
			return err
		}
		if err := w.WriteULEB128(n.VMAddrOffset); err != nil {
			return err
		}
	} else {
		if err := w.WriteByte(0x00); err != nil {
			return err
		}
	}
	if len(n.Edges) > 0xff {
		return fmt.Errorf("trie: node has %d edges, more than a single byte can hold", len(n.Edges))
	}
	if err := w.WriteByte(byte(len(n.Edges))); err != nil {
		return err
	}
	for _, e := range n.Edges {
		if err := w.WriteAll(e.Label); err != nil {
			return err
		}
		if err := w.WriteByte(0x00); err != nil {
			return err
		}
		if err := w.WriteULEB128(e.To.trieOffset); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a trie from r: recursive descent from the root, following
// each edge's child offset with SeekTo and restoring the cursor afterwards
// so sibling edges resume reading from where they left off in the parent's
// own edge list.
func Read(r bytestream.Reader) (*Trie, error) {
	t := New()
	root, err := readNode(r, 0)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

func readNode(r bytestream.Reader, at uint64) (*Node, error) {
	if err := r.SeekTo(int64(at)); err != nil {
		return nil, err
	}
	n := &Node{trieOffset: at}

	termLen, err := r.ReadULEB128()
	if err != nil {
		return nil, err
	}
	if termLen != 0 {
		flags, err := r.ReadULEB128()
		if err != nil {
			return nil, err
		}
		if flags&unsupportedFlags != 0 {
			return nil, ErrUnsupportedFlags
		}
		addr, err := r.ReadULEB128()
		if err != nil {
			return nil, err
		}
		n.setTerminal(flags, addr)
	}

	edgeCount, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	for i := byte(0); i < edgeCount; i++ {
		label, err := readCString(r)
		if err != nil {
			return nil, err
		}
		childOffset, err := r.ReadULEB128()
		if err != nil {
			return nil, err
		}
		resumeAt := r.Position()
		child, err := readNode(r, childOffset)
		if err != nil {
			return nil, err
		}
		if err := r.SeekTo(resumeAt); err != nil {
			return nil, err
		}
		n.Edges = append(n.Edges, &Edge{Label: label, To: child})
	}
	return n, nil
}

func readCString(r bytestream.Reader) ([]byte, error) {
	var label []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == 0x00 {
			return label, nil
		}
		label = append(label, b)
	}
}
