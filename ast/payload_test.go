package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every tag must have exactly one payload interpretation registered; a tag
// added to node.go without a nodeDataKind entry makes NodeDataKind panic,
// which this sweep turns into a test failure naming the tag.
func TestNodeDataKindIsTotal(t *testing.T) {
	for tag := Root; tag <= TaggedUnionEnumTagTrailing; tag++ {
		func(tag Tag) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("tag %d has no payload kind registered", tag)
				}
			}()
			NodeDataKind(tag)
		}(tag)
	}
}

func TestPackForPayloadRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		inputs  uint32
		hasElse bool
	}{
		{0, false}, {1, false}, {1, true}, {2, true}, {1<<31 - 1, true},
	} {
		inputs, hasElse := UnpackForPayload(PackForPayload(tc.inputs, tc.hasElse))
		assert.Equal(t, tc.inputs, inputs)
		assert.Equal(t, tc.hasElse, hasElse)
	}
}

func TestAddExtraAndExtraDataRoundTrip(t *testing.T) {
	tree := &Tree{}
	idx := AddExtra(tree, WhileExtra{Cont: 3, Then: 7, Else: 9})
	got := ExtraData[WhileExtra](tree, idx)
	assert.Equal(t, WhileExtra{Cont: 3, Then: 7, Else: 9}, got)

	// Packed structs append in field order, so a second record lands
	// immediately after the first.
	idx2 := AddExtra(tree, IfExtra{Then: 1, Else: 2})
	require.Equal(t, idx+3, idx2)
	assert.Equal(t, IfExtra{Then: 1, Else: 2}, ExtraData[IfExtra](tree, idx2))
}

func TestExtraRangeIsImmutableSlice(t *testing.T) {
	tree := &Tree{}
	rng := tree.AddExtraRange([]Index{4, 5, 6})
	require.Equal(t, SubRange{Start: 0, End: 3}, rng)

	out := tree.ExtraRange(NodeData{LHS: rng.Start, RHS: rng.End})
	require.Equal(t, []Index{4, 5, 6}, out)

	// The returned slice is a copy; mutating it must not touch the arena.
	out[0] = 99
	assert.EqualValues(t, 4, tree.Extra[0])
}
