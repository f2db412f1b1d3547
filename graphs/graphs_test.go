// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graphs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() *Graph {
	g := New(3)
	g.AddUndirectedEdge(0, 1)
	g.AddUndirectedEdge(1, 2)
	g.AddUndirectedEdge(2, 0)
	return g.WithFeatures([][]float32{{1, 0}, {0, 1}, {1, 1}})
}

func pair() *Graph {
	g := New(2)
	g.AddEdge(0, 1)
	return g.WithFeatures([][]float32{{2, 2}, {3, 3}})
}

func TestGraph(t *testing.T) {
	g := triangle()
	assert.Equal(t, 3, g.NumNodes)
	assert.Equal(t, 6, g.NumEdges())
	assert.Equal(t, 2, g.FeatureDim())
	assert.Equal(t, []int{2, 2, 2}, g.InDegrees())

	require.Panics(t, func() { New(0) }, "no nodes")
	require.Panics(t, func() { New(2).AddEdge(0, 2) }, "receiver out of range")
	require.Panics(t, func() { New(2).AddEdge(-1, 0) }, "negative sender")
	require.Panics(t, func() { New(2).WithFeatures([][]float32{{1}}) }, "wrong number of rows")
	require.Panics(t, func() { New(2).WithFeatures([][]float32{{1}, {1, 2}}) }, "ragged rows")
}

func TestNewBatch(t *testing.T) {
	b := NewBatch(triangle(), pair())
	assert.Equal(t, 2, b.NumGraphs)
	assert.Equal(t, 5, b.NumNodes)
	assert.Equal(t, 7, b.NumEdges)
	assert.Equal(t, 2, b.FeatureDim)
	assert.Equal(t, []int32{0, 0, 0, 1, 1}, b.NodeToGraph())
	assert.Equal(t, []int32{3, 2}, b.NodesPerGraph())

	// The second graph's edge (0→1) must be shifted past the triangle's 3 nodes.
	senders, receivers := b.Edges()
	assert.Equal(t, int32(3), senders[6])
	assert.Equal(t, int32(4), receivers[6])

	require.Panics(t, func() { NewBatch() }, "empty batch")
	require.Panics(t, func() { NewBatch(triangle(), New(2)) }, "mismatching feature dimensions")
}

func TestBatchWithPadding(t *testing.T) {
	b := NewBatch(triangle(), pair()).WithPadding(8, 10)
	assert.Equal(t, 8, b.NumNodes)
	assert.Equal(t, 10, b.NumEdges)

	// Padding nodes are assigned to the dummy slot (== NumGraphs), real node counts
	// are unchanged.
	assert.Equal(t, []int32{0, 0, 0, 1, 1, 2, 2, 2}, b.NodeToGraph())
	assert.Equal(t, []int32{3, 2}, b.NodesPerGraph())

	// Padding edges are self-loops on the first padding node.
	senders, receivers := b.Edges()
	for edge := 7; edge < 10; edge++ {
		assert.Equal(t, int32(5), senders[edge])
		assert.Equal(t, int32(5), receivers[edge])
	}

	require.Panics(t, func() { NewBatch(triangle()).WithPadding(3, 10) }, "needs at least one padding node")
	require.Panics(t, func() { NewBatch(triangle()).WithPadding(4, 5) }, "cannot drop edges")
}

func TestBatchInputs(t *testing.T) {
	b := NewBatch(triangle(), pair()).WithPadding(6, 8)
	inputs := b.Inputs()
	require.Len(t, inputs, NumInputs)
	assert.Equal(t, []int{6, 2}, inputs[0].Shape().Dimensions)
	assert.Equal(t, []int{8}, inputs[1].Shape().Dimensions)
	assert.Equal(t, []int{8}, inputs[2].Shape().Dimensions)
	assert.Equal(t, []int{6}, inputs[3].Shape().Dimensions)
	assert.Equal(t, []int{2}, inputs[4].Shape().Dimensions)

	labels := b.LabelsTensor()
	assert.Equal(t, []int{2, 1}, labels.Shape().Dimensions)

	// Padding features are zeros.
	features := inputs[0].Value().([][]float32)
	assert.Equal(t, []float32{0, 0}, features[5])
}
