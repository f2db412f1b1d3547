// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pooling

import (
	"fmt"
	"testing"

	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/graph/graphtest"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/gnn/graphs"

	_ "github.com/gomlx/gomlx/backends/default"
)

func TestFromName(t *testing.T) {
	assert.Equal(t, TypeSum, FromName("sum"))
	assert.Equal(t, TypeMean, FromName("mean"))
	assert.Equal(t, TypeMax, FromName("max"))
	require.Panics(t, func() { FromName("avg") })
	require.Panics(t, func() { FromName("") })
}

// testBatch builds a batch of two graphs with 2 padding nodes and 3 padding edges:
//
//   - graph 0: a path 0–1–2 (both edge directions), features [1,10], [2,20], [3,30];
//   - graph 1: two nodes with the single directed edge 0→1, features [4,40], [5,50].
func testBatch() *graphs.Batch {
	path := graphs.New(3)
	path.AddUndirectedEdge(0, 1)
	path.AddUndirectedEdge(1, 2)
	path.WithFeatures([][]float32{{1, 10}, {2, 20}, {3, 30}})

	pair := graphs.New(2)
	pair.AddEdge(0, 1)
	pair.WithFeatures([][]float32{{4, 40}, {5, 50}})

	return graphs.NewBatch(path, pair).WithPadding(7, 8)
}

func poolEachType(t *testing.T, poolFn func(pool Type, topo *graphs.Topology, h *Node) *Node) map[Type][][]float32 {
	backend := graphtest.BuildTestBackend()
	results := make(map[Type][][]float32)
	for _, pool := range TypeValues() {
		inputTensors := make([]any, 0, graphs.NumInputs)
		for _, input := range testBatch().Inputs() {
			inputTensors = append(inputTensors, input)
		}
		var output *tensors.Tensor
		require.NotPanicsf(t, func() {
			output = MustExecOnce(backend, func(inputs []*Node) *Node {
				topo, features := graphs.FromInputs(inputs)
				return poolFn(pool, topo, features)
			}, inputTensors...)
		}, "%s pooling failed to exec", pool)
		fmt.Printf("\t%s: %s\n", pool, output.GoStr())
		results[pool] = output.Value().([][]float32)
	}
	return results
}

func TestByGraph(t *testing.T) {
	results := poolEachType(t, ByGraph)

	// Per graph, over real nodes only: padding must not leak into any strategy.
	assert.Equal(t, [][]float32{{6, 60}, {9, 90}}, results[TypeSum])
	assert.Equal(t, [][]float32{{2, 20}, {4.5, 45}}, results[TypeMean])
	assert.Equal(t, [][]float32{{3, 30}, {5, 50}}, results[TypeMax])
}

func TestNeighbors(t *testing.T) {
	results := poolEachType(t, Neighbors)

	// Graph 0: node 1 has in-neighbors {0, 2}, nodes 0 and 2 have in-neighbor {1}.
	// Graph 1: batch node 3 has no in-edges (all strategies must yield zeros, not
	// NaN or -inf), batch node 4 receives from node 3. Batch nodes 5 and 6 are
	// padding: node 5 only has zero-feature self-loops.
	assert.Equal(t, [][]float32{
		{2, 20}, {4, 40}, {2, 20}, {0, 0}, {4, 40}, {0, 0}, {0, 0}}, results[TypeSum])
	assert.Equal(t, [][]float32{
		{2, 20}, {2, 20}, {2, 20}, {0, 0}, {4, 40}, {0, 0}, {0, 0}}, results[TypeMean])
	assert.Equal(t, [][]float32{
		{2, 20}, {3, 30}, {2, 20}, {0, 0}, {4, 40}, {0, 0}, {0, 0}}, results[TypeMax])
}

func TestByGraphWithoutPadding(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	single := graphs.New(3)
	single.AddUndirectedEdge(0, 1)
	single.WithFeatures([][]float32{{1, -1}, {2, -2}, {3, -3}})
	inputTensors := make([]any, 0, graphs.NumInputs)
	for _, input := range graphs.NewBatch(single).Inputs() {
		inputTensors = append(inputTensors, input)
	}
	// The dummy segment is empty here: max pooling must still not produce -inf.
	output := MustExecOnce(backend, func(inputs []*Node) *Node {
		topo, features := graphs.FromInputs(inputs)
		return ByGraph(TypeMax, topo, features)
	}, inputTensors...)
	assert.Equal(t, [][]float32{{3, -1}}, output.Value().([][]float32))
}
