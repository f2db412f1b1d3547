// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package synthetic

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGraph(t *testing.T) {
	cycle := RandomGraph(ClassCycle, 5)
	assert.Equal(t, 5, cycle.NumNodes)
	assert.Equal(t, 10, cycle.NumEdges()) // 5 undirected edges.
	assert.Equal(t, int32(ClassCycle), cycle.Label)
	// Every node of a cycle has degree 2: feature one-hot at index 2.
	for node, row := range cycle.Features {
		assert.Equalf(t, float32(1), row[2], "node %d of a cycle must have degree 2", node)
	}

	star := RandomGraph(ClassStar, 5)
	assert.Equal(t, 8, star.NumEdges())
	// Center has degree 4, leaves degree 1.
	assert.Equal(t, float32(1), star.Features[0][4])
	assert.Equal(t, float32(1), star.Features[1][1])

	// Degrees are capped: the center of a large star stays within the feature dim.
	bigStar := RandomGraph(ClassStar, 2*MaxDegree)
	assert.Equal(t, float32(1), bigStar.Features[0][MaxDegree])

	require.Panics(t, func() { RandomGraph(NumClasses, 5) })
}

func TestDatasetYield(t *testing.T) {
	ds := New("test", 4, 6, 10, 42)
	spec, inputs, labels, err := ds.Yield()
	require.NoError(t, err)
	require.Len(t, inputs, 5)
	require.Len(t, labels, 1)

	batchSpec, ok := spec.(interface{ NumClasses() int })
	require.True(t, ok, "spec must report the number of classes")
	assert.Equal(t, NumClasses, batchSpec.NumClasses())

	// All batches are padded to the same static shapes.
	wantNodes := 4*10 + 1
	wantEdges := 2 * 4 * 10
	assert.Equal(t, []int{wantNodes, MaxDegree + 1}, inputs[0].Shape().Dimensions)
	assert.Equal(t, []int{wantEdges}, inputs[1].Shape().Dimensions)
	assert.Equal(t, []int{wantEdges}, inputs[2].Shape().Dimensions)
	assert.Equal(t, []int{wantNodes}, inputs[3].Shape().Dimensions)
	assert.Equal(t, []int{4}, inputs[4].Shape().Dimensions)
	assert.Equal(t, []int{4, 1}, labels[0].Shape().Dimensions)

	// Labels are valid classes.
	for _, label := range labels[0].Value().([][]int32) {
		assert.GreaterOrEqual(t, label[0], int32(0))
		assert.Less(t, label[0], int32(NumClasses))
	}
}

func TestDatasetDeterminism(t *testing.T) {
	a := New("a", 4, 6, 10, 42)
	b := New("b", 4, 6, 10, 42)
	_, inputsA, labelsA, err := a.Yield()
	require.NoError(t, err)
	_, inputsB, labelsB, err := b.Yield()
	require.NoError(t, err)
	assert.Equal(t, labelsA[0].Value(), labelsB[0].Value())
	for ii := range inputsA {
		assert.Equal(t, inputsA[ii].Value(), inputsB[ii].Value())
	}

	// Reset restarts the stream.
	a.Reset()
	_, _, labelsA1, err := a.Yield()
	require.NoError(t, err)
	assert.Equal(t, labelsA[0].Value(), labelsA1[0].Value())
}

func TestDatasetEpoch(t *testing.T) {
	ds := New("epoch", 2, 6, 8, 1).NumBatches(3)
	for range 3 {
		_, _, _, err := ds.Yield()
		require.NoError(t, err)
	}
	_, _, _, err := ds.Yield()
	require.Equal(t, io.EOF, err)
	ds.Reset()
	_, _, _, err = ds.Yield()
	require.NoError(t, err)
}
