// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package pooling implements the segment pooling operations used by graph neural
// networks over batched graphs:
//
//   - ByGraph reduces all node states of each graph in a batch to one vector per graph
//     (the graph "readout"), as in DGL's SumPooling/AvgPooling/MaxPooling.
//   - Neighbors aggregates, for every node, the states of its in-neighbors over the
//     edge list, the aggregation half of a graph convolution.
//
// Both support the sum, mean and max strategies, selected by Type. They are built on
// the Gather/ScatterSum/ScatterMax ops, so they work on any backend and are fully
// differentiable.
package pooling

import (
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
	"github.com/gomlx/gnn/graphs"
)

// Type is an enum for the supported pooling strategies.
type Type int

const (
	TypeSum Type = iota
	TypeMean
	TypeMax
)

//go:generate go tool enumer -type=Type -trimprefix=Type -transform=snake -values -output=gen_type_enumer.go pooling.go

// FromName converts the name of a pooling strategy ("sum", "mean" or "max") to its
// type. It panics with a helpful message if the name is invalid.
func FromName(name string) Type {
	pool, err := TypeString(name)
	if err != nil {
		Panicf("invalid pooling type %q: options are %v", name, TypeValues())
	}
	return pool
}

// ByGraph reduces the node states h, shaped [topo.NumNodes, stateDim], to one vector
// per graph, returning a [topo.NumGraphs, stateDim] tensor.
//
// Nodes are grouped by topo.NodeToGraph. The mean strategy divides by the real node
// count of each graph (topo.NodesPerGraph), so padding nodes never dilute the mean;
// the max strategy treats padding as absent.
func ByGraph(pool Type, topo *graphs.Topology, h *Node) *Node {
	g := h.Graph()
	dtype := h.DType()
	if h.Rank() != 2 || h.Shape().Dim(0) != topo.NumNodes {
		Panicf("pooling.ByGraph: node states must be shaped [%d, stateDim], got %s", topo.NumNodes, h.Shape())
	}
	stateDim := h.Shape().Dim(1)
	numSegments := topo.NumSegments()
	indices := InsertAxes(topo.NodeToGraph, -1)

	var pooled *Node
	switch pool {
	case TypeSum:
		pooled = ScatterSum(Zeros(g, shapes.Make(dtype, numSegments, stateDim)), indices, h, false, false)
	case TypeMean:
		summed := ScatterSum(Zeros(g, shapes.Make(dtype, numSegments, stateDim)), indices, h, false, false)
		counts := ConvertDType(InsertAxes(topo.NodesPerGraph, -1), dtype)
		// The dummy slot has no count; give it 1 to keep the division well-defined.
		counts = Concatenate([]*Node{counts, Ones(g, shapes.Make(dtype, 1, 1))}, 0)
		pooled = Div(summed, counts)
	case TypeMax:
		lowest := BroadcastToDims(Infinity(g, dtype, -1), numSegments, stateDim)
		pooled = ScatterMax(lowest, indices, h, false, false)
		// Empty segments (possible for the dummy slot) stay at -inf; zero them.
		pooled = Where(IsFinite(pooled), pooled, ZerosLike(pooled))
	default:
		Panicf("pooling.ByGraph: invalid pooling type %d, options are %v", pool, TypeValues())
	}

	// Drop the dummy slot that absorbs padding nodes.
	return Slice(pooled, AxisRange(0, topo.NumGraphs), AxisRange())
}

// Neighbors aggregates for each node the states of its in-neighbors: for every edge the
// sender's state is a message delivered to the receiver, and messages are reduced
// per receiver with the given strategy.
//
// h must be shaped [topo.NumNodes, stateDim] and the result has the same shape. Nodes
// without in-edges get zeros (for mean the division is skipped, not by zero).
func Neighbors(pool Type, topo *graphs.Topology, h *Node) *Node {
	g := h.Graph()
	dtype := h.DType()
	if h.Rank() != 2 || h.Shape().Dim(0) != topo.NumNodes {
		Panicf("pooling.Neighbors: node states must be shaped [%d, stateDim], got %s", topo.NumNodes, h.Shape())
	}
	stateDim := h.Shape().Dim(1)
	messages := Gather(h, InsertAxes(topo.Senders, -1))
	indices := InsertAxes(topo.Receivers, -1)

	switch pool {
	case TypeSum:
		return ScatterSum(Zeros(g, shapes.Make(dtype, topo.NumNodes, stateDim)), indices, messages, false, false)
	case TypeMean:
		summed := ScatterSum(Zeros(g, shapes.Make(dtype, topo.NumNodes, stateDim)), indices, messages, false, false)
		degrees := MaxScalar(InDegrees(topo, dtype), 1) // To avoid division by 0.
		return Div(summed, degrees)
	case TypeMax:
		lowest := BroadcastToDims(Infinity(g, dtype, -1), topo.NumNodes, stateDim)
		pooled := ScatterMax(lowest, indices, messages, false, false)
		return Where(IsFinite(pooled), pooled, ZerosLike(pooled))
	default:
		Panicf("pooling.Neighbors: invalid pooling type %d, options are %v", pool, TypeValues())
	}
	return nil
}

// InDegrees counts the in-edges of each node of the batch, returning a [topo.NumNodes, 1]
// tensor of the given dtype.
func InDegrees(topo *graphs.Topology, dtype dtypes.DType) *Node {
	g := topo.Receivers.Graph()
	ones := Ones(g, shapes.Make(dtype, topo.NumEdges, 1))
	return ScatterSum(Zeros(g, shapes.Make(dtype, topo.NumNodes, 1)), InsertAxes(topo.Receivers, -1), ones, false, false)
}
