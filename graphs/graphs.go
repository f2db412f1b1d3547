// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graphs defines the batched graph structure consumed by the GNN models in this
// repository.
//
// A Graph is a single graph on the host: a node count, a directed edge list and optionally
// one feature vector per node. Graphs are combined with NewBatch into a Batch, the disjoint
// union of the graphs -- node indices are shifted so all nodes live in one contiguous
// index space, and a node→graph assignment vector remembers which graph each node came
// from. This is the same representation DGL and jraph use for batching graphs of varying
// sizes into a single static computation.
//
// Batch.Inputs converts the batch to tensors that can be fed to a model (or yielded by a
// train.Dataset), and FromInputs rebuilds the graph-side view (a Topology plus the node
// features) inside a model graph function.
package graphs

import (
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// Graph is one graph on the host, with nodes numbered from 0 to NumNodes-1.
//
// Edges are directed: messages flow from sender to receiver. For undirected graphs add
// both directions -- see AddEdge / AddUndirectedEdge.
type Graph struct {
	NumNodes int

	// Senders and Receivers are the edge endpoints, parallel slices of the same length.
	Senders, Receivers []int32

	// Features holds one feature vector per node, so len(Features) == NumNodes.
	// All rows must have the same length. It may be left nil if features are
	// provided by other means.
	Features [][]float32

	// Label is the graph-level class label.
	Label int32
}

// New creates a graph with the given number of nodes and no edges.
func New(numNodes int) *Graph {
	if numNodes <= 0 {
		Panicf("graphs: number of nodes must be positive, got %d", numNodes)
	}
	return &Graph{NumNodes: numNodes}
}

// AddEdge adds a directed edge from sender to receiver.
func (g *Graph) AddEdge(sender, receiver int32) *Graph {
	if sender < 0 || int(sender) >= g.NumNodes || receiver < 0 || int(receiver) >= g.NumNodes {
		Panicf("graphs: edge (%d→%d) out of range for graph with %d nodes", sender, receiver, g.NumNodes)
	}
	g.Senders = append(g.Senders, sender)
	g.Receivers = append(g.Receivers, receiver)
	return g
}

// AddUndirectedEdge adds the two directed edges between a and b.
func (g *Graph) AddUndirectedEdge(a, b int32) *Graph {
	return g.AddEdge(a, b).AddEdge(b, a)
}

// WithFeatures sets the node features, one row per node.
func (g *Graph) WithFeatures(features [][]float32) *Graph {
	if len(features) != g.NumNodes {
		Panicf("graphs: got %d feature rows for graph with %d nodes", len(features), g.NumNodes)
	}
	dim := -1
	for ii, row := range features {
		if dim == -1 {
			dim = len(row)
		} else if len(row) != dim {
			Panicf("graphs: feature row %d has %d values, previous rows had %d", ii, len(row), dim)
		}
	}
	g.Features = features
	return g
}

// WithLabel sets the graph-level class label.
func (g *Graph) WithLabel(label int32) *Graph {
	g.Label = label
	return g
}

// NumEdges returns the number of directed edges.
func (g *Graph) NumEdges() int {
	return len(g.Senders)
}

// FeatureDim returns the per-node feature dimension, or 0 if no features were set.
func (g *Graph) FeatureDim() int {
	if len(g.Features) == 0 {
		return 0
	}
	return len(g.Features[0])
}

// InDegrees returns the in-degree of each node.
func (g *Graph) InDegrees() []int {
	degrees := make([]int, g.NumNodes)
	for _, receiver := range g.Receivers {
		degrees[receiver]++
	}
	return degrees
}
