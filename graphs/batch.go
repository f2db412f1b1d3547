// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graphs

import (
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// Batch is the disjoint union of a list of graphs: all nodes (and their features) are
// concatenated, edge endpoints are shifted by the node offset of their graph, and
// nodeToGraph assigns each node back to the index of its graph.
//
// A Batch may be padded to fixed node/edge budgets (see WithPadding) so that repeated
// executions keep the same tensor shapes and reuse the same compiled computation.
// Padding follows a dummy-slot convention: padding nodes are appended at the end and
// assigned to graph slot NumGraphs, one past the real graphs; padding edges are
// self-loops on the first padding node. The pooling operations scatter into
// NumGraphs+1 segments and drop the last one, so padding never leaks into results.
type Batch struct {
	NumGraphs int

	// NumNodes and NumEdges are totals over the batch, padding included.
	NumNodes, NumEdges int

	// FeatureDim is the per-node feature dimension.
	FeatureDim int

	features      []float32 // flattened [NumNodes, FeatureDim]
	senders       []int32
	receivers     []int32
	nodeToGraph   []int32
	nodesPerGraph []int32 // real node counts, length NumGraphs
	labels        []int32
}

// NewBatch builds the disjoint union of the given graphs.
// All graphs must have features with the same dimension.
func NewBatch(gs ...*Graph) *Batch {
	if len(gs) == 0 {
		Panicf("graphs: NewBatch requires at least one graph")
	}
	featureDim := gs[0].FeatureDim()
	totalNodes, totalEdges := 0, 0
	for ii, g := range gs {
		if g.FeatureDim() != featureDim {
			Panicf("graphs: graph %d has feature dimension %d, graph 0 has %d", ii, g.FeatureDim(), featureDim)
		}
		totalNodes += g.NumNodes
		totalEdges += g.NumEdges()
	}

	b := &Batch{
		NumGraphs:     len(gs),
		NumNodes:      totalNodes,
		NumEdges:      totalEdges,
		FeatureDim:    featureDim,
		features:      make([]float32, 0, totalNodes*featureDim),
		senders:       make([]int32, 0, totalEdges),
		receivers:     make([]int32, 0, totalEdges),
		nodeToGraph:   make([]int32, 0, totalNodes),
		nodesPerGraph: make([]int32, 0, len(gs)),
		labels:        make([]int32, 0, len(gs)),
	}
	var offset int32
	for graphIdx, g := range gs {
		for _, row := range g.Features {
			b.features = append(b.features, row...)
		}
		for edge := range g.Senders {
			b.senders = append(b.senders, g.Senders[edge]+offset)
			b.receivers = append(b.receivers, g.Receivers[edge]+offset)
		}
		for range g.NumNodes {
			b.nodeToGraph = append(b.nodeToGraph, int32(graphIdx))
		}
		b.nodesPerGraph = append(b.nodesPerGraph, int32(g.NumNodes))
		b.labels = append(b.labels, g.Label)
		offset += int32(g.NumNodes)
	}
	return b
}

// WithPadding pads the batch in place to exactly maxNodes nodes and maxEdges edges.
//
// It requires maxNodes > NumNodes: at least one padding node is needed, because padding
// edges are self-loops on the first padding node, and padding nodes are parked on the
// dummy graph slot (index NumGraphs) that pooling drops.
//
// Padding node features are zeros, so they contribute nothing through the dense layers
// beyond the biases, and whatever they produce is discarded with the dummy slot.
func (b *Batch) WithPadding(maxNodes, maxEdges int) *Batch {
	if maxNodes <= b.NumNodes {
		Panicf("graphs: WithPadding(maxNodes=%d) must exceed the %d nodes already in the batch", maxNodes, b.NumNodes)
	}
	if maxEdges < b.NumEdges {
		Panicf("graphs: WithPadding(maxEdges=%d) cannot hold the %d edges already in the batch", maxEdges, b.NumEdges)
	}
	dummyNode := int32(b.NumNodes)
	for node := b.NumNodes; node < maxNodes; node++ {
		b.features = append(b.features, make([]float32, b.FeatureDim)...)
		b.nodeToGraph = append(b.nodeToGraph, int32(b.NumGraphs))
	}
	for edge := b.NumEdges; edge < maxEdges; edge++ {
		b.senders = append(b.senders, dummyNode)
		b.receivers = append(b.receivers, dummyNode)
	}
	b.NumNodes = maxNodes
	b.NumEdges = maxEdges
	return b
}

// NodeToGraph returns the graph assignment of each node (padding nodes map to NumGraphs).
func (b *Batch) NodeToGraph() []int32 { return b.nodeToGraph }

// NodesPerGraph returns the real (unpadded) node count of each graph.
func (b *Batch) NodesPerGraph() []int32 { return b.nodesPerGraph }

// Edges returns the edge endpoint slices, in batch node numbering.
func (b *Batch) Edges() (senders, receivers []int32) { return b.senders, b.receivers }

// Inputs converts the batch to the model input tensors, in the order expected by
// FromInputs: node features, edge senders, edge receivers, node→graph assignment and
// per-graph node counts.
func (b *Batch) Inputs() []*tensors.Tensor {
	return []*tensors.Tensor{
		tensors.FromFlatDataAndDimensions(b.features, b.NumNodes, b.FeatureDim),
		tensors.FromFlatDataAndDimensions(b.senders, b.NumEdges),
		tensors.FromFlatDataAndDimensions(b.receivers, b.NumEdges),
		tensors.FromFlatDataAndDimensions(b.nodeToGraph, b.NumNodes),
		tensors.FromFlatDataAndDimensions(b.nodesPerGraph, b.NumGraphs),
	}
}

// LabelsTensor returns the per-graph class labels, shaped [NumGraphs, 1] as expected by
// the sparse categorical losses and metrics.
func (b *Batch) LabelsTensor() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(b.labels, b.NumGraphs, 1)
}

// NumInputs is the number of tensors produced by Batch.Inputs and consumed by FromInputs.
const NumInputs = 5

// Topology is the graph-side (within a computation graph) view of a batch's structure:
// everything but the node features.
//
// The counts (NumNodes, NumEdges, NumGraphs) are static -- they come from the tensor
// shapes -- so model code can use them when building the computation.
type Topology struct {
	// Senders and Receivers are the edge endpoints, int32 shaped [NumEdges].
	Senders, Receivers *graph.Node

	// NodeToGraph assigns each node to its graph, int32 shaped [NumNodes].
	// Padding nodes are assigned to NumGraphs, the dummy slot.
	NodeToGraph *graph.Node

	// NodesPerGraph holds the real node count of each graph, int32 shaped [NumGraphs].
	NodesPerGraph *graph.Node

	NumNodes, NumEdges, NumGraphs int
}

// FromInputs splits the model inputs created by Batch.Inputs back into the batch
// Topology and the node features.
func FromInputs(inputs []*graph.Node) (topo *Topology, features *graph.Node) {
	if len(inputs) < NumInputs {
		Panicf("graphs: FromInputs requires %d inputs (as produced by Batch.Inputs), got %d", NumInputs, len(inputs))
	}
	features = inputs[0]
	topo = &Topology{
		Senders:       inputs[1],
		Receivers:     inputs[2],
		NodeToGraph:   inputs[3],
		NodesPerGraph: inputs[4],
	}
	if features.Rank() != 2 {
		Panicf("graphs: node features must be rank-2 ([numNodes, featureDim]), got shape %s", features.Shape())
	}
	topo.NumNodes = features.Shape().Dim(0)
	topo.NumEdges = topo.Senders.Shape().Dim(0)
	topo.NumGraphs = topo.NodesPerGraph.Shape().Dim(0)
	topo.Senders.AssertDims(topo.NumEdges)
	topo.Receivers.AssertDims(topo.NumEdges)
	topo.NodeToGraph.AssertDims(topo.NumNodes)
	return
}

// NumSegments is the number of graph slots pooling scatters into: one per graph plus
// the dummy slot that absorbs padding.
func (t *Topology) NumSegments() int {
	return t.NumGraphs + 1
}
