// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package synthetic generates random graph classification datasets, used by the demo
// and tests of the gin package.
//
// Each example is a graph drawn from one of a few topology families (the class
// label): cycles, stars, paths and complete binary trees, with a random number of
// nodes. Node features are a one-hot encoding of the node degree (capped at
// MaxDegree), so the classes are distinguishable purely from structure, the setting
// graph isomorphism networks are designed for.
//
// Dataset implements train.Dataset, yielding batches in the format produced by
// graphs.Batch.Inputs. All batches are padded to the same node and edge counts, so
// the computation graph is compiled only once.
package synthetic

import (
	"io"
	"math/rand/v2"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"

	"github.com/gomlx/gnn/graphs"
)

// MaxDegree caps the node degree used for the one-hot features. The feature
// dimension is MaxDegree+1.
const MaxDegree = 8

// NumClasses is the number of topology families generated.
const NumClasses = 4

// Topology families, in label order.
const (
	ClassCycle = iota
	ClassStar
	ClassPath
	ClassBinaryTree
)

// Spec describes the examples of a Dataset. It is yielded as the dataset's spec and
// satisfies gin.BatchSpec.
type Spec struct{}

// NumClasses returns the number of classes labeled by the dataset.
func (Spec) NumClasses() int { return NumClasses }

// FeatureDim returns the dimension of the node features.
func (Spec) FeatureDim() int { return MaxDegree + 1 }

// Dataset yields batches of randomly generated, labeled graphs. It is safe for
// concurrent use (e.g. wrapped in datasets.Parallel).
type Dataset struct {
	name               string
	batchSize          int
	minNodes, maxNodes int
	numBatches         int

	mu      sync.Mutex
	rng     *rand.Rand
	seed    uint64
	yielded int
}

// New creates a Dataset yielding batches of batchSize random graphs, each with a node
// count uniformly drawn from [minNodes, maxNodes].
//
// By default it is infinite (for training); use NumBatches to limit it to a fixed
// number of batches per epoch (for evaluation). The given seed makes the stream
// deterministic: the same seed always generates the same sequence of batches.
func New(name string, batchSize, minNodes, maxNodes int, seed uint64) *Dataset {
	if batchSize < 1 {
		Panicf("synthetic.New: batchSize must be positive, got %d", batchSize)
	}
	if minNodes < 3 || maxNodes < minNodes {
		Panicf("synthetic.New: need 3 <= minNodes <= maxNodes, got minNodes=%d, maxNodes=%d",
			minNodes, maxNodes)
	}
	return &Dataset{
		name:      name,
		batchSize: batchSize,
		minNodes:  minNodes,
		maxNodes:  maxNodes,
		rng:       rand.New(rand.NewPCG(seed, 0)),
		seed:      seed,
	}
}

// NumBatches limits the dataset to n batches per epoch, after which Yield returns
// io.EOF until Reset is called. n <= 0 means infinite.
func (ds *Dataset) NumBatches(n int) *Dataset {
	ds.numBatches = n
	return ds
}

// Name implements train.Dataset.
func (ds *Dataset) Name() string { return ds.name }

// Reset implements train.Dataset, restarting the epoch and the random stream.
func (ds *Dataset) Reset() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.yielded = 0
	ds.rng = rand.New(rand.NewPCG(ds.seed, 0))
}

// Yield implements train.Dataset. The inputs are those of graphs.Batch.Inputs and
// the single label tensor is shaped [batchSize, 1] with the class of each graph.
func (ds *Dataset) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.numBatches > 0 && ds.yielded >= ds.numBatches {
		return nil, nil, nil, io.EOF
	}
	ds.yielded++

	examples := make([]*graphs.Graph, ds.batchSize)
	for ii := range examples {
		class := ds.rng.IntN(NumClasses)
		numNodes := ds.minNodes + ds.rng.IntN(ds.maxNodes-ds.minNodes+1)
		examples[ii] = RandomGraph(class, numNodes)
	}
	batch := graphs.NewBatch(examples...).
		WithPadding(ds.batchSize*ds.maxNodes+1, 2*ds.batchSize*ds.maxNodes)
	return Spec{}, batch.Inputs(), []*tensors.Tensor{batch.LabelsTensor()}, nil
}

// RandomGraph builds one labeled graph of the given class with numNodes nodes, with
// degree-based one-hot features. The "random" part is only the node count, chosen by
// the caller; given class and numNodes the graph is fixed.
func RandomGraph(class, numNodes int) *graphs.Graph {
	g := graphs.New(numNodes)
	switch class {
	case ClassCycle:
		for ii := range numNodes {
			g.AddUndirectedEdge(int32(ii), int32((ii+1)%numNodes))
		}
	case ClassStar:
		for ii := 1; ii < numNodes; ii++ {
			g.AddUndirectedEdge(0, int32(ii))
		}
	case ClassPath:
		for ii := 1; ii < numNodes; ii++ {
			g.AddUndirectedEdge(int32(ii-1), int32(ii))
		}
	case ClassBinaryTree:
		for ii := 1; ii < numNodes; ii++ {
			g.AddUndirectedEdge(int32((ii-1)/2), int32(ii))
		}
	default:
		Panicf("synthetic.RandomGraph: invalid class %d, must be in [0, %d)", class, NumClasses)
	}
	return g.WithFeatures(degreeFeatures(g)).WithLabel(int32(class))
}

// degreeFeatures one-hot encodes each node's degree, capped at MaxDegree. Undirected
// edges are stored in both directions, so the in-degree is the degree.
func degreeFeatures(g *graphs.Graph) [][]float32 {
	features := make([][]float32, g.NumNodes)
	for node, degree := range g.InDegrees() {
		row := make([]float32, MaxDegree+1)
		row[min(degree, MaxDegree)] = 1
		features[node] = row
	}
	return features
}
