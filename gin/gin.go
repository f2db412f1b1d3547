// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gin implements the Graph Isomorphism Network (GIN) model for graph
// classification, from "How Powerful are Graph Neural Networks?" (Xu et al., 2019,
// https://arxiv.org/abs/1810.00826).
//
// The model stacks graph convolutions where each node updates its state to
//
//	h = MLP((1+ε)·h + aggregate(neighbor states))
//
// followed by batch normalization and a ReLU, and reads out per-graph class scores
// with a jumping-knowledge head: the node states of every layer (including the raw
// input features) are pooled per graph, mapped linearly to the output dimension,
// passed through dropout and summed.
//
// It operates on batches of graphs represented by graphs.Topology (see the graphs
// package), and is built with the usual configuration pattern:
//
//	scores := gin.New(ctx, topo, features, numClasses).
//		NumLayers(5).GraphPooling(pooling.TypeMean).Done()
//
// Hyperparameters default to the context parameters below (Param* constants), so a
// model can also be configured entirely from flags or a checkpoint.
package gin

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/initializers"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	"github.com/gomlx/gomlx/pkg/ml/layers/batchnorm"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
	"github.com/gomlx/gnn/graphs"
	"github.com/gomlx/gnn/pooling"
)

const (
	// ParamNumLayers is the context parameter with the number of GIN layers,
	// counting the input features as the first one, so it uses ParamNumLayers-1
	// graph convolutions. Must be at least 1. Defaults to 5.
	ParamNumLayers = "gin_num_layers"

	// ParamNumMLPLayers is the context parameter with the number of layers of the
	// MLP used as node function inside each convolution. Defaults to 2.
	ParamNumMLPLayers = "gin_num_mlp_layers"

	// ParamHiddenDim is the context parameter with the dimension of the hidden node
	// states (and of the MLP hidden layers). Defaults to 64.
	ParamHiddenDim = "gin_hidden_dim"

	// ParamLearnEps is the context parameter selecting whether the ε weighting of a
	// node's own state is a learnable variable, as opposed to fixed at 0.
	// Defaults to false.
	ParamLearnEps = "gin_learn_eps"

	// ParamNeighborPooling is the context parameter with the aggregation used over
	// neighbor states, one of "sum", "mean" or "max". Defaults to "sum".
	ParamNeighborPooling = "gin_neighbor_pooling"

	// ParamGraphPooling is the context parameter with the readout pooling of node
	// states into per-graph vectors, one of "sum", "mean" or "max".
	// Defaults to "sum".
	ParamGraphPooling = "gin_graph_pooling"

	// ParamFinalDropout is the context parameter with the dropout rate applied to
	// the per-layer scores of the prediction head. Defaults to 0.5.
	ParamFinalDropout = "gin_final_dropout"
)

// Config is created with New and configures a GIN model. Call Done to build the
// computation graph that outputs the class scores.
type Config struct {
	ctx      *context.Context
	topo     *graphs.Topology
	features *Node

	outputDim    int
	numLayers    int
	numMLPLayers int
	hiddenDim    int
	learnEps     bool
	neighborPool pooling.Type
	graphPool    pooling.Type
	dropout      float64
}

// New creates the configuration to build a GIN model over one batch of graphs.
//
// topo describes the batch connectivity, features are the input node states shaped
// [topo.NumNodes, featureDim], and outputDim is the number of classes to score.
//
// Hyperparameters are initialized from the context parameters (see Param* constants)
// and can be overridden with the Config methods. Call Done when finished configuring,
// it returns the scores shaped [topo.NumGraphs, outputDim].
func New(ctx *context.Context, topo *graphs.Topology, features *Node, outputDim int) *Config {
	if outputDim < 1 {
		Panicf("gin.New: outputDim must be positive, got %d", outputDim)
	}
	if features.Rank() != 2 || features.Shape().Dim(0) != topo.NumNodes {
		Panicf("gin.New: features must be shaped [%d, featureDim], got %s", topo.NumNodes, features.Shape())
	}
	return &Config{
		ctx:          ctx,
		topo:         topo,
		features:     features,
		outputDim:    outputDim,
		numLayers:    context.GetParamOr(ctx, ParamNumLayers, 5),
		numMLPLayers: context.GetParamOr(ctx, ParamNumMLPLayers, 2),
		hiddenDim:    context.GetParamOr(ctx, ParamHiddenDim, 64),
		learnEps:     context.GetParamOr(ctx, ParamLearnEps, false),
		neighborPool: pooling.FromName(context.GetParamOr(ctx, ParamNeighborPooling, "sum")),
		graphPool:    pooling.FromName(context.GetParamOr(ctx, ParamGraphPooling, "sum")),
		dropout:      context.GetParamOr(ctx, ParamFinalDropout, 0.5),
	}
}

// NumLayers sets the number of GIN layers, counting the input features as the first
// one. It panics if n < 1.
func (c *Config) NumLayers(n int) *Config {
	if n < 1 {
		Panicf("gin.Config.NumLayers: number of layers must be positive, got %d", n)
	}
	c.numLayers = n
	return c
}

// NumMLPLayers sets the number of layers of the MLP node function. It panics
// if n < 1.
func (c *Config) NumMLPLayers(n int) *Config {
	if n < 1 {
		Panicf("gin.Config.NumMLPLayers: number of layers must be positive, got %d", n)
	}
	c.numMLPLayers = n
	return c
}

// HiddenDim sets the dimension of the hidden node states.
func (c *Config) HiddenDim(dim int) *Config {
	if dim < 1 {
		Panicf("gin.Config.HiddenDim: dimension must be positive, got %d", dim)
	}
	c.hiddenDim = dim
	return c
}

// LearnEps sets whether ε is a learnable variable. If false it is fixed at 0.
func (c *Config) LearnEps(learn bool) *Config {
	c.learnEps = learn
	return c
}

// NeighborPooling sets the aggregation of neighbor states.
func (c *Config) NeighborPooling(pool pooling.Type) *Config {
	if !pool.IsAType() {
		Panicf("gin.Config.NeighborPooling: invalid pooling type %d, options are %v", pool, pooling.TypeValues())
	}
	c.neighborPool = pool
	return c
}

// GraphPooling sets the readout pooling of node states into per-graph vectors.
func (c *Config) GraphPooling(pool pooling.Type) *Config {
	if !pool.IsAType() {
		Panicf("gin.Config.GraphPooling: invalid pooling type %d, options are %v", pool, pooling.TypeValues())
	}
	c.graphPool = pool
	return c
}

// Dropout sets the dropout rate of the prediction head. A rate of 0 disables it.
func (c *Config) Dropout(rate float64) *Config {
	if rate < 0 || rate >= 1 {
		Panicf("gin.Config.Dropout: rate must be in [0, 1), got %g", rate)
	}
	c.dropout = rate
	return c
}

// Done builds the model and returns the class scores (logits) shaped
// [topo.NumGraphs, outputDim].
//
// Variables are created (or reused) in scopes under the context given to New, so
// calling it twice with the same context reuses the same model weights.
func (c *Config) Done() *Node {
	if c.numLayers < 1 {
		Panicf("gin: number of layers must be positive, got %d", c.numLayers)
	}
	ctx := c.ctx

	// Node states per layer, the input features being layer 0.
	h := c.features
	hiddens := make([]*Node, 0, c.numLayers)
	hiddens = append(hiddens, h)
	for ii := range c.numLayers - 1 {
		h = c.convolve(ctx.Inf("gin_layer_%d", ii), h)
		hiddens = append(hiddens, h)
	}

	// Jumping-knowledge head: per-layer pooled scores are summed.
	var scores *Node
	for ii, h := range hiddens {
		pooled := pooling.ByGraph(c.graphPool, c.topo, h)
		layerScores := layers.DenseWithBias(ctx.Inf("readout_%d", ii), pooled, c.outputDim)
		layerScores = layers.DropoutStatic(ctx, layerScores, c.dropout)
		if scores == nil {
			scores = layerScores
		} else {
			scores = Add(scores, layerScores)
		}
	}
	return scores
}

// convolve runs one GIN convolution: each node combines its own state, weighted by
// 1+ε, with the aggregation of its neighbors', and the result goes through the MLP
// node function, batch normalization and a ReLU.
func (c *Config) convolve(ctx *context.Context, h *Node) *Node {
	aggregated := pooling.Neighbors(c.neighborPool, c.topo, h)
	if c.learnEps {
		epsVar := ctx.WithInitializer(initializers.Zero).
			VariableWithShape("eps", shapes.Make(h.DType()))
		h = Mul(h, AddScalar(epsVar.ValueGraph(h.Graph()), 1))
	}
	h = Add(h, aggregated)

	h = MLP(ctx.In("mlp"), h, c.numMLPLayers, c.hiddenDim, c.hiddenDim)
	h = batchnorm.New(ctx.In("mlp_norm"), h, -1).Done()
	h = activations.Relu(h)
	h = batchnorm.New(ctx.In("norm"), h, -1).Done()
	return activations.Relu(h)
}
