// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gin

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	"github.com/gomlx/gomlx/pkg/ml/layers/batchnorm"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
)

// MLP applies a multilayer perceptron to x, the node function used inside each GIN
// convolution.
//
// With numLayers == 1 it degenerates to a single linear layer mapping to outputDim.
// Otherwise it applies numLayers-1 hidden layers of hiddenDim units, each followed
// by batch normalization and a ReLU, and a final linear layer to outputDim.
//
// It panics if numLayers < 1. Variables are created in scopes under ctx, so wrap the
// call in ctx.In(...) to keep separate instances separate.
func MLP(ctx *context.Context, x *Node, numLayers, hiddenDim, outputDim int) *Node {
	if numLayers < 1 {
		Panicf("MLP requires at least one layer, got numLayers=%d", numLayers)
	}
	if numLayers == 1 {
		// Plain linear model.
		return layers.DenseWithBias(ctx.In("linear"), x, outputDim)
	}
	for ii := range numLayers - 1 {
		layerCtx := ctx.Inf("hidden_%d", ii)
		x = layers.DenseWithBias(layerCtx, x, hiddenDim)
		x = batchnorm.New(layerCtx.In("norm"), x, -1).Done()
		x = activations.Relu(x)
	}
	return layers.DenseWithBias(ctx.In("output"), x, outputDim)
}
