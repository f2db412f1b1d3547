// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// gin_demo trains a GIN classifier on a synthetic dataset of graph topologies
// (cycles, stars, paths and binary trees), demonstrating graph classification
// from structure alone.
//
// All model hyperparameters can be set with --set, e.g.:
//
//	go run ./cmd/gin_demo --set="gin_num_layers=3;gin_graph_pooling=mean"
package main

import (
	"flag"

	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/datasets"
	"github.com/gomlx/gomlx/pkg/support/exceptions"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/gomlx/gnn/gin"
	"github.com/gomlx/gnn/synthetic"

	_ "github.com/gomlx/gomlx/backends/default"
)

var (
	flagCheckpoint  = flag.String("checkpoint", "", "Directory to save and load checkpoints from. If left empty, no checkpoints are created.")
	flagEvalOnly    = flag.Bool("eval_only", false, "Skip training and only evaluate the checkpointed model.")
	flagVerbosity   = flag.Int("verbosity", 1, "Level of verbosity, the higher the more verbose.")
	flagMinNodes    = flag.Int("min_nodes", 6, "Minimum number of nodes of the generated graphs.")
	flagMaxNodes    = flag.Int("max_nodes", 16, "Maximum number of nodes of the generated graphs.")
	flagEvalBatches = flag.Int("eval_batches", 50, "Number of batches per evaluation epoch.")
	flagSeed        = flag.Uint64("seed", 42, "Seed of the synthetic dataset generator.")
)

func main() {
	ctx := gin.CreateDefaultContext()
	settings := commandline.CreateContextSettingsFlag(ctx, "")
	klog.InitFlags(nil)
	flag.Parse()
	paramsSet := must.M1(commandline.ParseContextSettings(ctx, *settings))
	err := exceptions.TryCatch[error](func() { trainModel(ctx, paramsSet) })
	if err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

func trainModel(ctx *context.Context, paramsSet []string) {
	batchSize := context.GetParamOr(ctx, "batch_size", 32)
	evalBatchSize := context.GetParamOr(ctx, "eval_batch_size", 0)
	if evalBatchSize <= 0 {
		evalBatchSize = batchSize
	}
	trainDS := datasets.Parallel(
		synthetic.New("train", batchSize, *flagMinNodes, *flagMaxNodes, *flagSeed))
	trainEvalDS := synthetic.New("train-eval", evalBatchSize, *flagMinNodes, *flagMaxNodes, *flagSeed).
		NumBatches(*flagEvalBatches)
	testEvalDS := synthetic.New("test-eval", evalBatchSize, *flagMinNodes, *flagMaxNodes, *flagSeed+1).
		NumBatches(*flagEvalBatches)
	if *flagEvalOnly {
		must.M(gin.Eval(ctx, *flagCheckpoint, trainEvalDS, testEvalDS))
		return
	}
	gin.TrainModel(ctx, *flagCheckpoint, paramsSet, trainDS, trainEvalDS, testEvalDS, *flagVerbosity)
}
