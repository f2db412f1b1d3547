// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gin

import (
	"fmt"
	"time"

	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/gomlx/gomlx/pkg/ml/layers/batchnorm"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	. "github.com/gomlx/gomlx/pkg/support/exceptions"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"

	"github.com/gomlx/gnn/graphs"
)

// BatchSpec is what datasets of graph batches must provide as their spec (the first
// value of train.Dataset.Yield): the number of classes determines the model's output
// dimension.
type BatchSpec interface {
	NumClasses() int
}

// ClassifierModelGraph is a train.ModelFn that builds a GIN graph classifier over the
// inputs yielded by a dataset of graph batches (see graphs.Batch.Inputs). The
// dataset's spec must implement BatchSpec.
//
// It returns one output, the class scores (logits) shaped [numGraphs, numClasses].
func ClassifierModelGraph(ctx *context.Context, spec any, inputs []*Node) []*Node {
	batchSpec, ok := spec.(BatchSpec)
	if !ok {
		Panicf("gin.ClassifierModelGraph: dataset spec must implement gin.BatchSpec, got %T", spec)
	}
	topo, features := graphs.FromInputs(inputs)
	scores := New(ctx, topo, features, batchSpec.NumClasses()).Done()
	return []*Node{scores}
}

// ParamsExcludedFromLoading is the list of parameters that shouldn't be reloaded from
// a model's checkpoint, so they may be overridden in further training sessions.
var ParamsExcludedFromLoading = []string{
	"train_steps", "num_checkpoints",
}

// CreateDefaultContext sets the context with default hyperparameters to use with
// TrainModel.
func CreateDefaultContext() *context.Context {
	ctx := context.New()
	must.M(ctx.ResetRNGState())
	ctx.SetParams(map[string]any{
		"train_steps":     2000,
		"num_checkpoints": 3,
		"batch_size":      32,

		// eval_batch_size can be larger than training, it's more efficient.
		"eval_batch_size": 128,

		optimizers.ParamOptimizer:    "adamw",
		optimizers.ParamLearningRate: 1e-3,

		// GIN network parameters:
		ParamNumLayers:       5,
		ParamNumMLPLayers:    2,
		ParamHiddenDim:       64,
		ParamLearnEps:        false,
		ParamNeighborPooling: "sum",
		ParamGraphPooling:    "sum",
		ParamFinalDropout:    0.5,
	})
	return ctx
}

// TrainModel trains a GIN classifier with the hyperparameters given in ctx, using
// trainDS for the training steps and evaluating on the eval datasets at the end.
//
// If checkpointPath is not empty, the context (parameters and trained weights) is
// loaded from it if it already exists, and saved to it during training. paramsSet
// lists parameters that were set explicitly (e.g. from the command line) and must not
// be overwritten by the checkpoint.
func TrainModel(ctx *context.Context, checkpointPath string, paramsSet []string,
	trainDS, trainEvalDS, testEvalDS train.Dataset, verbosity int) {
	// Backend handles creation of ML computation graphs, accelerator resources, etc.
	backend := backends.MustNew()
	if verbosity >= 1 {
		fmt.Printf("Backend %q:\t%s\n", backend.Name(), backend.Description())
	}

	// Checkpoints saving.
	var checkpoint *checkpoints.Handler
	if checkpointPath != "" {
		numCheckpointsToKeep := context.GetParamOr(ctx, "num_checkpoints", 3)
		checkpoint = must.M1(checkpoints.Build(ctx).
			Dir(checkpointPath).
			Keep(numCheckpointsToKeep).
			ExcludeParams(append(paramsSet, ParamsExcludedFromLoading...)...).
			Done())
		fmt.Printf("Checkpoint: %q\n", checkpoint.Dir())
	}
	if verbosity >= 2 {
		fmt.Println(commandline.SprintContextSettings(ctx))
	}

	trainer := newTrainer(backend, ctx)
	loop := train.NewLoop(trainer)
	if verbosity >= 0 {
		commandline.AttachProgressBar(loop) // Attaches a progress bar to the loop.
	}

	// Checkpoint saving: every 3 minutes of training.
	if checkpoint != nil {
		period := time.Minute * 3
		train.PeriodicCallback(loop, period, true, "saving checkpoint", 100,
			func(loop *train.Loop, metrics []*tensors.Tensor) error {
				return checkpoint.Save()
			})
	}

	// Loop for given number of steps.
	numTrainSteps := context.GetParamOr(ctx, "train_steps", 0)
	globalStep := int(optimizers.GetGlobalStep(ctx))
	if globalStep > 0 {
		trainer.SetContext(ctx.Reuse())
	}
	if globalStep < numTrainSteps {
		_ = must.M1(loop.RunSteps(trainDS, numTrainSteps-globalStep))
		if verbosity >= 1 {
			fmt.Printf("\t[Step %d] median train step: %d microseconds\n",
				loop.LoopStep, loop.MedianTrainStepDuration().Microseconds())
		}

		// Update batch normalization averages before evaluating.
		if must.M1(batchnorm.UpdateAverages(trainer, trainEvalDS)) {
			fmt.Println("\tUpdated batch normalization mean/variances averages.")
			if checkpoint != nil {
				must.M(checkpoint.Save())
			}
		}
	} else {
		fmt.Printf("\t - target train_steps=%d already reached. To train further, set a number additional "+
			"to current global step.\n", numTrainSteps)
	}

	// Finally, print an evaluation on train and test datasets.
	if verbosity >= 1 {
		fmt.Println()
	}
	must.M(commandline.ReportEval(trainer, trainEvalDS, testEvalDS))
}

// Eval evaluates a model trained with TrainModel on the given datasets, printing the
// loss and accuracy of each. The model is loaded from the checkpointPath it was
// trained with.
func Eval(ctx *context.Context, checkpointPath string, dss ...train.Dataset) error {
	if checkpointPath == "" {
		return errors.New("gin.Eval requires the checkpoint path of a trained model")
	}
	numCheckpointsToKeep := context.GetParamOr(ctx, "num_checkpoints", 3)
	_, err := checkpoints.Build(ctx).
		Dir(checkpointPath).
		Keep(numCheckpointsToKeep).
		Done()
	if err != nil {
		return errors.WithMessagef(err, "while loading checkpoint from %q", checkpointPath)
	}
	globalStep := optimizers.GetGlobalStep(ctx)
	fmt.Printf("Model in %q trained for %d steps.\n", checkpointPath, globalStep)

	backend := backends.MustNew()
	trainer := newTrainer(backend, ctx)
	for _, ds := range dss {
		start := time.Now()
		if err := commandline.ReportEval(trainer, ds); err != nil {
			return errors.WithMessagef(err, "while reporting eval on %q", ds.Name())
		}
		fmt.Printf("\telapsed %s (%s)\n", time.Since(start), ds.Name())
	}
	return nil
}

func newTrainer(backend backends.Backend, ctx *context.Context) *train.Trainer {
	// Loss: multi-class classification problem.
	lossFn := losses.SparseCategoricalCrossEntropyLogits

	// Metrics we are interested.
	meanAccuracyMetric := metrics.NewSparseCategoricalAccuracy("Mean Accuracy", "#acc")
	movingAccuracyMetric := metrics.NewMovingAverageSparseCategoricalAccuracy("Moving Average Accuracy", "~acc", 0.01)

	ctx = ctx.In("model") // Convention scope used for model creation.
	return train.NewTrainer(backend, ctx, ClassifierModelGraph,
		lossFn,
		optimizers.FromContext(ctx),
		[]metrics.Interface{movingAccuracyMetric}, // trainMetrics
		[]metrics.Interface{meanAccuracyMetric})   // evalMetrics
}
