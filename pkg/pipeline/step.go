package pipeline

import (
	"context"

	"github.com/strataml/cubefit/pkg/sample"
)

// Step is one named unit of a pipeline. Every step carries a flat
// hyperparameter set and owns its fitted state exclusively. WithParams
// returns a structurally identical clone with overridden parameters and
// UNFITTED state; it must never mutate the receiver. Unknown override
// keys are a configuration error.
//
// Capabilities (fit, transform, predict, incremental fit) are declared by
// implementing the interfaces below. The pipeline checks capability
// membership at construction time, so a step missing a needed capability
// fails when the pipeline is built, not when it runs.
type Step interface {
	Name() string
	Params() map[string]interface{}
	WithParams(overrides map[string]interface{}) (Step, error)
}

// Fitter is a step that learns state from a whole sample at once.
type Fitter interface {
	Step
	Fit(ctx context.Context, s *sample.Sample) error
}

// PartialFitter is a step that can be updated incrementally with
// sub-batches of a sample.
type PartialFitter interface {
	Step
	PartialFit(ctx context.Context, s *sample.Sample) error
}

// Transformer maps a sample to a new sample.
type Transformer interface {
	Step
	Transform(ctx context.Context, s *sample.Sample) (*sample.Sample, error)
}

// FitTransformer fits on a sample and transforms it in one pass. Steps
// that implement it are preferred over a separate Fit then Transform
// during pipeline fitting.
type FitTransformer interface {
	Step
	FitTransform(ctx context.Context, s *sample.Sample) (*sample.Sample, error)
}

// Predictor produces one prediction per row of the sample axis.
type Predictor interface {
	Step
	Predict(ctx context.Context, s *sample.Sample) ([]float64, error)
}

// Scorer is an estimator with a built-in score. The fitness evaluator
// falls back to it when no scoring function is configured on the
// pipeline.
type Scorer interface {
	Score(ctx context.Context, s *sample.Sample) ([]float64, error)
}
