// Package scoring ranks fitted population members: an Evaluator produces
// one score record per member per generation, and ParetoRank orders
// records under possibly multiple weighted objectives.
package scoring

import (
	"context"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/sample"
)

// ScoreRecord is one member's raw objective values for one generation,
// immutable once computed. Scores is nil when the member's pipeline has
// no scoring function and no built-in estimator score; such members are
// ranked by arrival order.
type ScoreRecord struct {
	Tag     string
	Scores  []float64
	Weights []float64
}

// Evaluator scores fitted pipelines against a sample.
type Evaluator struct{}

// Score runs the pipeline's configured scoring function (or the
// estimator's built-in score as a fallback) and pairs the result with
// the pipeline's objective weights. A weight vector whose length does
// not match the score vector is a configuration error.
func (Evaluator) Score(ctx context.Context, tag string, p *pipeline.Pipeline, s *sample.Sample) (ScoreRecord, error) {
	scores, err := p.Score(ctx, s)
	if err != nil {
		return ScoreRecord{}, errors.WithFields(
			errors.Wrap(err, errors.MemberFit, "scoring member"),
			errors.Fields{"tag": tag},
		)
	}

	weights := p.ObjectiveWeights()
	if scores != nil {
		if weights == nil {
			// Single-objective maximize is the default when a pipeline
			// scores but declares no weights.
			weights = make([]float64, len(scores))
			for i := range weights {
				weights[i] = 1
			}
		}
		if len(weights) != len(scores) {
			return ScoreRecord{}, errors.WithFields(
				errors.Newf(errors.Configuration,
					"%d objective weights for %d scores", len(weights), len(scores)),
				errors.Fields{"tag": tag},
			)
		}
	}

	return ScoreRecord{Tag: tag, Scores: scores, Weights: weights}, nil
}

// ValidateRecords checks that every scored record in a generation has
// the same score-vector length; a mismatch makes ranking undefined and
// is a programming error. Returns the common length, or 0 when no
// record carries scores.
func ValidateRecords(records []ScoreRecord) (int, error) {
	length := -1
	for _, r := range records {
		if r.Scores == nil {
			continue
		}
		if length == -1 {
			length = len(r.Scores)
			continue
		}
		if len(r.Scores) != length {
			return 0, errors.Newf(errors.Configuration,
				"score vector length mismatch in generation: %d vs %d (member %s)",
				length, len(r.Scores), r.Tag)
		}
	}
	if length == -1 {
		return 0, nil
	}
	for _, r := range records {
		if r.Scores == nil {
			return 0, errors.Newf(errors.Configuration,
				"member %s has no scores while others do", r.Tag)
		}
	}
	return length, nil
}
