package pipeline

import (
	"context"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/sample"
)

// ScoringFunc scores a fitted pipeline against a sample, returning a
// fixed-length vector of raw objective values. A scoring function may
// internally perform cross-validated aggregation; that reduction is
// opaque to the caller.
type ScoringFunc func(ctx context.Context, p *Pipeline, s *sample.Sample, kwargs map[string]interface{}) ([]float64, error)

// Pipeline is an ordered sequence of named steps terminated by an
// estimator-like step. Every step before the estimator must be able to
// transform; the estimator must be able to predict and to fit (whole or
// incremental). Capability membership is validated when the pipeline is
// built.
//
// A pipeline owns a scoring function reference and an objective-weight
// vector (+1 maximize / -1 minimize per objective). Its hyperparameter
// namespace is the union of "{step}__{param}" keys across its steps.
type Pipeline struct {
	steps         []Step
	scoring       ScoringFunc
	scoringKwargs map[string]interface{}
	weights       []float64
	fitted        bool
}

// Option configures a pipeline at construction.
type Option func(*Pipeline)

// WithScoring sets the scoring function and its keyword arguments.
func WithScoring(fn ScoringFunc, kwargs map[string]interface{}) Option {
	return func(p *Pipeline) {
		p.scoring = fn
		p.scoringKwargs = kwargs
	}
}

// WithObjectiveWeights sets the objective-weight vector; each entry must
// be +1 (maximize) or -1 (minimize).
func WithObjectiveWeights(weights ...float64) Option {
	return func(p *Pipeline) {
		p.weights = weights
	}
}

// New validates step capabilities and builds a pipeline. Step names must
// be unique. Every non-final step must implement Transformer or
// FitTransformer; the final step must implement Predictor and at least
// one of Fitter or PartialFitter.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.New(errors.Configuration, "pipeline requires at least one step")
	}

	seen := make(map[string]bool, len(steps))
	for _, st := range steps {
		if seen[st.Name()] {
			return nil, errors.Newf(errors.Configuration, "duplicate step name %q", st.Name())
		}
		seen[st.Name()] = true
	}

	for _, st := range steps[:len(steps)-1] {
		_, canTransform := st.(Transformer)
		_, canFitTransform := st.(FitTransformer)
		if !canTransform && !canFitTransform {
			return nil, errors.Newf(errors.Configuration,
				"step %q cannot transform and is not the estimator", st.Name())
		}
	}

	est := steps[len(steps)-1]
	if _, ok := est.(Predictor); !ok {
		return nil, errors.Newf(errors.Configuration, "estimator step %q cannot predict", est.Name())
	}
	_, canFit := est.(Fitter)
	_, canPartialFit := est.(PartialFitter)
	if !canFit && !canPartialFit {
		return nil, errors.Newf(errors.Configuration, "estimator step %q cannot fit", est.Name())
	}

	p := &Pipeline{steps: steps}
	for _, opt := range opts {
		opt(p)
	}

	for _, w := range p.weights {
		if w != 1 && w != -1 {
			return nil, errors.Newf(errors.Configuration,
				"objective weights must be +1 or -1, got %v", w)
		}
	}

	return p, nil
}

// Steps returns the ordered steps. The returned slice is shared; callers
// must not reorder it.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Estimator returns the final step.
func (p *Pipeline) Estimator() Step {
	return p.steps[len(p.steps)-1]
}

// Scoring returns the configured scoring function, or nil.
func (p *Pipeline) Scoring() ScoringFunc {
	return p.scoring
}

// ScoringKwargs returns the configured scoring keyword arguments.
func (p *Pipeline) ScoringKwargs() map[string]interface{} {
	return p.scoringKwargs
}

// ObjectiveWeights returns the objective-weight vector, or nil for
// arrival-order ranking.
func (p *Pipeline) ObjectiveWeights() []float64 {
	return p.weights
}

// Fitted reports whether Fit has completed on this pipeline instance.
func (p *Pipeline) Fitted() bool {
	return p.fitted
}

// Params returns the flattened "{step}__{param}" hyperparameter mapping
// for every step.
func (p *Pipeline) Params() map[string]interface{} {
	out := make(map[string]interface{})
	for _, st := range p.steps {
		flattenParams(st.Name(), st.Params(), out)
	}
	return out
}

// NewWithParams returns a structurally identical but UNFITTED clone with
// the given "{step}__{param}" overrides applied. Every override key must
// resolve to an existing step parameter; unknown keys are a fatal
// configuration error. The receiver is never mutated and fitted state is
// never copied, so population members that share ancestry cannot leak
// state into one another.
func (p *Pipeline) NewWithParams(overrides map[string]interface{}) (*Pipeline, error) {
	perStep := make(map[string]map[string]interface{})
	for key, v := range overrides {
		pk, err := ParseParamKey(key)
		if err != nil {
			return nil, err
		}
		found := false
		for _, st := range p.steps {
			if st.Name() != pk.Step {
				continue
			}
			found = true
			if _, ok := st.Params()[pk.Param]; !ok {
				return nil, errors.Newf(errors.Configuration,
					"step %q has no parameter %q", pk.Step, pk.Param)
			}
		}
		if !found {
			return nil, errors.Newf(errors.Configuration, "pipeline has no step %q", pk.Step)
		}
		if perStep[pk.Step] == nil {
			perStep[pk.Step] = make(map[string]interface{})
		}
		perStep[pk.Step][pk.Param] = v
	}

	cloned := make([]Step, len(p.steps))
	for i, st := range p.steps {
		c, err := st.WithParams(perStep[st.Name()])
		if err != nil {
			return nil, errors.Wrap(err, errors.Configuration, "cloning step "+st.Name())
		}
		cloned[i] = c
	}

	return &Pipeline{
		steps:         cloned,
		scoring:       p.scoring,
		scoringKwargs: p.scoringKwargs,
		weights:       p.weights,
	}, nil
}

// Clone returns an unfitted copy with identical parameters.
func (p *Pipeline) Clone() (*Pipeline, error) {
	return p.NewWithParams(nil)
}

// applyTransforms runs the sample through every step before the
// estimator using already-fitted transform state.
func (p *Pipeline) applyTransforms(ctx context.Context, s *sample.Sample) (*sample.Sample, error) {
	cur := s
	for _, st := range p.steps[:len(p.steps)-1] {
		tr, ok := st.(Transformer)
		if !ok {
			return nil, errors.Newf(errors.Configuration,
				"step %q cannot transform outside fitting", st.Name())
		}
		next, err := tr.Transform(ctx, cur)
		if err != nil {
			return nil, errors.Wrap(err, errors.MemberFit, "transform failed in step "+st.Name())
		}
		cur = next
	}
	return cur, nil
}

// Fit fits the pipeline to one sample. Steps before the estimator are
// fitted (when they can fit) and then applied in order. The estimator is
// fitted with up to partialFitBatches sequential incremental batches when
// it supports incremental fitting; batch i+1 starts only after batch i
// completes. partialFitBatches <= 1 means a single whole-sample fit.
func (p *Pipeline) Fit(ctx context.Context, s *sample.Sample, partialFitBatches int) error {
	if err := errors.CheckContext(ctx, "pipeline fit"); err != nil {
		return err
	}

	cur := s
	for _, st := range p.steps[:len(p.steps)-1] {
		if ft, ok := st.(FitTransformer); ok {
			next, err := ft.FitTransform(ctx, cur)
			if err != nil {
				return errors.Wrap(err, errors.MemberFit, "fit_transform failed in step "+st.Name())
			}
			cur = next
			continue
		}
		if f, ok := st.(Fitter); ok {
			if err := f.Fit(ctx, cur); err != nil {
				return errors.Wrap(err, errors.MemberFit, "fit failed in step "+st.Name())
			}
		}
		next, err := st.(Transformer).Transform(ctx, cur)
		if err != nil {
			return errors.Wrap(err, errors.MemberFit, "transform failed in step "+st.Name())
		}
		cur = next
	}

	est := p.Estimator()
	pf, canPartialFit := est.(PartialFitter)

	switch {
	case canPartialFit && partialFitBatches > 1:
		parts, err := cur.Partitions(partialFitBatches)
		if err != nil {
			return errors.Wrap(err, errors.MemberFit, "partitioning sample for partial fit")
		}
		for i, part := range parts {
			if err := errors.CheckContext(ctx, "partial fit"); err != nil {
				return err
			}
			if err := pf.PartialFit(ctx, part); err != nil {
				return errors.WithFields(
					errors.Wrap(err, errors.MemberFit, "partial fit failed in estimator "+est.Name()),
					errors.Fields{"batch": i},
				)
			}
		}
	case canPartialFit:
		if _, alsoFits := est.(Fitter); !alsoFits {
			if err := pf.PartialFit(ctx, cur); err != nil {
				return errors.Wrap(err, errors.MemberFit, "fit failed in estimator "+est.Name())
			}
			break
		}
		fallthrough
	default:
		if err := est.(Fitter).Fit(ctx, cur); err != nil {
			return errors.Wrap(err, errors.MemberFit, "fit failed in estimator "+est.Name())
		}
	}

	p.fitted = true
	return nil
}

// Predict runs the sample through the fitted transforms and the
// estimator, returning one prediction per sample-axis row.
func (p *Pipeline) Predict(ctx context.Context, s *sample.Sample) ([]float64, error) {
	if err := errors.CheckContext(ctx, "pipeline predict"); err != nil {
		return nil, err
	}
	if !p.fitted {
		return nil, errors.New(errors.MemberPredict, "predict called on unfitted pipeline")
	}
	cur, err := p.applyTransforms(ctx, s)
	if err != nil {
		return nil, errors.Wrap(err, errors.MemberPredict, "transforming sample for predict")
	}
	preds, err := p.Estimator().(Predictor).Predict(ctx, cur)
	if err != nil {
		return nil, errors.Wrap(err, errors.MemberPredict, "predict failed in estimator "+p.Estimator().Name())
	}
	return preds, nil
}

// Score runs the configured scoring function. When none is configured it
// falls back to the estimator's own built-in score; when the estimator
// has none either it returns (nil, nil) and the member is ranked by
// arrival order.
func (p *Pipeline) Score(ctx context.Context, s *sample.Sample) ([]float64, error) {
	if p.scoring != nil {
		return p.scoring(ctx, p, s, p.scoringKwargs)
	}
	if sc, ok := p.Estimator().(Scorer); ok {
		cur, err := p.applyTransforms(ctx, s)
		if err != nil {
			return nil, err
		}
		return sc.Score(ctx, cur)
	}
	return nil, nil
}
