package steps

import (
	"context"
	"math"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/sample"
)

// SGDRegressor is a linear least-squares estimator trained by stochastic
// gradient descent. It supports whole-sample fitting (Epochs passes) and
// incremental fitting (one pass per partial-fit batch, state carried
// across batches), honors per-row sample weights, and exposes a built-in
// R-squared score.
type SGDRegressor struct {
	StepName     string
	LearningRate float64
	Epochs       int
	L2           float64

	// Fitted state
	Coef      []float64
	Intercept float64
	Seen      int
}

// NewSGDRegressor builds an estimator step with the given name.
func NewSGDRegressor(name string, learningRate float64, epochs int, l2 float64) *SGDRegressor {
	return &SGDRegressor{StepName: name, LearningRate: learningRate, Epochs: epochs, L2: l2}
}

func (r *SGDRegressor) Name() string { return r.StepName }

func (r *SGDRegressor) Params() map[string]interface{} {
	return map[string]interface{}{
		"learning_rate": r.LearningRate,
		"epochs":        r.Epochs,
		"l2":            r.L2,
	}
}

func (r *SGDRegressor) WithParams(overrides map[string]interface{}) (pipeline.Step, error) {
	c := &SGDRegressor{
		StepName:     r.StepName,
		LearningRate: r.LearningRate,
		Epochs:       r.Epochs,
		L2:           r.L2,
	}
	for k, v := range overrides {
		switch k {
		case "learning_rate":
			f, ok := toFloat(v)
			if !ok {
				return nil, errors.Newf(errors.Configuration, "learning_rate wants float64, got %T", v)
			}
			c.LearningRate = f
		case "epochs":
			n, ok := v.(int)
			if !ok {
				return nil, errors.Newf(errors.Configuration, "epochs wants int, got %T", v)
			}
			c.Epochs = n
		case "l2":
			f, ok := toFloat(v)
			if !ok {
				return nil, errors.Newf(errors.Configuration, "l2 wants float64, got %T", v)
			}
			c.L2 = f
		default:
			return nil, errors.Newf(errors.Configuration, "sgd regressor has no parameter %q", k)
		}
	}
	return c, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

func (r *SGDRegressor) ensureState(w int) error {
	if r.Coef == nil {
		r.Coef = make([]float64, w)
		return nil
	}
	if len(r.Coef) != w {
		return errors.Newf(errors.InvalidInput,
			"estimator fitted with %d bands, sample has %d", len(r.Coef), w)
	}
	return nil
}

func (r *SGDRegressor) pass(smp *sample.Sample) {
	w := smp.NumBands()
	for i := 0; i < smp.NumRows(); i++ {
		row := smp.Row(i)
		pred := r.Intercept
		for j, v := range row {
			pred += r.Coef[j] * v
		}
		weight := 1.0
		if smp.Weights != nil {
			weight = smp.Weights[i]
		}
		grad := (pred - smp.Labels[i]) * weight
		lr := r.LearningRate
		for j := 0; j < w; j++ {
			r.Coef[j] -= lr * (grad*row[j] + r.L2*r.Coef[j])
		}
		r.Intercept -= lr * grad
		r.Seen++
	}
}

func (r *SGDRegressor) Fit(ctx context.Context, smp *sample.Sample) error {
	if err := errors.CheckContext(ctx, "sgd fit"); err != nil {
		return err
	}
	if smp.Labels == nil {
		return errors.New(errors.InvalidInput, "sgd fit requires labels")
	}
	r.Coef = nil
	r.Intercept = 0
	r.Seen = 0
	if err := r.ensureState(smp.NumBands()); err != nil {
		return err
	}
	epochs := r.Epochs
	if epochs < 1 {
		epochs = 1
	}
	for e := 0; e < epochs; e++ {
		r.pass(smp)
	}
	return nil
}

func (r *SGDRegressor) PartialFit(ctx context.Context, smp *sample.Sample) error {
	if err := errors.CheckContext(ctx, "sgd partial fit"); err != nil {
		return err
	}
	if smp.Labels == nil {
		return errors.New(errors.InvalidInput, "sgd partial fit requires labels")
	}
	if err := r.ensureState(smp.NumBands()); err != nil {
		return err
	}
	r.pass(smp)
	return nil
}

func (r *SGDRegressor) Predict(ctx context.Context, smp *sample.Sample) ([]float64, error) {
	if err := errors.CheckContext(ctx, "sgd predict"); err != nil {
		return nil, err
	}
	if r.Coef == nil {
		return nil, errors.New(errors.MemberPredict, "predict before fit")
	}
	if len(r.Coef) != smp.NumBands() {
		return nil, errors.Newf(errors.InvalidInput,
			"estimator fitted with %d bands, sample has %d", len(r.Coef), smp.NumBands())
	}
	preds := make([]float64, smp.NumRows())
	for i := range preds {
		p := r.Intercept
		for j, v := range smp.Row(i) {
			p += r.Coef[j] * v
		}
		preds[i] = p
	}
	return preds, nil
}

// Score returns the R-squared of predictions against the sample labels.
func (r *SGDRegressor) Score(ctx context.Context, smp *sample.Sample) ([]float64, error) {
	if smp.Labels == nil {
		return nil, errors.New(errors.InvalidInput, "score requires labels")
	}
	preds, err := r.Predict(ctx, smp)
	if err != nil {
		return nil, err
	}

	mean := 0.0
	for _, y := range smp.Labels {
		mean += y
	}
	mean /= float64(len(smp.Labels))

	var ssRes, ssTot float64
	for i, y := range smp.Labels {
		ssRes += (y - preds[i]) * (y - preds[i])
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	}
	r2 := 1 - ssRes/ssTot
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return nil, errors.New(errors.MemberFit, "score diverged")
	}
	return []float64{r2}, nil
}
