package ensemble

import (
	"context"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/logging"
	"github.com/strataml/cubefit/pkg/sample"
	"github.com/strataml/cubefit/pkg/scheduler"
)

// Prediction is one (member, sample) pair's raw output: a 1-D vector
// aligned to the sample axis, plus the spatial cube when the caller
// asked for the flatten inverse.
type Prediction struct {
	Tag         string
	SampleIndex int
	Values      []float64
	Cube        *sample.Cube
}

// SerializeFunc is applied to each prediction immediately after it is
// produced, bounding peak memory; its return value replaces the raw
// prediction in the output list.
type SerializeFunc func(y *Prediction, x *sample.Sample, tag string) (interface{}, error)

// PredictFailure records one (member, sample) pair whose predict job
// failed and whose output was omitted.
type PredictFailure struct {
	Tag         string
	SampleIndex int
	Err         error
}

// PredictResult is the outcome of one PredictMany call. Outputs holds
// one entry per successful (member, sample) pair in submission order
// (member-major); failed pairs are absent from Outputs and reported in
// Failures.
type PredictResult struct {
	Outputs  []interface{}
	Failures []PredictFailure
}

// PredictOptions configures one PredictMany call.
type PredictOptions struct {
	// Members to predict with; nil means the engine's current ensemble.
	Members []Member

	Sample   *sample.Sample
	Sampler  Sampler
	ArgsList [][]interface{}

	Scheduler scheduler.Scheduler

	// Serialize replaces each raw prediction in the output list.
	Serialize SerializeFunc

	// ToCube reshapes each 1-D prediction back to the spatial layout
	// recorded when its sample was flattened.
	ToCube bool
}

// PredictMany submits one predict job per (member, sample) pair of the
// cross product and blocks until all complete. A failing pair does not
// abort the others: it is logged at warning level, recorded in the
// result's failure report and omitted from the output list.
func (e *Engine) PredictMany(ctx context.Context, opts PredictOptions) (*PredictResult, error) {
	logger := logging.GetLogger()

	members := opts.Members
	if members == nil {
		members = e.ensemble
	}
	if len(members) == 0 {
		return nil, errors.New(errors.Configuration, "no members to predict with")
	}
	for _, m := range members {
		if m.Pipeline == nil {
			return nil, errors.Newf(errors.Configuration, "member %q has no pipeline", m.Tag)
		}
	}

	samples, err := e.materializeSamples(ctx, opts)
	if err != nil {
		return nil, err
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.NewLocal(0)
	}

	type pair struct {
		member      Member
		sampleIndex int
	}
	pairs := make([]pair, 0, len(members)*len(samples))
	tasks := make([]scheduler.Task, 0, len(members)*len(samples))
	for _, m := range members {
		for si := range samples {
			m, si := m, si
			pairs = append(pairs, pair{member: m, sampleIndex: si})
			tasks = append(tasks, func(taskCtx context.Context) (interface{}, error) {
				memberCtx := logging.WithMemberTag(taskCtx, m.Tag)
				values, err := m.Pipeline.Predict(memberCtx, samples[si])
				if err != nil {
					return nil, err
				}
				pred := &Prediction{Tag: m.Tag, SampleIndex: si, Values: values}
				if opts.ToCube {
					cube, err := sample.UnflattenPredictions(samples[si].Features, values)
					if err != nil {
						return nil, errors.Wrap(err, errors.MemberPredict, "reshaping prediction to cube")
					}
					pred.Cube = cube
				}
				if opts.Serialize != nil {
					return opts.Serialize(pred, samples[si], m.Tag)
				}
				return pred, nil
			})
		}
	}

	results, err := sched.Run(ctx, tasks)
	if err != nil {
		return nil, errors.Wrap(err, errors.Scheduler, "predict batch failed")
	}

	out := &PredictResult{}
	for i, res := range results {
		if res.Err != nil {
			p := pairs[i]
			logger.Warn(ctx, "Predict failed for pair, omitted from results: member=%s, sample=%d, err=%v",
				p.member.Tag, p.sampleIndex, res.Err)
			out.Failures = append(out.Failures, PredictFailure{
				Tag:         p.member.Tag,
				SampleIndex: p.sampleIndex,
				Err:         res.Err,
			})
			continue
		}
		out.Outputs = append(out.Outputs, res.Value)
	}

	return out, nil
}

// materializeSamples resolves the predict call's sample sequence. Each
// sampler failure is fatal to the whole call.
func (e *Engine) materializeSamples(ctx context.Context, opts PredictOptions) ([]*sample.Sample, error) {
	if opts.Sample != nil {
		return []*sample.Sample{opts.Sample}, nil
	}
	if opts.Sampler == nil {
		return nil, errors.New(errors.Configuration, "either a sample or a sampler is required")
	}
	if len(opts.ArgsList) == 0 {
		return nil, errors.New(errors.Configuration, "sampler requires a non-empty args list")
	}
	samples := make([]*sample.Sample, 0, len(opts.ArgsList))
	for _, args := range opts.ArgsList {
		s, err := opts.Sampler(ctx, args...)
		if err != nil {
			return nil, errors.Wrap(err, errors.SampleAcquisition, "sampler call failed")
		}
		if s == nil {
			return nil, errors.New(errors.SampleAcquisition, "sampler returned no sample")
		}
		samples = append(samples, s)
	}
	return samples, nil
}
