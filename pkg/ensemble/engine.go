package ensemble

import (
	"context"

	"github.com/google/uuid"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/logging"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/sample"
	"github.com/strataml/cubefit/pkg/scheduler"
	"github.com/strataml/cubefit/pkg/scoring"
)

// Sampler lazily produces one sample per call. Args come from one entry
// of the fit call's args list. A sampler must be safe to call from the
// engine's control loop; the engine never calls it concurrently with
// itself.
type Sampler func(ctx context.Context, args ...interface{}) (*sample.Sample, error)

// RunRecorder persists per-generation outcomes of a run. Implementations
// live outside this package (see pkg/history); a nil recorder disables
// recording.
type RunRecorder interface {
	RecordScores(runID string, generation int, records []scoring.ScoreRecord) error
	RecordFailure(runID string, generation int, tag, phase string, failure error) error
}

// Engine owns a population of pipelines and drives the generation loop:
// sample acquisition, concurrent fitting, scoring, Pareto ranking,
// selection, repeat. The engine itself is single-threaded control logic;
// all parallelism lives in the scheduler it submits batches to, and the
// only blocking points are batch boundaries. Generation g+1 never
// submits work before generation g's scoring and selection completed.
type Engine struct {
	template *pipeline.Pipeline
	tagger   *Tagger
	recorder RunRecorder
	eval     scoring.Evaluator

	ensemble []Member
	failures []FitFailure
}

// FitFailure records one member fit job that failed and was excluded
// from its generation's ranking.
type FitFailure struct {
	Generation int
	Tag        string
	Err        error
}

// Option configures an engine.
type Option func(*Engine)

// WithRecorder attaches a run recorder.
func WithRecorder(r RunRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithTagPrefix sets the prefix of engine-issued member tags.
func WithTagPrefix(prefix string) Option {
	return func(e *Engine) { e.tagger = NewTagger(prefix) }
}

// New creates an engine around a template pipeline.
func New(template *pipeline.Pipeline, opts ...Option) (*Engine, error) {
	if template == nil {
		return nil, errors.New(errors.Configuration, "engine requires a template pipeline")
	}
	e := &Engine{
		template: template,
		tagger:   NewTagger("model"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Tagger exposes the engine's tag service for selection policies that
// create new members.
func (e *Engine) Tagger() *Tagger {
	return e.tagger
}

// Ensemble returns the surviving members of the last FitEnsemble call.
func (e *Engine) Ensemble() []Member {
	out := make([]Member, len(e.ensemble))
	copy(out, e.ensemble)
	return out
}

// FitFailures returns the member fit failures recorded during the last
// FitEnsemble call.
func (e *Engine) FitFailures() []FitFailure {
	out := make([]FitFailure, len(e.failures))
	copy(out, e.failures)
	return out
}

// FitOptions configures one FitEnsemble call. Exactly one of Sample or
// Sampler must be set; with a Sampler, ArgsList supplies one argument
// tuple per generation (cycled when NGen exceeds its length).
type FitOptions struct {
	Sample   *sample.Sample
	Sampler  Sampler
	ArgsList [][]interface{}

	// Scheduler is the execution substrate for fit jobs. Nil selects an
	// unbounded local scheduler.
	Scheduler scheduler.Scheduler

	// NGen is the number of generations, >= 1.
	NGen int

	// Init builds generation zero; when nil, the template is replicated
	// InitSize times (default 1).
	Init     InitFunc
	InitSize int

	// Selection maps each generation's scored population to the next.
	// Nil keeps the population unchanged every generation.
	Selection      SelectionFunc
	SelectionExtra map[string]interface{}

	// PerMemberSamples assigns each member its own sample drawn from
	// the same sampler cycle instead of sharing one sample across the
	// generation.
	PerMemberSamples bool

	// PartialFitBatches is the number of sequential incremental batches
	// per member fit for estimators that support incremental fitting.
	// <= 1 means one whole-sample fit.
	PartialFitBatches int

	// RunID labels recorder output; empty generates one.
	RunID string
}

func (o *FitOptions) validate() error {
	if o.NGen < 1 {
		return errors.Newf(errors.Configuration, "ngen must be >= 1, got %d", o.NGen)
	}
	if o.Sample == nil && o.Sampler == nil {
		return errors.New(errors.Configuration, "either a sample or a sampler is required")
	}
	if o.Sample != nil && o.Sampler != nil {
		return errors.New(errors.Configuration, "sample and sampler are mutually exclusive")
	}
	if o.Sampler != nil && len(o.ArgsList) == 0 {
		return errors.New(errors.Configuration, "sampler requires a non-empty args list")
	}
	return nil
}

// FitEnsemble evolves the population for NGen generations and installs
// the final generation's population as the engine's ensemble, replacing
// any prior one. Sampler failures and configuration errors are fatal;
// individual member fit failures are excluded from their generation and
// recorded, escalating to fatal only when a whole generation fails.
func (e *Engine) FitEnsemble(ctx context.Context, opts FitOptions) ([]Member, error) {
	logger := logging.GetLogger()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.NewLocal(0)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	population, err := e.initPopulation(opts)
	if err != nil {
		return nil, err
	}
	e.failures = nil

	logger.Info(ctx, "Starting ensemble fit: run=%s, ngen=%d, population=%d",
		runID, opts.NGen, len(population))

	sampleCursor := 0
	for g := 0; g < opts.NGen; g++ {
		genCtx := logging.WithGeneration(ctx, g)
		if err := errors.CheckContext(genCtx, "fit ensemble"); err != nil {
			return nil, err
		}

		samples, err := e.acquireSamples(genCtx, opts, len(population), &sampleCursor)
		if err != nil {
			return nil, err
		}

		survivors, records, err := e.fitGeneration(genCtx, sched, population, samples, opts, runID, g)
		if err != nil {
			return nil, err
		}

		bestIdxes, err := scoring.RankRecords(records)
		if err != nil {
			return nil, err
		}

		selection := opts.Selection
		if selection == nil {
			selection = ElitistKeepAll
		}
		next, err := selection(survivors, bestIdxes, SelectionInfo{
			Generation: g,
			NGen:       opts.NGen,
			Extra:      opts.SelectionExtra,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.Configuration, "selection failed")
		}
		if err := validatePopulation(next); err != nil {
			return nil, err
		}

		logger.Info(genCtx, "Generation complete: fitted=%d, failed=%d, next_population=%d",
			len(survivors), len(population)-len(survivors), len(next))

		population = next
	}

	e.ensemble = population
	logger.Info(ctx, "Ensemble fit complete: run=%s, members=%d", runID, len(population))
	return e.Ensemble(), nil
}

func (e *Engine) initPopulation(opts FitOptions) ([]Member, error) {
	init := opts.Init
	if init == nil {
		size := opts.InitSize
		if size == 0 {
			size = 1
		}
		init = ReplicateTemplate(size)
	}
	population, err := init(e.template, e.tagger)
	if err != nil {
		return nil, errors.Wrap(err, errors.Configuration, "initializing population")
	}
	if err := validatePopulation(population); err != nil {
		return nil, err
	}
	return population, nil
}

// acquireSamples produces this generation's samples: one shared sample
// by default, or one per member when PerMemberSamples is set. Sampler
// failures are fatal to the whole call; there is no partial-generation
// retry.
func (e *Engine) acquireSamples(ctx context.Context, opts FitOptions, populationSize int, cursor *int) ([]*sample.Sample, error) {
	draw := func() (*sample.Sample, error) {
		if opts.Sample != nil {
			return opts.Sample, nil
		}
		args := opts.ArgsList[*cursor%len(opts.ArgsList)]
		*cursor++
		s, err := opts.Sampler(ctx, args...)
		if err != nil {
			return nil, errors.Wrap(err, errors.SampleAcquisition, "sampler call failed")
		}
		if s == nil {
			return nil, errors.New(errors.SampleAcquisition, "sampler returned no sample")
		}
		return s, nil
	}

	if !opts.PerMemberSamples || opts.Sample != nil {
		s, err := draw()
		if err != nil {
			return nil, err
		}
		samples := make([]*sample.Sample, populationSize)
		for i := range samples {
			samples[i] = s
		}
		return samples, nil
	}

	samples := make([]*sample.Sample, populationSize)
	for i := range samples {
		s, err := draw()
		if err != nil {
			return nil, err
		}
		samples[i] = s
	}
	return samples, nil
}

// fitGeneration submits one fit job per member, blocks for the whole
// batch, then scores the successful members. Jobs are concurrent across
// members; partial-fit batches within one member are strictly sequential
// inside its job. Results pair back to members positionally, never by
// completion order. The samples are shared read-only across jobs.
func (e *Engine) fitGeneration(
	ctx context.Context,
	sched scheduler.Scheduler,
	population []Member,
	samples []*sample.Sample,
	opts FitOptions,
	runID string,
	generation int,
) ([]Member, []scoring.ScoreRecord, error) {
	logger := logging.GetLogger()

	tasks := make([]scheduler.Task, len(population))
	for i := range population {
		m := population[i]
		s := samples[i]
		tasks[i] = func(taskCtx context.Context) (interface{}, error) {
			memberCtx := logging.WithMemberTag(taskCtx, m.Tag)
			return nil, m.Pipeline.Fit(memberCtx, s, opts.PartialFitBatches)
		}
	}

	results, err := sched.Run(ctx, tasks)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.Scheduler, "fit batch failed")
	}

	survivors := make([]Member, 0, len(population))
	survivorSamples := make([]*sample.Sample, 0, len(population))
	for i, res := range results {
		if res.Err != nil {
			failure := FitFailure{Generation: generation, Tag: population[i].Tag, Err: res.Err}
			e.failures = append(e.failures, failure)
			logger.Warn(ctx, "Member fit failed, excluded from generation: member=%s, err=%v",
				population[i].Tag, res.Err)
			if e.recorder != nil {
				if rerr := e.recorder.RecordFailure(runID, generation, population[i].Tag, "fit", res.Err); rerr != nil {
					logger.Warn(ctx, "Recording fit failure failed: %v", rerr)
				}
			}
			continue
		}
		survivors = append(survivors, population[i])
		survivorSamples = append(survivorSamples, samples[i])
	}

	if len(survivors) == 0 {
		return nil, nil, errors.Newf(errors.MemberFit,
			"every member of generation %d failed to fit", generation)
	}

	records := make([]scoring.ScoreRecord, len(survivors))
	for i, m := range survivors {
		rec, err := e.eval.Score(ctx, m.Tag, m.Pipeline, survivorSamples[i])
		if err != nil {
			return nil, nil, err
		}
		records[i] = rec
	}

	if e.recorder != nil {
		if err := e.recorder.RecordScores(runID, generation, records); err != nil {
			logger.Warn(ctx, "Recording generation scores failed: %v", err)
		}
	}

	return survivors, records, nil
}
