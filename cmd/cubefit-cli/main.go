// cubefit-cli inspects configuration files and runs a synthetic demo
// evolution so the moving parts can be exercised without real data.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/strataml/cubefit/pkg/config"
	"github.com/strataml/cubefit/pkg/datasets"
	"github.com/strataml/cubefit/pkg/ensemble"
	"github.com/strataml/cubefit/pkg/history"
	"github.com/strataml/cubefit/pkg/logging"
	"github.com/strataml/cubefit/pkg/pipeline"
	"github.com/strataml/cubefit/pkg/scheduler"
	"github.com/strataml/cubefit/pkg/steps"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate-config":
		err = validateConfig(os.Args[2:])
	case "demo":
		err = demo(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "cubefit-cli: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cubefit-cli <command> [flags]

commands:
  validate-config -config <path>   load and validate a config file
  demo [-config <path>]            run a synthetic ensemble evolution`)
}

func validateConfig(args []string) error {
	fs := flag.NewFlagSet("validate-config", flag.ExitOnError)
	path := fs.String("config", "", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("-config is required")
	}
	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	fmt.Printf("ok: ngen=%d, init_ensemble_size=%d, select_n=%d\n",
		cfg.Engine.NGen, cfg.Engine.InitEnsembleSize, cfg.Engine.SelectN)
	return nil
}

func demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	path := fs.String("config", "", "optional YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  []logging.Output{logging.NewConsoleOutput(false)},
	}))
	ctx := context.Background()

	source, err := datasets.NewSyntheticSource(
		[]string{"b1", "b2", "b3"},
		[]float64{2.0, -1.0, 0.5},
		0.1,
	)
	if err != nil {
		return err
	}

	template, err := pipeline.New([]pipeline.Step{
		steps.NewStandardScaler("scaler", true, true),
		steps.NewSGDRegressor("sgd", 0.01, 3, 0.0),
	}, pipeline.WithObjectiveWeights(1))
	if err != nil {
		return err
	}

	var opts []ensemble.Option
	opts = append(opts, ensemble.WithTagPrefix(cfg.Engine.TagPrefix))
	if cfg.History.Enabled {
		recorder, err := history.NewRecorder(cfg.History.Path)
		if err != nil {
			return err
		}
		defer recorder.Close()
		opts = append(opts, ensemble.WithRecorder(recorder))
	}

	engine, err := ensemble.New(template, opts...)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Engine.Seed))
	mutate := ensemble.JitterParams(0.3, "sgd__learning_rate")

	members, err := engine.FitEnsemble(ctx, ensemble.FitOptions{
		Sampler:           source.Sampler(),
		ArgsList:          source.ArgsList(cfg.Engine.NGen, 512),
		Scheduler:         scheduler.NewLocal(cfg.Engine.MaxWorkers),
		NGen:              cfg.Engine.NGen,
		InitSize:          cfg.Engine.InitEnsembleSize,
		Selection:         ensemble.TopN(cfg.Engine.SelectN, engine.Tagger(), rng, mutate),
		PerMemberSamples:  cfg.Engine.PerMemberSamples,
		PartialFitBatches: cfg.Engine.PartialFitBatches,
	})
	if err != nil {
		return err
	}

	result, err := engine.PredictMany(ctx, ensemble.PredictOptions{
		Sampler:   source.Sampler(),
		ArgsList:  source.ArgsList(1, 128),
		Scheduler: scheduler.NewLocal(cfg.Engine.MaxWorkers),
	})
	if err != nil {
		return err
	}

	fmt.Printf("ensemble: %d members, %d predictions, %d predict failures\n",
		len(members), len(result.Outputs), len(result.Failures))
	for _, m := range members {
		fmt.Printf("  %s fitted=%v\n", m.Tag, m.Pipeline.Fitted())
	}
	return nil
}
