package ensemble

import (
	"math/rand"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
)

// SelectionInfo carries the generation bookkeeping every selection call
// receives, plus caller-supplied extras.
type SelectionInfo struct {
	Generation int
	NGen       int
	Extra      map[string]interface{}
}

// SelectionFunc maps one generation's scored population to the next
// generation's population. population contains only the members that
// fitted successfully this generation; bestIdxes indexes into it, best
// first, exactly as ranked; the engine never reorders or reinterprets
// it. The returned slice becomes the next population verbatim: repeated
// tags carry their fitted state forward untouched, new tags denote
// unfitted members. The returned size becomes the population size for
// the next generation.
type SelectionFunc func(population []Member, bestIdxes []int, info SelectionInfo) ([]Member, error)

// InitFunc builds generation zero's population from the template
// pipeline. Used only when no prior population exists.
type InitFunc func(template *pipeline.Pipeline, tagger *Tagger) ([]Member, error)

// MutateFunc derives a new unfitted pipeline from a survivor, e.g. by
// jittering hyperparameters through NewWithParams.
type MutateFunc func(rng *rand.Rand, p *pipeline.Pipeline) (*pipeline.Pipeline, error)

// ElitistKeepAll returns the population unchanged every generation.
func ElitistKeepAll(population []Member, _ []int, _ SelectionInfo) ([]Member, error) {
	return population, nil
}

// ReplicateTemplate is the default init policy: n unfitted clones of the
// template with fresh tags.
func ReplicateTemplate(n int) InitFunc {
	return func(template *pipeline.Pipeline, tagger *Tagger) ([]Member, error) {
		if n < 1 {
			return nil, errors.Newf(errors.Configuration, "init ensemble size must be >= 1, got %d", n)
		}
		members := make([]Member, n)
		for i := range members {
			p, err := template.Clone()
			if err != nil {
				return nil, err
			}
			members[i] = Member{Tag: tagger.Next(), Pipeline: p}
		}
		return members, nil
	}
}

// TopN keeps the best n members each generation and refills the
// population back to its previous size with mutated, unfitted clones of
// the survivors (round-robin over survivors, fresh tags). mutate may be
// nil, in which case refills are plain clones. On the final generation
// only the survivors are returned, so the run collapses to its best n.
func TopN(n int, tagger *Tagger, rng *rand.Rand, mutate MutateFunc) SelectionFunc {
	return func(population []Member, bestIdxes []int, info SelectionInfo) ([]Member, error) {
		if n < 1 {
			return nil, errors.Newf(errors.Configuration, "selection size must be >= 1, got %d", n)
		}
		keep := n
		if keep > len(bestIdxes) {
			keep = len(bestIdxes)
		}
		next := make([]Member, 0, len(population))
		for _, idx := range bestIdxes[:keep] {
			next = append(next, population[idx])
		}

		if info.Generation == info.NGen-1 {
			return next, nil
		}

		for i := 0; len(next) < len(population); i++ {
			parent := next[i%keep].Pipeline
			var child *pipeline.Pipeline
			var err error
			if mutate != nil {
				child, err = mutate(rng, parent)
			} else {
				child, err = parent.Clone()
			}
			if err != nil {
				return nil, err
			}
			next = append(next, Member{Tag: tagger.Next(), Pipeline: child})
		}
		return next, nil
	}
}

// CollapseToBest keeps the whole population until the final generation,
// then returns the single best member as the ensemble.
func CollapseToBest() SelectionFunc {
	return func(population []Member, bestIdxes []int, info SelectionInfo) ([]Member, error) {
		if info.Generation < info.NGen-1 {
			return population, nil
		}
		if len(bestIdxes) == 0 {
			return nil, errors.New(errors.Configuration, "no ranked members to collapse to")
		}
		return []Member{population[bestIdxes[0]]}, nil
	}
}

// validatePopulation checks a selection return for the engine: non-empty,
// complete members, tags unique within the generation.
func validatePopulation(members []Member) error {
	if len(members) == 0 {
		return errors.New(errors.Configuration, "selection returned an empty population")
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m.Tag == "" || m.Pipeline == nil {
			return errors.New(errors.Configuration, "selection returned an incomplete member")
		}
		if seen[m.Tag] {
			return errors.Newf(errors.Configuration, "selection returned duplicate tag %q", m.Tag)
		}
		seen[m.Tag] = true
	}
	return nil
}
