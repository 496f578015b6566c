package ensemble

import (
	"math/rand"

	"github.com/strataml/cubefit/pkg/errors"
	"github.com/strataml/cubefit/pkg/pipeline"
)

// JitterParams returns a mutation that perturbs the named numeric
// "{step}__{param}" hyperparameters multiplicatively by a gaussian
// factor of the given scale, producing an unfitted clone through
// NewWithParams. Non-numeric targets are a configuration error.
func JitterParams(scale float64, keys ...string) MutateFunc {
	return func(rng *rand.Rand, p *pipeline.Pipeline) (*pipeline.Pipeline, error) {
		params := p.Params()
		overrides := make(map[string]interface{}, len(keys))
		for _, key := range keys {
			v, ok := params[key]
			if !ok {
				return nil, errors.Newf(errors.Configuration, "pipeline has no parameter %q", key)
			}
			factor := 1 + scale*rng.NormFloat64()
			switch x := v.(type) {
			case float64:
				overrides[key] = x * factor
			case int:
				jittered := int(float64(x) * factor)
				if jittered < 1 {
					jittered = 1
				}
				overrides[key] = jittered
			default:
				return nil, errors.Newf(errors.Configuration,
					"parameter %q is not numeric (%T)", key, v)
			}
		}
		return p.NewWithParams(overrides)
	}
}
