package pipeline

import (
	"fmt"
	"strings"

	"github.com/strataml/cubefit/pkg/errors"
)

// paramSep joins a step name and a parameter name in the pipeline's
// flattened hyperparameter namespace, e.g. "scaler__with_mean".
const paramSep = "__"

// ParamKey addresses one hyperparameter of one named step. Using a
// structured key instead of ad hoc string splitting lets overrides be
// validated against the pipeline's declared steps at clone time.
type ParamKey struct {
	Step  string
	Param string
}

func (k ParamKey) String() string {
	return k.Step + paramSep + k.Param
}

// ParseParamKey splits a "{step}__{param}" key. The step name must be
// non-empty and must not itself contain the separator.
func ParseParamKey(key string) (ParamKey, error) {
	i := strings.Index(key, paramSep)
	if i <= 0 || i+len(paramSep) >= len(key) {
		return ParamKey{}, errors.Newf(errors.Configuration,
			"malformed parameter key %q, want {step}%s{param}", key, paramSep)
	}
	return ParamKey{Step: key[:i], Param: key[i+len(paramSep):]}, nil
}

// flattenParams builds the "{step}__{param}" view of a step's params.
func flattenParams(stepName string, params map[string]interface{}, into map[string]interface{}) {
	for k, v := range params {
		into[fmt.Sprintf("%s%s%s", stepName, paramSep, k)] = v
	}
}
