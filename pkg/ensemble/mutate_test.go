package ensemble

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataml/cubefit/pkg/errors"
)

func TestJitterParamsPerturbs(t *testing.T) {
	p := stubTemplate(t, &stubControl{})
	rng := rand.New(rand.NewSource(7))

	mutate := JitterParams(0.5, "stub__score")
	child, err := mutate(rng, p)
	require.NoError(t, err)

	assert.NotEqual(t, p.Params()["stub__score"], child.Params()["stub__score"])
	assert.Equal(t, 1.0, p.Params()["stub__score"], "parent untouched")
	assert.False(t, child.Fitted())
}

func TestJitterParamsUnknownKey(t *testing.T) {
	p := stubTemplate(t, &stubControl{})
	_, err := JitterParams(0.5, "stub__nosuch")(rand.New(rand.NewSource(1)), p)
	assert.True(t, errors.HasCode(err, errors.Configuration))
}
