package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckContext(t *testing.T) {
	assert.NoError(t, CheckContext(context.Background(), "fit"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CheckContext(ctx, "fit")
	assert.Error(t, err)
	assert.True(t, HasCode(err, Canceled))
	assert.Contains(t, err.Error(), "fit canceled")
}
