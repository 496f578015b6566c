package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(Configuration, "bad override key")
	assert.Equal(t, "bad override key", err.Error())

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, Configuration, e.Code())
}

func TestNewf(t *testing.T) {
	err := Newf(InvalidInput, "want %d bands, got %d", 3, 2)
	assert.Equal(t, "want 3 bands, got 2", err.Error())
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap(inner, Scheduler, "worker lost")

	assert.Equal(t, "worker lost: connection refused", err.Error())
	assert.Equal(t, inner, stderrors.Unwrap(err))

	assert.Nil(t, Wrap(nil, Scheduler, "ignored"))
}

func TestWithFields(t *testing.T) {
	err := WithFields(New(MemberFit, "fit failed"), Fields{"tag": "model-0"})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, MemberFit, e.Code())
	assert.Equal(t, "model-0", e.Fields()["tag"])
	assert.Contains(t, err.Error(), "tag=model-0")
}

func TestWithFieldsMerges(t *testing.T) {
	err := WithFields(New(MemberPredict, "predict failed"), Fields{"tag": "m0"})
	err = WithFields(err, Fields{"sample": 2})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, MemberPredict, e.Code())
	assert.Equal(t, "m0", e.Fields()["tag"])
	assert.Equal(t, 2, e.Fields()["sample"])
}

func TestWithFieldsForeignError(t *testing.T) {
	err := WithFields(fmt.Errorf("plain"), Fields{"k": "v"})

	var e *Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, Unknown, e.Code())
	assert.Equal(t, "v", e.Fields()["k"])
}

func TestIsMatchesOnCode(t *testing.T) {
	err := New(SampleAcquisition, "sampler blew up")
	assert.True(t, stderrors.Is(err, New(SampleAcquisition, "other message")))
	assert.False(t, stderrors.Is(err, New(Configuration, "other code")))
}

func TestHasCode(t *testing.T) {
	inner := New(MemberFit, "fit failed")
	outer := Wrap(inner, Unknown, "generation 0")

	assert.True(t, HasCode(outer, MemberFit))
	assert.True(t, HasCode(outer, Unknown))
	assert.False(t, HasCode(outer, Scheduler))
	assert.False(t, HasCode(fmt.Errorf("plain"), Unknown))
	assert.False(t, HasCode(nil, Unknown))
}
