package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsFirstOp(t *testing.T) {
	base := errors.New("timeout")
	err := Wrap("analyze", Wrap("normalize", base))

	var ie *InferenceError
	assert.ErrorAs(t, err, &ie)
	assert.Equal(t, "normalize", ie.Op)
	assert.ErrorIs(t, err, base)
	assert.True(t, IsInference(err))
	assert.False(t, IsInference(base))
	assert.NoError(t, Wrap("x", nil))
}
