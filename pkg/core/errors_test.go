package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPipelineErrorWrapsAndFormats(t *testing.T) {
	err := NewPipelineError("Process", ErrClassificationFailed)

	assert.EqualError(t, err, "voicemind: Process: classification failed")
	assert.True(t, errors.Is(err, ErrClassificationFailed))

	var pipeErr *PipelineError
	assert.True(t, errors.As(err, &pipeErr))
	assert.Equal(t, "Process", pipeErr.Op)
}

func TestNewPipelineErrorNilPassthrough(t *testing.T) {
	assert.Nil(t, NewPipelineError("Process", nil))
}
