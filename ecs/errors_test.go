package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrWorkerPoolFailedUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := ErrWorkerPoolFailed{Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestErrSystemAlreadyRegisteredMessage(t *testing.T) {
	err := ErrSystemAlreadyRegistered{ID: 3}
	assert.Contains(t, err.Error(), "3")
}
