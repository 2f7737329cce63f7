package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "ledger unavailable")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
	})
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeAlreadyConsumed, "container already consumed"))
	assert.True(t, HasCode(err, CodeAlreadyConsumed))
	assert.False(t, HasCode(err, CodeContainerVoid))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodePatientMismatch, CodeOf(New(CodePatientMismatch, "mismatch")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
