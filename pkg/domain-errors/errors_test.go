package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeNotFound, "Promise not found."))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeApplication))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestErrorsIs(t *testing.T) {
	err := Application("Promise Pledge already exists!")
	require.ErrorIs(t, err, Application("Promise Pledge already exists!"))
	require.NotErrorIs(t, err, Application("something else"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, CodeInternal, "failed to load promise")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
	de, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "failed to load promise", de.Message)
}

func TestPermissionViolationMessage(t *testing.T) {
	err := PermissionViolation()
	assert.Equal(t, CodePermissionViolation, err.Code)
	assert.Equal(t, "You do not have permission to perform this action.", err.Message)
}
