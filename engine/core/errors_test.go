package core

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	stale := StaleSurface("acquire next image")
	assert.True(t, IsRecoverable(stale))
	assert.False(t, IsFatal(stale))
	assert.ErrorIs(t, errors.Wrap(stale, "draw"), ErrStaleSurface)

	creation := NewCreationError("pipeline bloom/light", errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY"))
	assert.True(t, IsFatal(creation))
	assert.ErrorIs(t, creation, ErrCreationFailure)
	var ce *CreationError
	assert.True(t, errors.As(creation, &ce))
	assert.Equal(t, "pipeline bloom/light", ce.What)

	misuse := NewProgrammerError("buffer %q destroyed twice", "vertices")
	assert.True(t, IsFatal(misuse))
	assert.ErrorIs(t, misuse, ErrProgrammer)
	assert.NotErrorIs(t, misuse, ErrCreationFailure)
	var pe *ProgrammerError
	assert.True(t, errors.As(misuse, &pe))

	assert.False(t, IsFatal(nil))
	assert.False(t, IsRecoverable(nil))
}

func TestMarkersSurviveWrapping(t *testing.T) {
	creation := errors.Wrap(NewCreationError("descriptor set", nil), "build pass shadow")
	misuse := fmt.Errorf("draw: %w", NewProgrammerError("draw before build"))

	// Both the stdlib and the cockroach walks see the markers.
	assert.True(t, stderrors.Is(creation, ErrCreationFailure))
	assert.True(t, errors.Is(creation, ErrCreationFailure))
	assert.True(t, stderrors.Is(misuse, ErrProgrammer))
	assert.True(t, errors.Is(misuse, ErrProgrammer))
	assert.False(t, stderrors.Is(creation, ErrProgrammer))
	assert.True(t, IsFatal(creation))
	assert.True(t, IsFatal(misuse))
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("WARN")
	assert.NoError(t, err)
	assert.Equal(t, LogLevelWarn, l)

	l, err = ParseLogLevel("")
	assert.NoError(t, err)
	assert.Equal(t, LogLevelInfo, l)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}
