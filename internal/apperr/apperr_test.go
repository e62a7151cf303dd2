package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("route %d not found", 3)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))

	wrapped := fmt.Errorf("assign: %w", ConflictBlocked("busy"))
	assert.Equal(t, KindConflictBlocked, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindConflictBlocked}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindNotFound}))
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: relation does not exist"), "failed to load route")
	assert.Equal(t, "internal server error", Message(err))
	assert.ErrorContains(t, err, "relation does not exist")

	assert.Equal(t, "route 7 not found", Message(NotFound("route %d not found", 7)))
}
