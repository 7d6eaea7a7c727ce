package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsIdentity(t *testing.T) {
	wrapped := ErrConvNotFound.Wrap(errors.New("record not found"))

	require.True(t, errors.Is(wrapped, ErrConvNotFound))
	require.False(t, errors.Is(wrapped, ErrMessageNotFound))
	require.Contains(t, wrapped.Msg, "record not found")
}

func TestFrom(t *testing.T) {
	require.Nil(t, From(nil))

	e := From(fmt.Errorf("outer: %w", ErrNoPermission))
	require.Equal(t, ErrNoPermission.Code, e.Code)

	e = From(errors.New("disk on fire"))
	require.Equal(t, ErrInternalServer.Code, e.Code)
}

func TestRetryable(t *testing.T) {
	require.True(t, ErrInternalServer.Retryable())
	require.True(t, ErrConflict.Wrap(errors.New("lost race")).Retryable())
	require.False(t, ErrInvalidEmoji.Retryable())
	require.False(t, ErrNotParticipant.Retryable())
}
