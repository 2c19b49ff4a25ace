package errors_test

import (
	"fmt"
	"testing"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	require.NoError(t, taskerrors.NewValidationError(nil))

	err := taskerrors.NewValidationError(map[string]string{
		"title": "Title is required",
		"email": "Email is invalid",
	})
	require.Error(t, err)
	require.True(t, taskerrors.Is(err, taskerrors.ErrValidation))
	require.Equal(t, "validation failed: email: Email is invalid; title: Title is required", err.Error())

	var verr *taskerrors.ValidationError
	require.True(t, taskerrors.As(fmt.Errorf("wrapped: %w", err), &verr))
	require.Equal(t, "Title is required", verr.Fields["title"])
}

func TestWrapf(t *testing.T) {
	require.NoError(t, taskerrors.Wrapf(nil, "ignored"))

	err := taskerrors.Wrapf(taskerrors.ErrNotFound, "task %s", "t-1")
	require.EqualError(t, err, "task t-1: not found")
	require.True(t, taskerrors.Is(err, taskerrors.ErrNotFound))
}
