package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azadi/pkg/platform/sentinel"
)

func TestErrorIsMatchesCodeAndMessage(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeUnauthorized, "token has expired"))

	require.ErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
	assert.ErrorIs(t, err, &Error{Code: CodeUnauthorized})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "store unreachable")

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeUnavailable))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"domain error", New(CodeValidation, "amount must be positive"), CodeValidation},
		{"not found sentinel", fmt.Errorf("donation d1: %w", sentinel.ErrNotFound), CodeNotFound},
		{"invalid state sentinel", sentinel.ErrInvalidState, CodeInvalidState},
		{"unavailable sentinel", sentinel.ErrUnavailable, CodeUnavailable},
		{"conflict sentinel", sentinel.ErrConflict, CodeConflict},
		{"plain error", errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
}
