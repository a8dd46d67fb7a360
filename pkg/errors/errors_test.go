package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewTransportError("list visits", stderrors.New("connection refused"))
	assert.Equal(t, "TRANSPORT: list visits: connection refused", err.Error())

	err = NewValidationError("no doctor selected")
	assert.Equal(t, "VALIDATION: no doctor selected", err.Error())
}

func TestIs_FollowsWrapChain(t *testing.T) {
	wrapped := fmt.Errorf("load history: %w", NewUnauthenticatedError("no token"))

	assert.True(t, Is(wrapped, ErrorTypeUnauthenticated))
	assert.False(t, Is(wrapped, ErrorTypeTransport))
	assert.False(t, Is(nil, ErrorTypeUnauthenticated))
	assert.False(t, Is(stderrors.New("plain"), ErrorTypeTransport))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation passes through", err: NewValidationError("Pick a weekday"), want: "Pick a weekday"},
		{name: "not found passes through", err: NewNotFoundError("visit 7 not found"), want: "visit 7 not found"},
		{name: "transport is generic", err: NewTransportError("boom", nil), want: GenericRetryMessage},
		{name: "plain error is generic", err: stderrors.New("boom"), want: GenericRetryMessage},
		{name: "unauthenticated", err: NewUnauthenticatedError("x"), want: "You are not logged in. Please log in and try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
