package apierror

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationErrorIsBareMessage(t *testing.T) {
	err := Application("bad password", http.StatusOK)

	require.EqualError(t, err, "bad password")
	assert.ErrorIs(t, err, ErrApplication)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestErrorFormatting(t *testing.T) {
	t.Run("code and details", func(t *testing.T) {
		err := New("BAD_REQUEST", "invalid role", "guest", http.StatusBadRequest)
		assert.Equal(t, "BAD_REQUEST: invalid role (guest)", err.Error())
	})

	t.Run("wrapped cause", func(t *testing.T) {
		err := Transport(io.ErrUnexpectedEOF)
		assert.Equal(t, "TRANSPORT: request failed: unexpected EOF", err.Error())
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("nil receiver", func(t *testing.T) {
		var err *APIError
		assert.Equal(t, "", err.Error())
	})
}

func TestKindMatchingThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", Unauthorized("NOT_LOGIN"))

	assert.ErrorIs(t, wrapped, ErrUnauthorized)

	var apiErr *APIError
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus)
	assert.Equal(t, "NOT_LOGIN", apiErr.Message)
}

func TestMissingToken(t *testing.T) {
	err := MissingToken()
	assert.EqualError(t, err, "No token received")
	assert.ErrorIs(t, err, ErrNoToken)
}
