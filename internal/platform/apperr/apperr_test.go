// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/irongate/internal/platform/apperr"
)

/*
TestErrorTaxonomy verifies each constructor's kind, status code, and
client-facing message discipline.
*/
func TestErrorTaxonomy(t *testing.T) {
	notFound := apperr.NotFound("user", "alice@example.com")
	assert.Equal(t, apperr.KindNotFound, notFound.Kind)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)
	assert.Contains(t, notFound.Message, `user "alice@example.com" not found`)

	exists := apperr.AlreadyExists("email is already registered")
	assert.Equal(t, apperr.KindAlreadyExists, exists.Kind)
	assert.Equal(t, http.StatusConflict, exists.HTTPStatus)

	denied := apperr.NotAuthorized()
	assert.Equal(t, apperr.KindNotAuthorized, denied.Kind)
	assert.Equal(t, http.StatusForbidden, denied.HTTPStatus)

	internal := apperr.Internal(errors.New("boom"))
	assert.Equal(t, apperr.KindInternal, internal.Kind)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
}

/*
TestAuthenticationFailed verifies the side-channel discipline: every reason
produces the same client-visible message, with the reason kept server-side.
*/
func TestAuthenticationFailed(t *testing.T) {
	reasons := []apperr.AuthFailureReason{
		apperr.ReasonInvalidHeaders,
		apperr.ReasonInvalidHost,
		apperr.ReasonInvalidSignature,
		apperr.ReasonUserNotFound,
	}

	messages := map[string]struct{}{}
	for _, reason := range reasons {
		err := apperr.AuthenticationFailed(reason)
		assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus)
		assert.Equal(t, reason, err.Reason)
		messages[err.Message] = struct{}{}
	}

	// One uniform message across all reasons
	assert.Len(t, messages, 1)
}

/*
TestErrorHelpers verifies unwrapping through fmt.Errorf chains.
*/
func TestErrorHelpers(t *testing.T) {
	base := apperr.NotFound("session", "s-1")
	wrapped := fmt.Errorf("refresh failed: %w", base)

	assert.True(t, apperr.IsAppError(wrapped))
	assert.True(t, apperr.IsNotFound(wrapped))
	assert.False(t, apperr.IsAlreadyExists(wrapped))

	unwrapped := apperr.As(wrapped)
	require.NotNil(t, unwrapped)
	assert.Equal(t, apperr.KindNotFound, unwrapped.Kind)

	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.False(t, apperr.IsAppError(nil))
}
