// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/irongate/internal/platform/apperr"
	"github.com/taibuivan/irongate/internal/platform/validate"
)

/*
TestValidator_Required verifies the empty and whitespace-only cases.
*/
func TestValidator_Required(t *testing.T) {
	v := &validate.Validator{}
	v.Required("hostname", "iam.example.com")
	assert.NoError(t, v.Err())

	v = &validate.Validator{}
	v.Required("hostname", "   ")
	assert.Error(t, v.Err())
}

/*
TestValidator_Chaining verifies that failures accumulate across the chain
and surface as one VALIDATION_ERROR with per-field details.
*/
func TestValidator_Chaining(t *testing.T) {
	v := &validate.Validator{}
	v.Required("hostname", "").
		MaxLen("name", "abcdef", 3).
		MinLen("email", "a", 3)

	err := v.Err()
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Details, 3)
}

/*
TestValidator_OneOf verifies the closed-set check.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("effect", "Allow", "Allow", "Deny")
	assert.NoError(t, v.Err())

	v = &validate.Validator{}
	v.OneOf("effect", "Permit", "Allow", "Deny")
	assert.Error(t, v.Err())
}

/*
TestValidator_Custom verifies the escape hatch used by the rule validators.
*/
func TestValidator_Custom(t *testing.T) {
	v := &validate.Validator{}
	v.Custom("rules", false, "never added")
	assert.False(t, v.HasErrors())

	v.Custom("rules", true, "effect must be Allow or Deny")
	assert.True(t, v.HasErrors())
	assert.Error(t, v.Err())
}
