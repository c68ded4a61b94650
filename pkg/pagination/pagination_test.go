// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/irongate/pkg/pagination"
)

/*
TestFromRequest verifies defaulting and clamping of the offset/limit query
parameters.
*/
func TestFromRequest(t *testing.T) {
	// 1. Absent parameters fall back to defaults
	params := pagination.FromRequest(httptest.NewRequest("GET", "/users", nil))
	assert.Equal(t, 0, params.Offset)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)

	// 2. Explicit values within range pass through
	params = pagination.FromRequest(httptest.NewRequest("GET", "/users?offset=40&limit=50", nil))
	assert.Equal(t, 40, params.Offset)
	assert.Equal(t, 50, params.Limit)

	// 3. Out-of-range and garbage values are clamped to defaults
	params = pagination.FromRequest(httptest.NewRequest("GET", "/users?offset=-5&limit=9999", nil))
	assert.Equal(t, 0, params.Offset)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)

	params = pagination.FromRequest(httptest.NewRequest("GET", "/users?offset=abc&limit=xyz", nil))
	assert.Equal(t, 0, params.Offset)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
}
