// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/irongate/internal/auth"
)

/*
TestCanonicalString verifies the exact byte layout: six fields joined by
literal newlines, nothing re-encoded, empty fields kept in place.
*/
func TestCanonicalString(t *testing.T) {
	// 1. All fields populated
	got := auth.CanonicalString(
		"GET", "iam.example.com", "/users/alice%40example.com", "limit=5",
		"22222222-2222-2222-2222-222222222222", "token-123")
	want := "GET\niam.example.com\n/users/alice%40example.com\nlimit=5\n22222222-2222-2222-2222-222222222222\ntoken-123"
	assert.Equal(t, want, string(got))

	// 2. Absent query and token stay as empty slots, not dropped lines
	got = auth.CanonicalString(
		"DELETE", "iam.example.com", "/groups/engineering", "",
		"22222222-2222-2222-2222-222222222222", "")
	want = "DELETE\niam.example.com\n/groups/engineering\n\n22222222-2222-2222-2222-222222222222\n"
	assert.Equal(t, want, string(got))

	// 3. Pure function: identical inputs, identical bytes
	again := auth.CanonicalString(
		"DELETE", "iam.example.com", "/groups/engineering", "",
		"22222222-2222-2222-2222-222222222222", "")
	assert.Equal(t, got, again)
}

/*
TestStripPort verifies the first-colon rule shared by signer and verifier.
*/
func TestStripPort(t *testing.T) {
	assert.Equal(t, "iam.example.com", auth.StripPort("iam.example.com:8443"))
	assert.Equal(t, "iam.example.com", auth.StripPort("iam.example.com"))
	assert.Equal(t, "localhost", auth.StripPort("localhost:8080"))

	// Everything at and after the first ':' goes, even degenerate input
	assert.Equal(t, "", auth.StripPort(":8080"))
}
