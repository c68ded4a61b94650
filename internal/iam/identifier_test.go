// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/irongate/internal/iam"
)

const wellFormedUUID = "11111111-1111-1111-1111-111111111111"

/*
TestParseUserIdentifier verifies the UUID-or-alias classification: a
well-formed UUID resolves by id, anything else is treated as an email.
*/
func TestParseUserIdentifier(t *testing.T) {
	// 1. Well-formed UUID -> id variant
	byID := iam.ParseUserIdentifier(wellFormedUUID)
	assert.Equal(t, wellFormedUUID, byID.ID)
	assert.Empty(t, byID.Email)

	// 2. Anything else -> email variant
	byEmail := iam.ParseUserIdentifier("alice@example.com")
	assert.Empty(t, byEmail.ID)
	assert.Equal(t, "alice@example.com", byEmail.Email)

	// 3. Near-miss UUIDs stay aliases
	almost := iam.ParseUserIdentifier("11111111-1111-1111-1111-11111111111")
	assert.Empty(t, almost.ID)
	assert.NotEmpty(t, almost.Email)
}

/*
TestParseGroupAndPolicyIdentifier verifies the same classification for group
names and policy names.
*/
func TestParseGroupAndPolicyIdentifier(t *testing.T) {
	group := iam.ParseGroupIdentifier("engineering")
	assert.Equal(t, "engineering", group.Name)
	assert.Empty(t, group.ID)

	groupByID := iam.ParseGroupIdentifier(wellFormedUUID)
	assert.Equal(t, wellFormedUUID, groupByID.ID)

	policy := iam.ParsePolicyIdentifier("readers")
	assert.Equal(t, "readers", policy.Name)
	assert.Empty(t, policy.ID)
}

/*
TestIdentifierString verifies the human-readable rendering used in error
messages.
*/
func TestIdentifierString(t *testing.T) {
	assert.Equal(t, wellFormedUUID, iam.UserID(wellFormedUUID).String())
	assert.Equal(t, "alice@example.com", iam.UserEmail("alice@example.com").String())
	assert.Equal(t, "engineering", iam.GroupName("engineering").String())
}
