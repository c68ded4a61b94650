// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/irongate/internal/iam"
)

func policySet(rules ...iam.Rule) []*iam.Policy {
	return []*iam.Policy{{ID: "p1", Hostname: "iam.example.com", Rules: rules}}
}

/*
TestActionForMethod verifies the HTTP method to action mapping: GET and HEAD
read, everything else writes.
*/
func TestActionForMethod(t *testing.T) {
	assert.Equal(t, iam.Read, iam.ActionForMethod(http.MethodGet))
	assert.Equal(t, iam.Read, iam.ActionForMethod(http.MethodHead))
	assert.Equal(t, iam.Write, iam.ActionForMethod(http.MethodPost))
	assert.Equal(t, iam.Write, iam.ActionForMethod(http.MethodPut))
	assert.Equal(t, iam.Write, iam.ActionForMethod(http.MethodDelete))
	assert.Equal(t, iam.Write, iam.ActionForMethod(http.MethodPatch))
}

/*
TestEvaluate_DefaultDeny verifies that an empty rule set and a non-matching
rule set both deny.
*/
func TestEvaluate_DefaultDeny(t *testing.T) {
	// 1. No policies at all
	assert.False(t, iam.Evaluate(nil, iam.Read, "/users"))

	// 2. Rules that do not match the resource
	policies := policySet(iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/groups"})
	assert.False(t, iam.Evaluate(policies, iam.Read, "/users"))

	// 3. Rules that match the resource but not the action
	policies = policySet(iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users"})
	assert.False(t, iam.Evaluate(policies, iam.Write, "/users"))
}

/*
TestEvaluate_AllowAndDeny verifies the decision procedure: any matching Deny
wins over any number of matching Allows, regardless of rule order.
*/
func TestEvaluate_AllowAndDeny(t *testing.T) {
	// 1. A single matching Allow permits the request
	policies := policySet(iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users"})
	assert.True(t, iam.Evaluate(policies, iam.Read, "/users"))

	// 2. Deny beats Allow, in both orderings
	policies = policySet(
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users"},
		iam.Rule{Effect: iam.Deny, Action: iam.Read, Resource: "/users"},
	)
	assert.False(t, iam.Evaluate(policies, iam.Read, "/users"))

	policies = policySet(
		iam.Rule{Effect: iam.Deny, Action: iam.Read, Resource: "/users"},
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users"},
	)
	assert.False(t, iam.Evaluate(policies, iam.Read, "/users"))

	// 3. Rules are flattened across policies
	twoPolicies := []*iam.Policy{
		{ID: "p1", Rules: []iam.Rule{{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"}}},
		{ID: "p2", Rules: []iam.Rule{{Effect: iam.Deny, Action: iam.Read, Resource: "/users/secret"}}},
	}
	assert.True(t, iam.Evaluate(twoPolicies, iam.Read, "/users/public"))
	assert.False(t, iam.Evaluate(twoPolicies, iam.Read, "/users/secret"))
}

/*
TestEvaluate_WildcardPatterns verifies the pattern semantics: a trailing '*'
is a prefix wildcard, anything else is an exact byte match.
*/
func TestEvaluate_WildcardPatterns(t *testing.T) {
	policies := policySet(iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	// 1. The prefix wildcard covers the bare prefix and any suffix
	assert.True(t, iam.Evaluate(policies, iam.Read, "/users/"))
	assert.True(t, iam.Evaluate(policies, iam.Read, "/users/abc"))
	assert.True(t, iam.Evaluate(policies, iam.Read, "/users/abc/sessions"))

	// 2. The prefix is byte-literal: "/users" without the slash is outside
	assert.False(t, iam.Evaluate(policies, iam.Read, "/users"))

	// 3. A '*' anywhere else is a literal character
	literal := policySet(iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/a*/b"})
	assert.True(t, iam.Evaluate(literal, iam.Read, "/a*/b"))
	assert.False(t, iam.Evaluate(literal, iam.Read, "/ax/b"))

	// 4. A lone "*" matches everything
	everything := policySet(iam.Rule{Effect: iam.Allow, Action: iam.Write, Resource: "*"})
	assert.True(t, iam.Evaluate(everything, iam.Write, "/anything/at/all"))
}

/*
TestEvaluate_DenyMonotone verifies that adding a matching Deny rule never
flips a decision from deny to allow.
*/
func TestEvaluate_DenyMonotone(t *testing.T) {
	base := []iam.Rule{
		{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"},
		{Effect: iam.Deny, Action: iam.Read, Resource: "/users/hidden"},
	}
	deny := iam.Rule{Effect: iam.Deny, Action: iam.Read, Resource: "/users/*"}

	resources := []string{"/users/", "/users/hidden", "/users/a/b", "/groups"}
	for _, resource := range resources {
		before := iam.Evaluate(policySet(base...), iam.Read, resource)
		after := iam.Evaluate(policySet(append(base, deny)...), iam.Read, resource)
		if !before {
			assert.False(t, after, "deny rule flipped decision for %s", resource)
		}
	}
}
