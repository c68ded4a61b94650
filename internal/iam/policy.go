// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"net/http"
	"strings"
)

// # Rule Language

// Effect is the outcome a rule contributes to the decision.
type Effect string

const (
	Allow Effect = "Allow"
	Deny  Effect = "Deny"
)

// IsValid reports whether the effect is one of the two known values.
func (e Effect) IsValid() bool { return e == Allow || e == Deny }

// Action is the coarse access class derived from the HTTP method.
type Action string

const (
	Read  Action = "Read"
	Write Action = "Write"
)

// IsValid reports whether the action is one of the two known values.
func (a Action) IsValid() bool { return a == Read || a == Write }

// ActionForMethod maps an HTTP method to an [Action]:
// GET and HEAD are Read, everything else is Write.
func ActionForMethod(method string) Action {
	if method == http.MethodGet || method == http.MethodHead {
		return Read
	}
	return Write
}

// Rule grants or denies one action on a resource pattern.
type Rule struct {
	Effect   Effect `json:"effect"`
	Action   Action `json:"action"`
	Resource string `json:"resource"`
}

// Matches reports whether the rule applies to the given request action and
// resource path.
//
// # Pattern Semantics
//
// A trailing '*' makes the pattern a prefix wildcard; any other pattern must
// match the resource exactly. The wildcard is only recognized at the end —
// '*' elsewhere is a literal byte.
func (r Rule) Matches(action Action, resource string) bool {
	if r.Action != action {
		return false
	}
	if strings.HasSuffix(r.Resource, "*") {
		return strings.HasPrefix(resource, strings.TrimSuffix(r.Resource, "*"))
	}
	return r.Resource == resource
}

// # Decision Function

// Evaluate flattens the rules of all given policies and decides whether the
// (action, resource) request is allowed.
//
// Decision order:
//
//  1. Any matching Deny rule → deny.
//  2. Else any matching Allow rule → allow.
//  3. Else deny (default-deny).
//
// Policy ordering never affects the outcome: a single matching Deny wins
// regardless of position, so adding a Deny can only narrow access.
func Evaluate(policies []*Policy, action Action, resource string) bool {
	allowed := false

	for _, policy := range policies {
		for _, rule := range policy.Rules {
			if !rule.Matches(action, resource) {
				continue
			}
			if rule.Effect == Deny {
				return false
			}
			allowed = true
		}
	}

	return allowed
}
