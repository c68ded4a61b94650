// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/apperr"
	requestutil "github.com/taibuivan/irongate/internal/platform/request"
)

// # Authorizer

// Authorizer decides whether an authenticated request may proceed.
type Authorizer struct {
	store iam.Store

	// host scopes the policy lookup; only policies bound to this hostname
	// apply.
	host string
}

// NewAuthorizer constructs an [Authorizer].
func NewAuthorizer(store iam.Store, host string) *Authorizer {
	return &Authorizer{store: store, host: host}
}

/*
Authorize evaluates the caller's aggregated policy set against the request.

Description: Resolves the session when a token was presented (a foreign,
unknown, or expired token reads as session NOT_FOUND), loads the union of
directly attached and group-inherited policies for the configured host, and
evaluates the flattened rule list against the request's action and raw path.
Deny beats Allow; an empty match set denies.

Parameters:
  - request: *http.Request
  - authentication: Authentication (verified identity)
  - sessionToken: string (empty when no token accompanied the request)

Returns:
  - Authorization: Evaluated policy set plus resolved session
  - error: NOT_FOUND (session) or NOT_AUTHORIZED
*/
func (authorizer *Authorizer) Authorize(request *http.Request, authentication Authentication, sessionToken string) (Authorization, error) {
	uid := authentication.User.ID

	// 1. Presence of a token is a request for session authorization; an
	// unresolvable token is an error, not a silent downgrade.
	var session *iam.Session
	if sessionToken != "" {
		resolved, err := authorizer.store.GetSessionByToken(request.Context(), uid, sessionToken)
		if err != nil {
			return Authorization{}, err
		}
		session = resolved
	}

	// 2. Aggregate the applicable policies: direct attachments plus the
	// attachments of every group the user belongs to, host-filtered.
	policies, err := authorizer.store.ListPoliciesForUser(request.Context(), uid, authorizer.host)
	if err != nil {
		return Authorization{}, err
	}

	// 3. Evaluate against (action, raw path).
	action := iam.ActionForMethod(request.Method)
	rawPath, _ := requestutil.RawPathAndQuery(request)

	if !iam.Evaluate(policies, action, rawPath) {
		return Authorization{}, apperr.NotAuthorized()
	}

	return Authorization{Policies: policies, Session: session}, nil
}
