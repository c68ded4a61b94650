// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the signed-request security boundary.

Every inbound request passes two gates before reaching a business handler:

 1. Authentication: the caller proves possession of an Ed25519 secret key
    registered for the claimed user, by signing a canonical rendering of
    the request (see [CanonicalString]).
 2. Authorization: the union of the user's directly attached policies and
    the policies of groups the user belongs to is evaluated against the
    request's action and resource path. Deny wins over Allow; no match
    means deny.

The outcome is stored on the request context as an [Auth] value, which
business handlers may consult for the acting principal.

# Side-Channel Discipline

Authentication failures all surface as the same client-visible 401 message.
The precise reason (bad headers, wrong host, bad signature, unknown user)
is kept server-side on the error value for logs and metrics.
*/
package auth

import (
	"context"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/ctxkey"
)

// # Request Security Context

// Authentication records the verified identity of the caller.
type Authentication struct {
	// User is the resolved principal.
	User *iam.User

	// PublicKey is the registered key the signature verified against.
	PublicKey []byte

	// RequestID is the caller-chosen UUID covered by the signature.
	RequestID string
}

// Authorization records the policy decision inputs for the request.
type Authorization struct {
	// Policies is the host-filtered policy set that was evaluated.
	Policies []*iam.Policy

	// Session is the live session resolved from the bearer token, or nil
	// when the request authenticated by signature alone.
	Session *iam.Session
}

// Auth is the combined security context attached to authenticated requests.
type Auth struct {
	Authentication Authentication
	Authorization  Authorization
}

// WithAuth returns a child context carrying the security context.
func WithAuth(ctx context.Context, auth *Auth) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuth, auth)
}

// GetAuth retrieves the security context, or nil before the middleware ran.
func GetAuth(ctx context.Context) *Auth {
	if auth, ok := ctx.Value(ctxkey.KeyAuth).(*Auth); ok {
		return auth
	}
	return nil
}
