// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/irongate/internal/platform/apperr"
	"github.com/taibuivan/irongate/internal/platform/metrics"
	"github.com/taibuivan/irongate/internal/platform/respond"
)

// # Security Middleware

/*
Middleware chains authentication and authorization in front of a handler.

Description: Runs the two security gates in order and attaches the resulting
[Auth] to the request context on success. Failures are observed on the
metrics registry (by server-side reason) before the uniform client response
is written.

Parameters:
  - authenticator: *Authenticator
  - authorizer: *Authorizer
  - registry: *metrics.Registry (nil disables observation)

Returns:
  - func(http.Handler) http.Handler: chi-compatible middleware
*/
func Middleware(authenticator *Authenticator, authorizer *Authorizer, registry *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authentication, sessionToken, err := authenticator.Authenticate(request)
			if err != nil {
				if registry != nil {
					if appErr := apperr.As(err); appErr != nil && appErr.Reason != "" {
						registry.ObserveAuthFailure(string(appErr.Reason))
					}
				}
				respond.Error(writer, request, err)
				return
			}

			authorization, err := authorizer.Authorize(request, authentication, sessionToken)
			if err != nil {
				if registry != nil && apperr.As(err) != nil && apperr.As(err).Kind == apperr.KindNotAuthorized {
					registry.ObserveAuthzDenied()
				}
				respond.Error(writer, request, err)
				return
			}

			auth := &Auth{
				Authentication: authentication,
				Authorization:  authorization,
			}

			next.ServeHTTP(writer, request.WithContext(WithAuth(request.Context(), auth)))
		})
	}
}
