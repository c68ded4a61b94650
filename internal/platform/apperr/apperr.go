// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Irongate.

It provides a rich error type that bridges the gap between low-level Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable error kind and client-safe messages.
  - Taxonomy: NOT_FOUND, ALREADY_EXISTS, AUTHENTICATION_FAILED, NOT_AUTHORIZED, INTERNAL_ERROR.
  - Mapping: Explicit mapping from AppError to standard HTTP status codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"net/http"
)

// # Error Kinds

const (
	KindNotFound             = "NOT_FOUND"
	KindAlreadyExists        = "ALREADY_EXISTS"
	KindAuthenticationFailed = "AUTHENTICATION_FAILED"
	KindNotAuthorized        = "NOT_AUTHORIZED"
	KindValidation           = "VALIDATION_ERROR"
	KindInternal             = "INTERNAL_ERROR"
)

// AuthFailureReason classifies why authentication was rejected.
//
// # Security
//
// Reasons are for server-side logging and tests only. The client-facing
// message never distinguishes which verification step failed, so an attacker
// cannot probe for valid user identifiers or key material.
type AuthFailureReason string

const (
	ReasonInvalidHeaders   AuthFailureReason = "invalid_headers"
	ReasonInvalidHost      AuthFailureReason = "invalid_host"
	ReasonInvalidSignature AuthFailureReason = "invalid_signature"
	ReasonUserNotFound     AuthFailureReason = "user_not_found"
)

// AppError is the canonical error type for the Irongate API.
//
// It carries an HTTP status code, a machine-readable kind, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Kind is a machine-readable error identifier (e.g. "NOT_FOUND").
	Kind string `json:"error"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Reason classifies authentication failures for logging and tests.
	Reason AuthFailureReason `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named entity kind and identifier.
//
// Example:
//
//	apperr.NotFound("session", sid) // message: session "..." not found
func NotFound(entityKind, identifier string) *AppError {
	return &AppError{
		Kind:       KindNotFound,
		Message:    entityKind + ` "` + identifier + `" not found`,
		HTTPStatus: http.StatusNotFound,
	}
}

// AlreadyExists creates a 409 [AppError] for duplicate entities, aliases,
// memberships, or attachments.
func AlreadyExists(msg string) *AppError {
	return &AppError{
		Kind:       KindAlreadyExists,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// AuthenticationFailed creates a 401 [AppError].
//
// The client always receives the same generic message regardless of reason;
// the reason is preserved on the error for logs and tests.
func AuthenticationFailed(reason AuthFailureReason) *AppError {
	return &AppError{
		Kind:       KindAuthenticationFailed,
		Message:    "Authentication failed",
		HTTPStatus: http.StatusUnauthorized,
		Reason:     reason,
	}
}

// NotAuthorized creates a 403 [AppError].
func NotAuthorized() *AppError {
	return &AppError{
		Kind:       KindNotAuthorized,
		Message:    "Not authorized to perform this request",
		HTTPStatus: http.StatusForbidden,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsNotFound reports whether err is a NOT_FOUND [AppError].
func IsNotFound(err error) bool {
	ae := As(err)
	return ae != nil && ae.Kind == KindNotFound
}

// IsAlreadyExists reports whether err is an ALREADY_EXISTS [AppError].
func IsAlreadyExists(err error) bool {
	ae := As(err)
	return ae != nil && ae.Kind == KindAlreadyExists
}
