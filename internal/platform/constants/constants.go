// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Signed header suffixes and token sizing.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "irongate-iam"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Signed Request Headers
//
// Prefixed headers are assembled as "X-" + headerPrefix + suffix, where the
// prefix (default "IAM") is configured once at startup. Authorization,
// Host, and Session-Token are fixed names.

const (
	// HeaderSuffixUserID carries the caller's UUID or email.
	HeaderSuffixUserID = "-User-Id"

	// HeaderSuffixPublicKey carries the base64 Ed25519 public key to verify against.
	HeaderSuffixPublicKey = "-Public-Key"

	// HeaderSuffixRequestID carries a per-request UUID (replay mitigation).
	HeaderSuffixRequestID = "-Request-Id"

	// HeaderSessionToken is the optional opaque bearer token header.
	HeaderSessionToken = "Session-Token"

	// AuthorizationScheme is the scheme in "Authorization: Signature <b64>".
	AuthorizationScheme = "Signature"
)

// # Tracing Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # Sessions & Replay Protection

const (
	// SessionTokenLength is the byte length of the random opaque bearer
	// token: 32 bytes = 256 bits of entropy.
	SessionTokenLength = 32

	// SessionSweepInterval is how often the expired-session sweep job runs.
	SessionSweepInterval = 5 * time.Minute

	// ReplayWindow is how long a (uid, request-id) pair is remembered.
	// Aligned with the clock skew allowed between signer and verifier.
	ReplayWindow = 5 * time.Minute
)

// # JSON Field Identifiers

const (
	FieldError   = "error"
	FieldMessage = "message"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixReplay = "authn:replay:"
)
