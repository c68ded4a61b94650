// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "strings"

// # Canonical Request Rendering

/*
CanonicalString renders the signed portion of a request as a deterministic
byte string. Signer (CLI) and verifier (server) must produce identical
bytes, so the inputs are taken raw: the path and query are the undecoded
bytes from the request line, never re-encoded.

The rendering is six newline-joined fields:

	method \n host \n rawPath \n rawQuery \n requestID \n sessionToken

Parameters:
  - method: string (uppercase HTTP method)
  - host: string (hostname only, port already stripped)
  - rawPath: string (undecoded path bytes)
  - rawQuery: string (undecoded query bytes, empty if absent)
  - requestID: string (caller-chosen UUID)
  - sessionToken: string (empty when no token accompanies the request)

Returns:
  - []byte: The exact bytes to sign or verify
*/
func CanonicalString(method, host, rawPath, rawQuery, requestID, sessionToken string) []byte {
	var builder strings.Builder
	builder.Grow(len(method) + len(host) + len(rawPath) + len(rawQuery) + len(requestID) + len(sessionToken) + 5)

	builder.WriteString(method)
	builder.WriteByte('\n')
	builder.WriteString(host)
	builder.WriteByte('\n')
	builder.WriteString(rawPath)
	builder.WriteByte('\n')
	builder.WriteString(rawQuery)
	builder.WriteByte('\n')
	builder.WriteString(requestID)
	builder.WriteByte('\n')
	builder.WriteString(sessionToken)

	return []byte(builder.String())
}

// StripPort drops everything at and after the first ':' in a Host header
// value. Both signer and verifier use this exact rule, so it must stay
// byte-oriented rather than net.SplitHostPort-clever.
func StripPort(host string) string {
	if colon := strings.IndexByte(host, ':'); colon != -1 {
		return host[:colon]
	}
	return host
}
