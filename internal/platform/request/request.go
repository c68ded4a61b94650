// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/irongate/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter (UUID/alias) from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// RawPathAndQuery returns the exact request-line path and query bytes.
//
// # Determinism
//
// The canonical string-to-sign is built from raw request bytes, so these must
// be read from the request line before any router normalization — chi's
// CleanPath and URL.Path decoding both rewrite the path. RequestURI preserves
// the original bytes.
func RawPathAndQuery(request *http.Request) (rawPath, rawQuery string) {
	uri := request.RequestURI

	// Proxied requests may carry an absolute-form URI; strip scheme and authority.
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		rest := uri[strings.Index(uri, "://")+3:]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			uri = rest[idx:]
		} else {
			uri = "/"
		}
	}

	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		return uri[:idx], uri[idx+1:]
	}
	return uri, ""
}
