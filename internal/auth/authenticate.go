// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/apperr"
	"github.com/taibuivan/irongate/internal/platform/constants"
	requestutil "github.com/taibuivan/irongate/internal/platform/request"
	"github.com/taibuivan/irongate/pkg/uuid"
)

// # Authenticator

// Authenticator verifies request signatures against registered user keys.
type Authenticator struct {
	store iam.Store

	// host is the configured server hostname; the request's Host header
	// (port stripped) must byte-equal it.
	host string

	// headerPrefix names the signed headers, e.g. "IAM" -> X-IAM-User-Id.
	headerPrefix string

	replay ReplayCache
}

// NewAuthenticator constructs an [Authenticator]. A nil replay cache
// disables replay tracking.
func NewAuthenticator(store iam.Store, host, headerPrefix string, replay ReplayCache) *Authenticator {
	return &Authenticator{
		store:        store,
		host:         host,
		headerPrefix: headerPrefix,
		replay:       replay,
	}
}

// credentials is the parsed, decoded header material of one request.
type credentials struct {
	userIdentifier iam.UserIdentifier
	publicKey      []byte
	signature      []byte
	requestID      string
	sessionToken   string
	host           string
}

/*
Authenticate verifies the request and resolves the signing principal.

Description: Extracts and decodes the signed headers, resolves the claimed
user, checks the presented key is registered, rebuilds the canonical string
from the raw request bytes, and verifies the Ed25519 signature. The Host
header, port-stripped, must byte-equal the configured server host.

Parameters:
  - request: *http.Request

Returns:
  - Authentication: Verified identity plus request id
  - string: The session token presented (empty if none)
  - error: AUTHENTICATION_FAILED with a server-side reason
*/
func (authenticator *Authenticator) Authenticate(request *http.Request) (Authentication, string, error) {
	// 1. Parse and decode the header material.
	creds, err := authenticator.extractCredentials(request)
	if err != nil {
		return Authentication{}, "", err
	}

	// 2. The request must be addressed to this server, byte-for-byte.
	if creds.host != authenticator.host {
		return Authentication{}, "", apperr.AuthenticationFailed(apperr.ReasonInvalidHost)
	}

	// 3. Resolve the claimed principal. An unknown user is reported with
	// the same client-visible message as any other failure.
	user, err := authenticator.store.GetUser(request.Context(), creds.userIdentifier)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Authentication{}, "", apperr.AuthenticationFailed(apperr.ReasonUserNotFound)
		}
		return Authentication{}, "", err
	}

	// 4. The presented key must be one of the user's registered keys.
	if !keyRegistered(user, creds.publicKey) {
		return Authentication{}, "", apperr.AuthenticationFailed(apperr.ReasonInvalidSignature)
	}

	// 5. Rebuild the canonical string from the raw request-line bytes and
	// verify the signature under the presented key.
	rawPath, rawQuery := requestutil.RawPathAndQuery(request)
	canonical := CanonicalString(
		request.Method, creds.host, rawPath, rawQuery, creds.requestID, creds.sessionToken)

	if !ed25519.Verify(ed25519.PublicKey(creds.publicKey), canonical, creds.signature) {
		return Authentication{}, "", apperr.AuthenticationFailed(apperr.ReasonInvalidSignature)
	}

	// 6. A request id may only be accepted once per window.
	if authenticator.replay != nil {
		fresh, err := authenticator.replay.Remember(request.Context(), user.ID, creds.requestID)
		if err != nil {
			return Authentication{}, "", apperr.Internal(err)
		}
		if !fresh {
			return Authentication{}, "", apperr.AuthenticationFailed(apperr.ReasonInvalidHeaders)
		}
	}

	authentication := Authentication{
		User:      user,
		PublicKey: creds.publicKey,
		RequestID: creds.requestID,
	}
	return authentication, creds.sessionToken, nil
}

// extractCredentials parses the mandatory signed headers. Any missing or
// malformed header fails with the InvalidHeaders reason.
func (authenticator *Authenticator) extractCredentials(request *http.Request) (*credentials, error) {
	invalid := func() (*credentials, error) {
		return nil, apperr.AuthenticationFailed(apperr.ReasonInvalidHeaders)
	}

	// Authorization: Signature <base64>
	scheme, encodedSignature, found := strings.Cut(request.Header.Get("Authorization"), " ")
	if !found || scheme != constants.AuthorizationScheme || encodedSignature == "" {
		return invalid()
	}
	signature, err := base64.StdEncoding.DecodeString(encodedSignature)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return invalid()
	}

	userID := request.Header.Get(authenticator.prefixedHeader(constants.HeaderSuffixUserID))
	if userID == "" {
		return invalid()
	}

	encodedKey := request.Header.Get(authenticator.prefixedHeader(constants.HeaderSuffixPublicKey))
	publicKey, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return invalid()
	}

	requestID := request.Header.Get(authenticator.prefixedHeader(constants.HeaderSuffixRequestID))
	if !uuid.IsValid(requestID) {
		return invalid()
	}

	host := request.Host
	if host == "" {
		return invalid()
	}

	return &credentials{
		userIdentifier: iam.ParseUserIdentifier(userID),
		publicKey:      publicKey,
		signature:      signature,
		requestID:      requestID,
		sessionToken:   request.Header.Get(constants.HeaderSessionToken),
		host:           StripPort(host),
	}, nil
}

// prefixedHeader assembles "X-" + prefix + suffix, e.g. X-IAM-User-Id.
func (authenticator *Authenticator) prefixedHeader(suffix string) string {
	return "X-" + authenticator.headerPrefix + suffix
}

// keyRegistered reports whether key byte-equals one of the user's keys.
func keyRegistered(user *iam.User, key []byte) bool {
	for _, registered := range user.PublicKeys {
		if len(registered.Key) == len(key) && subtle.ConstantTimeCompare(registered.Key, key) == 1 {
			return true
		}
	}
	return false
}
