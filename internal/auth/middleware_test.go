// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/irongate/internal/auth"
	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/pkg/uuid"
)

const (
	serverHost = "iam.example.com"
	aliceUID   = "11111111-1111-1111-1111-111111111111"
	requestUID = "22222222-2222-2222-2222-222222222222"
)

// securityHarness is one server instance: store, gates, and a router with
// the middleware wrapped around the IAM handler set.
type securityHarness struct {
	store   iam.Store
	service *iam.Service
	router  chi.Router
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

func newSecurityHarness(t *testing.T, replay auth.ReplayCache) *securityHarness {
	t.Helper()

	// Deterministic key material: the keypair derived from the zero seed.
	private := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	public := private.Public().(ed25519.PublicKey)

	store := iam.NewMemoryStore()
	service := iam.NewService(store, time.Hour, nil)

	require.NoError(t, store.CreateUser(context.Background(), &iam.User{
		ID:         aliceUID,
		Email:      "alice@example.com",
		PublicKeys: []iam.UserPublicKey{{Key: public, Description: "test key"}},
		CreatedAt:  time.Now().UTC(),
	}))

	authenticator := auth.NewAuthenticator(store, serverHost, "IAM", replay)
	authorizer := auth.NewAuthorizer(store, serverHost)

	router := chi.NewRouter()
	router.Group(func(protected chi.Router) {
		protected.Use(auth.Middleware(authenticator, authorizer, nil))
		protected.Mount("/", iam.NewHandler(service).Routes())
	})

	return &securityHarness{
		store:   store,
		service: service,
		router:  router,
		private: private,
		public:  public,
	}
}

// attachPolicy creates a policy and attaches it directly to alice.
func (h *securityHarness) attachPolicy(t *testing.T, name string, rules ...iam.Rule) {
	t.Helper()
	policy := &iam.Policy{
		ID:        uuid.New(),
		Name:      name,
		Hostname:  serverHost,
		Rules:     rules,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, h.store.CreatePolicy(context.Background(), policy))
	require.NoError(t, h.store.CreateUserPolicyAttachment(context.Background(),
		iam.UserID(aliceUID), iam.PolicyID(policy.ID)))
}

// signedRequest builds a request signed exactly the way the CLI signs.
func (h *securityHarness) signedRequest(method, pathAndQuery, host, sessionToken string) *http.Request {
	request := httptest.NewRequest(method, pathAndQuery, nil)
	request.Host = host

	rawPath, rawQuery, _ := strings.Cut(pathAndQuery, "?")

	canonical := auth.CanonicalString(method, auth.StripPort(host), rawPath, rawQuery, requestUID, sessionToken)
	signature := ed25519.Sign(h.private, canonical)

	request.Header.Set("Authorization", "Signature "+base64.StdEncoding.EncodeToString(signature))
	request.Header.Set("X-IAM-User-Id", aliceUID)
	request.Header.Set("X-IAM-Public-Key", base64.StdEncoding.EncodeToString(h.public))
	request.Header.Set("X-IAM-Request-Id", requestUID)
	if sessionToken != "" {
		request.Header.Set("Session-Token", sessionToken)
	}
	return request
}

func (h *securityHarness) do(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestSecurity_SignedRoundTrip verifies the full path: a correctly signed
read, permitted by an attached policy, returns the user JSON.
*/
func TestSecurity_SignedRoundTrip(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	response := harness.do(harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, ""))

	require.Equal(t, http.StatusOK, response.Code)

	var user iam.User
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &user))
	assert.Equal(t, aliceUID, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
}

/*
TestSecurity_HostMismatch verifies that a request addressed to the wrong
host is rejected 401 with the uniform message.
*/
func TestSecurity_HostMismatch(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	response := harness.do(harness.signedRequest(http.MethodGet, "/users/"+aliceUID, "evil.example.com", ""))

	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "AUTHENTICATION_FAILED")
	// The reason must not leak to the client
	assert.NotContains(t, response.Body.String(), "host")
}

/*
TestSecurity_SignatureMismatch verifies that a single flipped signature
byte fails authentication.
*/
func TestSecurity_SignatureMismatch(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	request := harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, "")

	// Flip one byte in the decoded signature and re-encode
	encoded := request.Header.Get("Authorization")[len("Signature "):]
	signature, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	signature[0] ^= 0x01
	request.Header.Set("Authorization", "Signature "+base64.StdEncoding.EncodeToString(signature))

	response := harness.do(request)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

/*
TestSecurity_UnknownUser verifies that an unresolvable user id yields the
same uniform 401 rather than a 404 side-channel.
*/
func TestSecurity_UnknownUser(t *testing.T) {
	harness := newSecurityHarness(t, nil)

	request := harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, "")
	request.Header.Set("X-IAM-User-Id", "ghost@example.com")

	response := harness.do(request)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "AUTHENTICATION_FAILED")
	assert.NotContains(t, response.Body.String(), "not found")
}

/*
TestSecurity_MissingHeaders verifies that each mandatory header's absence
fails authentication before any storage access.
*/
func TestSecurity_MissingHeaders(t *testing.T) {
	harness := newSecurityHarness(t, nil)

	strip := []string{"Authorization", "X-IAM-User-Id", "X-IAM-Public-Key", "X-IAM-Request-Id"}
	for _, header := range strip {
		request := harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, "")
		request.Header.Del(header)

		response := harness.do(request)
		assert.Equal(t, http.StatusUnauthorized, response.Code, "missing %s", header)
	}
}

/*
TestSecurity_DefaultDeny verifies that an authenticated user with no
applicable policy is refused 403.
*/
func TestSecurity_DefaultDeny(t *testing.T) {
	harness := newSecurityHarness(t, nil)

	response := harness.do(harness.signedRequest(http.MethodGet, "/users", serverHost, ""))

	assert.Equal(t, http.StatusForbidden, response.Code)
	assert.Contains(t, response.Body.String(), "NOT_AUTHORIZED")
}

/*
TestSecurity_DenyOverAllow verifies that a matching Deny beats a broad
Allow for the same action.
*/
func TestSecurity_DenyOverAllow(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "allow-all",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/*"})
	harness.attachPolicy(t, "deny-secret",
		iam.Rule{Effect: iam.Deny, Action: iam.Read, Resource: "/users/secret"})

	denied := harness.do(harness.signedRequest(http.MethodGet, "/users/secret", serverHost, ""))
	assert.Equal(t, http.StatusForbidden, denied.Code)

	// A sibling path under the Allow still resolves; the handler's 404 for
	// the unknown user proves authorization passed.
	allowed := harness.do(harness.signedRequest(http.MethodGet, "/users/other@example.com", serverHost, ""))
	assert.Equal(t, http.StatusNotFound, allowed.Code)
}

/*
TestSecurity_WriteRequiresWriteRule verifies the method-to-action mapping
at the HTTP boundary: a Read-only policy cannot POST.
*/
func TestSecurity_WriteRequiresWriteRule(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/*"})

	response := harness.do(harness.signedRequest(http.MethodPost, "/groups", serverHost, ""))
	assert.Equal(t, http.StatusForbidden, response.Code)
}

/*
TestSecurity_SessionToken verifies the bearer-token flow: the token is
covered by the signature, resolved to a session, and rejected when bogus.
*/
func TestSecurity_SessionToken(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	session, err := harness.service.CreateSession(context.Background(), iam.UserID(aliceUID))
	require.NoError(t, err)

	// 1. A valid token authorizes normally
	response := harness.do(harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, session.Token))
	assert.Equal(t, http.StatusOK, response.Code)

	// 2. A bogus token is an error, not a silent downgrade
	response = harness.do(harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, "bogus-token"))
	assert.Equal(t, http.StatusNotFound, response.Code)
}

/*
TestSecurity_ReplayRejected verifies that the same (uid, request-id) pair
is accepted once and refused on the second presentation.
*/
func TestSecurity_ReplayRejected(t *testing.T) {
	harness := newSecurityHarness(t, auth.NewMemoryReplayCache())
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	first := harness.do(harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, ""))
	require.Equal(t, http.StatusOK, first.Code)

	replayed := harness.do(harness.signedRequest(http.MethodGet, "/users/"+aliceUID, serverHost, ""))
	assert.Equal(t, http.StatusUnauthorized, replayed.Code)
}

/*
TestSecurity_QueryStringCovered verifies that the raw query participates in
the canonical string: re-targeting a signed request's query breaks it.
*/
func TestSecurity_QueryStringCovered(t *testing.T) {
	harness := newSecurityHarness(t, nil)
	harness.attachPolicy(t, "readers",
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users*"})

	// Signed with ?limit=1, then the query is altered in flight
	request := harness.signedRequest(http.MethodGet, "/users?limit=1", serverHost, "")
	tampered := httptest.NewRequest(http.MethodGet, "/users?limit=100", nil)
	tampered.Host = request.Host
	tampered.Header = request.Header

	response := harness.do(tampered)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}
