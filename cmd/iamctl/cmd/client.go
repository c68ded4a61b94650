// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/taibuivan/irongate/internal/auth"
	"github.com/taibuivan/irongate/internal/platform/constants"
	"github.com/taibuivan/irongate/pkg/uuid"
)

// # Signing Client

// Client signs and sends requests the way the server verifies them: the
// same canonical rendering, the same headers, the same key material.
type Client struct {
	baseURL      *url.URL
	userID       string
	privateKey   ed25519.PrivateKey
	publicKeyB64 string
	headerPrefix string
	sessionToken string
	httpClient   *http.Client
}

// NewClient loads the signing key and prepares a client for the server.
func NewClient(serverURL, userID, keyPath, headerPrefix, sessionToken string) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", serverURL)
	}

	privateKey, err := loadPrivateKey(keyPath)
	if err != nil {
		return nil, err
	}

	publicKey := privateKey.Public().(ed25519.PublicKey)

	return &Client{
		baseURL:      base,
		userID:       userID,
		privateKey:   privateKey,
		publicKeyB64: base64.StdEncoding.EncodeToString(publicKey),
		headerPrefix: headerPrefix,
		sessionToken: sessionToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

/*
Do sends one signed request and decodes the JSON response.

Description: Builds the canonical string from the method, the server host
(port stripped), the raw path and query, a fresh request UUID, and the
session token; signs it; attaches the signed headers; and performs the
request. Non-2xx responses are surfaced as errors carrying the server's
error envelope.

Parameters:
  - method: string (HTTP method)
  - pathAndQuery: string (e.g. "/users/alice@example.com?limit=5")
  - body: interface{} (JSON-encoded when non-nil)
  - out: interface{} (decoded from the response body when non-nil)

Returns:
  - error: Transport failures or the server's error envelope
*/
func (client *Client) Do(method, pathAndQuery string, body, out interface{}) error {
	rawPath, rawQuery, _ := strings.Cut(pathAndQuery, "?")

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("iamctl_encode_body_failed: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, client.baseURL.String()+pathAndQuery, payload)
	if err != nil {
		return fmt.Errorf("iamctl_build_request_failed: %w", err)
	}

	requestID := uuid.New()
	host := auth.StripPort(client.baseURL.Host)

	canonical := auth.CanonicalString(method, host, rawPath, rawQuery, requestID, client.sessionToken)
	signature := ed25519.Sign(client.privateKey, canonical)

	request.Header.Set("Authorization",
		constants.AuthorizationScheme+" "+base64.StdEncoding.EncodeToString(signature))
	request.Header.Set(client.prefixedHeader(constants.HeaderSuffixUserID), client.userID)
	request.Header.Set(client.prefixedHeader(constants.HeaderSuffixPublicKey), client.publicKeyB64)
	request.Header.Set(client.prefixedHeader(constants.HeaderSuffixRequestID), requestID)
	if client.sessionToken != "" {
		request.Header.Set(constants.HeaderSessionToken, client.sessionToken)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("iamctl_request_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeServerError(response)
	}

	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("iamctl_decode_response_failed: %w", err)
	}
	return nil
}

func (client *Client) prefixedHeader(suffix string) string {
	return "X-" + client.headerPrefix + suffix
}

// decodeServerError turns the server's error envelope into a CLI error.
func decodeServerError(response *http.Response) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil || envelope.Error == "" {
		return fmt.Errorf("server returned %s", response.Status)
	}
	return fmt.Errorf("%s: %s", envelope.Error, envelope.Message)
}

// # Key Loading

// loadPrivateKey reads an Ed25519 private key from disk. Accepted formats:
// OpenSSH private key (unencrypted), base64 of the 64-byte private key, or
// base64 of the 32-byte seed.
func loadPrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("iamctl_read_key_failed: %w", err)
	}

	if bytes.Contains(raw, []byte("OPENSSH PRIVATE KEY")) {
		parsed, err := ssh.ParseRawPrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("iamctl_parse_openssh_key_failed: %w", err)
		}
		switch key := parsed.(type) {
		case *ed25519.PrivateKey:
			return *key, nil
		case ed25519.PrivateKey:
			return key, nil
		default:
			return nil, fmt.Errorf("key in %s is not Ed25519", path)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("iamctl_decode_key_failed: %w", err)
	}

	switch len(decoded) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	default:
		return nil, fmt.Errorf("key in %s has unexpected length %d", path, len(decoded))
	}
}
