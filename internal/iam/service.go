// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/irongate/internal/platform/constants"
	"github.com/taibuivan/irongate/pkg/uuid"
)

// # Service

// Service implements the IAM lifecycle use cases on top of a [Store].
//
// It owns everything that must happen outside a storage commit: identifier
// generation, session token randomness, and expiry arithmetic. The store
// only ever installs fully assembled values.
type Service struct {
	store      Store
	sessionTTL time.Duration
	log        *slog.Logger
}

// NewService constructs a [Service].
//
// sessionTTL is the idle lifetime applied to new and refreshed sessions;
// zero selects the 1 hour default.
func NewService(store Store, sessionTTL time.Duration, log *slog.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:      store,
		sessionTTL: sessionTTL,
		log:        log,
	}
}

// Store exposes the underlying storage contract for plain CRUD reads.
func (service *Service) Store() Store { return service.store }

// SessionTTL returns the configured idle session lifetime.
func (service *Service) SessionTTL() time.Duration { return service.sessionTTL }

// # User Lifecycle

// CreateUserInput holds the data required to register a new user.
type CreateUserInput struct {
	Email      string          `json:"email"`
	PublicKeys []UserPublicKey `json:"public_keys"`
}

/*
CreateUser registers a new principal.

Description: Assigns a fresh UUID, stamps the creation time, and persists the
user. Email uniqueness is enforced atomically by the store's alias index.

Parameters:
  - ctx: context.Context
  - input: CreateUserInput

Returns:
  - *User: Created entity
  - error: ALREADY_EXISTS (duplicate email) or storage errors
*/
func (service *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	user := &User{
		ID:         uuid.New(),
		Email:      input.Email,
		PublicKeys: input.PublicKeys,
		CreatedAt:  time.Now().UTC(),
	}

	if err := service.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// # Group Lifecycle

/*
CreateGroup registers a new group.

Parameters:
  - ctx: context.Context
  - name: string (optional alias; uniqueness enforced by the store)

Returns:
  - *Group: Created entity
  - error: ALREADY_EXISTS or storage errors
*/
func (service *Service) CreateGroup(ctx context.Context, name string) (*Group, error) {
	group := &Group{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := service.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// # Policy Lifecycle

// PolicyInput holds the data to create or replace a policy.
type PolicyInput struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	Rules    []Rule `json:"rules"`
}

/*
CreatePolicy registers a new policy scoped to one hostname.

Parameters:
  - ctx: context.Context
  - input: PolicyInput

Returns:
  - *Policy: Created entity
  - error: ALREADY_EXISTS or storage errors
*/
func (service *Service) CreatePolicy(ctx context.Context, input PolicyInput) (*Policy, error) {
	policy := &Policy{
		ID:        uuid.New(),
		Name:      input.Name,
		Hostname:  input.Hostname,
		Rules:     input.Rules,
		CreatedAt: time.Now().UTC(),
	}

	if err := service.store.CreatePolicy(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

/*
UpdatePolicy replaces the name, hostname, and rules of an existing policy
addressed by any identifier variant.

Parameters:
  - ctx: context.Context
  - id: PolicyIdentifier
  - input: PolicyInput

Returns:
  - *Policy: Updated entity
  - error: NOT_FOUND, ALREADY_EXISTS (name collision), or storage errors
*/
func (service *Service) UpdatePolicy(ctx context.Context, id PolicyIdentifier, input PolicyInput) (*Policy, error) {
	existing, err := service.store.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}

	policy := &Policy{
		ID:       existing.ID,
		Name:     input.Name,
		Hostname: input.Hostname,
		Rules:    input.Rules,
	}

	if err := service.store.UpdatePolicy(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// # Session Lifecycle

/*
CreateSession establishes a new session for a user.

Description: Generates the session id (UUIDv7) and an opaque bearer token
with 256 bits of cryptographic randomness, computes the expiry, and installs
the assembled session in one atomic store write. Randomness is drawn here,
never inside the storage commit.

Parameters:
  - ctx: context.Context
  - user: UserIdentifier (any variant)

Returns:
  - *Session: Created session including the token (the only time it is returned)
  - error: NOT_FOUND "user" or storage errors
*/
func (service *Service) CreateSession(ctx context.Context, user UserIdentifier) (*Session, error) {
	uid, err := service.store.GetUserID(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("iam_session_token_generation_failed: %w", err)
	}

	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New(),
		UserID:    uid,
		Token:     token,
		ExpiresAt: now.Add(service.sessionTTL),
		CreatedAt: now,
	}

	if err := service.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

/*
RefreshSession extends a session's lifetime to now + TTL.

Description: The store verifies atomically that the session exists, is not
expired, and belongs to the caller-provided user before installing the new
expiry.

Parameters:
  - ctx: context.Context
  - user: UserIdentifier
  - sid: string

Returns:
  - *Session: Session with the new expiry (token omitted)
  - error: NOT_FOUND "session" on absence, expiry, or owner mismatch
*/
func (service *Service) RefreshSession(ctx context.Context, user UserIdentifier, sid string) (*Session, error) {
	uid, err := service.store.GetUserID(ctx, user)
	if err != nil {
		return nil, err
	}

	session, err := service.store.RefreshSession(ctx, uid, sid, time.Now().UTC().Add(service.sessionTTL))
	if err != nil {
		return nil, err
	}
	return session.WithoutToken(), nil
}

// SweepExpiredSessions deletes every expired session. It is invoked
// periodically by the scheduler; lookups already treat expired sessions as
// not-found, so this is pure cleanup.
func (service *Service) SweepExpiredSessions(ctx context.Context) error {
	swept, err := service.store.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("iam_session_sweep_failed: %w", err)
	}
	if swept > 0 {
		service.log.InfoContext(ctx, "expired_sessions_swept", slog.Int("count", swept))
	}
	return nil
}

// newSessionToken draws [constants.SessionTokenLength] bytes from the
// cryptographic random source and encodes them URL-safe.
func newSessionToken() (string, error) {
	raw := make([]byte, constants.SessionTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
