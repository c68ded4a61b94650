// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package iam defines the identity and access management core: the data model,
the policy evaluator, the storage contract, and its reference implementations.

Architecture:

  - Model: Users, Groups, Policies, Sessions, plus the pair tables
    (memberships, policy attachments) that relate them.
  - Identifiers: every aliased entity can be addressed by UUID, by its
    human alias, or both; the UUID is authoritative when present.
  - Store: a single capability interface over all entities; an in-memory
    reference store and a PostgreSQL store implement it.
  - Service: session lifecycle and creation-time invariants on top of
    the store.

Handlers depend on [Store] and [Service] only; concrete stores are injected
at startup.
*/
package iam

import "time"

// # Entities

// UserPublicKey is one Ed25519 public key registered for a user.
//
// Key is the raw 32-byte public key; JSON encoding renders it as base64.
type UserPublicKey struct {
	Key         []byte `json:"key"`
	Description string `json:"description"`
}

// User is a principal that can sign requests.
//
// Group memberships and policy attachments are relations held in their own
// pair tables, not embedded here; they are queried through the [Store].
type User struct {
	ID         string          `json:"uid"`
	Email      string          `json:"email,omitempty"`
	PublicKeys []UserPublicKey `json:"public_keys"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Group is a named set of users that policies can be attached to.
type Group struct {
	ID        string    `json:"gid"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Policy is a named collection of rules scoped to exactly one hostname.
//
// Authorization only considers policies whose Hostname byte-equals the
// request host (port stripped). No hostname wildcards.
type Policy struct {
	ID        string    `json:"pid"`
	Name      string    `json:"name,omitempty"`
	Hostname  string    `json:"hostname"`
	Rules     []Rule    `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a bearer-token handle bound to one user with a finite TTL.
//
// # Security
//
// Token is the opaque secret presented in the Session-Token header. It is
// returned to the caller exactly once, on creation, and is never logged.
type Session struct {
	ID        string    `json:"sid"`
	UserID    string    `json:"user"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
//
// An expired session is observationally equivalent to a deleted one: every
// lookup treats it as not-found.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// WithoutToken returns a copy of the session with the secret cleared,
// safe for list/read responses.
func (s *Session) WithoutToken() *Session {
	clone := *s
	clone.Token = ""
	return &clone
}

// # Relations

// Membership is a (user, group) pair.
type Membership struct {
	UserID  string `json:"uid"`
	GroupID string `json:"gid"`
}

// UserPolicyAttachment is a (user, policy) pair.
type UserPolicyAttachment struct {
	UserID   string `json:"uid"`
	PolicyID string `json:"pid"`
}

// GroupPolicyAttachment is a (group, policy) pair.
type GroupPolicyAttachment struct {
	GroupID  string `json:"gid"`
	PolicyID string `json:"pid"`
}

// # Entity Kinds
//
// Kind names appear in NOT_FOUND error messages and must stay stable:
// clients and tests match on them.

const (
	KindUser       = "user"
	KindGroup      = "group"
	KindPolicy     = "policy"
	KindSession    = "session"
	KindMembership = "membership"
	KindAttachment = "attachment"
)
