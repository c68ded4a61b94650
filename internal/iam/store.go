// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"time"
)

// # Storage Contract

// Store is the capability set the rest of the server depends on.
//
// Every operation either returns a value or fails with a typed
// [apperr.AppError]. Operations that accept an identifier resolve it through
// the variant logic first (UUID authoritative, alias looked up in the
// alias index) and fail NOT_FOUND when unresolved.
//
// # Atomicity
//
// Each operation is one atomic unit: it either fully commits or leaves the
// store unchanged. No multi-operation transactions are offered; callers that
// need compensation must sequence their own operations.
//
// # Concurrency
//
// Implementations must be safe for concurrent use by any number of
// goroutines and must be linearizable: readers never observe a partially
// applied write.
type Store interface {

	// # Users

	// GetUser returns the user addressed by any identifier variant.
	GetUser(ctx context.Context, id UserIdentifier) (*User, error)

	// GetUserID resolves any identifier variant to the user's UUID.
	GetUserID(ctx context.Context, id UserIdentifier) (string, error)

	// ListUsers returns users ordered by id, windowed by offset/limit.
	ListUsers(ctx context.Context, offset, limit int) ([]*User, error)

	// CreateUser persists a new user. The email alias, when present, must
	// be unique across all users; violations fail ALREADY_EXISTS.
	CreateUser(ctx context.Context, user *User) error

	// DeleteUser removes the user and cascades its memberships, policy
	// attachments, and sessions.
	DeleteUser(ctx context.Context, id UserIdentifier) error

	// # Groups

	GetGroup(ctx context.Context, id GroupIdentifier) (*Group, error)
	ListGroups(ctx context.Context, offset, limit int) ([]*Group, error)
	CreateGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, id GroupIdentifier) error

	// # Policies

	GetPolicy(ctx context.Context, id PolicyIdentifier) (*Policy, error)
	ListPolicyIDs(ctx context.Context, offset, limit int) ([]string, error)
	CreatePolicy(ctx context.Context, policy *Policy) error

	// UpdatePolicy replaces the hostname, name, and rules of an existing
	// policy addressed by its UUID.
	UpdatePolicy(ctx context.Context, policy *Policy) error

	DeletePolicy(ctx context.Context, id PolicyIdentifier) error

	// ListPoliciesForUser aggregates every policy attached to the user
	// directly or through any group the user belongs to, filtered to
	// policies whose hostname equals host. The result is deduplicated.
	ListPoliciesForUser(ctx context.Context, uid string, host string) ([]*Policy, error)

	// # Memberships
	//
	// Both endpoints are resolved through the identifier-variant logic
	// before the pair check; a duplicate pair fails ALREADY_EXISTS.

	CreateMembership(ctx context.Context, user UserIdentifier, group GroupIdentifier) error
	DeleteMembership(ctx context.Context, user UserIdentifier, group GroupIdentifier) error

	// # Policy Attachments

	CreateUserPolicyAttachment(ctx context.Context, user UserIdentifier, policy PolicyIdentifier) error
	DeleteUserPolicyAttachment(ctx context.Context, user UserIdentifier, policy PolicyIdentifier) error
	CreateGroupPolicyAttachment(ctx context.Context, group GroupIdentifier, policy PolicyIdentifier) error
	DeleteGroupPolicyAttachment(ctx context.Context, group GroupIdentifier, policy PolicyIdentifier) error

	// # Sessions
	//
	// All session lookups cross-check that the session's owner matches the
	// provided uid and report NOT_FOUND "session" on mismatch, never
	// revealing that a session exists under another owner. Expired
	// sessions are equivalent to absent ones.

	// CreateSession persists a session assembled by the service layer.
	// The session id and token are generated outside the store so that no
	// randomness is drawn inside the commit path.
	CreateSession(ctx context.Context, session *Session) error

	GetSessionByID(ctx context.Context, uid, sid string) (*Session, error)
	GetSessionByToken(ctx context.Context, uid, token string) (*Session, error)

	// RefreshSession atomically replaces the session's expiry.
	RefreshSession(ctx context.Context, uid, sid string, expiresAt time.Time) (*Session, error)

	DeleteSession(ctx context.Context, uid, sid string) error
	ListUserSessions(ctx context.Context, uid string, offset, limit int) ([]*Session, error)

	// DeleteExpiredSessions removes every session expired at the given
	// instant and returns how many were swept.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}
