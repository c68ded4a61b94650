// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/irongate/internal/platform/apperr"
)

// # In-Memory Reference Store

// MemoryStore is the reference [Store] implementation.
//
// # Concurrency Discipline
//
// All state lives in one immutable value behind an atomic pointer. Read-only
// operations load the pointer once and work on that consistent snapshot
// without taking any lock, so concurrent readers never block each other.
// Write operations serialize on a single mutex: each one clones the current
// state, applies its mutation to the clone, and publishes the clone with one
// atomic store. A reader therefore sees either all of a write or none of it.
//
// Entities stored in the state are treated as immutable; updates replace the
// pointer rather than mutating in place. Nothing inside the clone-and-commit
// section performs I/O or draws randomness — session ids and tokens are
// generated by the service layer before the write begins.
type MemoryStore struct {
	writeMu sync.Mutex
	state   atomic.Pointer[storeState]
}

// pairKey identifies a membership or attachment row.
type pairKey struct {
	left  string
	right string
}

// storeState is one immutable version of the whole store.
type storeState struct {
	users    map[string]*User
	groups   map[string]*Group
	policies map[string]*Policy
	sessions map[string]*Session

	// sessionsByToken maps opaque token -> session id.
	sessionsByToken map[string]string

	// Pair tables: memberships (uid, gid), user attachments (uid, pid),
	// group attachments (gid, pid).
	memberships      map[pairKey]struct{}
	userAttachments  map[pairKey]struct{}
	groupAttachments map[pairKey]struct{}

	// Alias indexes, kept consistent with the primary maps inside the
	// same commit. They make alias resolution O(1) and enforce alias
	// uniqueness atomically.
	emailIndex      map[string]string
	groupNameIndex  map[string]string
	policyNameIndex map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{}
	store.state.Store(&storeState{
		users:            map[string]*User{},
		groups:           map[string]*Group{},
		policies:         map[string]*Policy{},
		sessions:         map[string]*Session{},
		sessionsByToken:  map[string]string{},
		memberships:      map[pairKey]struct{}{},
		userAttachments:  map[pairKey]struct{}{},
		groupAttachments: map[pairKey]struct{}{},
		emailIndex:       map[string]string{},
		groupNameIndex:   map[string]string{},
		policyNameIndex:  map[string]string{},
	})
	return store
}

// snapshot returns the current consistent state for read-only use.
func (store *MemoryStore) snapshot() *storeState {
	return store.state.Load()
}

// update runs fn against a private clone of the current state under the
// writer lock and publishes the clone iff fn succeeds.
func (store *MemoryStore) update(fn func(s *storeState) error) error {
	store.writeMu.Lock()
	defer store.writeMu.Unlock()

	next := store.state.Load().clone()
	if err := fn(next); err != nil {
		return err
	}

	store.state.Store(next)
	return nil
}

// clone produces a deep copy of all maps (entity values are shared; they are
// immutable by convention).
func (s *storeState) clone() *storeState {
	next := &storeState{
		users:            make(map[string]*User, len(s.users)),
		groups:           make(map[string]*Group, len(s.groups)),
		policies:         make(map[string]*Policy, len(s.policies)),
		sessions:         make(map[string]*Session, len(s.sessions)),
		sessionsByToken:  make(map[string]string, len(s.sessionsByToken)),
		memberships:      make(map[pairKey]struct{}, len(s.memberships)),
		userAttachments:  make(map[pairKey]struct{}, len(s.userAttachments)),
		groupAttachments: make(map[pairKey]struct{}, len(s.groupAttachments)),
		emailIndex:       make(map[string]string, len(s.emailIndex)),
		groupNameIndex:   make(map[string]string, len(s.groupNameIndex)),
		policyNameIndex:  make(map[string]string, len(s.policyNameIndex)),
	}
	for k, v := range s.users {
		next.users[k] = v
	}
	for k, v := range s.groups {
		next.groups[k] = v
	}
	for k, v := range s.policies {
		next.policies[k] = v
	}
	for k, v := range s.sessions {
		next.sessions[k] = v
	}
	for k, v := range s.sessionsByToken {
		next.sessionsByToken[k] = v
	}
	for k := range s.memberships {
		next.memberships[k] = struct{}{}
	}
	for k := range s.userAttachments {
		next.userAttachments[k] = struct{}{}
	}
	for k := range s.groupAttachments {
		next.groupAttachments[k] = struct{}{}
	}
	for k, v := range s.emailIndex {
		next.emailIndex[k] = v
	}
	for k, v := range s.groupNameIndex {
		next.groupNameIndex[k] = v
	}
	for k, v := range s.policyNameIndex {
		next.policyNameIndex[k] = v
	}
	return next
}

// # Alias Resolution
//
// The UUID form is authoritative when present; otherwise the alias is
// looked up in the alias-to-uuid index.

func (s *storeState) resolveUser(id UserIdentifier) (string, bool) {
	if id.ID != "" {
		_, ok := s.users[id.ID]
		return id.ID, ok
	}
	if id.Email != "" {
		uid, ok := s.emailIndex[id.Email]
		return uid, ok
	}
	return "", false
}

func (s *storeState) resolveGroup(id GroupIdentifier) (string, bool) {
	if id.ID != "" {
		_, ok := s.groups[id.ID]
		return id.ID, ok
	}
	if id.Name != "" {
		gid, ok := s.groupNameIndex[id.Name]
		return gid, ok
	}
	return "", false
}

func (s *storeState) resolvePolicy(id PolicyIdentifier) (string, bool) {
	if id.ID != "" {
		_, ok := s.policies[id.ID]
		return id.ID, ok
	}
	if id.Name != "" {
		pid, ok := s.policyNameIndex[id.Name]
		return pid, ok
	}
	return "", false
}

// # Users

// GetUser returns the user addressed by any identifier variant.
func (store *MemoryStore) GetUser(ctx context.Context, id UserIdentifier) (*User, error) {
	s := store.snapshot()
	uid, ok := s.resolveUser(id)
	if !ok {
		return nil, apperr.NotFound(KindUser, id.String())
	}
	return s.users[uid], nil
}

// GetUserID resolves any identifier variant to the user's UUID.
func (store *MemoryStore) GetUserID(ctx context.Context, id UserIdentifier) (string, error) {
	s := store.snapshot()
	uid, ok := s.resolveUser(id)
	if !ok {
		return "", apperr.NotFound(KindUser, id.String())
	}
	return uid, nil
}

// ListUsers returns users ordered by id, windowed by offset/limit.
func (store *MemoryStore) ListUsers(ctx context.Context, offset, limit int) ([]*User, error) {
	s := store.snapshot()
	ids := sortedKeys(s.users)
	users := make([]*User, 0, limit)
	for _, uid := range window(ids, offset, limit) {
		users = append(users, s.users[uid])
	}
	return users, nil
}

// CreateUser persists a new user, enforcing email uniqueness.
func (store *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	return store.update(func(s *storeState) error {
		if _, exists := s.users[user.ID]; exists {
			return apperr.AlreadyExists("user already exists")
		}
		if user.Email != "" {
			if _, taken := s.emailIndex[user.Email]; taken {
				return apperr.AlreadyExists("email is already registered")
			}
			s.emailIndex[user.Email] = user.ID
		}
		s.users[user.ID] = user
		return nil
	})
}

// DeleteUser removes the user and cascades memberships, attachments, and
// sessions so that orphaned lookups report not-found.
func (store *MemoryStore) DeleteUser(ctx context.Context, id UserIdentifier) error {
	return store.update(func(s *storeState) error {
		uid, ok := s.resolveUser(id)
		if !ok {
			return apperr.NotFound(KindUser, id.String())
		}

		user := s.users[uid]
		delete(s.users, uid)
		if user.Email != "" {
			delete(s.emailIndex, user.Email)
		}

		for key := range s.memberships {
			if key.left == uid {
				delete(s.memberships, key)
			}
		}
		for key := range s.userAttachments {
			if key.left == uid {
				delete(s.userAttachments, key)
			}
		}
		for sid, session := range s.sessions {
			if session.UserID == uid {
				delete(s.sessions, sid)
				delete(s.sessionsByToken, session.Token)
			}
		}
		return nil
	})
}

// # Groups

// GetGroup returns the group addressed by any identifier variant.
func (store *MemoryStore) GetGroup(ctx context.Context, id GroupIdentifier) (*Group, error) {
	s := store.snapshot()
	gid, ok := s.resolveGroup(id)
	if !ok {
		return nil, apperr.NotFound(KindGroup, id.String())
	}
	return s.groups[gid], nil
}

// ListGroups returns groups ordered by id, windowed by offset/limit.
func (store *MemoryStore) ListGroups(ctx context.Context, offset, limit int) ([]*Group, error) {
	s := store.snapshot()
	ids := sortedKeys(s.groups)
	groups := make([]*Group, 0, limit)
	for _, gid := range window(ids, offset, limit) {
		groups = append(groups, s.groups[gid])
	}
	return groups, nil
}

// CreateGroup persists a new group, enforcing name uniqueness.
func (store *MemoryStore) CreateGroup(ctx context.Context, group *Group) error {
	return store.update(func(s *storeState) error {
		if _, exists := s.groups[group.ID]; exists {
			return apperr.AlreadyExists("group already exists")
		}
		if group.Name != "" {
			if _, taken := s.groupNameIndex[group.Name]; taken {
				return apperr.AlreadyExists("group name is already taken")
			}
			s.groupNameIndex[group.Name] = group.ID
		}
		s.groups[group.ID] = group
		return nil
	})
}

// DeleteGroup removes the group and cascades memberships and attachments.
func (store *MemoryStore) DeleteGroup(ctx context.Context, id GroupIdentifier) error {
	return store.update(func(s *storeState) error {
		gid, ok := s.resolveGroup(id)
		if !ok {
			return apperr.NotFound(KindGroup, id.String())
		}

		group := s.groups[gid]
		delete(s.groups, gid)
		if group.Name != "" {
			delete(s.groupNameIndex, group.Name)
		}

		for key := range s.memberships {
			if key.right == gid {
				delete(s.memberships, key)
			}
		}
		for key := range s.groupAttachments {
			if key.left == gid {
				delete(s.groupAttachments, key)
			}
		}
		return nil
	})
}

// # Policies

// GetPolicy returns the policy addressed by any identifier variant.
func (store *MemoryStore) GetPolicy(ctx context.Context, id PolicyIdentifier) (*Policy, error) {
	s := store.snapshot()
	pid, ok := s.resolvePolicy(id)
	if !ok {
		return nil, apperr.NotFound(KindPolicy, id.String())
	}
	return s.policies[pid], nil
}

// ListPolicyIDs returns policy ids ordered lexicographically, windowed by
// offset/limit.
func (store *MemoryStore) ListPolicyIDs(ctx context.Context, offset, limit int) ([]string, error) {
	s := store.snapshot()
	return window(sortedKeys(s.policies), offset, limit), nil
}

// CreatePolicy persists a new policy, enforcing name uniqueness.
func (store *MemoryStore) CreatePolicy(ctx context.Context, policy *Policy) error {
	return store.update(func(s *storeState) error {
		if _, exists := s.policies[policy.ID]; exists {
			return apperr.AlreadyExists("policy already exists")
		}
		if policy.Name != "" {
			if _, taken := s.policyNameIndex[policy.Name]; taken {
				return apperr.AlreadyExists("policy name is already taken")
			}
			s.policyNameIndex[policy.Name] = policy.ID
		}
		s.policies[policy.ID] = policy
		return nil
	})
}

// UpdatePolicy replaces an existing policy addressed by its UUID, keeping
// the name index consistent in the same commit.
func (store *MemoryStore) UpdatePolicy(ctx context.Context, policy *Policy) error {
	return store.update(func(s *storeState) error {
		previous, exists := s.policies[policy.ID]
		if !exists {
			return apperr.NotFound(KindPolicy, policy.ID)
		}

		if policy.Name != previous.Name {
			if policy.Name != "" {
				if owner, taken := s.policyNameIndex[policy.Name]; taken && owner != policy.ID {
					return apperr.AlreadyExists("policy name is already taken")
				}
			}
			if previous.Name != "" {
				delete(s.policyNameIndex, previous.Name)
			}
			if policy.Name != "" {
				s.policyNameIndex[policy.Name] = policy.ID
			}
		}

		policy.CreatedAt = previous.CreatedAt
		s.policies[policy.ID] = policy
		return nil
	})
}

// DeletePolicy removes the policy and cascades its attachments.
func (store *MemoryStore) DeletePolicy(ctx context.Context, id PolicyIdentifier) error {
	return store.update(func(s *storeState) error {
		pid, ok := s.resolvePolicy(id)
		if !ok {
			return apperr.NotFound(KindPolicy, id.String())
		}

		policy := s.policies[pid]
		delete(s.policies, pid)
		if policy.Name != "" {
			delete(s.policyNameIndex, policy.Name)
		}

		for key := range s.userAttachments {
			if key.right == pid {
				delete(s.userAttachments, key)
			}
		}
		for key := range s.groupAttachments {
			if key.right == pid {
				delete(s.groupAttachments, key)
			}
		}
		return nil
	})
}

// ListPoliciesForUser aggregates direct and group-transitive attachments,
// deduplicated, filtered to policies scoped to host.
func (store *MemoryStore) ListPoliciesForUser(ctx context.Context, uid string, host string) ([]*Policy, error) {
	s := store.snapshot()
	if _, ok := s.users[uid]; !ok {
		return nil, apperr.NotFound(KindUser, uid)
	}

	seen := map[string]struct{}{}

	// Direct attachments.
	for key := range s.userAttachments {
		if key.left == uid {
			seen[key.right] = struct{}{}
		}
	}

	// Attachments of every group the user belongs to.
	for membership := range s.memberships {
		if membership.left != uid {
			continue
		}
		for attachment := range s.groupAttachments {
			if attachment.left == membership.right {
				seen[attachment.right] = struct{}{}
			}
		}
	}

	pids := make([]string, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	policies := make([]*Policy, 0, len(pids))
	for _, pid := range pids {
		if policy, ok := s.policies[pid]; ok && policy.Hostname == host {
			policies = append(policies, policy)
		}
	}
	return policies, nil
}

// # Memberships

// CreateMembership links a user to a group, resolving both endpoints first.
func (store *MemoryStore) CreateMembership(ctx context.Context, user UserIdentifier, group GroupIdentifier) error {
	return store.update(func(s *storeState) error {
		uid, ok := s.resolveUser(user)
		if !ok {
			return apperr.NotFound(KindUser, user.String())
		}
		gid, ok := s.resolveGroup(group)
		if !ok {
			return apperr.NotFound(KindGroup, group.String())
		}

		key := pairKey{left: uid, right: gid}
		if _, exists := s.memberships[key]; exists {
			return apperr.AlreadyExists("membership already exists")
		}
		s.memberships[key] = struct{}{}
		return nil
	})
}

// DeleteMembership unlinks a user from a group.
func (store *MemoryStore) DeleteMembership(ctx context.Context, user UserIdentifier, group GroupIdentifier) error {
	return store.update(func(s *storeState) error {
		uid, ok := s.resolveUser(user)
		if !ok {
			return apperr.NotFound(KindUser, user.String())
		}
		gid, ok := s.resolveGroup(group)
		if !ok {
			return apperr.NotFound(KindGroup, group.String())
		}

		key := pairKey{left: uid, right: gid}
		if _, exists := s.memberships[key]; !exists {
			return apperr.NotFound(KindMembership, uid+"/"+gid)
		}
		delete(s.memberships, key)
		return nil
	})
}

// # Policy Attachments

// CreateUserPolicyAttachment attaches a policy directly to a user.
func (store *MemoryStore) CreateUserPolicyAttachment(ctx context.Context, user UserIdentifier, policy PolicyIdentifier) error {
	return store.update(func(s *storeState) error {
		uid, ok := s.resolveUser(user)
		if !ok {
			return apperr.NotFound(KindUser, user.String())
		}
		pid, ok := s.resolvePolicy(policy)
		if !ok {
			return apperr.NotFound(KindPolicy, policy.String())
		}

		key := pairKey{left: uid, right: pid}
		if _, exists := s.userAttachments[key]; exists {
			return apperr.AlreadyExists("attachment already exists")
		}
		s.userAttachments[key] = struct{}{}
		return nil
	})
}

// DeleteUserPolicyAttachment detaches a policy from a user.
func (store *MemoryStore) DeleteUserPolicyAttachment(ctx context.Context, user UserIdentifier, policy PolicyIdentifier) error {
	return store.update(func(s *storeState) error {
		uid, ok := s.resolveUser(user)
		if !ok {
			return apperr.NotFound(KindUser, user.String())
		}
		pid, ok := s.resolvePolicy(policy)
		if !ok {
			return apperr.NotFound(KindPolicy, policy.String())
		}

		key := pairKey{left: uid, right: pid}
		if _, exists := s.userAttachments[key]; !exists {
			return apperr.NotFound(KindAttachment, uid+"/"+pid)
		}
		delete(s.userAttachments, key)
		return nil
	})
}

// CreateGroupPolicyAttachment attaches a policy to a group.
func (store *MemoryStore) CreateGroupPolicyAttachment(ctx context.Context, group GroupIdentifier, policy PolicyIdentifier) error {
	return store.update(func(s *storeState) error {
		gid, ok := s.resolveGroup(group)
		if !ok {
			return apperr.NotFound(KindGroup, group.String())
		}
		pid, ok := s.resolvePolicy(policy)
		if !ok {
			return apperr.NotFound(KindPolicy, policy.String())
		}

		key := pairKey{left: gid, right: pid}
		if _, exists := s.groupAttachments[key]; exists {
			return apperr.AlreadyExists("attachment already exists")
		}
		s.groupAttachments[key] = struct{}{}
		return nil
	})
}

// DeleteGroupPolicyAttachment detaches a policy from a group.
func (store *MemoryStore) DeleteGroupPolicyAttachment(ctx context.Context, group GroupIdentifier, policy PolicyIdentifier) error {
	return store.update(func(s *storeState) error {
		gid, ok := s.resolveGroup(group)
		if !ok {
			return apperr.NotFound(KindGroup, group.String())
		}
		pid, ok := s.resolvePolicy(policy)
		if !ok {
			return apperr.NotFound(KindPolicy, policy.String())
		}

		key := pairKey{left: gid, right: pid}
		if _, exists := s.groupAttachments[key]; !exists {
			return apperr.NotFound(KindAttachment, gid+"/"+pid)
		}
		delete(s.groupAttachments, key)
		return nil
	})
}

// # Sessions

// CreateSession installs a session assembled outside the store.
func (store *MemoryStore) CreateSession(ctx context.Context, session *Session) error {
	return store.update(func(s *storeState) error {
		if _, ok := s.users[session.UserID]; !ok {
			return apperr.NotFound(KindUser, session.UserID)
		}
		if _, exists := s.sessions[session.ID]; exists {
			return apperr.AlreadyExists("session already exists")
		}
		if _, exists := s.sessionsByToken[session.Token]; exists {
			return apperr.AlreadyExists("session token collision")
		}
		s.sessions[session.ID] = session
		s.sessionsByToken[session.Token] = session.ID
		return nil
	})
}

// lookupSession applies the owner cross-check and expiry rule shared by all
// session reads.
func (s *storeState) lookupSession(uid, sid string, now time.Time) (*Session, bool) {
	session, ok := s.sessions[sid]
	if !ok || session.UserID != uid || session.Expired(now) {
		return nil, false
	}
	return session, true
}

// GetSessionByID returns the caller's session by session id.
func (store *MemoryStore) GetSessionByID(ctx context.Context, uid, sid string) (*Session, error) {
	session, ok := store.snapshot().lookupSession(uid, sid, time.Now())
	if !ok {
		return nil, apperr.NotFound(KindSession, sid)
	}
	return session, nil
}

// GetSessionByToken returns the caller's session by opaque token.
func (store *MemoryStore) GetSessionByToken(ctx context.Context, uid, token string) (*Session, error) {
	s := store.snapshot()
	sid, ok := s.sessionsByToken[token]
	if !ok {
		return nil, apperr.NotFound(KindSession, "by-token")
	}
	session, ok := s.lookupSession(uid, sid, time.Now())
	if !ok {
		return nil, apperr.NotFound(KindSession, "by-token")
	}
	return session, nil
}

// RefreshSession atomically replaces the session's expiry.
func (store *MemoryStore) RefreshSession(ctx context.Context, uid, sid string, expiresAt time.Time) (*Session, error) {
	var refreshed *Session
	err := store.update(func(s *storeState) error {
		session, ok := s.lookupSession(uid, sid, time.Now())
		if !ok {
			return apperr.NotFound(KindSession, sid)
		}

		clone := *session
		clone.ExpiresAt = expiresAt
		s.sessions[sid] = &clone
		refreshed = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

// DeleteSession removes the caller's session.
//
// Expired sessions are still physically deletable here so that the sweep
// and explicit deletes converge on the same end state.
func (store *MemoryStore) DeleteSession(ctx context.Context, uid, sid string) error {
	return store.update(func(s *storeState) error {
		session, ok := s.sessions[sid]
		if !ok || session.UserID != uid {
			return apperr.NotFound(KindSession, sid)
		}
		delete(s.sessions, sid)
		delete(s.sessionsByToken, session.Token)
		return nil
	})
}

// ListUserSessions returns the user's live sessions ordered by id.
func (store *MemoryStore) ListUserSessions(ctx context.Context, uid string, offset, limit int) ([]*Session, error) {
	s := store.snapshot()
	if _, ok := s.users[uid]; !ok {
		return nil, apperr.NotFound(KindUser, uid)
	}

	now := time.Now()
	ids := make([]string, 0)
	for sid, session := range s.sessions {
		if session.UserID == uid && !session.Expired(now) {
			ids = append(ids, sid)
		}
	}
	sort.Strings(ids)

	sessions := make([]*Session, 0, limit)
	for _, sid := range window(ids, offset, limit) {
		sessions = append(sessions, s.sessions[sid])
	}
	return sessions, nil
}

// DeleteExpiredSessions sweeps every session expired at the given instant.
func (store *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	swept := 0
	err := store.update(func(s *storeState) error {
		for sid, session := range s.sessions {
			if session.Expired(now) {
				delete(s.sessions, sid)
				delete(s.sessionsByToken, session.Token)
				swept++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

// # Helpers

// sortedKeys returns the map's keys in lexicographic order. UUIDv7 keys
// therefore come back in creation order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// window applies offset/limit to a slice, clamping out-of-range bounds.
func window(items []string, offset, limit int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
