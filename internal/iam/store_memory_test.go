// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/irongate/internal/iam"
	"github.com/taibuivan/irongate/internal/platform/apperr"
	"github.com/taibuivan/irongate/pkg/uuid"
)

const testHost = "iam.example.com"

func newTestUser(t *testing.T, store iam.Store, email string) *iam.User {
	t.Helper()
	user := &iam.User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func newTestGroup(t *testing.T, store iam.Store, name string) *iam.Group {
	t.Helper()
	group := &iam.Group{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	return group
}

func newTestPolicy(t *testing.T, store iam.Store, name, hostname string, rules ...iam.Rule) *iam.Policy {
	t.Helper()
	policy := &iam.Policy{
		ID:        uuid.New(),
		Name:      name,
		Hostname:  hostname,
		Rules:     rules,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreatePolicy(context.Background(), policy))
	return policy
}

func newTestSession(t *testing.T, store iam.Store, uid, token string, ttl time.Duration) *iam.Session {
	t.Helper()
	now := time.Now().UTC()
	session := &iam.Session{
		ID:        uuid.New(),
		UserID:    uid,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	require.NoError(t, store.CreateSession(context.Background(), session))
	return session
}

/*
TestMemoryStore_UserLifecycle verifies the create/get/delete contract for
users under both identifier variants.
*/
func TestMemoryStore_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")

	// 1. Readable by UUID and by email alias
	byID, err := store.GetUser(ctx, iam.UserID(user.ID))
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	byEmail, err := store.GetUser(ctx, iam.UserEmail("alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	// 2. Delete by alias; both lookups now fail NOT_FOUND
	require.NoError(t, store.DeleteUser(ctx, iam.UserEmail("alice@example.com")))

	_, err = store.GetUser(ctx, iam.UserID(user.ID))
	assert.True(t, apperr.IsNotFound(err))
	_, err = store.GetUser(ctx, iam.UserEmail("alice@example.com"))
	assert.True(t, apperr.IsNotFound(err))

	// 3. Deleting again fails NOT_FOUND
	err = store.DeleteUser(ctx, iam.UserID(user.ID))
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestMemoryStore_AliasUniqueness verifies that email, group-name, and
policy-name aliases are unique at creation time.
*/
func TestMemoryStore_AliasUniqueness(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	newTestUser(t, store, "alice@example.com")
	duplicate := &iam.User{ID: uuid.New(), Email: "alice@example.com", CreatedAt: time.Now().UTC()}
	assert.True(t, apperr.IsAlreadyExists(store.CreateUser(ctx, duplicate)))

	newTestGroup(t, store, "engineering")
	groupDup := &iam.Group{ID: uuid.New(), Name: "engineering"}
	assert.True(t, apperr.IsAlreadyExists(store.CreateGroup(ctx, groupDup)))

	newTestPolicy(t, store, "readers", testHost)
	policyDup := &iam.Policy{ID: uuid.New(), Name: "readers", Hostname: testHost}
	assert.True(t, apperr.IsAlreadyExists(store.CreatePolicy(ctx, policyDup)))

	// Users without an email never collide
	newTestUser(t, store, "")
	newTestUser(t, store, "")
}

/*
TestMemoryStore_MembershipConcurrency verifies that N concurrent creations
of the same (uid, gid) pair produce exactly one success and N-1
ALREADY_EXISTS failures.
*/
func TestMemoryStore_MembershipConcurrency(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")
	group := newTestGroup(t, store, "engineering")

	const workers = 32
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs[slot] = store.CreateMembership(ctx, iam.UserID(user.ID), iam.GroupID(group.ID))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.True(t, apperr.IsAlreadyExists(err))
		}
	}
	assert.Equal(t, 1, successes)
}

/*
TestMemoryStore_MembershipEndpoints verifies that membership endpoints must
exist at insertion time and that the delete path reports missing pairs.
*/
func TestMemoryStore_MembershipEndpoints(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")
	group := newTestGroup(t, store, "engineering")

	// 1. Unresolvable endpoints fail NOT_FOUND
	err := store.CreateMembership(ctx, iam.UserEmail("ghost@example.com"), iam.GroupID(group.ID))
	assert.True(t, apperr.IsNotFound(err))
	err = store.CreateMembership(ctx, iam.UserID(user.ID), iam.GroupName("nosuch"))
	assert.True(t, apperr.IsNotFound(err))

	// 2. Create via aliases, delete via UUIDs: same pair
	require.NoError(t, store.CreateMembership(ctx, iam.UserEmail("alice@example.com"), iam.GroupName("engineering")))
	require.NoError(t, store.DeleteMembership(ctx, iam.UserID(user.ID), iam.GroupID(group.ID)))

	// 3. Deleting a missing pair fails NOT_FOUND
	err = store.DeleteMembership(ctx, iam.UserID(user.ID), iam.GroupID(group.ID))
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestMemoryStore_DeleteUserCascades verifies that deleting a user removes its
memberships, attachments, and sessions in the same commit.
*/
func TestMemoryStore_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")
	group := newTestGroup(t, store, "engineering")
	policy := newTestPolicy(t, store, "readers", testHost,
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	require.NoError(t, store.CreateMembership(ctx, iam.UserID(user.ID), iam.GroupID(group.ID)))
	require.NoError(t, store.CreateUserPolicyAttachment(ctx, iam.UserID(user.ID), iam.PolicyID(policy.ID)))
	session := newTestSession(t, store, user.ID, "token-alice", time.Hour)

	require.NoError(t, store.DeleteUser(ctx, iam.UserID(user.ID)))

	// 1. Session is gone with the user
	_, err := store.GetSessionByID(ctx, user.ID, session.ID)
	assert.True(t, apperr.IsNotFound(err))

	// 2. Re-registering the email works and inherits nothing
	revived := newTestUser(t, store, "alice@example.com")
	policies, err := store.ListPoliciesForUser(ctx, revived.ID, testHost)
	require.NoError(t, err)
	assert.Empty(t, policies)

	// 3. Group and policy survive the cascade
	_, err = store.GetGroup(ctx, iam.GroupID(group.ID))
	require.NoError(t, err)
	_, err = store.GetPolicy(ctx, iam.PolicyID(policy.ID))
	require.NoError(t, err)
}

/*
TestMemoryStore_ListPoliciesForUser verifies aggregation: direct attachments
plus group-inherited attachments, deduplicated and host-filtered.
*/
func TestMemoryStore_ListPoliciesForUser(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")
	group := newTestGroup(t, store, "engineering")
	require.NoError(t, store.CreateMembership(ctx, iam.UserID(user.ID), iam.GroupID(group.ID)))

	direct := newTestPolicy(t, store, "direct", testHost)
	inherited := newTestPolicy(t, store, "inherited", testHost)
	otherHost := newTestPolicy(t, store, "other-host", "other.example.com")
	shared := newTestPolicy(t, store, "shared", testHost)

	require.NoError(t, store.CreateUserPolicyAttachment(ctx, iam.UserID(user.ID), iam.PolicyID(direct.ID)))
	require.NoError(t, store.CreateGroupPolicyAttachment(ctx, iam.GroupID(group.ID), iam.PolicyID(inherited.ID)))
	require.NoError(t, store.CreateUserPolicyAttachment(ctx, iam.UserID(user.ID), iam.PolicyID(otherHost.ID)))

	// Attached both directly and via the group: must appear once
	require.NoError(t, store.CreateUserPolicyAttachment(ctx, iam.UserID(user.ID), iam.PolicyID(shared.ID)))
	require.NoError(t, store.CreateGroupPolicyAttachment(ctx, iam.GroupID(group.ID), iam.PolicyID(shared.ID)))

	policies, err := store.ListPoliciesForUser(ctx, user.ID, testHost)
	require.NoError(t, err)

	ids := make([]string, 0, len(policies))
	for _, policy := range policies {
		ids = append(ids, policy.ID)
	}
	assert.ElementsMatch(t, []string{direct.ID, inherited.ID, shared.ID}, ids)
}

/*
TestMemoryStore_SessionOwnerIsolation verifies that a session is only
visible to its owner: lookups under a different uid fail NOT_FOUND.
*/
func TestMemoryStore_SessionOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	alice := newTestUser(t, store, "alice@example.com")
	bob := newTestUser(t, store, "bob@example.com")
	session := newTestSession(t, store, alice.ID, "token-alice", time.Hour)

	// 1. Owner sees it
	found, err := store.GetSessionByID(ctx, alice.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	// 2. Another user does not, by id or by token
	_, err = store.GetSessionByID(ctx, bob.ID, session.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = store.GetSessionByToken(ctx, bob.ID, "token-alice")
	assert.True(t, apperr.IsNotFound(err))

	// 3. Neither can the other user refresh or delete it
	_, err = store.RefreshSession(ctx, bob.ID, session.ID, time.Now().Add(time.Hour))
	assert.True(t, apperr.IsNotFound(err))
	err = store.DeleteSession(ctx, bob.ID, session.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestMemoryStore_SessionExpiry verifies that expired sessions read as
NOT_FOUND and that the sweep reclaims them.
*/
func TestMemoryStore_SessionExpiry(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")
	expired := newTestSession(t, store, user.ID, "token-old", -time.Minute)
	live := newTestSession(t, store, user.ID, "token-new", time.Hour)

	// 1. Expired is observationally absent
	_, err := store.GetSessionByID(ctx, user.ID, expired.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = store.GetSessionByToken(ctx, user.ID, "token-old")
	assert.True(t, apperr.IsNotFound(err))

	sessions, err := store.ListUserSessions(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, live.ID, sessions[0].ID)

	// 2. The sweep counts only the expired one
	swept, err := store.DeleteExpiredSessions(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	// 3. The live session survives
	_, err = store.GetSessionByID(ctx, user.ID, live.ID)
	require.NoError(t, err)
}

/*
TestMemoryStore_RefreshSession verifies that a refresh extends the expiry
without changing identity or token.
*/
func TestMemoryStore_RefreshSession(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	user := newTestUser(t, store, "alice@example.com")
	session := newTestSession(t, store, user.ID, "token-alice", time.Minute)

	newExpiry := time.Now().UTC().Add(2 * time.Hour)
	refreshed, err := store.RefreshSession(ctx, user.ID, session.ID, newExpiry)
	require.NoError(t, err)

	assert.Equal(t, session.ID, refreshed.ID)
	assert.Equal(t, session.Token, refreshed.Token)
	assert.True(t, refreshed.ExpiresAt.Equal(newExpiry))

	// The token index still resolves to the refreshed session
	byToken, err := store.GetSessionByToken(ctx, user.ID, "token-alice")
	require.NoError(t, err)
	assert.True(t, byToken.ExpiresAt.Equal(newExpiry))
}

/*
TestMemoryStore_PolicyUpdate verifies in-place replacement of a policy's
name, hostname, and rules, including alias re-indexing.
*/
func TestMemoryStore_PolicyUpdate(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	policy := newTestPolicy(t, store, "readers", testHost,
		iam.Rule{Effect: iam.Allow, Action: iam.Read, Resource: "/users/*"})

	updated := &iam.Policy{
		ID:        policy.ID,
		Name:      "writers",
		Hostname:  testHost,
		Rules:     []iam.Rule{{Effect: iam.Allow, Action: iam.Write, Resource: "/users/*"}},
		CreatedAt: policy.CreatedAt,
	}
	require.NoError(t, store.UpdatePolicy(ctx, updated))

	// 1. Old alias is released, new alias resolves
	_, err := store.GetPolicy(ctx, iam.PolicyName("readers"))
	assert.True(t, apperr.IsNotFound(err))

	byName, err := store.GetPolicy(ctx, iam.PolicyName("writers"))
	require.NoError(t, err)
	assert.Equal(t, policy.ID, byName.ID)
	assert.Equal(t, iam.Write, byName.Rules[0].Action)

	// 2. Updating a missing policy fails NOT_FOUND
	missing := &iam.Policy{ID: uuid.New(), Hostname: testHost}
	assert.True(t, apperr.IsNotFound(store.UpdatePolicy(ctx, missing)))
}

/*
TestMemoryStore_SnapshotIsolation verifies that a list taken before a write
is unaffected by it: readers work on immutable snapshots.
*/
func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	newTestUser(t, store, "a@example.com")
	before, err := store.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, before, 1)

	newTestUser(t, store, "b@example.com")

	// The slice from the earlier snapshot is untouched
	assert.Len(t, before, 1)

	after, err := store.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

/*
TestMemoryStore_ListWindowBounds verifies out-of-range paging arguments: a
negative offset reads from the start, an offset past the end yields an empty
page, and a non-positive limit means no limit.
*/
func TestMemoryStore_ListWindowBounds(t *testing.T) {
	ctx := context.Background()
	store := iam.NewMemoryStore()

	newTestUser(t, store, "a@example.com")
	newTestUser(t, store, "b@example.com")
	newTestUser(t, store, "c@example.com")

	users, err := store.ListUsers(ctx, -5, 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = store.ListUsers(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = store.ListUsers(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
