// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/irongate/internal/platform/apperr"
	"github.com/taibuivan/irongate/internal/platform/dberr"
)

// PostgresStore implements [Store] on top of pgx.
//
// # Architecture
//
// The schema lives under the "iam" namespace (see data/migrations). Alias
// uniqueness is enforced by unique indexes, referential invariants by
// foreign keys, and per-operation atomicity by explicit transactions where
// an operation touches more than one table. SQLSTATE errors are translated
// to the application taxonomy by [dberr.Wrap].
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// windowArgs normalizes paging arguments for OFFSET/LIMIT placeholders.
// A negative offset reads from the start; a non-positive limit means no
// limit (NULL LIMIT is LIMIT ALL). Mirrors the in-memory window semantics.
func windowArgs(offset, limit int) (int, interface{}) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return offset, nil
	}
	return offset, limit
}

// # Identifier Resolution

// resolveUserID resolves any identifier variant to the user's UUID.
// The UUID form is authoritative; the email alias is consulted otherwise.
func (store *PostgresStore) resolveUserID(ctx context.Context, id UserIdentifier) (string, error) {
	var (
		query = `SELECT id FROM iam.users WHERE id = $1`
		arg   = id.ID
	)
	if id.ID == "" {
		query = `SELECT id FROM iam.users WHERE email = $1`
		arg = id.Email
	}

	var uid string
	if err := store.pool.QueryRow(ctx, query, arg).Scan(&uid); err != nil {
		return "", dberr.Wrap(err, KindUser, id.String())
	}
	return uid, nil
}

func (store *PostgresStore) resolveGroupID(ctx context.Context, id GroupIdentifier) (string, error) {
	var (
		query = `SELECT id FROM iam.groups WHERE id = $1`
		arg   = id.ID
	)
	if id.ID == "" {
		query = `SELECT id FROM iam.groups WHERE name = $1`
		arg = id.Name
	}

	var gid string
	if err := store.pool.QueryRow(ctx, query, arg).Scan(&gid); err != nil {
		return "", dberr.Wrap(err, KindGroup, id.String())
	}
	return gid, nil
}

func (store *PostgresStore) resolvePolicyID(ctx context.Context, id PolicyIdentifier) (string, error) {
	var (
		query = `SELECT id FROM iam.policies WHERE id = $1`
		arg   = id.ID
	)
	if id.ID == "" {
		query = `SELECT id FROM iam.policies WHERE name = $1`
		arg = id.Name
	}

	var pid string
	if err := store.pool.QueryRow(ctx, query, arg).Scan(&pid); err != nil {
		return "", dberr.Wrap(err, KindPolicy, id.String())
	}
	return pid, nil
}

// # Users

func (store *PostgresStore) GetUser(ctx context.Context, id UserIdentifier) (*User, error) {
	uid, err := store.resolveUserID(ctx, id)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT id, COALESCE(email, ''), created_at
		FROM iam.users
		WHERE id = $1`

	user := &User{}
	if err := store.pool.QueryRow(ctx, query, uid).Scan(&user.ID, &user.Email, &user.CreatedAt); err != nil {
		return nil, dberr.Wrap(err, KindUser, id.String())
	}

	keys, err := store.loadPublicKeys(ctx, uid)
	if err != nil {
		return nil, err
	}
	user.PublicKeys = keys
	return user, nil
}

func (store *PostgresStore) GetUserID(ctx context.Context, id UserIdentifier) (string, error) {
	return store.resolveUserID(ctx, id)
}

func (store *PostgresStore) ListUsers(ctx context.Context, offset, limit int) ([]*User, error) {
	const query = `
		SELECT id, COALESCE(email, ''), created_at
		FROM iam.users
		ORDER BY id
		OFFSET $1 LIMIT $2`

	offsetArg, limitArg := windowArgs(offset, limit)
	rows, err := store.pool.Query(ctx, query, offsetArg, limitArg)
	if err != nil {
		return nil, dberr.Wrap(err, KindUser, "")
	}
	defer rows.Close()

	users := make([]*User, 0, max(limit, 0))
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, KindUser, "")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, KindUser, "")
	}

	for _, user := range users {
		keys, err := store.loadPublicKeys(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.PublicKeys = keys
	}
	return users, nil
}

func (store *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	// User row and key rows must land atomically.
	return store.withTx(ctx, func(tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO iam.users (id, email, created_at)
			VALUES ($1, NULLIF($2, ''), $3)`

		if _, err := tx.Exec(ctx, insertUser, user.ID, user.Email, user.CreatedAt); err != nil {
			return dberr.Wrap(err, KindUser, user.ID)
		}

		const insertKey = `
			INSERT INTO iam.user_public_keys (user_id, key, description)
			VALUES ($1, $2, $3)`

		for _, key := range user.PublicKeys {
			if _, err := tx.Exec(ctx, insertKey, user.ID, key.Key, key.Description); err != nil {
				return dberr.Wrap(err, KindUser, user.ID)
			}
		}
		return nil
	})
}

func (store *PostgresStore) DeleteUser(ctx context.Context, id UserIdentifier) error {
	uid, err := store.resolveUserID(ctx, id)
	if err != nil {
		return err
	}

	// Memberships, attachments, keys, and sessions cascade via FK.
	tag, err := store.pool.Exec(ctx, `DELETE FROM iam.users WHERE id = $1`, uid)
	if err != nil {
		return dberr.Wrap(err, KindUser, id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindUser, id.String())
	}
	return nil
}

func (store *PostgresStore) loadPublicKeys(ctx context.Context, uid string) ([]UserPublicKey, error) {
	const query = `
		SELECT key, description
		FROM iam.user_public_keys
		WHERE user_id = $1
		ORDER BY id`

	rows, err := store.pool.Query(ctx, query, uid)
	if err != nil {
		return nil, dberr.Wrap(err, KindUser, uid)
	}
	defer rows.Close()

	keys := make([]UserPublicKey, 0, 1)
	for rows.Next() {
		var key UserPublicKey
		if err := rows.Scan(&key.Key, &key.Description); err != nil {
			return nil, dberr.Wrap(err, KindUser, uid)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// # Groups

func (store *PostgresStore) GetGroup(ctx context.Context, id GroupIdentifier) (*Group, error) {
	gid, err := store.resolveGroupID(ctx, id)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT id, COALESCE(name, ''), created_at
		FROM iam.groups
		WHERE id = $1`

	group := &Group{}
	if err := store.pool.QueryRow(ctx, query, gid).Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
		return nil, dberr.Wrap(err, KindGroup, id.String())
	}
	return group, nil
}

func (store *PostgresStore) ListGroups(ctx context.Context, offset, limit int) ([]*Group, error) {
	const query = `
		SELECT id, COALESCE(name, ''), created_at
		FROM iam.groups
		ORDER BY id
		OFFSET $1 LIMIT $2`

	offsetArg, limitArg := windowArgs(offset, limit)
	rows, err := store.pool.Query(ctx, query, offsetArg, limitArg)
	if err != nil {
		return nil, dberr.Wrap(err, KindGroup, "")
	}
	defer rows.Close()

	groups := make([]*Group, 0, max(limit, 0))
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, KindGroup, "")
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (store *PostgresStore) CreateGroup(ctx context.Context, group *Group) error {
	const query = `
		INSERT INTO iam.groups (id, name, created_at)
		VALUES ($1, NULLIF($2, ''), $3)`

	if _, err := store.pool.Exec(ctx, query, group.ID, group.Name, group.CreatedAt); err != nil {
		return dberr.Wrap(err, KindGroup, group.ID)
	}
	return nil
}

func (store *PostgresStore) DeleteGroup(ctx context.Context, id GroupIdentifier) error {
	gid, err := store.resolveGroupID(ctx, id)
	if err != nil {
		return err
	}

	tag, err := store.pool.Exec(ctx, `DELETE FROM iam.groups WHERE id = $1`, gid)
	if err != nil {
		return dberr.Wrap(err, KindGroup, id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindGroup, id.String())
	}
	return nil
}

// # Policies

func (store *PostgresStore) GetPolicy(ctx context.Context, id PolicyIdentifier) (*Policy, error) {
	pid, err := store.resolvePolicyID(ctx, id)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT id, COALESCE(name, ''), hostname, rules, created_at
		FROM iam.policies
		WHERE id = $1`

	return store.scanPolicy(store.pool.QueryRow(ctx, query, pid), id.String())
}

func (store *PostgresStore) ListPolicyIDs(ctx context.Context, offset, limit int) ([]string, error) {
	const query = `
		SELECT id FROM iam.policies
		ORDER BY id
		OFFSET $1 LIMIT $2`

	offsetArg, limitArg := windowArgs(offset, limit)
	rows, err := store.pool.Query(ctx, query, offsetArg, limitArg)
	if err != nil {
		return nil, dberr.Wrap(err, KindPolicy, "")
	}
	defer rows.Close()

	ids := make([]string, 0, max(limit, 0))
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, dberr.Wrap(err, KindPolicy, "")
		}
		ids = append(ids, pid)
	}
	return ids, rows.Err()
}

func (store *PostgresStore) CreatePolicy(ctx context.Context, policy *Policy) error {
	rulesJSON, err := json.Marshal(policy.Rules)
	if err != nil {
		return apperr.Internal(fmt.Errorf("postgres_policy_rules_marshal_failed: %w", err))
	}

	const query = `
		INSERT INTO iam.policies (id, name, hostname, rules, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)`

	if _, err := store.pool.Exec(ctx, query, policy.ID, policy.Name, policy.Hostname, rulesJSON, policy.CreatedAt); err != nil {
		return dberr.Wrap(err, KindPolicy, policy.ID)
	}
	return nil
}

func (store *PostgresStore) UpdatePolicy(ctx context.Context, policy *Policy) error {
	rulesJSON, err := json.Marshal(policy.Rules)
	if err != nil {
		return apperr.Internal(fmt.Errorf("postgres_policy_rules_marshal_failed: %w", err))
	}

	const query = `
		UPDATE iam.policies
		SET name = NULLIF($2, ''), hostname = $3, rules = $4
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, policy.ID, policy.Name, policy.Hostname, rulesJSON)
	if err != nil {
		return dberr.Wrap(err, KindPolicy, policy.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindPolicy, policy.ID)
	}
	return nil
}

func (store *PostgresStore) DeletePolicy(ctx context.Context, id PolicyIdentifier) error {
	pid, err := store.resolvePolicyID(ctx, id)
	if err != nil {
		return err
	}

	tag, err := store.pool.Exec(ctx, `DELETE FROM iam.policies WHERE id = $1`, pid)
	if err != nil {
		return dberr.Wrap(err, KindPolicy, id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindPolicy, id.String())
	}
	return nil
}

func (store *PostgresStore) ListPoliciesForUser(ctx context.Context, uid string, host string) ([]*Policy, error) {
	if _, err := store.resolveUserID(ctx, UserID(uid)); err != nil {
		return nil, err
	}

	// Direct attachments unioned with group-transitive attachments,
	// deduplicated by the UNION, filtered to the request host.
	const query = `
		SELECT p.id, COALESCE(p.name, ''), p.hostname, p.rules, p.created_at
		FROM iam.policies p
		WHERE p.hostname = $2
		  AND p.id IN (
			SELECT policy_id FROM iam.user_policy_attachments WHERE user_id = $1
			UNION
			SELECT gpa.policy_id
			FROM iam.group_policy_attachments gpa
			JOIN iam.memberships m ON m.group_id = gpa.group_id
			WHERE m.user_id = $1
		  )
		ORDER BY p.id`

	rows, err := store.pool.Query(ctx, query, uid, host)
	if err != nil {
		return nil, dberr.Wrap(err, KindPolicy, "")
	}
	defer rows.Close()

	policies := make([]*Policy, 0, 4)
	for rows.Next() {
		policy, err := store.scanPolicyRow(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

// # Memberships

func (store *PostgresStore) CreateMembership(ctx context.Context, user UserIdentifier, group GroupIdentifier) error {
	uid, err := store.resolveUserID(ctx, user)
	if err != nil {
		return err
	}
	gid, err := store.resolveGroupID(ctx, group)
	if err != nil {
		return err
	}

	const query = `INSERT INTO iam.memberships (user_id, group_id) VALUES ($1, $2)`
	if _, err := store.pool.Exec(ctx, query, uid, gid); err != nil {
		return dberr.Wrap(err, KindMembership, uid+"/"+gid)
	}
	return nil
}

func (store *PostgresStore) DeleteMembership(ctx context.Context, user UserIdentifier, group GroupIdentifier) error {
	uid, err := store.resolveUserID(ctx, user)
	if err != nil {
		return err
	}
	gid, err := store.resolveGroupID(ctx, group)
	if err != nil {
		return err
	}

	const query = `DELETE FROM iam.memberships WHERE user_id = $1 AND group_id = $2`
	tag, err := store.pool.Exec(ctx, query, uid, gid)
	if err != nil {
		return dberr.Wrap(err, KindMembership, uid+"/"+gid)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindMembership, uid+"/"+gid)
	}
	return nil
}

// # Policy Attachments

func (store *PostgresStore) CreateUserPolicyAttachment(ctx context.Context, user UserIdentifier, policy PolicyIdentifier) error {
	uid, err := store.resolveUserID(ctx, user)
	if err != nil {
		return err
	}
	pid, err := store.resolvePolicyID(ctx, policy)
	if err != nil {
		return err
	}

	const query = `INSERT INTO iam.user_policy_attachments (user_id, policy_id) VALUES ($1, $2)`
	if _, err := store.pool.Exec(ctx, query, uid, pid); err != nil {
		return dberr.Wrap(err, KindAttachment, uid+"/"+pid)
	}
	return nil
}

func (store *PostgresStore) DeleteUserPolicyAttachment(ctx context.Context, user UserIdentifier, policy PolicyIdentifier) error {
	uid, err := store.resolveUserID(ctx, user)
	if err != nil {
		return err
	}
	pid, err := store.resolvePolicyID(ctx, policy)
	if err != nil {
		return err
	}

	const query = `DELETE FROM iam.user_policy_attachments WHERE user_id = $1 AND policy_id = $2`
	tag, err := store.pool.Exec(ctx, query, uid, pid)
	if err != nil {
		return dberr.Wrap(err, KindAttachment, uid+"/"+pid)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindAttachment, uid+"/"+pid)
	}
	return nil
}

func (store *PostgresStore) CreateGroupPolicyAttachment(ctx context.Context, group GroupIdentifier, policy PolicyIdentifier) error {
	gid, err := store.resolveGroupID(ctx, group)
	if err != nil {
		return err
	}
	pid, err := store.resolvePolicyID(ctx, policy)
	if err != nil {
		return err
	}

	const query = `INSERT INTO iam.group_policy_attachments (group_id, policy_id) VALUES ($1, $2)`
	if _, err := store.pool.Exec(ctx, query, gid, pid); err != nil {
		return dberr.Wrap(err, KindAttachment, gid+"/"+pid)
	}
	return nil
}

func (store *PostgresStore) DeleteGroupPolicyAttachment(ctx context.Context, group GroupIdentifier, policy PolicyIdentifier) error {
	gid, err := store.resolveGroupID(ctx, group)
	if err != nil {
		return err
	}
	pid, err := store.resolvePolicyID(ctx, policy)
	if err != nil {
		return err
	}

	const query = `DELETE FROM iam.group_policy_attachments WHERE group_id = $1 AND policy_id = $2`
	tag, err := store.pool.Exec(ctx, query, gid, pid)
	if err != nil {
		return dberr.Wrap(err, KindAttachment, gid+"/"+pid)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindAttachment, gid+"/"+pid)
	}
	return nil
}

// # Sessions

func (store *PostgresStore) CreateSession(ctx context.Context, session *Session) error {
	const query = `
		INSERT INTO iam.sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := store.pool.Exec(ctx, query,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, KindSession, session.ID)
	}
	return nil
}

func (store *PostgresStore) GetSessionByID(ctx context.Context, uid, sid string) (*Session, error) {
	// Owner cross-check and expiry filter happen in the query so that a
	// foreign or expired session is indistinguishable from an absent one.
	const query = `
		SELECT id, user_id, token, expires_at, created_at
		FROM iam.sessions
		WHERE id = $1 AND user_id = $2 AND expires_at > now()`

	return store.scanSession(store.pool.QueryRow(ctx, query, sid, uid), sid)
}

func (store *PostgresStore) GetSessionByToken(ctx context.Context, uid, token string) (*Session, error) {
	const query = `
		SELECT id, user_id, token, expires_at, created_at
		FROM iam.sessions
		WHERE token = $1 AND user_id = $2 AND expires_at > now()`

	return store.scanSession(store.pool.QueryRow(ctx, query, token, uid), "by-token")
}

func (store *PostgresStore) RefreshSession(ctx context.Context, uid, sid string, expiresAt time.Time) (*Session, error) {
	const query = `
		UPDATE iam.sessions
		SET expires_at = $3
		WHERE id = $1 AND user_id = $2 AND expires_at > now()
		RETURNING id, user_id, token, expires_at, created_at`

	return store.scanSession(store.pool.QueryRow(ctx, query, sid, uid, expiresAt), sid)
}

func (store *PostgresStore) DeleteSession(ctx context.Context, uid, sid string) error {
	const query = `DELETE FROM iam.sessions WHERE id = $1 AND user_id = $2`
	tag, err := store.pool.Exec(ctx, query, sid, uid)
	if err != nil {
		return dberr.Wrap(err, KindSession, sid)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(KindSession, sid)
	}
	return nil
}

func (store *PostgresStore) ListUserSessions(ctx context.Context, uid string, offset, limit int) ([]*Session, error) {
	if _, err := store.resolveUserID(ctx, UserID(uid)); err != nil {
		return nil, err
	}

	const query = `
		SELECT id, user_id, token, expires_at, created_at
		FROM iam.sessions
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY id
		OFFSET $2 LIMIT $3`

	offsetArg, limitArg := windowArgs(offset, limit)
	rows, err := store.pool.Query(ctx, query, uid, offsetArg, limitArg)
	if err != nil {
		return nil, dberr.Wrap(err, KindSession, "")
	}
	defer rows.Close()

	sessions := make([]*Session, 0, max(limit, 0))
	for rows.Next() {
		session := &Session{}
		if err := rows.Scan(&session.ID, &session.UserID, &session.Token, &session.ExpiresAt, &session.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, KindSession, "")
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (store *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	tag, err := store.pool.Exec(ctx, `DELETE FROM iam.sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, dberr.Wrap(err, KindSession, "")
	}
	return int(tag.RowsAffected()), nil
}

// # Scan Helpers

func (store *PostgresStore) scanPolicy(row pgx.Row, identifier string) (*Policy, error) {
	policy := &Policy{}
	var rulesJSON []byte
	if err := row.Scan(&policy.ID, &policy.Name, &policy.Hostname, &rulesJSON, &policy.CreatedAt); err != nil {
		return nil, dberr.Wrap(err, KindPolicy, identifier)
	}
	if err := json.Unmarshal(rulesJSON, &policy.Rules); err != nil {
		return nil, apperr.Internal(fmt.Errorf("postgres_policy_rules_unmarshal_failed: %w", err))
	}
	return policy, nil
}

func (store *PostgresStore) scanPolicyRow(rows pgx.Rows) (*Policy, error) {
	policy := &Policy{}
	var rulesJSON []byte
	if err := rows.Scan(&policy.ID, &policy.Name, &policy.Hostname, &rulesJSON, &policy.CreatedAt); err != nil {
		return nil, dberr.Wrap(err, KindPolicy, "")
	}
	if err := json.Unmarshal(rulesJSON, &policy.Rules); err != nil {
		return nil, apperr.Internal(fmt.Errorf("postgres_policy_rules_unmarshal_failed: %w", err))
	}
	return policy, nil
}

func (store *PostgresStore) scanSession(row pgx.Row, identifier string) (*Session, error) {
	session := &Session{}
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(KindSession, identifier)
		}
		return nil, dberr.Wrap(err, KindSession, identifier)
	}
	return session, nil
}

// withTx runs fn inside a transaction, committing on success.
func (store *PostgresStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, KindUser, "")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
