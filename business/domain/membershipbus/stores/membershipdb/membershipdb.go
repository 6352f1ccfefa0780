// Package membershipdb contains membership related CRUD functionality.
package membershipdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for membership database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (membershipbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new membership into the database.
func (s *Store) Create(ctx context.Context, mbr membershipbus.Membership) error {
	const q = `
	INSERT INTO "public"."workspace_members"
		(workspace_id, user_id, role, is_primary, invited_by, joined_at, last_accessed_at)
	VALUES
		(:workspace_id, :user_id, :role, :is_primary, :invited_by, :joined_at, :last_accessed_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBMembership(mbr)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return fmt.Errorf("namedexeccontext: %w", membershipbus.ErrUnique)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a membership from the database.
func (s *Store) Delete(ctx context.Context, mbr membershipbus.Membership) error {
	data := struct {
		WorkspaceID string `db:"workspace_id"`
		UserID      string `db:"user_id"`
	}{
		WorkspaceID: mbr.WorkspaceID.String(),
		UserID:      mbr.UserID.String(),
	}

	const q = `
	DELETE FROM
		"public"."workspace_members"
	WHERE
		workspace_id = :workspace_id AND user_id = :user_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update modifies the role on an existing membership.
func (s *Store) Update(ctx context.Context, mbr membershipbus.Membership) error {
	const q = `
	UPDATE
		"public"."workspace_members"
	SET
		role = :role
	WHERE
		workspace_id = :workspace_id AND user_id = :user_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBMembership(mbr)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryOne retrieves the membership a user holds in a workspace.
func (s *Store) QueryOne(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID) (membershipbus.Membership, error) {
	data := struct {
		UserID      string `db:"user_id"`
		WorkspaceID string `db:"workspace_id"`
	}{
		UserID:      userID.String(),
		WorkspaceID: workspaceID.String(),
	}

	const q = `
	SELECT
		workspace_id, user_id, role, is_primary, invited_by, joined_at, last_accessed_at
	FROM
		"public"."workspace_members"
	WHERE
		workspace_id = :workspace_id AND user_id = :user_id`

	var db membership
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &db); err != nil {
		return membershipbus.Membership{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusMembership(db)
}

// QueryByUser retrieves all memberships held by the specified user.
func (s *Store) QueryByUser(ctx context.Context, userID uuid.UUID) ([]membershipbus.Membership, error) {
	data := struct {
		UserID string `db:"user_id"`
	}{
		UserID: userID.String(),
	}

	const q = `
	SELECT
		workspace_id, user_id, role, is_primary, invited_by, joined_at, last_accessed_at
	FROM
		"public"."workspace_members"
	WHERE
		user_id = :user_id
	ORDER BY
		joined_at`

	var dbs []membership
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusMemberships(dbs)
}

// QueryByWorkspace retrieves all memberships of the specified workspace.
func (s *Store) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]membershipbus.Membership, error) {
	data := struct {
		WorkspaceID string `db:"workspace_id"`
	}{
		WorkspaceID: workspaceID.String(),
	}

	const q = `
	SELECT
		workspace_id, user_id, role, is_primary, invited_by, joined_at, last_accessed_at
	FROM
		"public"."workspace_members"
	WHERE
		workspace_id = :workspace_id
	ORDER BY
		joined_at`

	var dbs []membership
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusMemberships(dbs)
}

// QueryMostRecent retrieves the user's most recently accessed membership.
// Rows never accessed sort last, joined_at breaking the tie.
func (s *Store) QueryMostRecent(ctx context.Context, userID uuid.UUID) (membershipbus.Membership, error) {
	data := struct {
		UserID string `db:"user_id"`
	}{
		UserID: userID.String(),
	}

	const q = `
	SELECT
		workspace_id, user_id, role, is_primary, invited_by, joined_at, last_accessed_at
	FROM
		"public"."workspace_members"
	WHERE
		user_id = :user_id
	ORDER BY
		last_accessed_at DESC NULLS LAST, joined_at DESC
	LIMIT 1`

	var db membership
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &db); err != nil {
		return membershipbus.Membership{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusMembership(db)
}

// TouchLastAccessed stamps the membership with the time the user last made
// it their active scope.
func (s *Store) TouchLastAccessed(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID, now time.Time) error {
	data := struct {
		UserID         string    `db:"user_id"`
		WorkspaceID    string    `db:"workspace_id"`
		LastAccessedAt time.Time `db:"last_accessed_at"`
	}{
		UserID:         userID.String(),
		WorkspaceID:    workspaceID.String(),
		LastAccessedAt: now.UTC(),
	}

	const q = `
	UPDATE
		"public"."workspace_members"
	SET
		last_accessed_at = :last_accessed_at
	WHERE
		workspace_id = :workspace_id AND user_id = :user_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}
