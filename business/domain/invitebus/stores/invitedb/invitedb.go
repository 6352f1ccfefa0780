// Package invitedb contains invitation related CRUD functionality.
package invitedb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for invitation database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (invitebus.Storer, error) {
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

// Create inserts a new invitation into the database.
func (s *Store) Create(ctx context.Context, inv invitebus.Invitation) error {
	const q = `
	INSERT INTO "public"."workspace_invitations"
		(invitation_id, workspace_id, email, role, token, status, invited_by, expires_at, created_at, updated_at)
	VALUES
		(:invitation_id, :workspace_id, :email, :role, :token, :status, :invited_by, :expires_at, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBInvitation(inv)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// UpdateStatus moves an invitation to a new status.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string, now time.Time) error {
	data := struct {
		ID        string    `db:"invitation_id"`
		Status    string    `db:"status"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		ID:        id.String(),
		Status:    status,
		UpdatedAt: now.UTC(),
	}

	const q = `
	UPDATE
		"public"."workspace_invitations"
	SET
		status = :status,
		updated_at = :updated_at
	WHERE
		invitation_id = :invitation_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByID retrieves the invitation with the specified id.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (invitebus.Invitation, error) {
	data := struct {
		ID string `db:"invitation_id"`
	}{
		ID: id.String(),
	}

	const q = `
	SELECT
		invitation_id, workspace_id, email, role, token, status, invited_by, expires_at, created_at, updated_at
	FROM
		"public"."workspace_invitations"
	WHERE
		invitation_id = :invitation_id`

	var db invitation
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &db); err != nil {
		return invitebus.Invitation{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusInvitation(db)
}

// QueryByToken retrieves the invitation carrying the specified token.
func (s *Store) QueryByToken(ctx context.Context, token string) (invitebus.Invitation, error) {
	data := struct {
		Token string `db:"token"`
	}{
		Token: token,
	}

	const q = `
	SELECT
		invitation_id, workspace_id, email, role, token, status, invited_by, expires_at, created_at, updated_at
	FROM
		"public"."workspace_invitations"
	WHERE
		token = :token`

	var db invitation
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &db); err != nil {
		return invitebus.Invitation{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusInvitation(db)
}

// QueryByWorkspace retrieves all invitations for a workspace.
func (s *Store) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]invitebus.Invitation, error) {
	data := struct {
		WorkspaceID string `db:"workspace_id"`
	}{
		WorkspaceID: workspaceID.String(),
	}

	const q = `
	SELECT
		invitation_id, workspace_id, email, role, token, status, invited_by, expires_at, created_at, updated_at
	FROM
		"public"."workspace_invitations"
	WHERE
		workspace_id = :workspace_id
	ORDER BY
		created_at DESC`

	var dbs []invitation
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusInvitations(dbs)
}
