// Package workspacedb contains workspace related CRUD functionality.
package workspacedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for workspace database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (workspacebus.Storer, error) {
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

// Create inserts a new workspace into the database.
func (s *Store) Create(ctx context.Context, ws workspacebus.Workspace) error {
	const q = `
	INSERT INTO "public"."workspace"
		(workspace_id, name, plan_id, deleted_at, created_at, updated_at)
	VALUES
		(:workspace_id, :name, :plan_id, :deleted_at, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBWorkspace(ws)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a workspace document in the database.
func (s *Store) Update(ctx context.Context, ws workspacebus.Workspace) error {
	const q = `
	UPDATE
		"public"."workspace"
	SET
		name = :name,
		plan_id = :plan_id,
		deleted_at = :deleted_at,
		updated_at = :updated_at
	WHERE
		workspace_id = :workspace_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBWorkspace(ws)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByID gets the specified workspace from the database.
func (s *Store) QueryByID(ctx context.Context, workspaceID uuid.UUID) (workspacebus.Workspace, error) {
	data := struct {
		ID string `db:"workspace_id"`
	}{
		ID: workspaceID.String(),
	}

	const q = `
	SELECT
		workspace_id, name, plan_id, deleted_at, created_at, updated_at
	FROM
		"public"."workspace"
	WHERE
		workspace_id = :workspace_id`

	var dbWs workspaceDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbWs); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return workspacebus.Workspace{}, fmt.Errorf("db: %w", workspacebus.ErrNotFound)
		}
		return workspacebus.Workspace{}, fmt.Errorf("db: %w", err)
	}

	return toBusWorkspace(dbWs)
}

// QueryForUser retrieves the workspaces accessible to the specified user:
// the home tenant plus any workspace with a membership row. Soft-deleted
// workspaces are excluded.
func (s *Store) QueryForUser(ctx context.Context, userID uuid.UUID) ([]workspacebus.Workspace, error) {
	data := struct {
		UserID string `db:"user_id"`
	}{
		UserID: userID.String(),
	}

	const q = `
	SELECT DISTINCT
		w.workspace_id, w.name, w.plan_id, w.deleted_at, w.created_at, w.updated_at
	FROM
		"public"."workspace" AS w
	LEFT JOIN
		"public"."workspace_members" AS wm ON wm.workspace_id = w.workspace_id AND wm.user_id = :user_id
	LEFT JOIN
		"public"."users" AS u ON u.tenant_id = w.workspace_id AND u.user_id = :user_id
	WHERE
		w.deleted_at IS NULL
		AND (wm.user_id IS NOT NULL OR u.user_id IS NOT NULL)`

	var dbWss []workspaceDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbWss); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusWorkspaces(dbWss)
}
