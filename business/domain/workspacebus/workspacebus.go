// Package workspacebus provides business access to the workspace domain.
package workspacebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
	"github.com/workden/workden/foundation/otel"
)

var (
	ErrNotFound = errors.New("workspace not found")
	ErrDeleted  = errors.New("workspace is deleted")
)

// Storer defines the behavior required by the workspacebus to interact with
// the database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, ws Workspace) error
	Update(ctx context.Context, ws Workspace) error
	QueryByID(ctx context.Context, workspaceID uuid.UUID) (Workspace, error)
	QueryForUser(ctx context.Context, userID uuid.UUID) ([]Workspace, error)
}

// Core manages the set of APIs for workspace access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for workspace api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		storer: storer,
		log:    log,
	}
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, storer), nil
}

// Create adds a new workspace to the system.
func (c *Core) Create(ctx context.Context, nw NewWorkspace) (Workspace, error) {
	ctx, span := otel.AddSpan(ctx, "business.workspacebus.create")
	defer span.End()

	now := time.Now()

	ws := Workspace{
		ID:        uuid.New(),
		Name:      nw.Name,
		PlanID:    nw.PlanID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, ws); err != nil {
		return Workspace{}, fmt.Errorf("create: %w", err)
	}

	return ws, nil
}

// Update modifies data about a workspace.
func (c *Core) Update(ctx context.Context, ws Workspace, uw UpdateWorkspace) (Workspace, error) {
	ctx, span := otel.AddSpan(ctx, "business.workspacebus.update")
	defer span.End()

	if uw.Name != nil {
		ws.Name = *uw.Name
	}

	if uw.PlanID != nil {
		ws.PlanID = uw.PlanID
	}

	ws.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, ws); err != nil {
		return Workspace{}, fmt.Errorf("update: %w", err)
	}

	return ws, nil
}

// Delete soft-deletes the specified workspace. The rows stay around for the
// recovery window.
func (c *Core) Delete(ctx context.Context, ws Workspace) error {
	ctx, span := otel.AddSpan(ctx, "business.workspacebus.delete")
	defer span.End()

	now := time.Now()
	ws.DeletedAt = &now
	ws.UpdatedAt = now

	if err := c.storer.Update(ctx, ws); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Restore clears the soft-delete marker on a workspace.
func (c *Core) Restore(ctx context.Context, ws Workspace) (Workspace, error) {
	ctx, span := otel.AddSpan(ctx, "business.workspacebus.restore")
	defer span.End()

	ws.DeletedAt = nil
	ws.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, ws); err != nil {
		return Workspace{}, fmt.Errorf("restore: %w", err)
	}

	return ws, nil
}

// QueryByID finds the workspace by the specified ID. Soft-deleted workspaces
// come back as ErrDeleted so callers can distinguish them from missing rows.
func (c *Core) QueryByID(ctx context.Context, workspaceID uuid.UUID) (Workspace, error) {
	ctx, span := otel.AddSpan(ctx, "business.workspacebus.queryByID")
	defer span.End()

	ws, err := c.storer.QueryByID(ctx, workspaceID)
	if err != nil {
		return Workspace{}, fmt.Errorf("query: workspaceID[%s]: %w", workspaceID, err)
	}

	if ws.DeletedAt != nil {
		return Workspace{}, ErrDeleted
	}

	return ws, nil
}

// QueryForUser retrieves the workspaces the user can operate against: their
// home tenant plus every workspace they hold a membership row for.
func (c *Core) QueryForUser(ctx context.Context, userID uuid.UUID) ([]Workspace, error) {
	ctx, span := otel.AddSpan(ctx, "business.workspacebus.queryForUser")
	defer span.End()

	wss, err := c.storer.QueryForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("queryForUser[%s]: %w", userID, err)
	}

	return wss, nil
}
