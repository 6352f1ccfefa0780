// Package membershipbus provides business access to workspace membership and
// the per-request workspace context resolution rules.
package membershipbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/types/role"
	"github.com/workden/workden/foundation/logger"
	"github.com/workden/workden/foundation/otel"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound     = errors.New("membership not found")
	ErrAccessDenied = errors.New("workspace access denied")
	ErrInsufficient = errors.New("insufficient workspace role")
	ErrUnique       = errors.New("membership already exists")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, mbr Membership) error
	Delete(ctx context.Context, mbr Membership) error
	Update(ctx context.Context, mbr Membership) error
	QueryOne(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID) (Membership, error)
	QueryByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
	QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Membership, error)
	QueryMostRecent(ctx context.Context, userID uuid.UUID) (Membership, error)
	TouchLastAccessed(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID, now time.Time) error
}

// Core manages the set of APIs for membership access.
type Core struct {
	log     *logger.Logger
	storer  Storer
	flagBus *flagbus.Core
}

// NewCore constructs a membership core for api access.
func NewCore(log *logger.Logger, flagBus *flagbus.Core, storer Storer) *Core {
	return &Core{
		log:     log,
		storer:  storer,
		flagBus: flagBus,
	}
}

// NewWithTx constructs a new core value that will use the specified
// transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	core := Core{
		log:     c.log,
		storer:  storer,
		flagBus: c.flagBus,
	}

	return &core, nil
}

// Create adds a new membership to the system.
func (c *Core) Create(ctx context.Context, nm NewMembership) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.create")
	defer span.End()

	now := time.Now()

	mbr := Membership{
		WorkspaceID: nm.WorkspaceID,
		UserID:      nm.UserID,
		Role:        nm.Role,
		IsPrimary:   nm.IsPrimary,
		InvitedBy:   nm.InvitedBy,
		JoinedAt:    now,
	}

	if err := c.storer.Create(ctx, mbr); err != nil {
		return Membership{}, fmt.Errorf("create: %w", err)
	}

	return mbr, nil
}

// Remove deletes the specified membership. Session revocation for the removed
// member is orchestrated by the caller.
func (c *Core) Remove(ctx context.Context, mbr Membership) error {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.remove")
	defer span.End()

	if err := c.storer.Delete(ctx, mbr); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// UpdateRole changes the role on an existing membership.
func (c *Core) UpdateRole(ctx context.Context, mbr Membership, rle role.Role) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.updaterole")
	defer span.End()

	mbr.Role = rle

	if err := c.storer.Update(ctx, mbr); err != nil {
		return Membership{}, fmt.Errorf("update: %w", err)
	}

	return mbr, nil
}

// QueryMembership retrieves the membership a user holds in the specified
// workspace.
func (c *Core) QueryMembership(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.querymembership")
	defer span.End()

	mbr, err := c.storer.QueryOne(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, fmt.Errorf("query: userID[%s] workspaceID[%s]: %w", userID, workspaceID, err)
	}

	return mbr, nil
}

// QueryByUser retrieves all memberships held by the specified user.
func (c *Core) QueryByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.querybyuser")
	defer span.End()

	mbrs, err := c.storer.QueryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	return mbrs, nil
}

// QueryByWorkspace retrieves all memberships of the specified workspace.
func (c *Core) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.querybyworkspace")
	defer span.End()

	mbrs, err := c.storer.QueryByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query: workspaceID[%s]: %w", workspaceID, err)
	}

	return mbrs, nil
}

// RoleIn returns the effective role the user holds in the specified
// workspace. In the home tenant the role is implicit: owner for tenant admins
// and member for everyone else. Anywhere else the stored membership row is
// the only source of truth.
func (c *Core) RoleIn(ctx context.Context, userID uuid.UUID, homeTenantID uuid.UUID, isAdmin bool, workspaceID uuid.UUID) (role.Role, error) {
	if workspaceID == homeTenantID {
		if isAdmin {
			return role.Owner, nil
		}
		return role.Member, nil
	}

	mbr, err := c.storer.QueryOne(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return role.Role{}, ErrAccessDenied
		}
		return role.Role{}, fmt.Errorf("query: %w", err)
	}

	return mbr.Role, nil
}

// RequireRole checks the user holds at least the specified role in the
// workspace.
func (c *Core) RequireRole(ctx context.Context, userID uuid.UUID, homeTenantID uuid.UUID, isAdmin bool, workspaceID uuid.UUID, min role.Role) error {
	rle, err := c.RoleIn(ctx, userID, homeTenantID, isAdmin, workspaceID)
	if err != nil {
		return err
	}

	if !rle.AtLeast(min) {
		return ErrInsufficient
	}

	return nil
}

// Resolve determines the workspace scope for a request carrying the
// specified workspace claim. With multi-workspace disabled every request is
// scoped to the home tenant regardless of the claim. With it enabled the
// claim wins when present, falling back to the home tenant.
func (c *Core) Resolve(ctx context.Context, homeTenantID uuid.UUID, claimed uuid.UUID) (Resolution, error) {
	enabled, err := c.flagBus.IsEnabled(ctx, flagbus.MultiWorkspace, homeTenantID)
	if err != nil {
		return Resolution{}, fmt.Errorf("flag: %w", err)
	}

	if !enabled {
		return Resolution{WorkspaceID: homeTenantID}, nil
	}

	if claimed == uuid.Nil {
		return Resolution{WorkspaceID: homeTenantID, MultiWorkspace: true}, nil
	}

	return Resolution{WorkspaceID: claimed, MultiWorkspace: true}, nil
}

// SelectAtLogin picks the active workspace for a fresh login. With
// multi-workspace enabled and at least one membership, the most recently
// accessed workspace wins. Otherwise the home tenant is the active scope and
// no workspace claim is issued.
func (c *Core) SelectAtLogin(ctx context.Context, userID uuid.UUID, homeTenantID uuid.UUID) (Resolution, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.selectatlogin")
	defer span.End()

	enabled, err := c.flagBus.IsEnabled(ctx, flagbus.MultiWorkspace, homeTenantID)
	if err != nil {
		return Resolution{}, fmt.Errorf("flag: %w", err)
	}

	if !enabled {
		return Resolution{WorkspaceID: homeTenantID}, nil
	}

	mbr, err := c.storer.QueryMostRecent(ctx, userID)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Resolution{WorkspaceID: homeTenantID, MultiWorkspace: true}, nil
		}
		return Resolution{}, fmt.Errorf("query: %w", err)
	}

	return Resolution{WorkspaceID: mbr.WorkspaceID, MultiWorkspace: true}, nil
}

// ValidateAtRefresh re-validates a workspace claim carried by a refresh
// token. A claim the user no longer has access to is dropped silently and
// the scope falls back to the home tenant.
func (c *Core) ValidateAtRefresh(ctx context.Context, userID uuid.UUID, homeTenantID uuid.UUID, claimed uuid.UUID) (Resolution, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.validateatrefresh")
	defer span.End()

	res, err := c.Resolve(ctx, homeTenantID, claimed)
	if err != nil {
		return Resolution{}, err
	}

	if !res.MultiWorkspace || res.WorkspaceID == homeTenantID {
		return res, nil
	}

	if _, err := c.storer.QueryOne(ctx, userID, res.WorkspaceID); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Resolution{WorkspaceID: homeTenantID, MultiWorkspace: true}, nil
		}
		return Resolution{}, fmt.Errorf("query: %w", err)
	}

	return res, nil
}

// Switch moves the user's active scope to the specified workspace. The
// target must be the home tenant or a workspace the user is a member of, and
// multi-workspace must be enabled for anything beyond the home tenant.
func (c *Core) Switch(ctx context.Context, userID uuid.UUID, homeTenantID uuid.UUID, workspaceID uuid.UUID) (Resolution, error) {
	ctx, span := otel.AddSpan(ctx, "business.membershipbus.switch")
	defer span.End()

	if workspaceID == homeTenantID {
		return Resolution{WorkspaceID: homeTenantID}, nil
	}

	enabled, err := c.flagBus.IsEnabled(ctx, flagbus.MultiWorkspace, homeTenantID)
	if err != nil {
		return Resolution{}, fmt.Errorf("flag: %w", err)
	}

	if !enabled {
		return Resolution{}, ErrAccessDenied
	}

	if _, err := c.storer.QueryOne(ctx, userID, workspaceID); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Resolution{}, ErrAccessDenied
		}
		return Resolution{}, fmt.Errorf("query: %w", err)
	}

	if err := c.storer.TouchLastAccessed(ctx, userID, workspaceID, time.Now()); err != nil {
		c.log.Error(ctx, "membership: touch last accessed", "err", err)
	}

	return Resolution{WorkspaceID: workspaceID, MultiWorkspace: true}, nil
}
