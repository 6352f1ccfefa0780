// Package invitebus provides business access to workspace invitations.
// Invitations move from pending into exactly one terminal state: accepted,
// declined, revoked, or expired.
package invitebus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
	"github.com/workden/workden/foundation/otel"
	"github.com/workden/workden/foundation/random"
)

// TTL is how long an invitation remains acceptable after issuance.
const TTL = 7 * 24 * time.Hour

// Set of error variables for invitation operations.
var (
	ErrNotFound = errors.New("invitation not found")
	ErrInvalid  = errors.New("invitation invalid")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, inv Invitation) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, now time.Time) error
	QueryByID(ctx context.Context, id uuid.UUID) (Invitation, error)
	QueryByToken(ctx context.Context, token string) (Invitation, error)
	QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Invitation, error)
}

// Core manages the set of APIs for invitation access.
type Core struct {
	log           *logger.Logger
	storer        Storer
	membershipBus *membershipbus.Core
}

// NewCore constructs an invitation core for api access.
func NewCore(log *logger.Logger, membershipBus *membershipbus.Core, storer Storer) *Core {
	return &Core{
		log:           log,
		storer:        storer,
		membershipBus: membershipBus,
	}
}

// NewWithTx constructs a new core value that will use the specified
// transaction in any store related calls.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	membershipBus, err := c.membershipBus.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	core := Core{
		log:           c.log,
		storer:        storer,
		membershipBus: membershipBus,
	}

	return &core, nil
}

// Create issues a new invitation with an unguessable token. Multiple
// pending invitations to the same email and workspace are permitted.
func (c *Core) Create(ctx context.Context, ni NewInvitation) (Invitation, error) {
	ctx, span := otel.AddSpan(ctx, "business.invitebus.create")
	defer span.End()

	token, err := random.Hex(random.DefaultByteLength)
	if err != nil {
		return Invitation{}, fmt.Errorf("token: %w", err)
	}

	now := time.Now()

	inv := Invitation{
		ID:          uuid.New(),
		WorkspaceID: ni.WorkspaceID,
		Email:       strings.ToLower(ni.Email),
		Role:        ni.Role,
		Token:       token,
		Status:      StatusPending,
		InvitedBy:   ni.InvitedBy,
		ExpiresAt:   now.Add(TTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.storer.Create(ctx, inv); err != nil {
		return Invitation{}, fmt.Errorf("create: %w", err)
	}

	return inv, nil
}

// Accept redeems the invitation for the specified user. Accepting an
// already accepted invitation is a no-op. An invitation past its expiry is
// flipped to expired and the accept fails. On first acceptance a membership
// is created with the invitation's role unless the user already holds one.
func (c *Core) Accept(ctx context.Context, token string, userID uuid.UUID) (Invitation, error) {
	ctx, span := otel.AddSpan(ctx, "business.invitebus.accept")
	defer span.End()

	inv, err := c.storer.QueryByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Invitation{}, ErrNotFound
		}
		return Invitation{}, fmt.Errorf("query: %w", err)
	}

	if inv.Status == StatusAccepted {
		return inv, nil
	}

	if inv.Status != StatusPending {
		return Invitation{}, ErrInvalid
	}

	now := time.Now()

	if now.After(inv.ExpiresAt) {
		if err := c.storer.UpdateStatus(ctx, inv.ID, StatusExpired, now); err != nil {
			c.log.Error(ctx, "invitebus: expire on accept", "inviteID", inv.ID, "err", err)
		}
		return Invitation{}, ErrInvalid
	}

	if _, err := c.membershipBus.QueryMembership(ctx, userID, inv.WorkspaceID); err != nil {
		if !errors.Is(err, membershipbus.ErrNotFound) {
			return Invitation{}, fmt.Errorf("membership: %w", err)
		}

		nm := membershipbus.NewMembership{
			WorkspaceID: inv.WorkspaceID,
			UserID:      userID,
			Role:        inv.Role,
			IsPrimary:   false,
			InvitedBy:   &inv.InvitedBy,
		}

		if _, err := c.membershipBus.Create(ctx, nm); err != nil {
			return Invitation{}, fmt.Errorf("membership: %w", err)
		}
	}

	if err := c.storer.UpdateStatus(ctx, inv.ID, StatusAccepted, now); err != nil {
		return Invitation{}, fmt.Errorf("update: %w", err)
	}

	inv.Status = StatusAccepted
	inv.UpdatedAt = now

	return inv, nil
}

// Decline transitions a pending invitation to declined.
func (c *Core) Decline(ctx context.Context, token string) (Invitation, error) {
	ctx, span := otel.AddSpan(ctx, "business.invitebus.decline")
	defer span.End()

	inv, err := c.storer.QueryByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Invitation{}, ErrNotFound
		}
		return Invitation{}, fmt.Errorf("query: %w", err)
	}

	if inv.Status != StatusPending {
		return Invitation{}, ErrInvalid
	}

	now := time.Now()

	if now.After(inv.ExpiresAt) {
		if err := c.storer.UpdateStatus(ctx, inv.ID, StatusExpired, now); err != nil {
			c.log.Error(ctx, "invitebus: expire on decline", "inviteID", inv.ID, "err", err)
		}
		return Invitation{}, ErrInvalid
	}

	if err := c.storer.UpdateStatus(ctx, inv.ID, StatusDeclined, now); err != nil {
		return Invitation{}, fmt.Errorf("update: %w", err)
	}

	inv.Status = StatusDeclined
	inv.UpdatedAt = now

	return inv, nil
}

// Revoke transitions a pending invitation to revoked regardless of expiry.
// The invitation must belong to the specified workspace; an id from another
// workspace reads as not found so revoke cannot reach across tenants.
func (c *Core) Revoke(ctx context.Context, workspaceID uuid.UUID, id uuid.UUID) (Invitation, error) {
	ctx, span := otel.AddSpan(ctx, "business.invitebus.revoke")
	defer span.End()

	inv, err := c.storer.QueryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Invitation{}, ErrNotFound
		}
		return Invitation{}, fmt.Errorf("query: %w", err)
	}

	if inv.WorkspaceID != workspaceID {
		return Invitation{}, ErrNotFound
	}

	if inv.Status != StatusPending {
		return Invitation{}, ErrInvalid
	}

	now := time.Now()

	if err := c.storer.UpdateStatus(ctx, inv.ID, StatusRevoked, now); err != nil {
		return Invitation{}, fmt.Errorf("update: %w", err)
	}

	inv.Status = StatusRevoked
	inv.UpdatedAt = now

	return inv, nil
}

// QueryByWorkspace retrieves the invitations for a workspace. Pending
// invitations past their expiry are reported as expired and lazily flipped
// in the store.
func (c *Core) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Invitation, error) {
	ctx, span := otel.AddSpan(ctx, "business.invitebus.querybyworkspace")
	defer span.End()

	invs, err := c.storer.QueryByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query: workspaceID[%s]: %w", workspaceID, err)
	}

	now := time.Now()

	for i, inv := range invs {
		if inv.Status == StatusPending && now.After(inv.ExpiresAt) {
			if err := c.storer.UpdateStatus(ctx, inv.ID, StatusExpired, now); err != nil {
				c.log.Error(ctx, "invitebus: lazy expire", "inviteID", inv.ID, "err", err)
			}
			invs[i].Status = StatusExpired
			invs[i].UpdatedAt = now
		}
	}

	return invs, nil
}
