package invitedb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/types/role"
)

type invitation struct {
	ID          uuid.UUID `db:"invitation_id"`
	WorkspaceID uuid.UUID `db:"workspace_id"`
	Email       string    `db:"email"`
	Role        string    `db:"role"`
	Token       string    `db:"token"`
	Status      string    `db:"status"`
	InvitedBy   uuid.UUID `db:"invited_by"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toDBInvitation(bus invitebus.Invitation) invitation {
	return invitation{
		ID:          bus.ID,
		WorkspaceID: bus.WorkspaceID,
		Email:       bus.Email,
		Role:        bus.Role.String(),
		Token:       bus.Token,
		Status:      bus.Status,
		InvitedBy:   bus.InvitedBy,
		ExpiresAt:   bus.ExpiresAt.UTC(),
		CreatedAt:   bus.CreatedAt.UTC(),
		UpdatedAt:   bus.UpdatedAt.UTC(),
	}
}

func toBusInvitation(db invitation) (invitebus.Invitation, error) {
	rle, err := role.Parse(db.Role)
	if err != nil {
		return invitebus.Invitation{}, fmt.Errorf("parse role: %w", err)
	}

	bus := invitebus.Invitation{
		ID:          db.ID,
		WorkspaceID: db.WorkspaceID,
		Email:       db.Email,
		Role:        rle,
		Token:       db.Token,
		Status:      db.Status,
		InvitedBy:   db.InvitedBy,
		ExpiresAt:   db.ExpiresAt.In(time.Local),
		CreatedAt:   db.CreatedAt.In(time.Local),
		UpdatedAt:   db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusInvitations(dbs []invitation) ([]invitebus.Invitation, error) {
	bus := make([]invitebus.Invitation, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusInvitation(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
