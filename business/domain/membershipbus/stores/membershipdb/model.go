package membershipdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/types/role"
)

type membership struct {
	WorkspaceID    uuid.UUID      `db:"workspace_id"`
	UserID         uuid.UUID      `db:"user_id"`
	Role           string         `db:"role"`
	IsPrimary      bool           `db:"is_primary"`
	InvitedBy      sql.NullString `db:"invited_by"`
	JoinedAt       time.Time      `db:"joined_at"`
	LastAccessedAt sql.NullTime   `db:"last_accessed_at"`
}

func toDBMembership(bus membershipbus.Membership) membership {
	db := membership{
		WorkspaceID: bus.WorkspaceID,
		UserID:      bus.UserID,
		Role:        bus.Role.String(),
		IsPrimary:   bus.IsPrimary,
		JoinedAt:    bus.JoinedAt.UTC(),
	}

	if bus.InvitedBy != nil {
		db.InvitedBy = sql.NullString{String: bus.InvitedBy.String(), Valid: true}
	}

	if bus.LastAccessedAt != nil {
		db.LastAccessedAt = sql.NullTime{Time: bus.LastAccessedAt.UTC(), Valid: true}
	}

	return db
}

func toBusMembership(db membership) (membershipbus.Membership, error) {
	rle, err := role.Parse(db.Role)
	if err != nil {
		return membershipbus.Membership{}, fmt.Errorf("parse role: %w", err)
	}

	bus := membershipbus.Membership{
		WorkspaceID: db.WorkspaceID,
		UserID:      db.UserID,
		Role:        rle,
		IsPrimary:   db.IsPrimary,
		JoinedAt:    db.JoinedAt.In(time.Local),
	}

	if db.InvitedBy.Valid {
		id, err := uuid.Parse(db.InvitedBy.String)
		if err != nil {
			return membershipbus.Membership{}, fmt.Errorf("parse invited_by: %w", err)
		}
		bus.InvitedBy = &id
	}

	if db.LastAccessedAt.Valid {
		t := db.LastAccessedAt.Time.In(time.Local)
		bus.LastAccessedAt = &t
	}

	return bus, nil
}

func toBusMemberships(dbs []membership) ([]membershipbus.Membership, error) {
	bus := make([]membershipbus.Membership, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusMembership(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
