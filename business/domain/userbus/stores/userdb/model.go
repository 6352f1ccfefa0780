package userdb

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/types/name"
	"github.com/workden/workden/business/types/usertype"
)

type userDB struct {
	ID           uuid.UUID `db:"user_id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Type         string    `db:"user_type"`
	PasswordHash []byte    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	Enabled      bool      `db:"enabled"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func toDBUser(bus userbus.User) userDB {
	return userDB{
		ID:           bus.ID,
		TenantID:     bus.TenantID,
		Name:         bus.Name.String(),
		Email:        bus.Email.Address,
		Type:         bus.Type.String(),
		PasswordHash: bus.PasswordHash,
		IsAdmin:      bus.IsAdmin,
		Enabled:      bus.Enabled,
		CreatedAt:    bus.CreatedAt.UTC(),
		UpdatedAt:    bus.UpdatedAt.UTC(),
	}
}

func toBusUser(db userDB) (userbus.User, error) {
	addr := mail.Address{
		Address: db.Email,
	}

	ut, err := usertype.Parse(db.Type)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse type: %w", err)
	}

	nme, err := name.Parse(db.Name)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse name: %w", err)
	}

	bus := userbus.User{
		ID:           db.ID,
		TenantID:     db.TenantID,
		Name:         nme,
		Email:        addr,
		Type:         ut,
		PasswordHash: db.PasswordHash,
		IsAdmin:      db.IsAdmin,
		Enabled:      db.Enabled,
		CreatedAt:    db.CreatedAt.In(time.Local),
		UpdatedAt:    db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusUsers(dbs []userDB) ([]userbus.User, error) {
	bus := make([]userbus.User, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusUser(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
