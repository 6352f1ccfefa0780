package flagdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/flagbus"
)

type flagDB struct {
	Key       string         `db:"key"`
	TenantID  sql.NullString `db:"tenant_id"`
	Enabled   bool           `db:"enabled"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toDBFlag(bus flagbus.Flag) flagDB {
	db := flagDB{
		Key:       bus.Key,
		Enabled:   bus.Enabled,
		UpdatedAt: bus.UpdatedAt.UTC(),
	}

	if bus.TenantID != nil {
		db.TenantID = sql.NullString{String: bus.TenantID.String(), Valid: true}
	}

	return db
}

func toBusFlag(db flagDB) (flagbus.Flag, error) {
	bus := flagbus.Flag{
		Key:       db.Key,
		Enabled:   db.Enabled,
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}

	if db.TenantID.Valid {
		id, err := uuid.Parse(db.TenantID.String)
		if err != nil {
			return flagbus.Flag{}, fmt.Errorf("parse tenant id: %w", err)
		}
		bus.TenantID = &id
	}

	return bus, nil
}
