package sessiondb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/sessionbus"
)

type session struct {
	Token     string       `db:"token"`
	UserID    uuid.UUID    `db:"user_id"`
	ExpiresAt time.Time    `db:"expires_at"`
	CreatedAt time.Time    `db:"created_at"`
	RevokedAt sql.NullTime `db:"revoked_at"`
}

func toDBSession(bus sessionbus.Session) session {
	db := session{
		Token:     bus.Token,
		UserID:    bus.UserID,
		ExpiresAt: bus.ExpiresAt.UTC(),
		CreatedAt: bus.CreatedAt.UTC(),
	}

	if bus.RevokedAt != nil {
		db.RevokedAt = sql.NullTime{Time: bus.RevokedAt.UTC(), Valid: true}
	}

	return db
}

func toBusSession(db session) sessionbus.Session {
	bus := sessionbus.Session{
		Token:     db.Token,
		UserID:    db.UserID,
		ExpiresAt: db.ExpiresAt.In(time.Local),
		CreatedAt: db.CreatedAt.In(time.Local),
	}

	if db.RevokedAt.Valid {
		t := db.RevokedAt.Time.In(time.Local)
		bus.RevokedAt = &t
	}

	return bus
}
