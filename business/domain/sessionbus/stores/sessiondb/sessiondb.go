// Package sessiondb contains refresh session related CRUD functionality.
package sessiondb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for session database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (sessionbus.Storer, error) {
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

// Create inserts a new session into the database.
func (s *Store) Create(ctx context.Context, ses sessionbus.Session) error {
	const q = `
	INSERT INTO "public"."refresh_sessions"
		(token, user_id, expires_at, created_at, revoked_at)
	VALUES
		(:token, :user_id, :expires_at, :created_at, :revoked_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBSession(ses)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByToken retrieves the session for the specified refresh token.
func (s *Store) QueryByToken(ctx context.Context, token string) (sessionbus.Session, error) {
	data := struct {
		Token string `db:"token"`
	}{
		Token: token,
	}

	const q = `
	SELECT
		token, user_id, expires_at, created_at, revoked_at
	FROM
		"public"."refresh_sessions"
	WHERE
		token = :token`

	var db session
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &db); err != nil {
		return sessionbus.Session{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toBusSession(db), nil
}

// Revoke marks a single session as revoked. Already revoked rows are left
// untouched so the original revocation time survives.
func (s *Store) Revoke(ctx context.Context, token string, now time.Time) error {
	data := struct {
		Token     string    `db:"token"`
		RevokedAt time.Time `db:"revoked_at"`
	}{
		Token:     token,
		RevokedAt: now.UTC(),
	}

	const q = `
	UPDATE
		"public"."refresh_sessions"
	SET
		revoked_at = :revoked_at
	WHERE
		token = :token AND revoked_at IS NULL`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// RevokeAllForUser marks every live session belonging to the user as
// revoked.
func (s *Store) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	data := struct {
		UserID    string    `db:"user_id"`
		RevokedAt time.Time `db:"revoked_at"`
	}{
		UserID:    userID.String(),
		RevokedAt: now.UTC(),
	}

	const q = `
	UPDATE
		"public"."refresh_sessions"
	SET
		revoked_at = :revoked_at
	WHERE
		user_id = :user_id AND revoked_at IS NULL`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}
