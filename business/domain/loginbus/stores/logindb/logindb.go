// Package logindb contains login attempt related persistence.
package logindb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/loginbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for login attempt database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (loginbus.Storer, error) {
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

type attempt struct {
	Email         string    `db:"email"`
	IP            string    `db:"ip"`
	UserAgent     string    `db:"user_agent"`
	Success       bool      `db:"success"`
	FailureReason string    `db:"failure_reason"`
	CreatedAt     time.Time `db:"created_at"`
}

// Create appends a login attempt row.
func (s *Store) Create(ctx context.Context, att loginbus.Attempt) error {
	db := attempt{
		Email:         att.Email,
		IP:            att.IP,
		UserAgent:     att.UserAgent,
		Success:       att.Success,
		FailureReason: att.FailureReason,
		CreatedAt:     att.CreatedAt.UTC(),
	}

	const q = `
	INSERT INTO "public"."login_attempts"
		(email, ip, user_agent, success, failure_reason, created_at)
	VALUES
		(:email, :ip, :user_agent, :success, :failure_reason, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, db); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// FailedCountSince counts failed attempts for the email newer than the
// specified time.
func (s *Store) FailedCountSince(ctx context.Context, email string, since time.Time) (int, error) {
	data := struct {
		Email string    `db:"email"`
		Since time.Time `db:"since"`
	}{
		Email: email,
		Since: since.UTC(),
	}

	const q = `
	SELECT
		COUNT(1) AS count
	FROM
		"public"."login_attempts"
	WHERE
		email = :email AND success = false AND created_at > :since`

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &count); err != nil {
		return 0, fmt.Errorf("namedquerystruct: %w", err)
	}

	return count.Count, nil
}
