// Package sessionbus provides business access to the refresh token ledger.
// A refresh token is only honored while its ledger entry exists, is not
// revoked, and has not expired.
package sessionbus

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

// Set of error variables for CRUD operations.
var (
	ErrNotFound = errors.New("session not found")
	ErrRevoked  = errors.New("session revoked")
	ErrExpired  = errors.New("session expired")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, ses Session) error
	QueryByToken(ctx context.Context, token string) (Session, error)
	Revoke(ctx context.Context, token string, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error
}

// Core manages the set of APIs for session access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs a session core for api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
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
		log:    c.log,
		storer: storer,
	}

	return &core, nil
}

// Create records a freshly issued refresh token in the ledger.
func (c *Core) Create(ctx context.Context, ns NewSession) (Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.create")
	defer span.End()

	ses := Session{
		Token:     ns.Token,
		UserID:    ns.UserID,
		ExpiresAt: ns.ExpiresAt,
		CreatedAt: time.Now(),
	}

	if err := c.storer.Create(ctx, ses); err != nil {
		return Session{}, fmt.Errorf("create: %w", err)
	}

	return ses, nil
}

// Validate checks the ledger entry for the specified refresh token and
// returns it when the token is still honored.
func (c *Core) Validate(ctx context.Context, token string) (Session, error) {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.validate")
	defer span.End()

	ses, err := c.storer.QueryByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("query: %w", err)
	}

	if ses.RevokedAt != nil {
		return Session{}, ErrRevoked
	}

	if time.Now().After(ses.ExpiresAt) {
		return Session{}, ErrExpired
	}

	return ses, nil
}

// Revoke marks a single refresh token as no longer honored. Revoking a
// token that is already revoked or unknown is not an error.
func (c *Core) Revoke(ctx context.Context, token string) error {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.revoke")
	defer span.End()

	if err := c.storer.Revoke(ctx, token, time.Now()); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	return nil
}

// RevokeAllForUser marks every live refresh token belonging to the user as
// revoked. Used on logout-everywhere and when a member is removed from a
// workspace.
func (c *Core) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.sessionbus.revokeallforuser")
	defer span.End()

	if err := c.storer.RevokeAllForUser(ctx, userID, time.Now()); err != nil {
		return fmt.Errorf("revokeall: userID[%s]: %w", userID, err)
	}

	return nil
}
