// Package loginbus provides business access to the login guard. It records
// login attempts and enforces a temporary lockout once an email accumulates
// too many failures inside a rolling window.
package loginbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
	"github.com/workden/workden/foundation/otel"
)

// Lockout policy. The window is a rolling lookback over raw attempt rows,
// recomputed on every check.
const (
	MaxFailures = 5
	Window      = 15 * time.Minute
)

// ErrLocked is returned when an email has hit the failure limit inside the
// window.
var ErrLocked = errors.New("account temporarily locked")

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, att Attempt) error
	FailedCountSince(ctx context.Context, email string, since time.Time) (int, error)
}

// Core manages the set of APIs for login guard access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs a login guard core for api access.
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

// RecordAttempt appends a login attempt. It is best-effort: a storage
// failure is logged and swallowed so it can never block or fail the login
// response it documents.
func (c *Core) RecordAttempt(ctx context.Context, na NewAttempt) {
	ctx, span := otel.AddSpan(ctx, "business.loginbus.recordattempt")
	defer span.End()

	att := Attempt{
		Email:         strings.ToLower(na.Email),
		IP:            na.IP,
		UserAgent:     na.UserAgent,
		Success:       na.Success,
		FailureReason: na.FailureReason,
		CreatedAt:     time.Now(),
	}

	if err := c.storer.Create(ctx, att); err != nil {
		c.log.Error(ctx, "loginbus: record attempt", "email", att.Email, "err", err)
	}
}

// FailedCountInWindow returns the number of failed attempts for the email
// inside the trailing window.
func (c *Core) FailedCountInWindow(ctx context.Context, email string) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.loginbus.failedcountinwindow")
	defer span.End()

	count, err := c.storer.FailedCountSince(ctx, strings.ToLower(email), time.Now().Add(-Window))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return count, nil
}

// CheckLockout rejects the login with ErrLocked when the email has reached
// the failure limit inside the window. Call this before touching the
// password hash.
func (c *Core) CheckLockout(ctx context.Context, email string) error {
	count, err := c.FailedCountInWindow(ctx, email)
	if err != nil {
		return err
	}

	if count >= MaxFailures {
		return ErrLocked
	}

	return nil
}
