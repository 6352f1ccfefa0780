// Package auditbus provides a best-effort append-only record of security
// relevant events. Recording must never abort the operation it documents.
package auditbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
	"github.com/workden/workden/foundation/otel"
)

// Storer interface declares the behavior this package needs to persist
// data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, ent Entry) error
	QueryByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error)
}

// Core manages the set of APIs for audit access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs an audit core for api access.
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

// Record appends an audit entry. A storage failure is logged and swallowed
// so the primary operation is never aborted by its own paper trail.
func (c *Core) Record(ctx context.Context, ne NewEntry) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.record")
	defer span.End()

	ent := Entry{
		ID:           uuid.New(),
		ActorID:      ne.ActorID,
		TenantID:     ne.TenantID,
		Action:       ne.Action,
		Severity:     ne.Severity,
		ResourceType: ne.ResourceType,
		ResourceID:   ne.ResourceID,
		IP:           ne.IP,
		UserAgent:    ne.UserAgent,
		Success:      ne.Success,
		Details:      ne.Details,
		CreatedAt:    time.Now(),
	}

	if ent.Severity == "" {
		ent.Severity = SeverityInfo
	}

	if err := c.storer.Create(ctx, ent); err != nil {
		c.log.Error(ctx, "auditbus: record", "action", ent.Action, "err", err)
	}
}

// QueryByTenant retrieves the most recent audit entries for a tenant.
func (c *Core) QueryByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.querybytenant")
	defer span.End()

	return c.storer.QueryByTenant(ctx, tenantID, limit)
}
