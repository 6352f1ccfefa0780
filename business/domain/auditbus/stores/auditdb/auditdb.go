// Package auditdb contains audit entry persistence.
package auditdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for audit database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (auditbus.Storer, error) {
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

type entry struct {
	ID           uuid.UUID      `db:"audit_id"`
	ActorID      sql.NullString `db:"actor_id"`
	TenantID     uuid.UUID      `db:"tenant_id"`
	Action       string         `db:"action"`
	Severity     string         `db:"severity"`
	ResourceType string         `db:"resource_type"`
	ResourceID   string         `db:"resource_id"`
	IP           string         `db:"ip"`
	UserAgent    string         `db:"user_agent"`
	Success      bool           `db:"success"`
	Details      string         `db:"details"`
	CreatedAt    time.Time      `db:"created_at"`
}

func toDBEntry(bus auditbus.Entry) entry {
	db := entry{
		ID:           bus.ID,
		TenantID:     bus.TenantID,
		Action:       bus.Action,
		Severity:     bus.Severity,
		ResourceType: bus.ResourceType,
		ResourceID:   bus.ResourceID,
		IP:           bus.IP,
		UserAgent:    bus.UserAgent,
		Success:      bus.Success,
		Details:      bus.Details,
		CreatedAt:    bus.CreatedAt.UTC(),
	}

	if bus.ActorID != nil {
		db.ActorID = sql.NullString{String: bus.ActorID.String(), Valid: true}
	}

	return db
}

func toBusEntry(db entry) (auditbus.Entry, error) {
	bus := auditbus.Entry{
		ID:           db.ID,
		TenantID:     db.TenantID,
		Action:       db.Action,
		Severity:     db.Severity,
		ResourceType: db.ResourceType,
		ResourceID:   db.ResourceID,
		IP:           db.IP,
		UserAgent:    db.UserAgent,
		Success:      db.Success,
		Details:      db.Details,
		CreatedAt:    db.CreatedAt.In(time.Local),
	}

	if db.ActorID.Valid {
		id, err := uuid.Parse(db.ActorID.String)
		if err != nil {
			return auditbus.Entry{}, fmt.Errorf("parse actor_id: %w", err)
		}
		bus.ActorID = &id
	}

	return bus, nil
}

// Create appends an audit entry row.
func (s *Store) Create(ctx context.Context, ent auditbus.Entry) error {
	const q = `
	INSERT INTO "public"."audit_log"
		(audit_id, actor_id, tenant_id, action, severity, resource_type, resource_id, ip, user_agent, success, details, created_at)
	VALUES
		(:audit_id, :actor_id, :tenant_id, :action, :severity, :resource_type, :resource_id, :ip, :user_agent, :success, :details, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBEntry(ent)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByTenant retrieves the most recent audit entries for a tenant.
func (s *Store) QueryByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]auditbus.Entry, error) {
	data := struct {
		TenantID string `db:"tenant_id"`
		Limit    int    `db:"limit"`
	}{
		TenantID: tenantID.String(),
		Limit:    limit,
	}

	const q = `
	SELECT
		audit_id, actor_id, tenant_id, action, severity, resource_type, resource_id, ip, user_agent, success, details, created_at
	FROM
		"public"."audit_log"
	WHERE
		tenant_id = :tenant_id
	ORDER BY
		created_at DESC
	LIMIT :limit`

	var dbs []entry
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	bus := make([]auditbus.Entry, len(dbs))
	for i, db := range dbs {
		var err error
		bus[i], err = toBusEntry(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
