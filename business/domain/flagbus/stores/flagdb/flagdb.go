// Package flagdb contains feature flag related database access.
package flagdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

// Store manages the set of APIs for feature flag database access.
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

// Upsert writes the flag row, replacing any existing value for the same
// key/tenant pair.
func (s *Store) Upsert(ctx context.Context, flag flagbus.Flag) error {
	const q = `
	INSERT INTO "public"."feature_flag"
		(key, tenant_id, enabled, updated_at)
	VALUES
		(:key, :tenant_id, :enabled, :updated_at)
	ON CONFLICT (key, tenant_id) DO UPDATE SET
		enabled = EXCLUDED.enabled,
		updated_at = EXCLUDED.updated_at`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBFlag(flag)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByKey gets the tenant-scoped flag row.
func (s *Store) QueryByKey(ctx context.Context, key string, tenantID uuid.UUID) (flagbus.Flag, error) {
	data := struct {
		Key      string `db:"key"`
		TenantID string `db:"tenant_id"`
	}{
		Key:      key,
		TenantID: tenantID.String(),
	}

	const q = `
	SELECT
		key, tenant_id, enabled, updated_at
	FROM
		"public"."feature_flag"
	WHERE
		key = :key AND tenant_id = :tenant_id`

	var dbFlag flagDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbFlag); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return flagbus.Flag{}, flagbus.ErrNotFound
		}
		return flagbus.Flag{}, fmt.Errorf("db: %w", err)
	}

	return toBusFlag(dbFlag)
}

// QueryGlobal gets the global default row for the key.
func (s *Store) QueryGlobal(ctx context.Context, key string) (flagbus.Flag, error) {
	data := struct {
		Key string `db:"key"`
	}{
		Key: key,
	}

	const q = `
	SELECT
		key, tenant_id, enabled, updated_at
	FROM
		"public"."feature_flag"
	WHERE
		key = :key AND tenant_id IS NULL`

	var dbFlag flagDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbFlag); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return flagbus.Flag{}, flagbus.ErrNotFound
		}
		return flagbus.Flag{}, fmt.Errorf("db: %w", err)
	}

	return toBusFlag(dbFlag)
}
