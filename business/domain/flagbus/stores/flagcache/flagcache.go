// Package flagcache contains feature flag access with read-through caching.
// Flag lookups happen on every tenant-scoped request, so the rows are kept in
// memory for a short TTL.
package flagcache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viccon/sturdyc"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/foundation/logger"
)

// Store implements the flagbus.Storer interface with a read-through cache in
// front of the database store.
type Store struct {
	log    *logger.Logger
	storer flagbus.Storer
	cache  *sturdyc.Client[flagbus.Flag]
}

// NewStore constructs the cached store.
func NewStore(log *logger.Logger, storer flagbus.Storer, ttl time.Duration) *Store {
	const capacity = 1000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[flagbus.Flag](capacity, numShards, ttl, evictionPercentage),
	}
}

// Upsert writes the flag and refreshes the cache entry.
func (s *Store) Upsert(ctx context.Context, flag flagbus.Flag) error {
	if err := s.storer.Upsert(ctx, flag); err != nil {
		return err
	}

	s.cache.Set(cacheKey(flag.Key, flag.TenantID), flag)

	return nil
}

// QueryByKey gets the tenant-scoped flag row, serving from cache when fresh.
func (s *Store) QueryByKey(ctx context.Context, key string, tenantID uuid.UUID) (flagbus.Flag, error) {
	if flag, exists := s.cache.Get(cacheKey(key, &tenantID)); exists {
		return flag, nil
	}

	flag, err := s.storer.QueryByKey(ctx, key, tenantID)
	if err != nil {
		return flagbus.Flag{}, err
	}

	s.cache.Set(cacheKey(key, &tenantID), flag)

	return flag, nil
}

// QueryGlobal gets the global default row, serving from cache when fresh.
func (s *Store) QueryGlobal(ctx context.Context, key string) (flagbus.Flag, error) {
	if flag, exists := s.cache.Get(cacheKey(key, nil)); exists {
		return flag, nil
	}

	flag, err := s.storer.QueryGlobal(ctx, key)
	if err != nil {
		return flagbus.Flag{}, err
	}

	s.cache.Set(cacheKey(key, nil), flag)

	return flag, nil
}

func cacheKey(key string, tenantID *uuid.UUID) string {
	if tenantID == nil {
		return key + "/global"
	}
	return key + "/" + tenantID.String()
}
