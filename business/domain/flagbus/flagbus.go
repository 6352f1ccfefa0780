// Package flagbus provides business access to feature flags.
package flagbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/foundation/otel"
)

// MultiWorkspace is the flag gating multi-workspace support. Without it every
// request is scoped to the caller's home tenant.
const MultiWorkspace = "multi_workspace_enabled"

var ErrNotFound = errors.New("flag not found")

// Storer defines the behavior required by the flagbus to interact with the
// database.
type Storer interface {
	Upsert(ctx context.Context, flag Flag) error
	QueryByKey(ctx context.Context, key string, tenantID uuid.UUID) (Flag, error)
	QueryGlobal(ctx context.Context, key string) (Flag, error)
}

// Core manages the set of APIs for feature flag access.
type Core struct {
	storer Storer
}

// NewCore constructs a core for feature flag api access.
func NewCore(storer Storer) *Core {
	return &Core{
		storer: storer,
	}
}

// IsEnabled resolves the flag for the specified tenant. A tenant-scoped row
// wins over the global row; absence of both means disabled.
func (c *Core) IsEnabled(ctx context.Context, key string, tenantID uuid.UUID) (bool, error) {
	ctx, span := otel.AddSpan(ctx, "business.flagbus.isEnabled")
	defer span.End()

	flag, err := c.storer.QueryByKey(ctx, key, tenantID)
	if err == nil {
		return flag.Enabled, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("query: key[%s] tenant[%s]: %w", key, tenantID, err)
	}

	flag, err = c.storer.QueryGlobal(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("query global: key[%s]: %w", key, err)
	}

	return flag.Enabled, nil
}

// Set upserts a flag row. A nil tenantID writes the global default.
func (c *Core) Set(ctx context.Context, key string, tenantID *uuid.UUID, enabled bool) error {
	ctx, span := otel.AddSpan(ctx, "business.flagbus.set")
	defer span.End()

	flag := Flag{
		Key:       key,
		TenantID:  tenantID,
		Enabled:   enabled,
		UpdatedAt: time.Now(),
	}

	if err := c.storer.Upsert(ctx, flag); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	return nil
}
