package flagbus

import (
	"time"

	"github.com/google/uuid"
)

// Flag represents a feature flag. A nil TenantID makes the row the global
// default; a tenant-scoped row wins over the global one.
type Flag struct {
	Key       string
	TenantID  *uuid.UUID
	Enabled   bool
	UpdatedAt time.Time
}
