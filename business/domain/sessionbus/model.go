package sessionbus

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one issued refresh token in the ledger, keyed by the
// full signed token value. Deleting or revoking the row invalidates the
// token for rotation even while its signature is still valid.
type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// NewSession contains information needed to record a freshly issued refresh
// token.
type NewSession struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}
