package invitebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/types/role"
)

// Set of invitation statuses. Pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"
)

// Invitation represents an offer of workspace membership extended to an
// email address.
type Invitation struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Email       string
	Role        role.Role
	Token       string
	Status      string
	InvitedBy   uuid.UUID
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInvitation contains information needed to create a new invitation.
type NewInvitation struct {
	WorkspaceID uuid.UUID
	Email       string
	Role        role.Role
	InvitedBy   uuid.UUID
}
