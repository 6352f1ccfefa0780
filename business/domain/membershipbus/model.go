package membershipbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/types/role"
)

// Membership represents the relationship granting a user access to a
// workspace beyond their home tenant. A user has at most one membership row
// per workspace. The home-tenant relationship is implicit and never stored.
type Membership struct {
	WorkspaceID    uuid.UUID
	UserID         uuid.UUID
	Role           role.Role
	IsPrimary      bool
	InvitedBy      *uuid.UUID
	JoinedAt       time.Time
	LastAccessedAt *time.Time
}

// NewMembership contains information needed to create a new membership.
type NewMembership struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Role        role.Role
	IsPrimary   bool
	InvitedBy   *uuid.UUID
}

// Resolution carries the per-request workspace scope for an authenticated
// caller.
type Resolution struct {
	WorkspaceID    uuid.UUID
	MultiWorkspace bool
}
