package auditbus

import (
	"time"

	"github.com/google/uuid"
)

// Set of audit actions recorded by the system.
const (
	ActionLoginSuccess       = "login_success"
	ActionLoginFailed        = "login_failed"
	ActionLoginLocked        = "login_locked"
	ActionLogout             = "logout"
	ActionTokenRefreshed     = "token_refreshed"
	ActionUserRegistered     = "user_registered"
	ActionWorkspaceSwitched  = "workspace_switched"
	ActionWorkspaceCreated   = "workspace_created"
	ActionMemberRemoved      = "member_removed"
	ActionInvitationCreated  = "invitation_created"
	ActionInvitationAccepted = "invitation_accepted"
	ActionInvitationDeclined = "invitation_declined"
	ActionInvitationRevoked  = "invitation_revoked"
)

// Set of severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Entry represents one append-only audit record.
type Entry struct {
	ID           uuid.UUID
	ActorID      *uuid.UUID
	TenantID     uuid.UUID
	Action       string
	Severity     string
	ResourceType string
	ResourceID   string
	IP           string
	UserAgent    string
	Success      bool
	Details      string
	CreatedAt    time.Time
}

// NewEntry contains information needed to append an audit record.
type NewEntry struct {
	ActorID      *uuid.UUID
	TenantID     uuid.UUID
	Action       string
	Severity     string
	ResourceType string
	ResourceID   string
	IP           string
	UserAgent    string
	Success      bool
	Details      string
}
