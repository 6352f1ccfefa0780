package workspaceapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/types/name"
)

// Workspace represents information about an individual workspace.
type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateCreated string `json:"dateCreated"`
}

// Encode implements the web.Encoder interface.
func (w Workspace) Encode() ([]byte, string, error) {
	data, err := json.Marshal(w)
	return data, "application/json", err
}

func toAppWorkspace(bus workspacebus.Workspace) Workspace {
	return Workspace{
		ID:          bus.ID.String(),
		Name:        bus.Name.String(),
		DateCreated: bus.CreatedAt.Format(time.RFC3339),
	}
}

// Workspaces is a list response.
type Workspaces []Workspace

// Encode implements the web.Encoder interface.
func (w Workspaces) Encode() ([]byte, string, error) {
	data, err := json.Marshal(w)
	return data, "application/json", err
}

func toAppWorkspaces(wss []workspacebus.Workspace) Workspaces {
	app := make(Workspaces, len(wss))
	for i, ws := range wss {
		app[i] = toAppWorkspace(ws)
	}
	return app
}

// =============================================================================

// NewWorkspace defines the data needed to add a new workspace.
type NewWorkspace struct {
	Name string `json:"name" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *NewWorkspace) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewWorkspace) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusNewWorkspace(app NewWorkspace) (workspacebus.NewWorkspace, error) {
	nme, err := name.Parse(app.Name)
	if err != nil {
		return workspacebus.NewWorkspace{}, fmt.Errorf("parse name: %w", err)
	}

	return workspacebus.NewWorkspace{Name: nme}, nil
}

// =============================================================================

// Member represents one workspace membership.
type Member struct {
	WorkspaceID    string `json:"workspaceId"`
	UserID         string `json:"userId"`
	Role           string `json:"role"`
	IsPrimary      bool   `json:"isPrimary"`
	JoinedAt       string `json:"joinedAt"`
	LastAccessedAt string `json:"lastAccessedAt,omitempty"`
}

// Encode implements the web.Encoder interface.
func (m Member) Encode() ([]byte, string, error) {
	data, err := json.Marshal(m)
	return data, "application/json", err
}

func toAppMember(bus membershipbus.Membership) Member {
	app := Member{
		WorkspaceID: bus.WorkspaceID.String(),
		UserID:      bus.UserID.String(),
		Role:        bus.Role.String(),
		IsPrimary:   bus.IsPrimary,
		JoinedAt:    bus.JoinedAt.Format(time.RFC3339),
	}

	if bus.LastAccessedAt != nil {
		app.LastAccessedAt = bus.LastAccessedAt.Format(time.RFC3339)
	}

	return app
}

// Members is a list response.
type Members []Member

// Encode implements the web.Encoder interface.
func (m Members) Encode() ([]byte, string, error) {
	data, err := json.Marshal(m)
	return data, "application/json", err
}

func toAppMembers(mbrs []membershipbus.Membership) Members {
	app := make(Members, len(mbrs))
	for i, mbr := range mbrs {
		app[i] = toAppMember(mbr)
	}
	return app
}

// =============================================================================

// UpdateMemberRole defines the data needed to change a member's role.
type UpdateMemberRole struct {
	Role string `json:"role" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateMemberRole) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateMemberRole) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================

// Invitation represents information about a workspace invitation.
type Invitation struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expiresAt"`
	DateCreated string `json:"dateCreated"`
}

// Encode implements the web.Encoder interface.
func (i Invitation) Encode() ([]byte, string, error) {
	data, err := json.Marshal(i)
	return data, "application/json", err
}

func toAppInvitation(bus invitebus.Invitation) Invitation {
	return Invitation{
		ID:          bus.ID.String(),
		WorkspaceID: bus.WorkspaceID.String(),
		Email:       bus.Email,
		Role:        bus.Role.String(),
		Status:      bus.Status,
		ExpiresAt:   bus.ExpiresAt.Format(time.RFC3339),
		DateCreated: bus.CreatedAt.Format(time.RFC3339),
	}
}

// Invitations is a list response.
type Invitations []Invitation

// Encode implements the web.Encoder interface.
func (i Invitations) Encode() ([]byte, string, error) {
	data, err := json.Marshal(i)
	return data, "application/json", err
}

func toAppInvitations(invs []invitebus.Invitation) Invitations {
	app := make(Invitations, len(invs))
	for i, inv := range invs {
		app[i] = toAppInvitation(inv)
	}
	return app
}

// =============================================================================

// NewInvitation defines the data needed to invite someone to a workspace.
type NewInvitation struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *NewInvitation) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewInvitation) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}
