package authapp

import (
	"encoding/json"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/types/name"
	"github.com/workden/workden/business/types/password"
	"github.com/workden/workden/business/types/usertype"
)

// TokenPair is the response to a successful login, refresh or switch.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

// Encode implements the web.Encoder interface.
func (t TokenPair) Encode() ([]byte, string, error) {
	data, err := json.Marshal(t)
	return data, "application/json", err
}

func toAppTokenPair(pair auth.TokenPair) TokenPair {
	return TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(auth.AccessTTL.Seconds()),
	}
}

// =============================================================================

// Login defines the data needed to authenticate.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *Login) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Login) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================

// Refresh defines the data needed to rotate a token pair.
type Refresh struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *Refresh) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Refresh) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================

// Logout defines the data needed to end a session.
type Logout struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	Everywhere   bool   `json:"everywhere"`
}

// Decode implements the web.Decoder interface.
func (app *Logout) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Logout) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================

// SwitchWorkspace defines the data needed to change the active workspace.
type SwitchWorkspace struct {
	WorkspaceID string `json:"workspaceId" validate:"required,uuid"`
}

// Decode implements the web.Decoder interface.
func (app *SwitchWorkspace) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app SwitchWorkspace) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================

// Register defines the data needed to create a new tenant with its first
// admin user.
type Register struct {
	WorkspaceName   string `json:"workspaceName" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

// Decode implements the web.Decoder interface.
func (app *Register) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Register) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusNewWorkspace(app Register) (workspacebus.NewWorkspace, error) {
	nme, err := name.Parse(app.WorkspaceName)
	if err != nil {
		return workspacebus.NewWorkspace{}, fmt.Errorf("parse workspace name: %w", err)
	}

	return workspacebus.NewWorkspace{Name: nme}, nil
}

func toBusNewUser(app Register, ws workspacebus.Workspace) (userbus.NewUser, error) {
	nme, err := name.Parse(app.Name)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse name: %w", err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse email: %w", err)
	}

	pwd, err := password.Parse(app.Password)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse password: %w", err)
	}

	nu := userbus.NewUser{
		TenantID: ws.ID,
		Name:     nme,
		Email:    *addr,
		Type:     usertype.WorkspaceAdmin,
		IsAdmin:  true,
		Password: pwd,
	}

	return nu, nil
}

// Registered is the response to a successful registration.
type Registered struct {
	UserID      string    `json:"userId"`
	WorkspaceID string    `json:"workspaceId"`
	Tokens      TokenPair `json:"tokens"`
}

// Encode implements the web.Encoder interface.
func (r Registered) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r)
	return data, "application/json", err
}

// =============================================================================

// Me describes the authenticated caller and the workspace scope their
// requests currently resolve to.
type Me struct {
	ID                    string `json:"id"`
	TenantID              string `json:"tenantId"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	UserType              string `json:"userType"`
	IsAdmin               bool   `json:"isAdmin"`
	ActiveWorkspaceID     string `json:"activeWorkspaceId"`
	MultiWorkspaceEnabled bool   `json:"multiWorkspaceEnabled"`
}

// Encode implements the web.Encoder interface.
func (m Me) Encode() ([]byte, string, error) {
	data, err := json.Marshal(m)
	return data, "application/json", err
}

func toAppMe(usr userbus.User, workspaceID uuid.UUID, multiWorkspace bool) Me {
	return Me{
		ID:                    usr.ID.String(),
		TenantID:              usr.TenantID.String(),
		Name:                  usr.Name.String(),
		Email:                 usr.Email.Address,
		UserType:              usr.Type.String(),
		IsAdmin:               usr.IsAdmin,
		ActiveWorkspaceID:     workspaceID.String(),
		MultiWorkspaceEnabled: multiWorkspace,
	}
}
