package userbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/types/name"
	"github.com/workden/workden/business/types/password"
	"github.com/workden/workden/business/types/usertype"
)

// User represents information about an individual user. TenantID is the home
// workspace the user registered into and is always accessible to them.
type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         name.Name
	Email        mail.Address
	Type         usertype.UserType
	PasswordHash []byte
	IsAdmin      bool
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	TenantID uuid.UUID
	Name     name.Name
	Email    mail.Address
	Type     usertype.UserType
	IsAdmin  bool
	Password password.Password
}

// UpdateUser contains information needed to update a user.
type UpdateUser struct {
	Name     *name.Name
	Email    *mail.Address
	Type     *usertype.UserType
	Password *password.Password
	IsAdmin  *bool
	Enabled  *bool
}
