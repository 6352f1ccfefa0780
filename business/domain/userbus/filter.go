package userbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/types/name"
)

type QueryFilter struct {
	ID             *uuid.UUID
	TenantID       *uuid.UUID
	Name           *name.Name
	Email          *mail.Address
	StartCreatedAt *time.Time
	EndCreatedAt   *time.Time
}
