package workspacebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/types/name"
)

// Workspace represents an isolation boundary owning all business data for a
// group of users. A soft-deleted workspace keeps its rows for the recovery
// window, signalled by DeletedAt.
type Workspace struct {
	ID        uuid.UUID
	Name      name.Name
	PlanID    *uuid.UUID
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWorkspace contains information needed to create a new workspace.
type NewWorkspace struct {
	Name   name.Name
	PlanID *uuid.UUID
}

// UpdateWorkspace contains information needed to update a workspace.
type UpdateWorkspace struct {
	Name   *name.Name
	PlanID *uuid.UUID
}
