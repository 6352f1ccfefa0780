package workspacedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/types/name"
)

// workspaceDB represents the structure of the workspace table in the database.
type workspaceDB struct {
	ID        uuid.UUID      `db:"workspace_id"`
	Name      string         `db:"name"`
	PlanID    sql.NullString `db:"plan_id"`
	DeletedAt sql.NullTime   `db:"deleted_at"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toDBWorkspace(bus workspacebus.Workspace) workspaceDB {
	db := workspaceDB{
		ID:        bus.ID,
		Name:      bus.Name.String(),
		CreatedAt: bus.CreatedAt.UTC(),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}

	if bus.PlanID != nil {
		db.PlanID = sql.NullString{String: bus.PlanID.String(), Valid: true}
	}

	if bus.DeletedAt != nil {
		db.DeletedAt = sql.NullTime{Time: bus.DeletedAt.UTC(), Valid: true}
	}

	return db
}

func toBusWorkspace(db workspaceDB) (workspacebus.Workspace, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return workspacebus.Workspace{}, fmt.Errorf("parse name: %w", err)
	}

	bus := workspacebus.Workspace{
		ID:        db.ID,
		Name:      nme,
		CreatedAt: db.CreatedAt.In(time.Local),
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}

	if db.PlanID.Valid {
		id, err := uuid.Parse(db.PlanID.String)
		if err != nil {
			return workspacebus.Workspace{}, fmt.Errorf("parse plan id: %w", err)
		}
		bus.PlanID = &id
	}

	if db.DeletedAt.Valid {
		t := db.DeletedAt.Time.In(time.Local)
		bus.DeletedAt = &t
	}

	return bus, nil
}

func toBusWorkspaces(dbs []workspaceDB) ([]workspacebus.Workspace, error) {
	bus := make([]workspacebus.Workspace, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusWorkspace(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
