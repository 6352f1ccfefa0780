// Package all binds every route the service exposes.
package all

import (
	"github.com/workden/workden/app/domain/authapp"
	"github.com/workden/workden/app/domain/checkapp"
	"github.com/workden/workden/app/domain/userapp"
	"github.com/workden/workden/app/domain/workspaceapp"
	"github.com/workden/workden/app/sdk/mux"
	"github.com/workden/workden/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

func (add) Add(app *web.App, cfg mux.Config) {
	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
	})

	authapp.Routes(app, authapp.Config{
		Log:           cfg.Log,
		DB:            cfg.DB,
		Auth:          cfg.Auth,
		AuditBus:      cfg.BusConfig.AuditBus,
		LoginBus:      cfg.BusConfig.LoginBus,
		MembershipBus: cfg.BusConfig.MembershipBus,
		SessionBus:    cfg.BusConfig.SessionBus,
		UserBus:       cfg.BusConfig.UserBus,
		WorkspaceBus:  cfg.BusConfig.WorkspaceBus,
	})

	userapp.Routes(app, userapp.Config{
		Auth:       cfg.Auth,
		UserBus:    cfg.BusConfig.UserBus,
		SessionBus: cfg.BusConfig.SessionBus,
	})

	workspaceapp.Routes(app, workspaceapp.Config{
		Log:           cfg.Log,
		DB:            cfg.DB,
		Auth:          cfg.Auth,
		AuditBus:      cfg.BusConfig.AuditBus,
		FlagBus:       cfg.BusConfig.FlagBus,
		InviteBus:     cfg.BusConfig.InviteBus,
		MembershipBus: cfg.BusConfig.MembershipBus,
		SessionBus:    cfg.BusConfig.SessionBus,
		WorkspaceBus:  cfg.BusConfig.WorkspaceBus,
	})
}
