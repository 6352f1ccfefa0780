package userapp

import (
	"net/http"

	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/mid"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth       *auth.Auth
	UserBus    *userbus.Core
	SessionBus *sessionbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	admin := mid.AuthorizeAdmin()

	api := newApp(cfg.UserBus, cfg.SessionBus)

	app.HandlerFunc(http.MethodGet, version, "/users", api.query, authen, admin)
	app.HandlerFunc(http.MethodGet, version, "/users/{user_id}", api.queryByID, authen, admin)
	app.HandlerFunc(http.MethodPost, version, "/users", api.create, authen, admin)
	app.HandlerFunc(http.MethodDelete, version, "/users/{user_id}", api.delete, authen, admin)
	app.HandlerFunc(http.MethodPut, version, "/me", api.update, authen)
	app.HandlerFunc(http.MethodDelete, version, "/me", api.deleteMe, authen)
}
