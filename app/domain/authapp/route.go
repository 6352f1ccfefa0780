package authapp

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/mid"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/loginbus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log           *logger.Logger
	DB            *sqlx.DB
	Auth          *auth.Auth
	AuditBus      *auditbus.Core
	LoginBus      *loginbus.Core
	MembershipBus *membershipbus.Core
	SessionBus    *sessionbus.Core
	UserBus       *userbus.Core
	WorkspaceBus  *workspacebus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tran := mid.BeginCommitRollback(cfg.Log, sqldb.NewBeginner(cfg.DB))

	api := newApp(cfg)

	app.HandlerFunc(http.MethodPost, version, "/auth/register", api.register, tran)
	app.HandlerFunc(http.MethodPost, version, "/auth/login", api.login)
	app.HandlerFunc(http.MethodPost, version, "/auth/refresh", api.refresh)
	app.HandlerFunc(http.MethodPost, version, "/auth/logout", api.logout, authen)
	app.HandlerFunc(http.MethodPost, version, "/auth/switch-workspace", api.switchWorkspace, authen)
	app.HandlerFunc(http.MethodGet, version, "/auth/me", api.me, authen, mid.ResolveWorkspace(cfg.MembershipBus))
}
