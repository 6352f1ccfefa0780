package workspaceapp

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/mid"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/sessionbus"
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
	FlagBus       *flagbus.Core
	InviteBus     *invitebus.Core
	MembershipBus *membershipbus.Core
	SessionBus    *sessionbus.Core
	WorkspaceBus  *workspacebus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tran := mid.BeginCommitRollback(cfg.Log, sqldb.NewBeginner(cfg.DB))

	api := newApp(cfg)

	app.HandlerFunc(http.MethodGet, version, "/workspaces", api.query, authen)
	app.HandlerFunc(http.MethodPost, version, "/workspaces", api.create, authen, tran)

	app.HandlerFunc(http.MethodGet, version, "/workspaces/{workspace_id}/members", api.queryMembers, authen)
	app.HandlerFunc(http.MethodPut, version, "/workspaces/{workspace_id}/members/{user_id}", api.updateMemberRole, authen)
	app.HandlerFunc(http.MethodDelete, version, "/workspaces/{workspace_id}/members/{user_id}", api.removeMember, authen)

	app.HandlerFunc(http.MethodGet, version, "/workspaces/{workspace_id}/invitations", api.queryInvitations, authen)
	app.HandlerFunc(http.MethodPost, version, "/workspaces/{workspace_id}/invitations", api.createInvitation, authen)
	app.HandlerFunc(http.MethodDelete, version, "/workspaces/{workspace_id}/invitations/{invitation_id}", api.revokeInvitation, authen)

	app.HandlerFunc(http.MethodPost, version, "/invitations/{token}/accept", api.acceptInvitation, authen, tran)
	app.HandlerFunc(http.MethodPost, version, "/invitations/{token}/decline", api.declineInvitation)
}
