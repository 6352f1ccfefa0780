// Package mux provides support to bind domain level routes to the
// application server mux.
package mux

import (
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/mid"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/domain/loginbus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/foundation/logger"
	"go.opentelemetry.io/otel/trace"
)

// Options represent optional parameters.
type Options struct {
	corsOrigin []string
}

// WithCORS provides configuration options for CORS.
func WithCORS(origins []string) func(opts *Options) {
	return func(opts *Options) {
		opts.corsOrigin = origins
	}
}

// BusConfig contains all the core business packages needed by the routes.
type BusConfig struct {
	AuditBus      *auditbus.Core
	FlagBus       *flagbus.Core
	InviteBus     *invitebus.Core
	LoginBus      *loginbus.Core
	MembershipBus *membershipbus.Core
	SessionBus    *sessionbus.Core
	UserBus       *userbus.Core
	WorkspaceBus  *workspacebus.Core
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build     string
	Log       *logger.Logger
	Auth      *auth.Auth
	DB        *sqlx.DB
	Tracer    trace.Tracer
	BusConfig BusConfig
}

// RouteAdder defines behavior that sets the routes to bind for an instance
// of the service.
type RouteAdder interface {
	Add(app *web.App, cfg Config)
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config, routeAdder RouteAdder, options ...func(opts *Options)) *web.App {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	app := web.NewApp(
		cfg.Log.Info,
		cfg.Tracer,
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	if len(opts.corsOrigin) > 0 {
		app.EnableCORS(opts.corsOrigin)
	}

	routeAdder.Add(app, cfg)

	return app
}
