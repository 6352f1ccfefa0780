package checkapp

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build string
	Log   *logger.Logger
	DB    *sqlx.DB
}

// Routes adds specific routes for this group. The routes are bound without
// middleware so liveness and readiness stay off the tracing and metrics paths.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg.Build, cfg.Log, cfg.DB)

	app.HandlerFuncNoMid(http.MethodGet, version, "/liveness", api.liveness)
	app.HandlerFuncNoMid(http.MethodGet, version, "/readiness", api.readiness)
}
