package mid

import (
	"context"
	"net/http"

	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/sdk/web"
)

// ResolveWorkspace determines the active workspace for the request from the
// verified claims and the tenant's multi-workspace flag, and stores the
// resolution in the context. Must run after Authenticate.
func ResolveWorkspace(membershipBus *membershipbus.Core) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			claims := GetClaims(ctx)

			tenantID, err := GetTenantID(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			res, err := membershipBus.Resolve(ctx, tenantID, claims.ActiveWorkspace())
			if err != nil {
				return errs.Newf(errs.Internal, "resolve workspace: %s", err)
			}

			ctx = setWorkspaceID(ctx, res.WorkspaceID)
			ctx = setMultiWorkspace(ctx, res.MultiWorkspace)

			return next(ctx, r)
		}

		return h
	}

	return m
}
