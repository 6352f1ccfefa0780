package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/business/sdk/web"
)

// AuthorizeAdmin gates the route on the caller being a platform admin of
// their home tenant.
func AuthorizeAdmin() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			claims := GetClaims(ctx)

			if !claims.IsAdmin {
				return errs.New(errs.PermissionDenied, errors.New("admin only"))
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
