package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/business/sdk/web"
)

// Authenticate validates the bearer token in the Authorization header and
// stores the claims, user id and home tenant id in the context.
func Authenticate(a *auth.Auth) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			authStr := r.Header.Get("authorization")
			if authStr == "" {
				return errs.New(errs.Unauthenticated, errors.New("missing authorization header"))
			}

			claims, err := a.Authenticate(ctx, authStr)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			userID, err := claims.UserID()
			if err != nil {
				return errs.New(errs.Unauthenticated, auth.ErrInvalidToken)
			}

			var tenantID uuid.UUID
			if claims.TenantID != "" {
				tenantID, err = claims.HomeTenantID()
				if err != nil {
					return errs.New(errs.Unauthenticated, auth.ErrInvalidToken)
				}
			}

			ctx = setUserID(ctx, userID)
			ctx = setTenantID(ctx, tenantID)
			ctx = setClaims(ctx, claims)

			return next(ctx, r)
		}

		return h
	}

	return m
}
