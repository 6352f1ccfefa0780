// Package mid provides app level middleware support.
package mid

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/sdk/web"
)

func checkIsError(e web.Encoder) error {
	err, hasError := e.(error)
	if hasError {
		return err
	}

	return nil
}

// =============================================================================

type ctxKey int

const (
	claimKey ctxKey = iota + 1
	userIDKey
	trKey
	tenantIDKey
	workspaceIDKey
	multiWorkspaceKey
)

func setClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimKey, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) auth.Claims {
	v, ok := ctx.Value(claimKey).(auth.Claims)
	if !ok {
		return auth.Claims{}
	}
	return v
}

func setUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user id from the context.
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.UUID{}, errors.New("user id not found in context")
	}

	return v, nil
}

func setTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantID returns the caller's home tenant id from the context.
func GetTenantID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(tenantIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("tenant id not found in context")
	}
	return v, nil
}

func setWorkspaceID(ctx context.Context, workspaceID uuid.UUID) context.Context {
	return context.WithValue(ctx, workspaceIDKey, workspaceID)
}

// GetWorkspaceID returns the resolved active workspace id from the context.
func GetWorkspaceID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(workspaceIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("workspace id not found in context")
	}
	return v, nil
}

func setMultiWorkspace(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, multiWorkspaceKey, enabled)
}

// GetMultiWorkspace reports whether multi-workspace is enabled for the
// caller's tenant, as resolved for this request.
func GetMultiWorkspace(ctx context.Context) bool {
	v, ok := ctx.Value(multiWorkspaceKey).(bool)
	if !ok {
		return false
	}
	return v
}

func setTran(ctx context.Context, tx sqldb.CommitRollbacker) context.Context {
	return context.WithValue(ctx, trKey, tx)
}

// GetTran retrieves the value that can manage a transaction.
func GetTran(ctx context.Context) (sqldb.CommitRollbacker, error) {
	v, ok := ctx.Value(trKey).(sqldb.CommitRollbacker)
	if !ok {
		return nil, errors.New("transaction not found in context")
	}

	return v, nil
}
