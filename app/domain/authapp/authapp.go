// Package authapp maintains the app layer api for the auth domain: login,
// refresh rotation, logout, registration and workspace switching.
package authapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/mail"

	"github.com/google/uuid"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/app/sdk/mid"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/loginbus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/sdk/web"
)

type app struct {
	auth          *auth.Auth
	auditBus      *auditbus.Core
	loginBus      *loginbus.Core
	membershipBus *membershipbus.Core
	sessionBus    *sessionbus.Core
	userBus       *userbus.Core
	workspaceBus  *workspacebus.Core
}

func newApp(cfg Config) *app {
	return &app{
		auth:          cfg.Auth,
		auditBus:      cfg.AuditBus,
		loginBus:      cfg.LoginBus,
		membershipBus: cfg.MembershipBus,
		sessionBus:    cfg.SessionBus,
		userBus:       cfg.UserBus,
		workspaceBus:  cfg.WorkspaceBus,
	}
}

// executeUnderTransaction constructs a new app value with the core apis
// using a store transaction that was created via middleware.
func (a *app) executeUnderTransaction(ctx context.Context) (*app, error) {
	if tx, err := mid.GetTran(ctx); err == nil {
		workspaceBus, err := a.workspaceBus.NewWithTx(tx)
		if err != nil {
			return nil, err
		}

		userBus, err := a.userBus.NewWithTx(tx)
		if err != nil {
			return nil, err
		}

		sessionBus, err := a.sessionBus.NewWithTx(tx)
		if err != nil {
			return nil, err
		}

		app := *a
		app.workspaceBus = workspaceBus
		app.userBus = userBus
		app.sessionBus = sessionBus

		return &app, nil
	}

	return a, nil
}

func (a *app) login(ctx context.Context, r *http.Request) web.Encoder {
	var req Login
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ip := clientIP(r)
	ua := r.UserAgent()

	if err := a.loginBus.CheckLockout(ctx, req.Email); err != nil {
		if errors.Is(err, loginbus.ErrLocked) {
			a.loginBus.RecordAttempt(ctx, loginbus.NewAttempt{
				Email:         req.Email,
				IP:            ip,
				UserAgent:     ua,
				FailureReason: "locked",
			})
			a.auditBus.Record(ctx, auditbus.NewEntry{
				Action:    auditbus.ActionLoginLocked,
				Severity:  auditbus.SeverityWarning,
				IP:        ip,
				UserAgent: ua,
				Details:   req.Email,
			})
			return errs.New(errs.ResourceExhausted, loginbus.ErrLocked)
		}
		return errs.Errorf(errs.InternalOnlyLog, "lockout check: %s", err)
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("parsing email: %w", err))
	}

	usr, err := a.userBus.Authenticate(ctx, *addr, req.Password)
	if err != nil {
		a.loginBus.RecordAttempt(ctx, loginbus.NewAttempt{
			Email:         req.Email,
			IP:            ip,
			UserAgent:     ua,
			FailureReason: failureReason(err),
		})
		a.auditBus.Record(ctx, auditbus.NewEntry{
			Action:    auditbus.ActionLoginFailed,
			Severity:  auditbus.SeverityWarning,
			IP:        ip,
			UserAgent: ua,
			Details:   req.Email,
		})
		return errs.New(errs.Unauthenticated, userbus.ErrAuthenticationFailure)
	}

	res, err := a.membershipBus.SelectAtLogin(ctx, usr.ID, usr.TenantID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "select workspace: %s", err)
	}

	pair, err := a.issue(ctx, usr, claimFor(res, usr.TenantID))
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "issue tokens: %s", err)
	}

	a.loginBus.RecordAttempt(ctx, loginbus.NewAttempt{
		Email:     req.Email,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})
	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:   &usr.ID,
		TenantID:  usr.TenantID,
		Action:    auditbus.ActionLoginSuccess,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})

	return toAppTokenPair(pair)
}

func (a *app) refresh(ctx context.Context, r *http.Request) web.Encoder {
	var req Refresh
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	claims, err := a.auth.VerifyRefresh(ctx, req.RefreshToken)
	if err != nil {
		return errs.New(errs.Unauthenticated, auth.ErrInvalidToken)
	}

	if _, err := a.sessionBus.Validate(ctx, req.RefreshToken); err != nil {
		return errs.New(errs.Unauthenticated, auth.ErrInvalidToken)
	}

	userID, err := claims.UserID()
	if err != nil {
		return errs.New(errs.Unauthenticated, auth.ErrInvalidToken)
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		return errs.New(errs.Unauthenticated, auth.ErrInvalidToken)
	}

	res, err := a.membershipBus.ValidateAtRefresh(ctx, usr.ID, usr.TenantID, claims.ActiveWorkspace())
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "validate workspace: %s", err)
	}

	if err := a.sessionBus.Revoke(ctx, req.RefreshToken); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "revoke session: %s", err)
	}

	pair, err := a.issue(ctx, usr, claimFor(res, usr.TenantID))
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "issue tokens: %s", err)
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:   &usr.ID,
		TenantID:  usr.TenantID,
		Action:    auditbus.ActionTokenRefreshed,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	return toAppTokenPair(pair)
}

func (a *app) logout(ctx context.Context, r *http.Request) web.Encoder {
	var req Logout
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if req.Everywhere {
		if err := a.sessionBus.RevokeAllForUser(ctx, userID); err != nil {
			return errs.Errorf(errs.InternalOnlyLog, "revoke all: %s", err)
		}
	} else {
		if err := a.sessionBus.Revoke(ctx, req.RefreshToken); err != nil {
			return errs.Errorf(errs.InternalOnlyLog, "revoke: %s", err)
		}
	}

	tenantID, _ := mid.GetTenantID(ctx)

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:   &userID,
		TenantID:  tenantID,
		Action:    auditbus.ActionLogout,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	return nil
}

// me reports the authenticated user together with the workspace scope their
// token currently resolves to. Resolution happens in the middleware chain.
func (a *app) me(ctx context.Context, r *http.Request) web.Encoder {
	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query user: %s", err)
	}

	workspaceID, err := mid.GetWorkspaceID(ctx)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "workspace not resolved: %s", err)
	}

	return toAppMe(usr, workspaceID, mid.GetMultiWorkspace(ctx))
}

func (a *app) switchWorkspace(ctx context.Context, r *http.Request) web.Encoder {
	var req SwitchWorkspace
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return errs.NewFieldErrors("workspaceId", err)
	}

	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query user: %s", err)
	}

	res, err := a.membershipBus.Switch(ctx, usr.ID, usr.TenantID, workspaceID)
	if err != nil {
		if errors.Is(err, membershipbus.ErrAccessDenied) {
			return errs.New(errs.PermissionDenied, membershipbus.ErrAccessDenied)
		}
		return errs.Errorf(errs.InternalOnlyLog, "switch: %s", err)
	}

	pair, err := a.issue(ctx, usr, claimFor(res, usr.TenantID))
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "issue tokens: %s", err)
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:      &usr.ID,
		TenantID:     usr.TenantID,
		Action:       auditbus.ActionWorkspaceSwitched,
		ResourceType: "workspace",
		ResourceID:   workspaceID.String(),
		IP:           clientIP(r),
		UserAgent:    r.UserAgent(),
		Success:      true,
	})

	return toAppTokenPair(pair)
}

func (a *app) register(ctx context.Context, r *http.Request) web.Encoder {
	var req Register
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	a, err := a.executeUnderTransaction(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	nw, err := toBusNewWorkspace(req)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ws, err := a.workspaceBus.Create(ctx, nw)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "create workspace: %s", err)
	}

	nu, err := toBusNewUser(req, ws)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, err := a.userBus.Create(ctx, nu)
	if err != nil {
		if errors.Is(err, userbus.ErrUniqueEmail) {
			return errs.New(errs.Aborted, userbus.ErrUniqueEmail)
		}
		return errs.Errorf(errs.InternalOnlyLog, "create user: %s", err)
	}

	pair, err := a.issue(ctx, usr, uuid.Nil)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "issue tokens: %s", err)
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:   &usr.ID,
		TenantID:  ws.ID,
		Action:    auditbus.ActionUserRegistered,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	reg := Registered{
		UserID:      usr.ID.String(),
		WorkspaceID: ws.ID.String(),
		Tokens:      toAppTokenPair(pair),
	}

	return reg
}

// issue generates a token pair and records the refresh token in the ledger.
func (a *app) issue(ctx context.Context, usr userbus.User, activeWorkspaceID uuid.UUID) (auth.TokenPair, error) {
	pair, err := a.auth.GenerateTokenPair(usr, activeWorkspaceID)
	if err != nil {
		return auth.TokenPair{}, err
	}

	ns := sessionbus.NewSession{
		Token:     pair.RefreshToken,
		UserID:    usr.ID,
		ExpiresAt: pair.RefreshExpiresAt,
	}

	if _, err := a.sessionBus.Create(ctx, ns); err != nil {
		return auth.TokenPair{}, err
	}

	return pair, nil
}

// claimFor omits the workspace claim when the active scope is just the home
// tenant.
func claimFor(res membershipbus.Resolution, homeTenantID uuid.UUID) uuid.UUID {
	if !res.MultiWorkspace || res.WorkspaceID == homeTenantID {
		return uuid.Nil
	}
	return res.WorkspaceID
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, userbus.ErrUserDisabled):
		return "disabled"
	default:
		return "invalid_credentials"
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
