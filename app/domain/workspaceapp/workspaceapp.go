// Package workspaceapp maintains the app layer api for workspaces, their
// members and their invitations.
package workspaceapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/workden/workden/app/sdk/errs"
	"github.com/workden/workden/app/sdk/mid"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/business/types/role"
)

type app struct {
	auditBus      *auditbus.Core
	flagBus       *flagbus.Core
	inviteBus     *invitebus.Core
	membershipBus *membershipbus.Core
	sessionBus    *sessionbus.Core
	workspaceBus  *workspacebus.Core
}

func newApp(cfg Config) *app {
	return &app{
		auditBus:      cfg.AuditBus,
		flagBus:       cfg.FlagBus,
		inviteBus:     cfg.InviteBus,
		membershipBus: cfg.MembershipBus,
		sessionBus:    cfg.SessionBus,
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

		membershipBus, err := a.membershipBus.NewWithTx(tx)
		if err != nil {
			return nil, err
		}

		inviteBus, err := a.inviteBus.NewWithTx(tx)
		if err != nil {
			return nil, err
		}

		app := *a
		app.workspaceBus = workspaceBus
		app.membershipBus = membershipBus
		app.inviteBus = inviteBus

		return &app, nil
	}

	return a, nil
}

// caller bundles the identity facts handlers need for membership gates.
type caller struct {
	userID   uuid.UUID
	tenantID uuid.UUID
	isAdmin  bool
}

func getCaller(ctx context.Context) (caller, error) {
	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return caller{}, err
	}

	tenantID, err := mid.GetTenantID(ctx)
	if err != nil {
		return caller{}, err
	}

	return caller{
		userID:   userID,
		tenantID: tenantID,
		isAdmin:  mid.GetClaims(ctx).IsAdmin,
	}, nil
}

// query returns every workspace the caller can operate against.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	wss, err := a.workspaceBus.QueryForUser(ctx, clr.userID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query: %s", err)
	}

	return toAppWorkspaces(wss)
}

// create adds a new workspace with the caller as its owner. Requires the
// multi-workspace flag for the caller's tenant.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var req NewWorkspace
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	enabled, err := a.flagBus.IsEnabled(ctx, flagbus.MultiWorkspace, clr.tenantID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "flag: %s", err)
	}
	if !enabled {
		return errs.New(errs.PermissionDenied, errors.New("multi-workspace is not enabled"))
	}

	a, err = a.executeUnderTransaction(ctx)
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

	nm := membershipbus.NewMembership{
		WorkspaceID: ws.ID,
		UserID:      clr.userID,
		Role:        role.Owner,
	}

	if _, err := a.membershipBus.Create(ctx, nm); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "create membership: %s", err)
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:      &clr.userID,
		TenantID:     clr.tenantID,
		Action:       auditbus.ActionWorkspaceCreated,
		ResourceType: "workspace",
		ResourceID:   ws.ID.String(),
		Success:      true,
	})

	return toAppWorkspace(ws)
}

// queryMembers lists the memberships of a workspace the caller belongs to.
func (a *app) queryMembers(ctx context.Context, r *http.Request) web.Encoder {
	workspaceID, err := uuid.Parse(web.Param(r, "workspace_id"))
	if err != nil {
		return errs.NewFieldErrors("workspace_id", err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.membershipBus.RequireRole(ctx, clr.userID, clr.tenantID, clr.isAdmin, workspaceID, role.Viewer); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	mbrs, err := a.membershipBus.QueryByWorkspace(ctx, workspaceID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query members: %s", err)
	}

	return toAppMembers(mbrs)
}

// updateMemberRole changes a member's role. Requires an admin tier role in
// the workspace.
func (a *app) updateMemberRole(ctx context.Context, r *http.Request) web.Encoder {
	var req UpdateMemberRole
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	workspaceID, err := uuid.Parse(web.Param(r, "workspace_id"))
	if err != nil {
		return errs.NewFieldErrors("workspace_id", err)
	}

	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.NewFieldErrors("user_id", err)
	}

	rle, err := role.Parse(req.Role)
	if err != nil {
		return errs.NewFieldErrors("role", err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.membershipBus.RequireRole(ctx, clr.userID, clr.tenantID, clr.isAdmin, workspaceID, role.Admin); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	mbr, err := a.membershipBus.QueryMembership(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, membershipbus.ErrNotFound) {
			return errs.New(errs.NotFound, err)
		}
		return errs.Errorf(errs.InternalOnlyLog, "query membership: %s", err)
	}

	updMbr, err := a.membershipBus.UpdateRole(ctx, mbr, rle)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "update role: %s", err)
	}

	return toAppMember(updMbr)
}

// removeMember deletes a membership and revokes every refresh token of the
// removed user so a stale workspace claim cannot be replayed.
func (a *app) removeMember(ctx context.Context, r *http.Request) web.Encoder {
	workspaceID, err := uuid.Parse(web.Param(r, "workspace_id"))
	if err != nil {
		return errs.NewFieldErrors("workspace_id", err)
	}

	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.NewFieldErrors("user_id", err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.membershipBus.RequireRole(ctx, clr.userID, clr.tenantID, clr.isAdmin, workspaceID, role.Admin); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	mbr, err := a.membershipBus.QueryMembership(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, membershipbus.ErrNotFound) {
			return errs.New(errs.NotFound, err)
		}
		return errs.Errorf(errs.InternalOnlyLog, "query membership: %s", err)
	}

	if err := a.membershipBus.Remove(ctx, mbr); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "remove member: %s", err)
	}

	if err := a.sessionBus.RevokeAllForUser(ctx, userID); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "revoke sessions: %s", err)
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:      &clr.userID,
		TenantID:     clr.tenantID,
		Action:       auditbus.ActionMemberRemoved,
		ResourceType: "membership",
		ResourceID:   userID.String(),
		Success:      true,
	})

	return nil
}

// createInvitation extends a workspace invitation to an email address.
func (a *app) createInvitation(ctx context.Context, r *http.Request) web.Encoder {
	var req NewInvitation
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	workspaceID, err := uuid.Parse(web.Param(r, "workspace_id"))
	if err != nil {
		return errs.NewFieldErrors("workspace_id", err)
	}

	rle, err := role.Parse(req.Role)
	if err != nil {
		return errs.NewFieldErrors("role", err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.membershipBus.RequireRole(ctx, clr.userID, clr.tenantID, clr.isAdmin, workspaceID, role.Admin); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	ni := invitebus.NewInvitation{
		WorkspaceID: workspaceID,
		Email:       req.Email,
		Role:        rle,
		InvitedBy:   clr.userID,
	}

	inv, err := a.inviteBus.Create(ctx, ni)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "create invitation: %s", err)
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:      &clr.userID,
		TenantID:     clr.tenantID,
		Action:       auditbus.ActionInvitationCreated,
		ResourceType: "invitation",
		ResourceID:   inv.ID.String(),
		Success:      true,
	})

	return toAppInvitation(inv)
}

// queryInvitations lists the invitations of a workspace.
func (a *app) queryInvitations(ctx context.Context, r *http.Request) web.Encoder {
	workspaceID, err := uuid.Parse(web.Param(r, "workspace_id"))
	if err != nil {
		return errs.NewFieldErrors("workspace_id", err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.membershipBus.RequireRole(ctx, clr.userID, clr.tenantID, clr.isAdmin, workspaceID, role.Admin); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	invs, err := a.inviteBus.QueryByWorkspace(ctx, workspaceID)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "query invitations: %s", err)
	}

	return toAppInvitations(invs)
}

// acceptInvitation redeems an invitation token for the authenticated user.
func (a *app) acceptInvitation(ctx context.Context, r *http.Request) web.Encoder {
	token := web.Param(r, "token")

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	a, err = a.executeUnderTransaction(ctx)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	inv, err := a.inviteBus.Accept(ctx, token, clr.userID)
	if err != nil {
		switch {
		case errors.Is(err, invitebus.ErrNotFound):
			return errs.New(errs.NotFound, err)
		case errors.Is(err, invitebus.ErrInvalid):
			return errs.New(errs.FailedPrecondition, err)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "accept invitation: %s", err)
		}
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:      &clr.userID,
		TenantID:     clr.tenantID,
		Action:       auditbus.ActionInvitationAccepted,
		ResourceType: "invitation",
		ResourceID:   inv.ID.String(),
		Success:      true,
	})

	return toAppInvitation(inv)
}

// declineInvitation declines a pending invitation.
func (a *app) declineInvitation(ctx context.Context, r *http.Request) web.Encoder {
	token := web.Param(r, "token")

	inv, err := a.inviteBus.Decline(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, invitebus.ErrNotFound):
			return errs.New(errs.NotFound, err)
		case errors.Is(err, invitebus.ErrInvalid):
			return errs.New(errs.FailedPrecondition, err)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "decline invitation: %s", err)
		}
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		TenantID:     inv.WorkspaceID,
		Action:       auditbus.ActionInvitationDeclined,
		ResourceType: "invitation",
		ResourceID:   inv.ID.String(),
		Success:      true,
	})

	return toAppInvitation(inv)
}

// revokeInvitation withdraws a pending invitation.
func (a *app) revokeInvitation(ctx context.Context, r *http.Request) web.Encoder {
	workspaceID, err := uuid.Parse(web.Param(r, "workspace_id"))
	if err != nil {
		return errs.NewFieldErrors("workspace_id", err)
	}

	invitationID, err := uuid.Parse(web.Param(r, "invitation_id"))
	if err != nil {
		return errs.NewFieldErrors("invitation_id", err)
	}

	clr, err := getCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.membershipBus.RequireRole(ctx, clr.userID, clr.tenantID, clr.isAdmin, workspaceID, role.Admin); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	inv, err := a.inviteBus.Revoke(ctx, workspaceID, invitationID)
	if err != nil {
		switch {
		case errors.Is(err, invitebus.ErrNotFound):
			return errs.New(errs.NotFound, err)
		case errors.Is(err, invitebus.ErrInvalid):
			return errs.New(errs.FailedPrecondition, err)
		default:
			return errs.Errorf(errs.InternalOnlyLog, "revoke invitation: %s", err)
		}
	}

	a.auditBus.Record(ctx, auditbus.NewEntry{
		ActorID:      &clr.userID,
		TenantID:     clr.tenantID,
		Action:       auditbus.ActionInvitationRevoked,
		ResourceType: "invitation",
		ResourceID:   inv.ID.String(),
		Success:      true,
	})

	return toAppInvitation(inv)
}
