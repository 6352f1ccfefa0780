package workspaceapp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/domain/invitebus"
	"github.com/workden/workden/business/domain/membershipbus"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/sdk/order"
	"github.com/workden/workden/business/sdk/page"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/business/types/name"
	"github.com/workden/workden/business/types/password"
	"github.com/workden/workden/business/types/role"
	"github.com/workden/workden/business/types/usertype"
	"github.com/workden/workden/foundation/logger"
)

// =============================================================================
// In-memory stores backing the business cores under test.

type flagStore struct {
	enabled bool
}

func (s *flagStore) Upsert(ctx context.Context, flag flagbus.Flag) error { return nil }

func (s *flagStore) QueryByKey(ctx context.Context, key string, tenantID uuid.UUID) (flagbus.Flag, error) {
	return flagbus.Flag{}, flagbus.ErrNotFound
}

func (s *flagStore) QueryGlobal(ctx context.Context, key string) (flagbus.Flag, error) {
	return flagbus.Flag{Key: key, Enabled: s.enabled}, nil
}

type userStore struct {
	byID    map[uuid.UUID]userbus.User
	byEmail map[string]userbus.User
}

func newUserStore() *userStore {
	return &userStore{
		byID:    make(map[uuid.UUID]userbus.User),
		byEmail: make(map[string]userbus.User),
	}
}

func (s *userStore) NewWithTx(tx sqldb.CommitRollbacker) (userbus.Storer, error) { return s, nil }

func (s *userStore) Create(ctx context.Context, usr userbus.User) error {
	s.byID[usr.ID] = usr
	s.byEmail[usr.Email.Address] = usr
	return nil
}

func (s *userStore) Update(ctx context.Context, usr userbus.User) error {
	s.byID[usr.ID] = usr
	return nil
}

func (s *userStore) Delete(ctx context.Context, usr userbus.User) error {
	delete(s.byID, usr.ID)
	return nil
}

func (s *userStore) Query(ctx context.Context, filter userbus.QueryFilter, orderBy order.By, page page.Page) ([]userbus.User, error) {
	return nil, nil
}

func (s *userStore) Count(ctx context.Context, filter userbus.QueryFilter) (int, error) {
	return len(s.byID), nil
}

func (s *userStore) QueryByID(ctx context.Context, userID uuid.UUID) (userbus.User, error) {
	usr, exists := s.byID[userID]
	if !exists {
		return userbus.User{}, userbus.ErrNotFound
	}
	return usr, nil
}

func (s *userStore) QueryByEmail(ctx context.Context, email mail.Address) (userbus.User, error) {
	usr, exists := s.byEmail[strings.ToLower(email.Address)]
	if !exists {
		return userbus.User{}, userbus.ErrNotFound
	}
	return usr, nil
}

type sessionStore struct {
	rows map[string]sessionbus.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{rows: make(map[string]sessionbus.Session)}
}

func (s *sessionStore) NewWithTx(tx sqldb.CommitRollbacker) (sessionbus.Storer, error) {
	return s, nil
}

func (s *sessionStore) Create(ctx context.Context, ses sessionbus.Session) error {
	s.rows[ses.Token] = ses
	return nil
}

func (s *sessionStore) QueryByToken(ctx context.Context, token string) (sessionbus.Session, error) {
	ses, exists := s.rows[token]
	if !exists {
		return sessionbus.Session{}, sqldb.ErrDBNotFound
	}
	return ses, nil
}

func (s *sessionStore) Revoke(ctx context.Context, token string, now time.Time) error {
	if ses, exists := s.rows[token]; exists && ses.RevokedAt == nil {
		ses.RevokedAt = &now
		s.rows[token] = ses
	}
	return nil
}

func (s *sessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	for token, ses := range s.rows {
		if ses.UserID == userID && ses.RevokedAt == nil {
			ses.RevokedAt = &now
			s.rows[token] = ses
		}
	}
	return nil
}

type membershipStore struct {
	rows map[[2]uuid.UUID]membershipbus.Membership
}

func newMembershipStore() *membershipStore {
	return &membershipStore{rows: make(map[[2]uuid.UUID]membershipbus.Membership)}
}

func (s *membershipStore) key(userID, workspaceID uuid.UUID) [2]uuid.UUID {
	return [2]uuid.UUID{userID, workspaceID}
}

func (s *membershipStore) NewWithTx(tx sqldb.CommitRollbacker) (membershipbus.Storer, error) {
	return s, nil
}

func (s *membershipStore) Create(ctx context.Context, mbr membershipbus.Membership) error {
	k := s.key(mbr.UserID, mbr.WorkspaceID)
	if _, exists := s.rows[k]; exists {
		return membershipbus.ErrUnique
	}
	s.rows[k] = mbr
	return nil
}

func (s *membershipStore) Delete(ctx context.Context, mbr membershipbus.Membership) error {
	delete(s.rows, s.key(mbr.UserID, mbr.WorkspaceID))
	return nil
}

func (s *membershipStore) Update(ctx context.Context, mbr membershipbus.Membership) error {
	s.rows[s.key(mbr.UserID, mbr.WorkspaceID)] = mbr
	return nil
}

func (s *membershipStore) QueryOne(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID) (membershipbus.Membership, error) {
	mbr, exists := s.rows[s.key(userID, workspaceID)]
	if !exists {
		return membershipbus.Membership{}, sqldb.ErrDBNotFound
	}
	return mbr, nil
}

func (s *membershipStore) QueryByUser(ctx context.Context, userID uuid.UUID) ([]membershipbus.Membership, error) {
	return nil, nil
}

func (s *membershipStore) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]membershipbus.Membership, error) {
	var mbrs []membershipbus.Membership
	for _, mbr := range s.rows {
		if mbr.WorkspaceID == workspaceID {
			mbrs = append(mbrs, mbr)
		}
	}
	return mbrs, nil
}

func (s *membershipStore) QueryMostRecent(ctx context.Context, userID uuid.UUID) (membershipbus.Membership, error) {
	return membershipbus.Membership{}, sqldb.ErrDBNotFound
}

func (s *membershipStore) TouchLastAccessed(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID, now time.Time) error {
	return nil
}

type inviteStore struct {
	rows map[uuid.UUID]invitebus.Invitation
}

func newInviteStore() *inviteStore {
	return &inviteStore{rows: make(map[uuid.UUID]invitebus.Invitation)}
}

func (s *inviteStore) NewWithTx(tx sqldb.CommitRollbacker) (invitebus.Storer, error) {
	return s, nil
}

func (s *inviteStore) Create(ctx context.Context, inv invitebus.Invitation) error {
	s.rows[inv.ID] = inv
	return nil
}

func (s *inviteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string, now time.Time) error {
	inv, exists := s.rows[id]
	if !exists {
		return sqldb.ErrDBNotFound
	}
	inv.Status = status
	inv.UpdatedAt = now
	s.rows[id] = inv
	return nil
}

func (s *inviteStore) QueryByID(ctx context.Context, id uuid.UUID) (invitebus.Invitation, error) {
	inv, exists := s.rows[id]
	if !exists {
		return invitebus.Invitation{}, sqldb.ErrDBNotFound
	}
	return inv, nil
}

func (s *inviteStore) QueryByToken(ctx context.Context, token string) (invitebus.Invitation, error) {
	for _, inv := range s.rows {
		if inv.Token == token {
			return inv, nil
		}
	}
	return invitebus.Invitation{}, sqldb.ErrDBNotFound
}

func (s *inviteStore) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]invitebus.Invitation, error) {
	var invs []invitebus.Invitation
	for _, inv := range s.rows {
		if inv.WorkspaceID == workspaceID {
			invs = append(invs, inv)
		}
	}
	return invs, nil
}

type auditStore struct {
	entries []auditbus.Entry
}

func (s *auditStore) NewWithTx(tx sqldb.CommitRollbacker) (auditbus.Storer, error) {
	return s, nil
}

func (s *auditStore) Create(ctx context.Context, ent auditbus.Entry) error {
	s.entries = append(s.entries, ent)
	return nil
}

func (s *auditStore) QueryByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]auditbus.Entry, error) {
	return s.entries, nil
}

type workspaceStore struct {
	rows map[uuid.UUID]workspacebus.Workspace
}

func newWorkspaceStore() *workspaceStore {
	return &workspaceStore{rows: make(map[uuid.UUID]workspacebus.Workspace)}
}

func (s *workspaceStore) NewWithTx(tx sqldb.CommitRollbacker) (workspacebus.Storer, error) {
	return s, nil
}

func (s *workspaceStore) Create(ctx context.Context, ws workspacebus.Workspace) error {
	s.rows[ws.ID] = ws
	return nil
}

func (s *workspaceStore) Update(ctx context.Context, ws workspacebus.Workspace) error {
	s.rows[ws.ID] = ws
	return nil
}

func (s *workspaceStore) QueryByID(ctx context.Context, workspaceID uuid.UUID) (workspacebus.Workspace, error) {
	ws, exists := s.rows[workspaceID]
	if !exists {
		return workspacebus.Workspace{}, workspacebus.ErrNotFound
	}
	return ws, nil
}

func (s *workspaceStore) QueryForUser(ctx context.Context, userID uuid.UUID) ([]workspacebus.Workspace, error) {
	return nil, nil
}

// =============================================================================

type harness struct {
	app      *web.App
	auth     *auth.Auth
	mock     sqlmock.Sqlmock
	userBus  *userbus.Core
	flags    *flagStore
	members  *membershipStore
	sessions *sessionStore
	invites  *inviteStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	flags := &flagStore{}
	members := newMembershipStore()
	sessions := newSessionStore()
	invites := newInviteStore()

	userBus := userbus.NewCore(newUserStore())
	flagBus := flagbus.NewCore(flags)
	membershipBus := membershipbus.NewCore(log, flagBus, members)
	sessionBus := sessionbus.NewCore(log, sessions)
	auditBus := auditbus.NewCore(log, &auditStore{})
	inviteBus := invitebus.NewCore(log, membershipBus, invites)
	workspaceBus := workspacebus.NewCore(log, newWorkspaceStore())

	ath, err := auth.New(auth.Config{
		Log:     log,
		UserBus: userBus,
		Secret:  "0123456789abcdef0123456789abcdef",
		Issuer:  "test-issuer",
	})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}

	webApp := web.NewApp(func(ctx context.Context, msg string, args ...any) {}, nil)

	Routes(webApp, Config{
		Log:           log,
		DB:            sqlx.NewDb(db, "postgres"),
		Auth:          ath,
		AuditBus:      auditBus,
		FlagBus:       flagBus,
		InviteBus:     inviteBus,
		MembershipBus: membershipBus,
		SessionBus:    sessionBus,
		WorkspaceBus:  workspaceBus,
	})

	return &harness{
		app:      webApp,
		auth:     ath,
		mock:     mock,
		userBus:  userBus,
		flags:    flags,
		members:  members,
		sessions: sessions,
		invites:  invites,
	}
}

func (h *harness) seedUser(t *testing.T, email string, isAdmin bool) userbus.User {
	t.Helper()

	usr, err := h.userBus.Create(context.Background(), userbus.NewUser{
		TenantID: uuid.New(),
		Name:     name.MustParse("Test User"),
		Email:    mail.Address{Address: email},
		Type:     usertype.TeamMember,
		IsAdmin:  isAdmin,
		Password: password.MustParse("Sup3rSecret!pass"),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return usr
}

func (h *harness) token(t *testing.T, usr userbus.User) string {
	t.Helper()

	pair, err := h.auth.GenerateTokenPair(usr, uuid.Nil)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	return pair.AccessToken
}

func (h *harness) do(t *testing.T, method string, path string, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	r := httptest.NewRequest(method, path, rd)
	r.Header.Set("Authorization", "Bearer "+bearer)

	w := httptest.NewRecorder()
	h.app.ServeHTTP(w, r)

	return w
}

// =============================================================================

func TestCreateWorkspaceRequiresFlag(t *testing.T) {
	h := newHarness(t)
	usr := h.seedUser(t, "ada@acme.test", true)
	bearer := h.token(t, usr)

	w := h.do(t, http.MethodPost, "/v1/workspaces", bearer, NewWorkspace{Name: "Beta Inc"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 with the flag off", w.Code)
	}

	h.flags.enabled = true
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()

	w = h.do(t, http.MethodPost, "/v1/workspaces", bearer, NewWorkspace{Name: "Beta Inc"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var ws Workspace
	if err := json.Unmarshal(w.Body.Bytes(), &ws); err != nil {
		t.Fatalf("decode: %v", err)
	}

	wsID, err := uuid.Parse(ws.ID)
	if err != nil {
		t.Fatalf("parse workspace id: %v", err)
	}

	mbr, exists := h.members.rows[h.members.key(usr.ID, wsID)]
	if !exists {
		t.Fatal("creator should get a membership")
	}
	if !mbr.Role.Equal(role.Owner) {
		t.Errorf("creator role = %s, want OWNER", mbr.Role)
	}
}

func TestRemoveMemberRevokesSessions(t *testing.T) {
	h := newHarness(t)
	h.flags.enabled = true

	admin := h.seedUser(t, "admin@acme.test", false)
	member := h.seedUser(t, "member@beta.test", false)
	workspaceID := uuid.New()

	h.members.rows[h.members.key(admin.ID, workspaceID)] = membershipbus.Membership{
		WorkspaceID: workspaceID,
		UserID:      admin.ID,
		Role:        role.Admin,
	}
	h.members.rows[h.members.key(member.ID, workspaceID)] = membershipbus.Membership{
		WorkspaceID: workspaceID,
		UserID:      member.ID,
		Role:        role.Member,
	}
	h.sessions.rows["member.refresh.token"] = sessionbus.Session{
		Token:     "member.refresh.token",
		UserID:    member.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	path := "/v1/workspaces/" + workspaceID.String() + "/members/" + member.ID.String()

	// A plain member cannot remove anyone.
	denied := h.do(t, http.MethodDelete, path, h.token(t, member), nil)
	if denied.Code != http.StatusForbidden {
		t.Fatalf("member removal status = %d, want 403", denied.Code)
	}

	w := h.do(t, http.MethodDelete, path, h.token(t, admin), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if _, exists := h.members.rows[h.members.key(member.ID, workspaceID)]; exists {
		t.Error("membership should be gone")
	}

	ses := h.sessions.rows["member.refresh.token"]
	if ses.RevokedAt == nil {
		t.Error("removed member's refresh tokens must be revoked")
	}
}

func TestInvitationFlow(t *testing.T) {
	h := newHarness(t)
	h.flags.enabled = true

	admin := h.seedUser(t, "admin@acme.test", false)
	invitee := h.seedUser(t, "grace@beta.test", false)
	workspaceID := uuid.New()

	h.members.rows[h.members.key(admin.ID, workspaceID)] = membershipbus.Membership{
		WorkspaceID: workspaceID,
		UserID:      admin.ID,
		Role:        role.Owner,
	}

	created := h.do(t, http.MethodPost, "/v1/workspaces/"+workspaceID.String()+"/invitations", h.token(t, admin), NewInvitation{
		Email: "grace@beta.test",
		Role:  "MEMBER",
	})
	if created.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", created.Code, created.Body.String())
	}

	var inv Invitation
	if err := json.Unmarshal(created.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.Status != invitebus.StatusPending {
		t.Fatalf("status = %s, want pending", inv.Status)
	}

	invID, err := uuid.Parse(inv.ID)
	if err != nil {
		t.Fatalf("parse invitation id: %v", err)
	}
	token := h.invites.rows[invID].Token

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()

	accepted := h.do(t, http.MethodPost, "/v1/invitations/"+token+"/accept", h.token(t, invitee), nil)
	if accepted.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body = %s", accepted.Code, accepted.Body.String())
	}

	mbr, exists := h.members.rows[h.members.key(invitee.ID, workspaceID)]
	if !exists {
		t.Fatal("accept should create a membership")
	}
	if !mbr.Role.Equal(role.Member) {
		t.Errorf("role = %s, want the invitation's MEMBER", mbr.Role)
	}

	// A consumed token cannot be declined.
	declined := h.do(t, http.MethodPost, "/v1/invitations/"+token+"/decline", h.token(t, invitee), nil)
	if declined.Code != http.StatusPreconditionFailed {
		t.Errorf("decline after accept status = %d, want 412", declined.Code)
	}
}

func TestQueryMembersRequiresMembership(t *testing.T) {
	h := newHarness(t)
	h.flags.enabled = true

	member := h.seedUser(t, "member@acme.test", false)
	stranger := h.seedUser(t, "stranger@other.test", false)
	workspaceID := uuid.New()

	h.members.rows[h.members.key(member.ID, workspaceID)] = membershipbus.Membership{
		WorkspaceID: workspaceID,
		UserID:      member.ID,
		Role:        role.Viewer,
	}

	path := "/v1/workspaces/" + workspaceID.String() + "/members"

	allowed := h.do(t, http.MethodGet, path, h.token(t, member), nil)
	if allowed.Code != http.StatusOK {
		t.Fatalf("member status = %d, body = %s", allowed.Code, allowed.Body.String())
	}

	denied := h.do(t, http.MethodGet, path, h.token(t, stranger), nil)
	if denied.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", denied.Code)
	}
}

func TestRevokeInvitationCrossWorkspace(t *testing.T) {
	h := newHarness(t)
	admin := h.seedUser(t, "admin@acme.test", true)

	inv := invitebus.Invitation{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Email:       "invitee@beta.test",
		Role:        role.Member,
		Token:       "foreign-token",
		Status:      invitebus.StatusPending,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	h.invites.rows[inv.ID] = inv

	// The caller passes the role gate on their own home tenant, but the
	// invitation belongs to another workspace.
	path := "/v1/workspaces/" + admin.TenantID.String() + "/invitations/" + inv.ID.String()
	w := h.do(t, http.MethodDelete, path, h.token(t, admin), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for a foreign workspace's invitation", w.Code)
	}

	if h.invites.rows[inv.ID].Status != invitebus.StatusPending {
		t.Error("foreign invitation was revoked")
	}
}
