package userapp

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

	"github.com/google/uuid"
	"github.com/workden/workden/app/sdk/auth"
	"github.com/workden/workden/business/domain/sessionbus"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/sdk/order"
	"github.com/workden/workden/business/sdk/page"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/sdk/web"
	"github.com/workden/workden/business/types/name"
	"github.com/workden/workden/business/types/password"
	"github.com/workden/workden/business/types/usertype"
	"github.com/workden/workden/foundation/logger"
)

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
	if _, exists := s.byEmail[usr.Email.Address]; exists {
		return userbus.ErrUniqueEmail
	}
	s.byID[usr.ID] = usr
	s.byEmail[usr.Email.Address] = usr
	return nil
}

func (s *userStore) Update(ctx context.Context, usr userbus.User) error {
	s.byID[usr.ID] = usr
	s.byEmail[usr.Email.Address] = usr
	return nil
}

func (s *userStore) Delete(ctx context.Context, usr userbus.User) error {
	delete(s.byID, usr.ID)
	delete(s.byEmail, usr.Email.Address)
	return nil
}

func (s *userStore) match(usr userbus.User, filter userbus.QueryFilter) bool {
	if filter.TenantID != nil && usr.TenantID != *filter.TenantID {
		return false
	}
	if filter.ID != nil && usr.ID != *filter.ID {
		return false
	}
	return true
}

func (s *userStore) Query(ctx context.Context, filter userbus.QueryFilter, orderBy order.By, page page.Page) ([]userbus.User, error) {
	var usrs []userbus.User
	for _, usr := range s.byID {
		if s.match(usr, filter) {
			usrs = append(usrs, usr)
		}
	}
	return usrs, nil
}

func (s *userStore) Count(ctx context.Context, filter userbus.QueryFilter) (int, error) {
	count := 0
	for _, usr := range s.byID {
		if s.match(usr, filter) {
			count++
		}
	}
	return count, nil
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

// =============================================================================

type sessionStore struct {
	byToken map[string]sessionbus.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{byToken: make(map[string]sessionbus.Session)}
}

func (s *sessionStore) NewWithTx(tx sqldb.CommitRollbacker) (sessionbus.Storer, error) {
	return s, nil
}

func (s *sessionStore) Create(ctx context.Context, ses sessionbus.Session) error {
	s.byToken[ses.Token] = ses
	return nil
}

func (s *sessionStore) QueryByToken(ctx context.Context, token string) (sessionbus.Session, error) {
	ses, exists := s.byToken[token]
	if !exists {
		return sessionbus.Session{}, sqldb.ErrDBNotFound
	}
	return ses, nil
}

func (s *sessionStore) Revoke(ctx context.Context, token string, now time.Time) error {
	delete(s.byToken, token)
	return nil
}

func (s *sessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	for token, ses := range s.byToken {
		if ses.UserID == userID {
			delete(s.byToken, token)
		}
	}
	return nil
}

// =============================================================================

type harness struct {
	app      *web.App
	auth     *auth.Auth
	userBus  *userbus.Core
	sessions *sessionStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	userBus := userbus.NewCore(newUserStore())
	sessions := newSessionStore()
	sessionBus := sessionbus.NewCore(log, sessions)

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
		Auth:       ath,
		UserBus:    userBus,
		SessionBus: sessionBus,
	})

	return &harness{
		app:      webApp,
		auth:     ath,
		userBus:  userBus,
		sessions: sessions,
	}
}

func (h *harness) seedUser(t *testing.T, tenantID uuid.UUID, email string, isAdmin bool) userbus.User {
	t.Helper()

	usr, err := h.userBus.Create(context.Background(), userbus.NewUser{
		TenantID: tenantID,
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

func TestCreateUserScopedToTenant(t *testing.T) {
	h := newHarness(t)
	admin := h.seedUser(t, uuid.New(), "admin@acme.test", true)

	w := h.do(t, http.MethodPost, "/v1/users", h.token(t, admin), NewUser{
		Name:            "Grace Hopper",
		Email:           "grace@acme.test",
		UserType:        "TEAM_MEMBER",
		Password:        "Sup3rSecret!pass",
		PasswordConfirm: "Sup3rSecret!pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var usr User
	if err := json.Unmarshal(w.Body.Bytes(), &usr); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if usr.TenantID != admin.TenantID.String() {
		t.Errorf("tenant = %s, want the caller's own %s", usr.TenantID, admin.TenantID)
	}
}

func TestCreateUserAdminOnly(t *testing.T) {
	h := newHarness(t)
	regular := h.seedUser(t, uuid.New(), "user@acme.test", false)

	w := h.do(t, http.MethodPost, "/v1/users", h.token(t, regular), NewUser{
		Name:            "Grace Hopper",
		Email:           "grace@acme.test",
		UserType:        "TEAM_MEMBER",
		Password:        "Sup3rSecret!pass",
		PasswordConfirm: "Sup3rSecret!pass",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for a non-admin", w.Code)
	}
}

func TestDeleteCrossTenantNotFound(t *testing.T) {
	h := newHarness(t)
	admin := h.seedUser(t, uuid.New(), "admin@acme.test", true)
	own := h.seedUser(t, admin.TenantID, "local@acme.test", false)
	foreign := h.seedUser(t, uuid.New(), "other@beta.test", false)

	bearer := h.token(t, admin)

	w := h.do(t, http.MethodDelete, "/v1/users/"+foreign.ID.String(), bearer, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant delete status = %d, want 404", w.Code)
	}

	w = h.do(t, http.MethodDelete, "/v1/users/"+own.ID.String(), bearer, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("own-tenant delete status = %d, want 204", w.Code)
	}
}

func TestQueryScopedToTenant(t *testing.T) {
	h := newHarness(t)
	admin := h.seedUser(t, uuid.New(), "admin@acme.test", true)
	h.seedUser(t, admin.TenantID, "local@acme.test", false)
	h.seedUser(t, uuid.New(), "other@beta.test", false)

	w := h.do(t, http.MethodGet, "/v1/users?page=1&rows=10", h.token(t, admin), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result struct {
		Items []User `json:"items"`
		Total int    `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if result.Total != 2 {
		t.Errorf("total = %d, want only the caller's tenant", result.Total)
	}
	for _, usr := range result.Items {
		if usr.TenantID != admin.TenantID.String() {
			t.Errorf("leaked user from tenant %s", usr.TenantID)
		}
	}
}

func TestUpdateMe(t *testing.T) {
	h := newHarness(t)
	usr := h.seedUser(t, uuid.New(), "user@acme.test", false)

	newName := "Renamed User"
	w := h.do(t, http.MethodPut, "/v1/me", h.token(t, usr), UpdateUser{Name: &newName})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var updated User
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Name != newName {
		t.Errorf("name = %q, want %q", updated.Name, newName)
	}
}

func TestDeleteMeRevokesSessions(t *testing.T) {
	h := newHarness(t)
	usr := h.seedUser(t, uuid.New(), "user@acme.test", false)
	other := h.seedUser(t, usr.TenantID, "other@acme.test", false)

	h.sessions.byToken["mine"] = sessionbus.Session{
		Token:     "mine",
		UserID:    usr.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	h.sessions.byToken["theirs"] = sessionbus.Session{
		Token:     "theirs",
		UserID:    other.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	w := h.do(t, http.MethodDelete, "/v1/me", h.token(t, usr), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if _, exists := h.sessions.byToken["mine"]; exists {
		t.Error("caller's refresh token survived deactivation")
	}
	if _, exists := h.sessions.byToken["theirs"]; !exists {
		t.Error("another user's refresh token was revoked")
	}
}
