package membershipbus

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/types/role"
	"github.com/workden/workden/foundation/logger"
)

type stubFlagStore struct {
	tenant map[uuid.UUID]bool
	global *bool
}

func (s *stubFlagStore) Upsert(ctx context.Context, flag flagbus.Flag) error {
	return nil
}

func (s *stubFlagStore) QueryByKey(ctx context.Context, key string, tenantID uuid.UUID) (flagbus.Flag, error) {
	enabled, exists := s.tenant[tenantID]
	if !exists {
		return flagbus.Flag{}, flagbus.ErrNotFound
	}
	return flagbus.Flag{Key: key, TenantID: &tenantID, Enabled: enabled}, nil
}

func (s *stubFlagStore) QueryGlobal(ctx context.Context, key string) (flagbus.Flag, error) {
	if s.global == nil {
		return flagbus.Flag{}, flagbus.ErrNotFound
	}
	return flagbus.Flag{Key: key, Enabled: *s.global}, nil
}

type stubStore struct {
	rows    map[[2]uuid.UUID]Membership
	touched []uuid.UUID
}

func newStubStore() *stubStore {
	return &stubStore{rows: make(map[[2]uuid.UUID]Membership)}
}

func (s *stubStore) key(userID, workspaceID uuid.UUID) [2]uuid.UUID {
	return [2]uuid.UUID{userID, workspaceID}
}

func (s *stubStore) NewWithTx(tx sqldb.CommitRollbacker) (Storer, error) {
	return s, nil
}

func (s *stubStore) Create(ctx context.Context, mbr Membership) error {
	k := s.key(mbr.UserID, mbr.WorkspaceID)
	if _, exists := s.rows[k]; exists {
		return ErrUnique
	}
	s.rows[k] = mbr
	return nil
}

func (s *stubStore) Delete(ctx context.Context, mbr Membership) error {
	delete(s.rows, s.key(mbr.UserID, mbr.WorkspaceID))
	return nil
}

func (s *stubStore) Update(ctx context.Context, mbr Membership) error {
	s.rows[s.key(mbr.UserID, mbr.WorkspaceID)] = mbr
	return nil
}

func (s *stubStore) QueryOne(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID) (Membership, error) {
	mbr, exists := s.rows[s.key(userID, workspaceID)]
	if !exists {
		return Membership{}, sqldb.ErrDBNotFound
	}
	return mbr, nil
}

func (s *stubStore) QueryByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	var mbrs []Membership
	for _, mbr := range s.rows {
		if mbr.UserID == userID {
			mbrs = append(mbrs, mbr)
		}
	}
	return mbrs, nil
}

func (s *stubStore) QueryByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Membership, error) {
	var mbrs []Membership
	for _, mbr := range s.rows {
		if mbr.WorkspaceID == workspaceID {
			mbrs = append(mbrs, mbr)
		}
	}
	return mbrs, nil
}

func (s *stubStore) QueryMostRecent(ctx context.Context, userID uuid.UUID) (Membership, error) {
	var best Membership
	found := false
	for _, mbr := range s.rows {
		if mbr.UserID != userID {
			continue
		}
		if !found {
			best = mbr
			found = true
			continue
		}
		switch {
		case mbr.LastAccessedAt != nil && best.LastAccessedAt == nil:
			best = mbr
		case mbr.LastAccessedAt != nil && best.LastAccessedAt != nil && mbr.LastAccessedAt.After(*best.LastAccessedAt):
			best = mbr
		}
	}
	if !found {
		return Membership{}, sqldb.ErrDBNotFound
	}
	return best, nil
}

func (s *stubStore) TouchLastAccessed(ctx context.Context, userID uuid.UUID, workspaceID uuid.UUID, now time.Time) error {
	s.touched = append(s.touched, workspaceID)
	k := s.key(userID, workspaceID)
	if mbr, exists := s.rows[k]; exists {
		mbr.LastAccessedAt = &now
		s.rows[k] = mbr
	}
	return nil
}

func testCore(store *stubStore, flags *stubFlagStore) *Core {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	return NewCore(log, flagbus.NewCore(flags), store)
}

func enabledFor(tenantID uuid.UUID) *stubFlagStore {
	return &stubFlagStore{tenant: map[uuid.UUID]bool{tenantID: true}}
}

func disabled() *stubFlagStore {
	return &stubFlagStore{tenant: map[uuid.UUID]bool{}}
}

func TestResolveFlagOff(t *testing.T) {
	homeTenantID := uuid.New()
	claimed := uuid.New()
	core := testCore(newStubStore(), disabled())

	res, err := core.Resolve(context.Background(), homeTenantID, claimed)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.WorkspaceID != homeTenantID {
		t.Errorf("workspace = %s, want home tenant %s regardless of claim", res.WorkspaceID, homeTenantID)
	}
	if res.MultiWorkspace {
		t.Error("multi-workspace should read disabled")
	}
}

func TestResolveFlagOnClaimWins(t *testing.T) {
	homeTenantID := uuid.New()
	claimed := uuid.New()
	core := testCore(newStubStore(), enabledFor(homeTenantID))

	res, err := core.Resolve(context.Background(), homeTenantID, claimed)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.WorkspaceID != claimed {
		t.Errorf("workspace = %s, want claimed %s", res.WorkspaceID, claimed)
	}
	if !res.MultiWorkspace {
		t.Error("multi-workspace should read enabled")
	}
}

func TestResolveFlagOnNoClaim(t *testing.T) {
	homeTenantID := uuid.New()
	core := testCore(newStubStore(), enabledFor(homeTenantID))

	res, err := core.Resolve(context.Background(), homeTenantID, uuid.Nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.WorkspaceID != homeTenantID {
		t.Errorf("workspace = %s, want home tenant fallback", res.WorkspaceID)
	}
}

func TestResolveGlobalFlagFallback(t *testing.T) {
	homeTenantID := uuid.New()
	claimed := uuid.New()
	on := true
	core := testCore(newStubStore(), &stubFlagStore{tenant: map[uuid.UUID]bool{}, global: &on})

	res, err := core.Resolve(context.Background(), homeTenantID, claimed)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if !res.MultiWorkspace || res.WorkspaceID != claimed {
		t.Errorf("global flag should enable the claim: %+v", res)
	}
}

func TestResolveTenantFlagOverridesGlobal(t *testing.T) {
	homeTenantID := uuid.New()
	claimed := uuid.New()
	on := true
	flags := &stubFlagStore{tenant: map[uuid.UUID]bool{homeTenantID: false}, global: &on}
	core := testCore(newStubStore(), flags)

	res, err := core.Resolve(context.Background(), homeTenantID, claimed)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.MultiWorkspace || res.WorkspaceID != homeTenantID {
		t.Errorf("tenant-scoped disable should win over the global row: %+v", res)
	}
}

func TestSelectAtLoginPicksMostRecent(t *testing.T) {
	homeTenantID := uuid.New()
	userID := uuid.New()
	store := newStubStore()
	core := testCore(store, enabledFor(homeTenantID))

	older := time.Now().Add(-time.Hour)
	newer := time.Now().Add(-time.Minute)
	staleID := uuid.New()
	recentID := uuid.New()

	store.rows[store.key(userID, staleID)] = Membership{WorkspaceID: staleID, UserID: userID, Role: role.Member, LastAccessedAt: &older}
	store.rows[store.key(userID, recentID)] = Membership{WorkspaceID: recentID, UserID: userID, Role: role.Member, LastAccessedAt: &newer}

	res, err := core.SelectAtLogin(context.Background(), userID, homeTenantID)
	if err != nil {
		t.Fatalf("SelectAtLogin: %v", err)
	}

	if res.WorkspaceID != recentID {
		t.Errorf("workspace = %s, want most recently accessed %s", res.WorkspaceID, recentID)
	}
}

func TestSelectAtLoginNoMemberships(t *testing.T) {
	homeTenantID := uuid.New()
	core := testCore(newStubStore(), enabledFor(homeTenantID))

	res, err := core.SelectAtLogin(context.Background(), uuid.New(), homeTenantID)
	if err != nil {
		t.Fatalf("SelectAtLogin: %v", err)
	}

	if res.WorkspaceID != homeTenantID {
		t.Errorf("workspace = %s, want home tenant", res.WorkspaceID)
	}
	if !res.MultiWorkspace {
		t.Error("flag state should still report enabled")
	}
}

func TestValidateAtRefreshDropsLostAccess(t *testing.T) {
	homeTenantID := uuid.New()
	userID := uuid.New()
	lostID := uuid.New()
	core := testCore(newStubStore(), enabledFor(homeTenantID))

	res, err := core.ValidateAtRefresh(context.Background(), userID, homeTenantID, lostID)
	if err != nil {
		t.Fatalf("ValidateAtRefresh: %v", err)
	}

	if res.WorkspaceID != homeTenantID {
		t.Errorf("workspace = %s, want silent fallback to home tenant", res.WorkspaceID)
	}
}

func TestValidateAtRefreshKeepsValidClaim(t *testing.T) {
	homeTenantID := uuid.New()
	userID := uuid.New()
	workspaceID := uuid.New()
	store := newStubStore()
	core := testCore(store, enabledFor(homeTenantID))

	store.rows[store.key(userID, workspaceID)] = Membership{WorkspaceID: workspaceID, UserID: userID, Role: role.Member}

	res, err := core.ValidateAtRefresh(context.Background(), userID, homeTenantID, workspaceID)
	if err != nil {
		t.Fatalf("ValidateAtRefresh: %v", err)
	}

	if res.WorkspaceID != workspaceID {
		t.Errorf("workspace = %s, want claimed %s", res.WorkspaceID, workspaceID)
	}
}

func TestSwitchDeniedWithoutMembership(t *testing.T) {
	homeTenantID := uuid.New()
	core := testCore(newStubStore(), enabledFor(homeTenantID))

	if _, err := core.Switch(context.Background(), uuid.New(), homeTenantID, uuid.New()); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestSwitchDeniedWhenFlagOff(t *testing.T) {
	homeTenantID := uuid.New()
	userID := uuid.New()
	workspaceID := uuid.New()
	store := newStubStore()
	core := testCore(store, disabled())

	store.rows[store.key(userID, workspaceID)] = Membership{WorkspaceID: workspaceID, UserID: userID, Role: role.Member}

	if _, err := core.Switch(context.Background(), userID, homeTenantID, workspaceID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("membership alone must not grant a switch with the flag off: %v", err)
	}
}

func TestSwitchToHomeAlwaysAllowed(t *testing.T) {
	homeTenantID := uuid.New()
	core := testCore(newStubStore(), disabled())

	res, err := core.Switch(context.Background(), uuid.New(), homeTenantID, homeTenantID)
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.WorkspaceID != homeTenantID {
		t.Errorf("workspace = %s, want home tenant", res.WorkspaceID)
	}
}

func TestSwitchTouchesLastAccessed(t *testing.T) {
	homeTenantID := uuid.New()
	userID := uuid.New()
	workspaceID := uuid.New()
	store := newStubStore()
	core := testCore(store, enabledFor(homeTenantID))

	store.rows[store.key(userID, workspaceID)] = Membership{WorkspaceID: workspaceID, UserID: userID, Role: role.Member}

	res, err := core.Switch(context.Background(), userID, homeTenantID, workspaceID)
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if res.WorkspaceID != workspaceID {
		t.Errorf("workspace = %s, want %s", res.WorkspaceID, workspaceID)
	}

	if len(store.touched) != 1 || store.touched[0] != workspaceID {
		t.Errorf("expected last accessed touch for %s, got %v", workspaceID, store.touched)
	}
}

func TestRoleInHomeTenantIsImplicit(t *testing.T) {
	homeTenantID := uuid.New()
	core := testCore(newStubStore(), disabled())
	ctx := context.Background()

	rle, err := core.RoleIn(ctx, uuid.New(), homeTenantID, true, homeTenantID)
	if err != nil {
		t.Fatalf("RoleIn: %v", err)
	}
	if !rle.Equal(role.Owner) {
		t.Errorf("tenant admin role = %s, want OWNER", rle)
	}

	rle, err = core.RoleIn(ctx, uuid.New(), homeTenantID, false, homeTenantID)
	if err != nil {
		t.Fatalf("RoleIn: %v", err)
	}
	if !rle.Equal(role.Member) {
		t.Errorf("regular user role = %s, want MEMBER", rle)
	}
}

func TestRequireRole(t *testing.T) {
	homeTenantID := uuid.New()
	userID := uuid.New()
	workspaceID := uuid.New()
	store := newStubStore()
	core := testCore(store, enabledFor(homeTenantID))
	ctx := context.Background()

	store.rows[store.key(userID, workspaceID)] = Membership{WorkspaceID: workspaceID, UserID: userID, Role: role.Member}

	if err := core.RequireRole(ctx, userID, homeTenantID, false, workspaceID, role.Viewer); err != nil {
		t.Errorf("member should satisfy a viewer gate: %v", err)
	}

	if err := core.RequireRole(ctx, userID, homeTenantID, false, workspaceID, role.Admin); !errors.Is(err, ErrInsufficient) {
		t.Errorf("member must not satisfy an admin gate: %v", err)
	}

	if err := core.RequireRole(ctx, uuid.New(), homeTenantID, false, workspaceID, role.Viewer); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("non-member must be denied outright: %v", err)
	}
}
