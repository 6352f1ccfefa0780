package auditbus

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

type stubStore struct {
	entries   []Entry
	createErr error
}

func (s *stubStore) NewWithTx(tx sqldb.CommitRollbacker) (Storer, error) {
	return s, nil
}

func (s *stubStore) Create(ctx context.Context, ent Entry) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.entries = append(s.entries, ent)
	return nil
}

func (s *stubStore) QueryByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	var entries []Entry
	for _, ent := range s.entries {
		if ent.TenantID == tenantID && len(entries) < limit {
			entries = append(entries, ent)
		}
	}
	return entries, nil
}

func testCore(store *stubStore) *Core {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	return NewCore(log, store)
}

func TestRecordDefaultsSeverity(t *testing.T) {
	store := &stubStore{}
	core := testCore(store)

	core.Record(context.Background(), NewEntry{
		TenantID: uuid.New(),
		Action:   ActionLoginSuccess,
		Success:  true,
	})

	if len(store.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(store.entries))
	}
	if got := store.entries[0].Severity; got != SeverityInfo {
		t.Errorf("severity = %q, want info default", got)
	}
	if store.entries[0].ID == uuid.Nil {
		t.Error("expected a generated entry id")
	}
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &stubStore{createErr: errors.New("db down")}
	core := testCore(store)

	// Must not panic or surface the failure.
	core.Record(context.Background(), NewEntry{
		TenantID: uuid.New(),
		Action:   ActionLoginFailed,
		Severity: SeverityWarning,
	})
}

func TestQueryByTenantScoped(t *testing.T) {
	store := &stubStore{}
	core := testCore(store)
	tenantID := uuid.New()

	core.Record(context.Background(), NewEntry{TenantID: tenantID, Action: ActionLoginSuccess, Success: true})
	core.Record(context.Background(), NewEntry{TenantID: tenantID, Action: ActionLogout, Success: true})
	core.Record(context.Background(), NewEntry{TenantID: uuid.New(), Action: ActionLoginFailed})

	entries, err := core.QueryByTenant(context.Background(), tenantID, 10)
	if err != nil {
		t.Fatalf("QueryByTenant: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want the tenant's 2", len(entries))
	}

	entries, err = core.QueryByTenant(context.Background(), tenantID, 1)
	if err != nil {
		t.Fatalf("QueryByTenant: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want the limit of 1", len(entries))
	}
}
