package flagbus

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type stubStore struct {
	tenant map[uuid.UUID]bool
	global *bool
	writes []Flag
}

func (s *stubStore) Upsert(ctx context.Context, flag Flag) error {
	s.writes = append(s.writes, flag)
	return nil
}

func (s *stubStore) QueryByKey(ctx context.Context, key string, tenantID uuid.UUID) (Flag, error) {
	enabled, exists := s.tenant[tenantID]
	if !exists {
		return Flag{}, ErrNotFound
	}
	return Flag{Key: key, TenantID: &tenantID, Enabled: enabled}, nil
}

func (s *stubStore) QueryGlobal(ctx context.Context, key string) (Flag, error) {
	if s.global == nil {
		return Flag{}, ErrNotFound
	}
	return Flag{Key: key, Enabled: *s.global}, nil
}

func boolPtr(b bool) *bool { return &b }

func TestIsEnabledPrecedence(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name   string
		tenant map[uuid.UUID]bool
		global *bool
		want   bool
	}{
		{"no rows means disabled", nil, nil, false},
		{"global row applies", nil, boolPtr(true), true},
		{"tenant row wins over global", map[uuid.UUID]bool{tenantID: false}, boolPtr(true), false},
		{"tenant enable without global", map[uuid.UUID]bool{tenantID: true}, nil, true},
		{"global disable", nil, boolPtr(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := NewCore(&stubStore{tenant: tt.tenant, global: tt.global})

			got, err := core.IsEnabled(context.Background(), MultiWorkspace, tenantID)
			if err != nil {
				t.Fatalf("IsEnabled: %v", err)
			}
			if got != tt.want {
				t.Errorf("enabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	store := &stubStore{}
	core := NewCore(store)
	ctx := context.Background()

	if err := core.Set(ctx, MultiWorkspace, nil, true); err != nil {
		t.Fatalf("Set global: %v", err)
	}

	tenantID := uuid.New()
	if err := core.Set(ctx, MultiWorkspace, &tenantID, false); err != nil {
		t.Fatalf("Set tenant: %v", err)
	}

	if len(store.writes) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(store.writes))
	}
	if store.writes[0].TenantID != nil {
		t.Error("first write should be the global row")
	}
	if store.writes[1].TenantID == nil || *store.writes[1].TenantID != tenantID {
		t.Error("second write should carry the tenant id")
	}
}
