package sessionbus

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

type stubStore struct {
	rows map[string]Session
}

func newStubStore() *stubStore {
	return &stubStore{rows: make(map[string]Session)}
}

func (s *stubStore) NewWithTx(tx sqldb.CommitRollbacker) (Storer, error) {
	return s, nil
}

func (s *stubStore) Create(ctx context.Context, ses Session) error {
	s.rows[ses.Token] = ses
	return nil
}

func (s *stubStore) QueryByToken(ctx context.Context, token string) (Session, error) {
	ses, exists := s.rows[token]
	if !exists {
		return Session{}, sqldb.ErrDBNotFound
	}
	return ses, nil
}

func (s *stubStore) Revoke(ctx context.Context, token string, now time.Time) error {
	if ses, exists := s.rows[token]; exists && ses.RevokedAt == nil {
		ses.RevokedAt = &now
		s.rows[token] = ses
	}
	return nil
}

func (s *stubStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	for token, ses := range s.rows {
		if ses.UserID == userID && ses.RevokedAt == nil {
			ses.RevokedAt = &now
			s.rows[token] = ses
		}
	}
	return nil
}

func testCore(store *stubStore) *Core {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	return NewCore(log, store)
}

func TestValidateLifecycle(t *testing.T) {
	store := newStubStore()
	core := testCore(store)
	ctx := context.Background()
	userID := uuid.New()

	ses, err := core.Create(ctx, NewSession{
		Token:     "signed.refresh.token",
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := core.Validate(ctx, ses.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.UserID != userID {
		t.Errorf("user = %s, want %s", got.UserID, userID)
	}

	if err := core.Revoke(ctx, ses.Token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := core.Validate(ctx, ses.Token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked after revoke, got %v", err)
	}

	// Revoking again is a no-op.
	if err := core.Revoke(ctx, ses.Token); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	core := testCore(newStubStore())

	if _, err := core.Validate(context.Background(), "never.issued"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	store := newStubStore()
	core := testCore(store)
	ctx := context.Background()

	ses, err := core.Create(ctx, NewSession{
		Token:     "stale.refresh.token",
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := core.Validate(ctx, ses.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	store := newStubStore()
	core := testCore(store)
	ctx := context.Background()

	target := uuid.New()
	other := uuid.New()

	for i, userID := range []uuid.UUID{target, target, other} {
		_, err := core.Create(ctx, NewSession{
			Token:     string(rune('a' + i)),
			UserID:    userID,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := core.RevokeAllForUser(ctx, target); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	if _, err := core.Validate(ctx, "a"); !errors.Is(err, ErrRevoked) {
		t.Errorf("first session should be revoked: %v", err)
	}
	if _, err := core.Validate(ctx, "b"); !errors.Is(err, ErrRevoked) {
		t.Errorf("second session should be revoked: %v", err)
	}
	if _, err := core.Validate(ctx, "c"); err != nil {
		t.Errorf("other user's session must survive: %v", err)
	}
}
