package loginbus

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/foundation/logger"
)

type stubStore struct {
	attempts  []Attempt
	createErr error
}

func (s *stubStore) NewWithTx(tx sqldb.CommitRollbacker) (Storer, error) {
	return s, nil
}

func (s *stubStore) Create(ctx context.Context, att Attempt) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.attempts = append(s.attempts, att)
	return nil
}

func (s *stubStore) FailedCountSince(ctx context.Context, email string, since time.Time) (int, error) {
	count := 0
	for _, att := range s.attempts {
		if att.Email == email && !att.Success && att.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func testCore(store *stubStore) *Core {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	return NewCore(log, store)
}

func TestLockoutEngagesAtLimit(t *testing.T) {
	store := &stubStore{}
	core := testCore(store)
	ctx := context.Background()

	for i := 0; i < MaxFailures-1; i++ {
		core.RecordAttempt(ctx, NewAttempt{Email: "ada@acme.test", Success: false, FailureReason: "invalid_credentials"})
	}

	if err := core.CheckLockout(ctx, "ada@acme.test"); err != nil {
		t.Fatalf("expected no lockout below the limit: %v", err)
	}

	core.RecordAttempt(ctx, NewAttempt{Email: "ada@acme.test", Success: false, FailureReason: "invalid_credentials"})

	if err := core.CheckLockout(ctx, "ada@acme.test"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked at the limit, got %v", err)
	}
}

func TestLockoutWindowSlides(t *testing.T) {
	store := &stubStore{}
	core := testCore(store)
	ctx := context.Background()

	old := time.Now().Add(-Window - time.Minute)
	for i := 0; i < MaxFailures; i++ {
		store.attempts = append(store.attempts, Attempt{
			Email:     "ada@acme.test",
			Success:   false,
			CreatedAt: old,
		})
	}

	if err := core.CheckLockout(ctx, "ada@acme.test"); err != nil {
		t.Fatalf("failures outside the window should not lock: %v", err)
	}
}

func TestSuccessesDoNotCount(t *testing.T) {
	store := &stubStore{}
	core := testCore(store)
	ctx := context.Background()

	for i := 0; i < MaxFailures*2; i++ {
		core.RecordAttempt(ctx, NewAttempt{Email: "ada@acme.test", Success: true})
	}

	if err := core.CheckLockout(ctx, "ada@acme.test"); err != nil {
		t.Fatalf("successful attempts should never lock: %v", err)
	}
}

func TestRecordAttemptNormalizesEmail(t *testing.T) {
	store := &stubStore{}
	core := testCore(store)
	ctx := context.Background()

	core.RecordAttempt(ctx, NewAttempt{Email: "Ada@Acme.TEST", Success: false})

	if len(store.attempts) != 1 {
		t.Fatalf("expected one stored attempt, got %d", len(store.attempts))
	}
	if got := store.attempts[0].Email; got != "ada@acme.test" {
		t.Errorf("stored email = %q, want lowercase", got)
	}

	count, err := core.FailedCountInWindow(ctx, "ADA@ACME.test")
	if err != nil {
		t.Fatalf("FailedCountInWindow: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 regardless of email casing", count)
	}
}

func TestRecordAttemptSwallowsStoreErrors(t *testing.T) {
	store := &stubStore{createErr: errors.New("db down")}
	core := testCore(store)

	// Must not panic or surface the failure.
	core.RecordAttempt(context.Background(), NewAttempt{Email: "ada@acme.test", Success: false})
}
