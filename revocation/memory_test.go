package revocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vigil-auth/vigil/token"
)

func TestMemoryRevokeIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	first, err := store.Revoke(ctx, "tok-1", token.PurposeRefresh, exp, false)
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	// A second revocation of the same token, even with different
	// attributes, returns the first writer's record untouched.
	second, err := store.Revoke(ctx, "tok-1", token.PurposeRefresh, exp.Add(time.Hour), true)
	if err != nil {
		t.Fatalf("second Revoke error: %v", err)
	}
	if second != first {
		t.Fatalf("expected first record back, got %+v want %+v", second, first)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", store.Len())
	}

	revoked, err := store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatal("expected tok-1 to be revoked")
	}

	revoked, err = store.IsRevoked(ctx, "tok-2")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if revoked {
		t.Fatal("expected tok-2 to not be revoked")
	}
}

func TestMemoryRevokeRejectsAccessPurpose(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Revoke(context.Background(), "tok-1", token.PurposeAccess, time.Now().Add(time.Hour), false)
	if !errors.Is(err, ErrPurposeNotRevocable) {
		t.Fatalf("expected ErrPurposeNotRevocable, got %v", err)
	}
}

func TestMemoryConcurrentRevokeConverges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	const workers = 32
	records := make([]Record, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := store.Revoke(ctx, "contested", token.PurposeRefresh, exp, i%2 == 0)
			if err != nil {
				t.Errorf("Revoke error: %v", err)
				return
			}
			records[i] = rec
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if records[i] != records[0] {
			t.Fatalf("worker %d observed a different record: %+v vs %+v", i, records[i], records[0])
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected a single record, got %d", store.Len())
	}
}

func TestMemorySweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	if _, err := store.Revoke(ctx, "live", token.PurposeRefresh, now.Add(time.Hour), false); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if _, err := store.Revoke(ctx, "dead", token.PurposePasswordReset, now.Add(-time.Minute), false); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	deleted, err := store.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", deleted)
	}

	revoked, _ := store.IsRevoked(ctx, "live")
	if !revoked {
		t.Fatal("sweep removed a live record")
	}
	revoked, _ = store.IsRevoked(ctx, "dead")
	if revoked {
		t.Fatal("sweep kept an expired record")
	}
}
