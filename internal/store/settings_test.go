package store

import (
	"context"
	"testing"

	"github.com/erazemk/inventar/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	secret1, err := s.GetJWTSecret(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := s.GetJWTSecret(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}
