package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/inventar/internal/model"
)

var owner = &model.User{ID: 1, Username: "owner"}

func TestIssueAndValidateToken(t *testing.T) {
	tokens := NewTokens("test-secret-key", 0)

	token, issued, err := tokens.Issue(owner)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || issued.ID == "" {
		t.Fatal("expected a signed token with a JTI")
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "owner" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Errorf("expected JTI %q, got %q", issued.ID, claims.ID)
	}
}

func TestTokensHaveUniqueIDs(t *testing.T) {
	tokens := NewTokens("secret", 0)
	_, a, _ := tokens.Issue(owner)
	_, b, _ := tokens.Issue(owner)
	if a.ID == b.ID {
		t.Error("expected distinct JTIs")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := NewTokens("secret1", 0).Issue(owner)

	_, err := NewTokens("secret2", 0).Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := NewTokens("secret", 0).Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokens("test", time.Hour)
	token, _, _ := tokens.Issue(owner)

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	diff := time.Until(claims.ExpiresAt.Time) - time.Hour
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := tokens.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}

	pw, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(pw) != 16 {
		t.Errorf("expected 16 chars, got %d", len(pw))
	}
}
