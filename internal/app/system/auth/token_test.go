package auth

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewTokenIssuer_ShortSecret(t *testing.T) {
	if _, err := NewTokenIssuer("short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	uid := primitive.NewObjectID()

	tok, err := ti.Issue(uid, "instructor")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, _ := claims.UserID()
	if got != uid || claims.Role != "instructor" {
		t.Errorf("claims = %+v, want sub %s role instructor", claims, uid.Hex())
	}
	if claims.ID == "" {
		t.Error("expected jti to be set")
	}
}

func TestTokenIssuer_UniquePerIssue(t *testing.T) {
	ti, _ := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	uid := primitive.NewObjectID()

	a, _ := ti.Issue(uid, "student")
	b, _ := ti.Issue(uid, "student")
	if a == b {
		t.Error("two logins must produce different tokens")
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti, _ := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Minute)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ti.now = func() time.Time { return issued }

	tok, _ := ti.Issue(primitive.NewObjectID(), "student")

	ti.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := ti.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	b, _ := NewTokenIssuer("fedcba9876543210fedcba9876543210", time.Hour)

	tok, _ := a.Issue(primitive.NewObjectID(), "student")
	if _, err := b.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
