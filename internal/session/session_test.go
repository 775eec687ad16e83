package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestSigner_RoundTrip(t *testing.T) {
	s := newTestSigner(t)
	for _, user := range []string{"u1", "org|team|user", "用户"} {
		token, expires, err := s.Issue(user)
		if err != nil {
			t.Fatalf("issue %q: %v", user, err)
		}
		if !expires.After(time.Now()) {
			t.Errorf("expected future expiry, got %s", expires)
		}
		got, err := s.Verify(token)
		if err != nil {
			t.Fatalf("verify %q: %v", user, err)
		}
		if got != user {
			t.Errorf("expected user %q, got %q", user, got)
		}
	}
}

func TestSigner_RejectsTampering(t *testing.T) {
	s := newTestSigner(t)
	token, _, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other, _, _ := s.Issue("victim")
	payload, _, _ := strings.Cut(other, ".")
	_, sig, _ := strings.Cut(token, ".")

	otherSigner, err := NewSigner("different-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	foreign, _, _ := otherSigner.Issue("u1")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "abc"},
		{"swapped payload", payload + "." + sig},
		{"bad base64", "!!!." + sig},
		{"other secret", foreign},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSigner_Expiry(t *testing.T) {
	s := newTestSigner(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, _, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	now = now.Add(59 * time.Minute)
	if _, err := s.Verify(token); err != nil {
		t.Fatalf("expected valid token before expiry, got %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := s.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestNewSigner_RequiresSecret(t *testing.T) {
	if _, err := NewSigner("", time.Hour); err == nil {
		t.Error("expected error without secret")
	}
	s, err := NewSigner("k", 0)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if s.TTL() != 12*time.Hour {
		t.Errorf("expected default ttl, got %s", s.TTL())
	}
	if _, _, err := s.Issue("  "); err == nil {
		t.Error("expected error for blank user")
	}
}
