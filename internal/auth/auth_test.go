package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret")
	token := v.Issue("user_2abc", time.Hour)

	subject, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user_2abc" {
		t.Errorf("subject = %q", subject)
	}
}

func TestTokenVerifier_Expired(t *testing.T) {
	v := NewTokenVerifier("secret")
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token := v.Issue("user_2abc", time.Hour)
	v.now = time.Now

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestTokenVerifier_WrongSecret(t *testing.T) {
	token := NewTokenVerifier("secret-a").Issue("user_2abc", time.Hour)

	if _, err := NewTokenVerifier("secret-b").Verify(context.Background(), token); err == nil {
		t.Fatal("expected verification with other secret to fail")
	}
}

func TestTokenVerifier_Tampered(t *testing.T) {
	v := NewTokenVerifier("secret")
	token := v.Issue("user_2abc", time.Hour)

	parts := strings.Split(token, ".")
	tampered := strings.Join([]string{parts[0] + "x", parts[1], parts[2]}, ".")
	if _, err := v.Verify(context.Background(), tampered); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestTokenVerifier_Malformed(t *testing.T) {
	v := NewTokenVerifier("secret")
	for _, token := range []string{"", "a", "a.b", "a.b.c.d", "!.1.!"} {
		if _, err := v.Verify(context.Background(), token); err == nil {
			t.Errorf("token %q unexpectedly verified", token)
		}
	}
}
