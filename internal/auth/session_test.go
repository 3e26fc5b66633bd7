package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"placement/internal/config"
)

func testConfig(password string) config.Config {
	return config.Config{
		AppUsername:   "office",
		AppPassword:   password,
		SessionSecret: "test-secret",
		SessionTTLMin: 60,
	}
}

func TestNewAuthenticatorRequiresSettings(t *testing.T) {
	cfg := testConfig("pw")
	cfg.SessionSecret = ""
	if _, err := NewAuthenticator(cfg); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestLoginTransitions(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	for name, password := range map[string]string{"plain": "s3cret", "bcrypt": string(hash)} {
		t.Run(name, func(t *testing.T) {
			a, err := NewAuthenticator(testConfig(password))
			if err != nil {
				t.Fatal(err)
			}

			start := Session{}
			if start.Authenticated() {
				t.Fatal("zero session must be unauthenticated")
			}

			s, err := a.Login(start, "office", "wrong")
			if !errors.Is(err, ErrInvalidCredentials) || s.Authenticated() {
				t.Fatalf("bad password: %v %+v", err, s)
			}
			s, err = a.Login(start, "someone", "s3cret")
			if !errors.Is(err, ErrInvalidCredentials) || s.Authenticated() {
				t.Fatalf("bad user: %v %+v", err, s)
			}

			s, err = a.Login(start, "office", "s3cret")
			if err != nil || !s.Authenticated() || s.Username != "office" {
				t.Fatalf("login: %v %+v", err, s)
			}
			if s.State.String() != "authenticated" {
				t.Fatalf("state=%s", s.State)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a, err := NewAuthenticator(testConfig("pw"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := a.Login(Session{}, "office", "pw")
	if err != nil {
		t.Fatal(err)
	}

	token, err := a.IssueToken(s)
	if err != nil {
		t.Fatal(err)
	}
	restored := a.SessionFromToken(token)
	if !restored.Authenticated() || restored.Username != "office" {
		t.Fatalf("restored=%+v", restored)
	}

	if _, err := a.IssueToken(Session{}); err == nil {
		t.Fatal("expected error issuing token for anonymous session")
	}
}

func TestSessionFromTokenRejects(t *testing.T) {
	a, _ := NewAuthenticator(testConfig("pw"))
	other, _ := NewAuthenticator(func() config.Config {
		cfg := testConfig("pw")
		cfg.SessionSecret = "other-secret"
		return cfg
	}())

	s, _ := a.Login(Session{}, "office", "pw")
	foreign, _ := other.IssueToken(s)

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := a.Login(Session{}, "office", "pw")
	oldToken, _ := a.IssueToken(old)
	a.now = time.Now

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not.a.token",
		"foreign": foreign,
		"expired": oldToken,
	} {
		t.Run(name, func(t *testing.T) {
			if got := a.SessionFromToken(token); got.Authenticated() {
				t.Fatalf("token accepted: %+v", got)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()).Authenticated() {
		t.Fatal("empty context must be unauthenticated")
	}
	s := Session{State: Authenticated, Username: "office"}
	if got := FromContext(WithSession(context.Background(), s)); got != s {
		t.Fatalf("got %+v", got)
	}
}
