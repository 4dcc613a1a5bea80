package shopauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/proshophq/shopauth/assertion"
	"github.com/proshophq/shopauth/session"
)

func TestResumeSessionAdoptsBackendUser(t *testing.T) {
	fb := newFakeBackend(t)
	fb.loggedIn = true
	client := newTestClient(t, fb)

	user, err := client.ResumeSession(context.Background())
	if err != nil {
		t.Fatalf("ResumeSession failed: %v", err)
	}
	if user == nil || user.Username != testUsername {
		t.Fatalf("unexpected user: %+v", user)
	}

	local, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if local == nil || local.Username != testUsername {
		t.Fatal("resumed session not stored locally")
	}
}

func TestResumeSessionAnonymousIsNotAnError(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)

	// Seed stale local state; the probe's answer wins.
	if err := client.sessions.Set(context.Background(), &User{Username: "stale"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	user, err := client.ResumeSession(context.Background())
	if err != nil {
		t.Fatalf("anonymous probe must not error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected anonymous, got %+v", user)
	}
	if local, _ := client.CurrentUser(context.Background()); local != nil {
		t.Fatal("stale local session must be cleared")
	}
	if got := client.Metrics().Value(MetricSessionAnonymous); got != 1 {
		t.Fatalf("expected 1 anonymous probe, got %d", got)
	}
}

func TestResumeSessionNetworkErrorClearsLocal(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)
	if err := client.sessions.Set(context.Background(), &User{Username: "stale"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	fb.server.Close()

	_, err := client.ResumeSession(context.Background())
	if !errors.Is(err, ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
	if local, _ := client.CurrentUser(context.Background()); local != nil {
		t.Fatal("local session must be cleared on a failed probe")
	}
}

func TestLogoutNotifiesBackend(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)

	if _, err := client.Login(context.Background(), testUsername, testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if fb.logoutCalls != 1 {
		t.Fatalf("expected 1 logout call, got %d", fb.logoutCalls)
	}
	if user, _ := client.CurrentUser(context.Background()); user != nil {
		t.Fatal("session must be cleared after logout")
	}
}

func TestLogoutClearsLocallyWhenBackendDown(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)

	if _, err := client.Login(context.Background(), testUsername, testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	fb.server.Close()

	err := client.Logout(context.Background())
	if !errors.Is(err, ErrBackendUnreachable) {
		t.Fatalf("expected notify error for diagnostics, got %v", err)
	}
	if user, _ := client.CurrentUser(context.Background()); user != nil {
		t.Fatal("a dead backend must not block local logout")
	}
}

func TestLogoutVoidsPendingChallenge(t *testing.T) {
	fb := newFakeBackend(t)
	client := openChallengeForTest(t, fb)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := client.PendingChallenge(); ok {
		t.Fatal("logout must abandon the pending challenge")
	}
}

func TestSessionAssertionDisabled(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)

	if _, err := client.SessionAssertion(context.Background()); !errors.Is(err, ErrAssertionsDisabled) {
		t.Fatalf("expected ErrAssertionsDisabled, got %v", err)
	}
}

func TestSessionAssertionIssuesVerifiableToken(t *testing.T) {
	fb := newFakeBackend(t)

	cfg := defaultConfig()
	cfg.API.BaseURL = fb.server.URL
	cfg.Assertion = AssertionConfig{
		Enabled:       true,
		TTL:           time.Minute,
		SigningMethod: "hs256",
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "shopauth-test",
	}

	client, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	if _, err := client.SessionAssertion(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before login, got %v", err)
	}

	if _, err := client.Login(context.Background(), testUsername, testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token, err := client.SessionAssertion(context.Background())
	if err != nil {
		t.Fatalf("SessionAssertion failed: %v", err)
	}

	verifier, err := assertion.NewManager(assertion.Config{
		TTL:           cfg.Assertion.TTL,
		SigningMethod: assertion.MethodHS256,
		PrivateKey:    cfg.Assertion.PrivateKey,
		Issuer:        cfg.Assertion.Issuer,
	})
	if err != nil {
		t.Fatalf("verifier setup failed: %v", err)
	}
	claims, err := verifier.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Username != testUsername {
		t.Fatalf("unexpected subject: %q", claims.Username)
	}
}

func TestMemoryStoreIsDefault(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)

	if _, ok := client.sessions.(*session.MemoryStore); !ok {
		t.Fatalf("expected memory store by default, got %T", client.sessions)
	}
}
