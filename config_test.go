package shopauth

import (
	"testing"
)

func TestResolveAPIBaseURL(t *testing.T) {
	cases := []struct {
		name     string
		hostname string
		want     string
	}{
		{"localhost", "localhost", "http://localhost:8000"},
		{"loopback", "127.0.0.1", "http://localhost:8000"},
		{"empty", "", "http://localhost:8000"},
		{"ngrok tunnel", "abc123.ngrok-free.app", "https://abc123.ngrok-free.app"},
		{"lan host", "192.168.1.40", "http://192.168.1.40:8000"},
		{"named host", "pos-terminal", "http://pos-terminal:8000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveAPIBaseURL(tc.hostname); got != tc.want {
				t.Fatalf("ResolveAPIBaseURL(%q) = %q, want %q", tc.hostname, got, tc.want)
			}
		})
	}
}

func TestResolveAPIBaseURLEnvOverride(t *testing.T) {
	t.Setenv(envAPIBaseURL, "https://api.example.com")

	if got := ResolveAPIBaseURL("localhost"); got != "https://api.example.com" {
		t.Fatalf("env override ignored, got %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := defaultConfig()
		cfg.API.BaseURL = "http://localhost:8000"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://host" }},
		{"relative path", func(c *Config) { c.API.LoginPath = "api/auth/login/" }},
		{"missing cookie name", func(c *Config) { c.CSRF.CookieName = "" }},
		{"zero digits", func(c *Config) { c.TwoFactor.CodeDigits = 0 }},
		{"zero attempts", func(c *Config) { c.TwoFactor.MaxVerifyAttempts = 0 }},
		{"negative timeout", func(c *Config) { c.API.Timeout = -1 }},
		{"audit without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigIsolatesKeyMaterial(t *testing.T) {
	cfg := defaultConfig()
	cfg.Assertion.PrivateKey = []byte("secret")

	clone := cloneConfig(cfg)
	clone.Assertion.PrivateKey[0] = 'X'

	if cfg.Assertion.PrivateKey[0] != 's' {
		t.Fatal("clone shares key material with the original")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	fb := newFakeBackend(t)

	b := New().WithBaseURL(fb.server.URL)
	client, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	t.Cleanup(client.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build must fail")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error without a base URL")
	}
}
