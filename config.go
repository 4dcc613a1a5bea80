package shopauth

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config carries all tunables for a [Client]. Zero values are filled in by
// [Builder]; construct through New().WithConfig(...) rather than mutating a
// Config shared between clients.
type Config struct {
	API       APIConfig
	CSRF      CSRFConfig
	TwoFactor TwoFactorConfig
	Session   SessionConfig
	Assertion AssertionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the backend and names the credential/session endpoints.
// Paths are relative to BaseURL and owned by the backend contract; override
// them only when the deployment remaps the API.
type APIConfig struct {
	BaseURL         string
	Timeout         time.Duration
	UserAgent       string
	RequestIDHeader string

	LoginPath       string
	RegisterPath    string
	LogoutPath      string
	CurrentUserPath string
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig controls the anti-forgery token fallback chain: cookie jar
// first, then FetchPath, then a bare GET to TriggerPath to provoke the
// backend into setting the cookie.
type CSRFConfig struct {
	CookieName  string
	HeaderName  string
	FetchPath   string
	TriggerPath string
}

/*
====================================
TWO-FACTOR CONFIG
====================================
*/

// TwoFactorConfig covers the challenge endpoints and the client-side verify
// budget. MaxVerifyAttempts is a UX throttle only; the backend enforces its
// own limit and its rejection is always authoritative. CodeTTL is the
// documented code lifetime shown to users; expiry itself is enforced by the
// backend.
type TwoFactorConfig struct {
	StatusPath   string
	SendCodePath string
	VerifyPath   string
	EnablePath   string
	DisablePath  string

	CodeDigits        int
	MaxVerifyAttempts int
	CodeTTL           time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis-backed session snapshot store used when
// a Redis client is supplied to the builder. RedisKey names this client's
// session slot; gateway deployments give each end-user context its own key.
type SessionConfig struct {
	RedisPrefix string
	RedisKey    string
	TTL         time.Duration
}

/*
====================================
ASSERTION CONFIG
====================================
*/

// AssertionConfig enables minting short-lived signed assertions of the
// authenticated user for co-located services. SigningMethod is "hs256" or
// "ed25519", mirroring the assertion package.
type AssertionConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters and the verify latency
// histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:         15 * time.Second,
			UserAgent:       "shopauth",
			RequestIDHeader: "X-Request-ID",
			LoginPath:       "/api/auth/login/",
			RegisterPath:    "/api/auth/register/",
			LogoutPath:      "/api/auth/logout/",
			CurrentUserPath: "/api/auth/current_user/",
		},
		CSRF: CSRFConfig{
			CookieName:  "csrftoken",
			HeaderName:  "X-CSRFToken",
			FetchPath:   "/api/auth/csrf/",
			TriggerPath: "/api/auth/current_user/",
		},
		TwoFactor: TwoFactorConfig{
			StatusPath:        "/api/auth/2fa/status/",
			SendCodePath:      "/api/auth/2fa/send_code/",
			VerifyPath:        "/api/auth/2fa/verify_code/",
			EnablePath:        "/api/auth/2fa/enable/",
			DisablePath:       "/api/auth/2fa/disable/",
			CodeDigits:        6,
			MaxVerifyAttempts: 5,
			CodeTTL:           10 * time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "sa",
			RedisKey:    "default",
		},
		Audit: AuditConfig{
			BufferSize: 64,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Assertion.PrivateKey = cloneBytes(cfg.Assertion.PrivateKey)
	out.Assertion.PublicKey = cloneBytes(cfg.Assertion.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency. Builder.Build
// calls it after applying defaults.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return errors.New("API BaseURL must be http or https")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must not be negative")
	}
	for _, p := range []string{
		c.API.LoginPath, c.API.RegisterPath, c.API.LogoutPath, c.API.CurrentUserPath,
		c.CSRF.FetchPath, c.CSRF.TriggerPath,
		c.TwoFactor.StatusPath, c.TwoFactor.SendCodePath, c.TwoFactor.VerifyPath,
		c.TwoFactor.EnablePath, c.TwoFactor.DisablePath,
	} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("endpoint paths must be absolute (start with /)")
		}
	}
	if c.CSRF.CookieName == "" || c.CSRF.HeaderName == "" {
		return errors.New("CSRF cookie and header names are required")
	}
	if c.TwoFactor.CodeDigits <= 0 {
		return errors.New("TwoFactor CodeDigits must be positive")
	}
	if c.TwoFactor.MaxVerifyAttempts <= 0 {
		return errors.New("TwoFactor MaxVerifyAttempts must be positive")
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be positive when audit is enabled")
	}
	return nil
}

// envAPIBaseURL overrides hostname sniffing when set, mirroring the
// dashboard's VITE_API_URL escape hatch.
const envAPIBaseURL = "SHOPAUTH_API_URL"

// ResolveAPIBaseURL derives the backend base URL from the host the front end
// is served on: an explicit environment override wins, ngrok tunnels keep
// their hostname over HTTPS, localhost development targets port 8000 on the
// loopback, and any other host (LAN or remote access) assumes the backend
// runs on the same machine on port 8000.
func ResolveAPIBaseURL(hostname string) string {
	if v := os.Getenv(envAPIBaseURL); v != "" {
		return v
	}
	if strings.Contains(hostname, "ngrok") {
		return "https://" + hostname
	}
	if hostname == "" || hostname == "localhost" || hostname == "127.0.0.1" {
		return "http://localhost:8000"
	}
	return "http://" + hostname + ":8000"
}
