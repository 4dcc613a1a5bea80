package shopauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const (
	testUsername = "alice"
	testPassword = "correct-horse"
	testCode     = "123456"
	testCSRF     = "test-csrf-token"
)

// fakeBackend is a configurable stand-in for the dashboard API. All state
// access goes through mu so tests can flip failure modes mid-flow.
type fakeBackend struct {
	mu sync.Mutex

	twoFactorEnabled bool
	method           string
	loggedIn         bool
	wrapUser         bool

	csrfFetchFails bool
	csrfCookieOff  bool
	statusFails    bool
	sendCodeFails  bool
	enableFails    bool

	loginErrorBody  string
	verifyErrorBody string

	// verifyGate, when non-nil, blocks the verify handler until released.
	verifyGate chan struct{}

	loginCalls     int
	statusCalls    int
	sendCodeCalls  int
	verifyCalls    int
	csrfFetchCalls int
	logoutCalls    int

	lastLoginCSRF  string
	lastVerifyCSRF string

	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{method: "email", wrapUser: true}
	fb.server = httptest.NewServer(fb.routes())
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) setCSRFCookie(w http.ResponseWriter) {
	if fb.csrfCookieOff {
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: testCSRF, Path: "/"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (fb *fakeBackend) userBody() any {
	user := map[string]string{
		"username":   testUsername,
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Counter",
	}
	if fb.wrapUser {
		return map[string]any{"user": user}
	}
	return user
}

func (fb *fakeBackend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/csrf/", func(w http.ResponseWriter, _ *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.csrfFetchCalls++
		if fb.csrfFetchFails {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
			return
		}
		fb.setCSRFCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": testCSRF})
	})

	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.loginCalls++
		fb.lastLoginCSRF = r.Header.Get("X-CSRFToken")

		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)

		if fb.loginErrorBody != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(fb.loginErrorBody))
			return
		}
		if body.Username != testUsername || body.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		if !fb.twoFactorEnabled {
			fb.loggedIn = true
		}
		writeJSON(w, http.StatusOK, fb.userBody())
	})

	mux.HandleFunc("/api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		var body RegisterInput
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username == "taken" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"user": map[string]string{
			"username": body.Username,
			"email":    body.Email,
		}})
	})

	mux.HandleFunc("/api/auth/2fa/status/", func(w http.ResponseWriter, _ *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.statusCalls++
		if fb.statusFails {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "status unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"is_enabled": fb.twoFactorEnabled, "method": fb.method})
	})

	mux.HandleFunc("/api/auth/2fa/send_code/", func(w http.ResponseWriter, _ *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.sendCodeCalls++
		if fb.sendCodeFails {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "delivery failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"detail": "code sent"})
	})

	mux.HandleFunc("/api/auth/2fa/verify_code/", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.verifyCalls++
		fb.lastVerifyCSRF = r.Header.Get("X-CSRFToken")
		gate := fb.verifyGate
		errorBody := fb.verifyErrorBody
		fb.mu.Unlock()

		if gate != nil {
			<-gate
		}

		var body struct{ Code string }
		_ = json.NewDecoder(r.Body).Decode(&body)

		if errorBody != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(errorBody))
			return
		}
		if body.Code != testCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid verification code"})
			return
		}

		fb.mu.Lock()
		fb.loggedIn = true
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"detail": "verified"})
	})

	mux.HandleFunc("/api/auth/2fa/enable/", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Method string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		if fb.enableFails {
			fb.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone number required"})
			return
		}
		fb.twoFactorEnabled = true
		if body.Method != "" {
			fb.method = body.Method
		}
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"backup_codes": []string{"AAAA-1111", "BBBB-2222"}})
	})

	mux.HandleFunc("/api/auth/2fa/disable/", func(w http.ResponseWriter, _ *http.Request) {
		fb.mu.Lock()
		fb.twoFactorEnabled = false
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"detail": "disabled"})
	})

	mux.HandleFunc("/api/auth/current_user/", func(w http.ResponseWriter, _ *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.setCSRFCookie(w)
		if !fb.loggedIn {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"username":   testUsername,
			"email":      "alice@example.com",
			"first_name": "Alice",
			"last_name":  "Counter",
		})
	})

	mux.HandleFunc("/api/auth/logout/", func(w http.ResponseWriter, _ *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.logoutCalls++
		fb.loggedIn = false
		writeJSON(w, http.StatusOK, map[string]string{"detail": "logged out"})
	})

	return mux
}

func (fb *fakeBackend) counts() (login, status, sendCode, verify int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.loginCalls, fb.statusCalls, fb.sendCodeCalls, fb.verifyCalls
}

func newTestClient(t *testing.T, fb *fakeBackend) *Client {
	t.Helper()

	client, err := New().
		WithBaseURL(fb.server.URL).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}
