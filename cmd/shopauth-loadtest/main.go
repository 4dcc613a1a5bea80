// Command shopauth-loadtest measures login and verification throughput
// against a backend. When no target is given it spins up an in-process fake
// backend, so the numbers isolate client overhead from server behavior.
//
// Run:
//
//	go run ./cmd/shopauth-loadtest -clients 64 -logins 5000
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	shopauth "github.com/proshophq/shopauth"
)

const (
	loadUsername = "load"
	loadPassword = "load-password"
	loadCode     = "123456"
)

func main() {
	var (
		clients   = flag.Int("clients", 32, "number of concurrent clients")
		logins    = flag.Int("logins", 2000, "total login/verify cycles")
		target    = flag.String("target", "", "backend base URL; if empty, an in-process fake backend is used")
		twoFactor = flag.Bool("two-factor", true, "drive the verification challenge on every login")
	)
	flag.Parse()

	if *clients <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "clients and logins must be > 0")
		os.Exit(2)
	}

	baseURL := *target
	if baseURL == "" {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			fmt.Fprintf(os.Stderr, "listen failed: %v\n", err)
			os.Exit(1)
		}
		srv := &http.Server{Handler: newLoadBackend(*twoFactor)}
		go func() { _ = srv.Serve(ln) }()
		defer srv.Close()
		baseURL = "http://" + ln.Addr().String()
		fmt.Printf("using in-process backend at %s\n", baseURL)
	} else {
		fmt.Printf("using backend at %s\n", baseURL)
	}

	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, *logins)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < *clients; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			client, err := shopauth.New().WithBaseURL(baseURL).Build()
			if err != nil {
				atomic.AddInt64(&failures, 1)
				return
			}
			defer client.Close()

			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= *logins {
					return
				}

				t0 := time.Now()
				err := runCycle(ctx, client, *twoFactor)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)

	printStats(total, latencies, failures)
}

func runCycle(ctx context.Context, client *shopauth.Client, twoFactor bool) error {
	result, err := client.Login(ctx, loadUsername, loadPassword)
	if err != nil {
		return err
	}
	if twoFactor && result.SecondFactorRequired {
		if _, err := client.ConfirmLogin(ctx, loadCode); err != nil {
			return err
		}
	}
	return client.Logout(ctx)
}

func printStats(total time.Duration, samples []time.Duration, failures int64) {
	if len(samples) == 0 {
		fmt.Println("no samples collected")
		return
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	pct := func(p float64) time.Duration {
		idx := int(p * float64(len(samples)-1))
		return samples[idx]
	}

	fmt.Println("---- results ----")
	fmt.Printf("cycles:   %d (%d failed)\n", len(samples), failures)
	fmt.Printf("total:    %s\n", total.Round(time.Millisecond))
	fmt.Printf("rate:     %.1f cycles/s\n", float64(len(samples))/total.Seconds())
	fmt.Printf("p50:      %s\n", pct(0.50).Round(time.Microsecond))
	fmt.Printf("p95:      %s\n", pct(0.95).Round(time.Microsecond))
	fmt.Printf("p99:      %s\n", pct(0.99).Round(time.Microsecond))
}

// newLoadBackend is a minimal stateless rendition of the dashboard API that
// accepts the fixed load credentials and code.
func newLoadBackend(twoFactor bool) http.Handler {
	mux := http.NewServeMux()

	user := map[string]any{"user": map[string]string{"username": loadUsername}}

	mux.HandleFunc("/api/auth/csrf/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "load-csrf", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]string{"csrfToken": "load-csrf"})
	})
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != loadUsername || body.Password != loadPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/api/auth/2fa/status/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"is_enabled": twoFactor, "method": "email"})
	})
	mux.HandleFunc("/api/auth/2fa/send_code/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "sent"})
	})
	mux.HandleFunc("/api/auth/2fa/verify_code/", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Code string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Code != loadCode {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid verification code"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "verified"})
	})
	mux.HandleFunc("/api/auth/current_user/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"username": loadUsername})
	})
	mux.HandleFunc("/api/auth/logout/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "logged out"})
	})

	return mux
}
