package shopauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/proshophq/shopauth/session"
)

const maxResponseBody = 1 << 20

// apiError is a backend-answered failure: the request completed but the
// status was outside 2xx. Message is extracted with the dashboard's
// precedence rule (error, then detail, then the first validation field).
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// apiClient is the JSON transport. It owns the cookie jar standing in for
// the browser's cookie store; session and CSRF cookies live there, never in
// application memory.
type apiClient struct {
	base            *url.URL
	http            *http.Client
	userAgent       string
	requestIDHeader string
}

func newAPIClient(cfg APIConfig, hc *http.Client) (*apiClient, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}
	if hc.Timeout == 0 {
		hc.Timeout = cfg.Timeout
	}
	return &apiClient{
		base:            base,
		http:            hc,
		userAgent:       cfg.UserAgent,
		requestIDHeader: cfg.RequestIDHeader,
	}, nil
}

// resetJar discards all cookies, the equivalent of clearing browser storage
// on logout.
func (a *apiClient) resetJar() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return
	}
	a.http.Jar = jar
}

// cookieValue reads a cookie for the API origin straight from the jar.
func (a *apiClient) cookieValue(name string) string {
	if a.http.Jar == nil {
		return ""
	}
	for _, ck := range a.http.Jar.Cookies(a.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (a *apiClient) get(ctx context.Context, path string, out any) error {
	return a.do(ctx, http.MethodGet, path, nil, out, nil)
}

func (a *apiClient) post(ctx context.Context, path string, payload, out any, headers map[string]string) error {
	return a.do(ctx, http.MethodPost, path, payload, out, headers)
}

func (a *apiClient) do(
	ctx context.Context,
	method, path string,
	payload, out any,
	headers map[string]string,
) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base.String()+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	if a.requestIDHeader != "" {
		id := requestIDFromContext(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		req.Header.Set(a.requestIDHeader, id)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{Status: resp.StatusCode, Message: extractMessage(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}

const genericErrorMessage = "An error occurred"

// extractMessage picks the human-readable message out of an error body:
// explicit "error" field, then "detail", then the first value of the first
// validation field in document order.
func extractMessage(data []byte) string {
	if len(data) == 0 {
		return genericErrorMessage
	}

	var envelope struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Detail != "" {
			return envelope.Detail
		}
	}

	if msg := firstFieldMessage(data); msg != "" {
		return msg
	}
	return genericErrorMessage
}

// firstFieldMessage walks the top-level object in document order, which a
// plain unmarshal into a map would lose.
func firstFieldMessage(data []byte) string {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ""
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ""
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return ""
		}
		if key == "error" || key == "detail" {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

type userDTO struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (d *userDTO) toUser() *session.User {
	return &session.User{
		Username:  d.Username,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
	}
}

// normalizeUser collapses the backend's two login response shapes, a
// {"user": {...}} wrapper or the bare user object, into one canonical User.
// Shape variance is a backend quirk isolated here, never propagated.
func normalizeUser(raw json.RawMessage) (*User, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty user payload", ErrMalformedResponse)
	}

	var wrapped struct {
		User *userDTO `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil && wrapped.User.Username != "" {
		return wrapped.User.toUser(), nil
	}

	var bare userDTO
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if bare.Username == "" && bare.Email == "" {
		return nil, fmt.Errorf("%w: no user in payload", ErrMalformedResponse)
	}
	return bare.toUser(), nil
}
