package shopauth

import (
	"context"
	"log"
)

type csrfSource int

const (
	csrfFromCookie csrfSource = iota
	csrfFromFetch
	csrfFromTrigger
	csrfUnavailable
)

// csrfProvider resolves the anti-forgery token the backend expects on every
// state-changing request. Resolution is a three step fallback: the cookie
// jar, then the dedicated token endpoint, then any GET that makes the
// backend set the cookie as a side effect.
//
// Token never fails the calling flow. When all three steps come up empty the
// request goes out without the header and the backend's 403 becomes the
// signal, which keeps a CSRF hiccup from masking the real auth outcome.
type csrfProvider struct {
	api *apiClient
	cfg CSRFConfig
}

func newCSRFProvider(api *apiClient, cfg CSRFConfig) *csrfProvider {
	return &csrfProvider{api: api, cfg: cfg}
}

// Token returns the current CSRF token, or "" when none could be obtained,
// along with which step produced it.
func (p *csrfProvider) Token(ctx context.Context) (string, csrfSource) {
	if tok := p.api.cookieValue(p.cfg.CookieName); tok != "" {
		return tok, csrfFromCookie
	}

	var fetched struct {
		Token string `json:"csrfToken"`
	}
	if err := p.api.get(ctx, p.cfg.FetchPath, &fetched); err == nil && fetched.Token != "" {
		return fetched.Token, csrfFromFetch
	}

	// The trigger endpoint's body is irrelevant; only the Set-Cookie side
	// effect matters. An error status can still carry the cookie, so the
	// jar is re-read regardless.
	_ = p.api.get(ctx, p.cfg.TriggerPath, nil)
	if tok := p.api.cookieValue(p.cfg.CookieName); tok != "" {
		return tok, csrfFromTrigger
	}

	return "", csrfUnavailable
}

// csrfToken resolves a token through the provider and records how it went.
func (c *Client) csrfToken(ctx context.Context) string {
	tok, source := c.csrf.Token(ctx)
	switch source {
	case csrfFromCookie:
		c.metrics.Inc(MetricCSRFCookieHit)
	case csrfFromFetch:
		c.metrics.Inc(MetricCSRFFetched)
	case csrfFromTrigger:
		c.metrics.Inc(MetricCSRFTriggered)
	case csrfUnavailable:
		c.metrics.Inc(MetricCSRFUnavailable)
		log.Print("shopauth: proceeding without CSRF token")
		c.emitAudit(ctx, auditEventCSRFUnavailable, false, "", nil, nil)
	}
	return tok
}

// csrfHeader shapes a resolved token into request headers. A missing token
// yields no header at all rather than an empty one.
func (c *Client) csrfHeader(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{c.config.CSRF.HeaderName: token}
}
