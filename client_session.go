package shopauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// CurrentUser reports the locally known session, without a network round
// trip. A nil user with a nil error means anonymous.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.sessions.Current(ctx)
}

// ResumeSession asks the backend who the cookie belongs to and adopts the
// answer. It is the startup probe: a rejected or missing session clears
// local state and is not an error, only an unreachable backend is.
func (c *Client) ResumeSession(ctx context.Context) (*User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err := c.api.get(ctx, c.config.API.CurrentUserPath, &raw)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			if clearErr := c.sessions.Clear(ctx); clearErr != nil {
				log.Print("shopauth: failed to clear session store on anonymous probe")
			}
			c.metrics.Inc(MetricSessionAnonymous)
			c.emitAudit(ctx, auditEventSessionAnonymous, true, "", nil, nil)
			return nil, nil
		}
		if clearErr := c.sessions.Clear(ctx); clearErr != nil {
			log.Print("shopauth: failed to clear session store on failed probe")
		}
		return nil, err
	}

	user, err := normalizeUser(raw)
	if err != nil {
		return nil, err
	}

	if err := c.sessions.Set(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}

	c.metrics.Inc(MetricSessionResumed)
	c.emitAudit(ctx, auditEventSessionResumed, true, user.Username, nil, nil)

	return user, nil
}

// Logout ends the session. Local state is cleared unconditionally and
// first; the backend notification is attempted afterwards and its failure
// is returned for diagnostics only. A dead backend can never trap an
// operator in a logged-in terminal.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	c.mu.Lock()
	username := ""
	if c.pending != nil {
		username = c.pending.user.Username
	}
	c.pending = nil
	c.generation++
	c.mu.Unlock()

	if user, err := c.sessions.Current(ctx); err == nil && user != nil {
		username = user.Username
	}
	if err := c.sessions.Clear(ctx); err != nil {
		log.Print("shopauth: failed to clear session store on logout")
	}

	tok := c.csrfToken(ctx)
	notifyErr := c.api.post(ctx, c.config.API.LogoutPath, struct{}{}, nil, c.csrfHeader(tok))

	c.api.resetJar()

	c.metrics.Inc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, username, nil, nil)

	if notifyErr != nil {
		c.emitAudit(ctx, auditEventLogoutNotifyFailed, false, username, notifyErr, nil)
		return notifyErr
	}
	return nil
}

// SessionAssertion mints a short-lived signed statement of the current
// session's identity, for handing to backend services that trust this
// gateway but not its cookies.
func (c *Client) SessionAssertion(ctx context.Context) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if c.assertions == nil {
		return "", ErrAssertionsDisabled
	}

	user, err := c.sessions.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}
	if user == nil {
		return "", ErrNoSession
	}

	return c.assertions.Issue(user)
}
