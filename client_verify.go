package shopauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// pendingLogin holds an identity whose credentials were accepted but whose
// verification code has not been. It is the only path into a session when
// two-factor is enabled.
type pendingLogin struct {
	user       *User
	method     string
	attempts   int
	locked     bool
	generation uint64
}

type verifyRequest struct {
	Code string `json:"code"`
}

// ConfirmLogin submits a verification code for the pending login and, on
// acceptance, promotes the parked identity into the session store.
//
// Attempts are counted client side against the configured ceiling; once the
// ceiling is reached further calls are rejected without touching the
// network. A malformed code or a network failure does not consume an
// attempt. A response that arrives after CancelLogin or a fresh Login is
// discarded, whatever its outcome.
func (c *Client) ConfirmLogin(ctx context.Context, code string) (*LoginResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if !c.verifyBusy.CompareAndSwap(false, true) {
		return nil, ErrOperationInFlight
	}
	defer c.verifyBusy.Store(false)

	c.mu.Lock()
	pending := c.pending
	if pending == nil {
		c.mu.Unlock()
		return nil, ErrNoPendingLogin
	}
	if pending.locked {
		c.mu.Unlock()
		return nil, ErrCodeAttemptsExceeded
	}
	generation := pending.generation
	username := pending.user.Username
	c.mu.Unlock()

	digits := digitsOnly(code)
	if len(digits) != c.config.TwoFactor.CodeDigits {
		return nil, fmt.Errorf("%w: expected %d digits", ErrCodeMalformed, c.config.TwoFactor.CodeDigits)
	}

	tok := c.csrfToken(ctx)

	start := time.Now()
	verifyErr := c.api.post(ctx, c.config.TwoFactor.VerifyPath, verifyRequest{Code: digits}, nil, c.csrfHeader(tok))
	c.metrics.Observe(MetricVerifyLatency, time.Since(start))

	c.mu.Lock()
	if c.pending == nil || c.pending.generation != generation {
		c.mu.Unlock()
		c.metrics.Inc(MetricVerifyStale)
		c.emitAudit(ctx, auditEventVerifyStale, false, username, ErrLoginCancelled, nil)
		return nil, ErrLoginCancelled
	}

	if verifyErr != nil {
		return nil, c.failVerifyLocked(ctx, verifyErr)
	}

	user := c.pending.user
	c.pending = nil
	c.mu.Unlock()

	if err := c.sessions.Set(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}

	c.metrics.Inc(MetricVerifySuccess)
	c.emitAudit(ctx, auditEventVerifySuccess, true, user.Username, nil, nil)

	return &LoginResult{User: user}, nil
}

// failVerifyLocked handles a failed verification round trip. The caller
// holds c.mu with a live pending login; the lock is released here.
func (c *Client) failVerifyLocked(ctx context.Context, verifyErr error) error {
	pending := c.pending
	username := pending.user.Username

	var apiErr *apiError
	if !errors.As(verifyErr, &apiErr) {
		// Transport failure: the backend never judged the code, so the
		// attempt is not consumed.
		c.mu.Unlock()
		c.metrics.Inc(MetricVerifyNetworkError)
		c.emitAudit(ctx, auditEventVerifyNetworkError, false, username, verifyErr, nil)
		return verifyErr
	}

	pending.attempts++
	attempts := pending.attempts
	max := c.config.TwoFactor.MaxVerifyAttempts
	if attempts >= max {
		pending.locked = true
		c.mu.Unlock()
		c.metrics.Inc(MetricVerifyLockedOut)
		c.emitAudit(ctx, auditEventVerifyLockedOut, false, username, ErrCodeAttemptsExceeded, func() map[string]string {
			return map[string]string{"attempts": fmt.Sprint(attempts)}
		})
		return ErrCodeAttemptsExceeded
	}
	c.mu.Unlock()

	c.metrics.Inc(MetricVerifyFailure)
	wrapped := fmt.Errorf("%w: %s", ErrCodeInvalid, apiErr.Message)
	c.emitAudit(ctx, auditEventVerifyFailure, false, username, wrapped, func() map[string]string {
		return map[string]string{"attempts": fmt.Sprint(attempts)}
	})
	return wrapped
}

// CancelLogin abandons the pending login and returns the client to its
// unauthenticated state. In-flight verification responses that land after
// the cancel are discarded.
func (c *Client) CancelLogin(ctx context.Context) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.generation++
	c.mu.Unlock()

	if pending == nil {
		return
	}

	c.metrics.Inc(MetricLoginCancelled)
	c.emitAudit(ctx, auditEventLoginCancelled, true, pending.user.Username, nil, nil)
}

// PendingChallenge reports whether a login is parked behind verification
// and, if so, the delivery method the backend selected for it.
func (c *Client) PendingChallenge() (method string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.method, true
}

// AttemptsRemaining returns how many verification attempts are left for the
// pending login, or zero when there is none or it is locked out.
func (c *Client) AttemptsRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.pending.locked {
		return 0
	}
	return c.config.TwoFactor.MaxVerifyAttempts - c.pending.attempts
}

// digitsOnly strips everything but ASCII digits, matching how the entry
// field sanitizes pasted codes.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
