package shopauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

func (c *Client) ready() error {
	if c == nil || c.api == nil {
		return ErrClientNotReady
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login submits credentials and either establishes a session or opens a
// verification challenge, depending on the account's two-factor setting.
//
// When SecondFactorRequired is set on the result no session exists yet;
// only ConfirmLogin can promote the pending login. A failed status probe
// after accepted credentials degrades to a direct login rather than
// blocking the operator.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if !c.loginBusy.CompareAndSwap(false, true) {
		return nil, ErrOperationInFlight
	}
	defer c.loginBusy.Store(false)

	tok := c.csrfToken(ctx)

	var raw json.RawMessage
	err := c.api.post(ctx, c.config.API.LoginPath, loginRequest{
		Username: username,
		Password: password,
	}, &raw, c.csrfHeader(tok))
	if err != nil {
		return nil, c.failLogin(ctx, username, err)
	}

	user, err := normalizeUser(raw)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, username, err, nil)
		return nil, err
	}

	status, probeErr := c.probeTwoFactor(ctx)
	if probeErr != nil {
		log.Print("shopauth: two-factor status probe failed, continuing with direct login")
		c.emitAudit(ctx, auditEventStatusProbeFailed, false, username, probeErr, nil)
	}

	if status != nil && status.Enabled {
		return c.openChallenge(ctx, user, status.Method)
	}

	// Direct login. Any pending challenge from an earlier attempt is void.
	c.mu.Lock()
	c.generation++
	c.pending = nil
	c.mu.Unlock()

	if err := c.sessions.Set(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, user.Username, nil, nil)

	return &LoginResult{User: user}, nil
}

func (c *Client) failLogin(ctx context.Context, username string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.metrics.Inc(MetricLoginFailure)
		wrapped := fmt.Errorf("%w: %s", ErrCredentialsRejected, apiErr.Message)
		c.emitAudit(ctx, auditEventLoginFailure, false, username, wrapped, nil)
		return wrapped
	}

	c.metrics.Inc(MetricLoginNetworkError)
	c.emitAudit(ctx, auditEventLoginNetworkError, false, username, err, nil)
	return err
}

func (c *Client) probeTwoFactor(ctx context.Context) (*TwoFactorStatus, error) {
	var status TwoFactorStatus
	if err := c.api.get(ctx, c.config.TwoFactor.StatusPath, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// openChallenge parks the authenticated identity behind a verification
// challenge. The session store stays empty until the code is confirmed.
func (c *Client) openChallenge(ctx context.Context, user *User, method string) (*LoginResult, error) {
	c.mu.Lock()
	c.generation++
	c.pending = &pendingLogin{
		user:       user,
		method:     method,
		generation: c.generation,
	}
	c.mu.Unlock()

	if err := c.sessions.Clear(ctx); err != nil {
		log.Print("shopauth: failed to clear session store on challenge open")
	}

	dispatched := c.dispatchCode(ctx, user.Username)

	c.metrics.Inc(MetricSecondFactorRequired)
	c.emitAudit(ctx, auditEventSecondFactorRequired, true, user.Username, nil, func() map[string]string {
		return map[string]string{"method": method}
	})

	return &LoginResult{
		SecondFactorRequired: true,
		Method:               method,
		CodeDispatched:       dispatched,
		CodeTTL:              c.config.TwoFactor.CodeTTL,
		AttemptsRemaining:    c.config.TwoFactor.MaxVerifyAttempts,
	}, nil
}

// dispatchCode asks the backend to deliver a verification code. Delivery is
// best effort: a failure is surfaced through the CodeDispatched flag so the
// caller can offer a resend, never as a flow-stopping error.
func (c *Client) dispatchCode(ctx context.Context, username string) bool {
	tok := c.csrfToken(ctx)
	if err := c.api.post(ctx, c.config.TwoFactor.SendCodePath, struct{}{}, nil, c.csrfHeader(tok)); err != nil {
		log.Print("shopauth: verification code dispatch failed")
		c.metrics.Inc(MetricCodeDispatchFailed)
		c.emitAudit(ctx, auditEventCodeDispatchFailed, false, username, err, nil)
		return false
	}
	return true
}

// SendCode re-requests delivery of the verification code for the pending
// login. It reports whether the backend accepted the dispatch.
func (c *Client) SendCode(ctx context.Context) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}

	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending == nil {
		return false, ErrNoPendingLogin
	}

	return c.dispatchCode(ctx, pending.user.Username), nil
}

// Register creates an account. It never authenticates: the caller is
// expected to log in afterwards, and the returned user carries the values
// to prefill that form with.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if !c.loginBusy.CompareAndSwap(false, true) {
		return nil, ErrOperationInFlight
	}
	defer c.loginBusy.Store(false)

	tok := c.csrfToken(ctx)

	var raw json.RawMessage
	err := c.api.post(ctx, c.config.API.RegisterPath, input, &raw, c.csrfHeader(tok))
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			c.metrics.Inc(MetricRegisterFailure)
			wrapped := fmt.Errorf("%w: %s", ErrRegistrationRejected, apiErr.Message)
			c.emitAudit(ctx, auditEventRegisterFailure, false, input.Username, wrapped, nil)
			return nil, wrapped
		}
		c.emitAudit(ctx, auditEventRegisterFailure, false, input.Username, err, nil)
		return nil, err
	}

	user, err := normalizeUser(raw)
	if err != nil {
		// The account exists even when the response shape is off; fall
		// back to what was submitted so the login form can be prefilled.
		user = &User{Username: input.Username, Email: input.Email}
	}

	c.metrics.Inc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegisterSuccess, true, user.Username, nil, nil)

	return &RegisterResult{User: user}, nil
}
