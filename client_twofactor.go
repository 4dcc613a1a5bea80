package shopauth

import (
	"context"
	"errors"
	"fmt"
)

// TwoFactorStatus fetches the account's current two-factor configuration.
// It requires an authenticated backend session.
func (c *Client) TwoFactorStatus(ctx context.Context) (*TwoFactorStatus, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.probeTwoFactor(ctx)
}

type enableTwoFactorRequest struct {
	Method      string `json:"method"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// EnableTwoFactor turns on verification for the account using the given
// delivery method. The returned backup codes are shown exactly once; the
// backend does not store them in recoverable form.
func (c *Client) EnableTwoFactor(ctx context.Context, method, phoneNumber string) (*TwoFactorEnableResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	tok := c.csrfToken(ctx)

	var result TwoFactorEnableResult
	err := c.api.post(ctx, c.config.TwoFactor.EnablePath, enableTwoFactorRequest{
		Method:      method,
		PhoneNumber: phoneNumber,
	}, &result, c.csrfHeader(tok))
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrTwoFactorChangeRejected, apiErr.Message)
		}
		return nil, err
	}

	c.metrics.Inc(MetricTwoFactorEnabled)
	c.emitAudit(ctx, auditEventTwoFactorEnabled, true, "", nil, func() map[string]string {
		return map[string]string{"method": method}
	})

	return &result, nil
}

// DisableTwoFactor turns off verification for the account. Subsequent
// logins complete directly on accepted credentials.
func (c *Client) DisableTwoFactor(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	tok := c.csrfToken(ctx)
	if err := c.api.post(ctx, c.config.TwoFactor.DisablePath, struct{}{}, nil, c.csrfHeader(tok)); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s", ErrTwoFactorChangeRejected, apiErr.Message)
		}
		return err
	}

	c.metrics.Inc(MetricTwoFactorDisabled)
	c.emitAudit(ctx, auditEventTwoFactorDisabled, true, "", nil, nil)
	return nil
}
