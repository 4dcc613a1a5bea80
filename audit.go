package shopauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginNetworkError    = "login_network_error"
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterFailure      = "register_failure"
	auditEventSecondFactorRequired = "second_factor_required"
	auditEventStatusProbeFailed    = "second_factor_status_probe_failed"
	auditEventCodeDispatchFailed   = "code_dispatch_failed"
	auditEventVerifySuccess        = "verify_success"
	auditEventVerifyFailure        = "verify_failure"
	auditEventVerifyLockedOut      = "verify_locked_out"
	auditEventVerifyStale          = "verify_stale_discarded"
	auditEventVerifyNetworkError   = "verify_network_error"
	auditEventLoginCancelled       = "login_cancelled"
	auditEventSessionResumed       = "session_resumed"
	auditEventSessionAnonymous     = "session_probe_anonymous"
	auditEventLogout               = "logout"
	auditEventLogoutNotifyFailed   = "logout_notify_failed"
	auditEventCSRFUnavailable      = "csrf_unavailable"
	auditEventTwoFactorEnabled     = "two_factor_enabled"
	auditEventTwoFactorDisabled    = "two_factor_disabled"
)

// AuditErrorCode is the stable machine-readable error label carried by audit
// events in place of raw error strings.
type AuditErrorCode string

const (
	auditErrCredentialsRejected  AuditErrorCode = "credentials_rejected"
	auditErrRegistrationRejected AuditErrorCode = "registration_rejected"
	auditErrTwoFactorRejected    AuditErrorCode = "two_factor_change_rejected"
	auditErrBackendUnreachable   AuditErrorCode = "backend_unreachable"
	auditErrMalformedResponse    AuditErrorCode = "malformed_response"
	auditErrNoPendingLogin       AuditErrorCode = "no_pending_login"
	auditErrCodeMalformed        AuditErrorCode = "code_malformed"
	auditErrCodeInvalid          AuditErrorCode = "code_invalid"
	auditErrAttemptsExceeded     AuditErrorCode = "attempts_exceeded"
	auditErrLoginCancelled       AuditErrorCode = "login_cancelled"
	auditErrSessionStore         AuditErrorCode = "session_store_unavailable"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialsRejected):
		return auditErrCredentialsRejected
	case errors.Is(err, ErrRegistrationRejected):
		return auditErrRegistrationRejected
	case errors.Is(err, ErrTwoFactorChangeRejected):
		return auditErrTwoFactorRejected
	case errors.Is(err, ErrBackendUnreachable):
		return auditErrBackendUnreachable
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformedResponse
	case errors.Is(err, ErrNoPendingLogin):
		return auditErrNoPendingLogin
	case errors.Is(err, ErrCodeMalformed):
		return auditErrCodeMalformed
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrCodeAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrLoginCancelled):
		return auditErrLoginCancelled
	case errors.Is(err, ErrSessionStoreUnavailable):
		return auditErrSessionStore
	default:
		return auditErrInternal
	}
}

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Username:  username,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}
