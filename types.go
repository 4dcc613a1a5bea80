package shopauth

import (
	"io"
	"time"

	"github.com/proshophq/shopauth/internal/audit"
	"github.com/proshophq/shopauth/session"
)

// User is the canonical authenticated-user shape. The backend sometimes
// wraps it ({"user": {...}}) and sometimes returns it bare; the transport
// normalizes both into this one type.
type User = session.User

// LoginResult is returned by [Client.Login] and [Client.ConfirmLogin].
// Either User is set (session granted) or SecondFactorRequired is true and
// the caller must follow up with ConfirmLogin.
type LoginResult struct {
	User *User

	SecondFactorRequired bool
	// Method is the account's second-factor channel: "email", "sms" or
	// "authenticator".
	Method string
	// CodeDispatched reports whether the one-time code send was accepted by
	// the backend. False is a non-blocking warning: verification can still
	// be attempted, but the user may be waiting for a code that never
	// arrives.
	CodeDispatched bool
	// CodeTTL is the documented code lifetime to show the user. The client
	// does not enforce it; expiry surfaces as a verify failure.
	CodeTTL time.Duration
	// AttemptsRemaining is the client-side verify budget at the time the
	// result was produced.
	AttemptsRemaining int
}

// RegisterInput is the input for [Client.Register]. Field-level validation
// is the backend's job; whatever it reports is surfaced verbatim.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// RegisterResult is returned by [Client.Register]. Registration never
// creates a session; the created user is returned so callers can pre-fill
// the login form.
type RegisterResult struct {
	User *User
}

// TwoFactorStatus is the backend's report on an account's second factor.
type TwoFactorStatus struct {
	Enabled     bool   `json:"is_enabled"`
	Method      string `json:"method"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// TwoFactorEnableResult carries the single-use backup codes issued when the
// second factor is turned on. They are shown once and never retrievable.
type TwoFactorEnableResult struct {
	BackupCodes []string `json:"backup_codes"`
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
