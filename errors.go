package shopauth

import "errors"

var (
	// ErrClientNotReady is returned when a Client method is called before
	// the client has been initialized through [Builder.Build].
	ErrClientNotReady = errors.New("client not initialized")
	// ErrOperationInFlight is returned when a login or verify call is made
	// while another call of the same flow has not completed yet.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrCredentialsRejected is returned when the backend rejects the
	// submitted username/password or reports a field-level validation error.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrRegistrationRejected is returned when the backend rejects a
	// registration request.
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrTwoFactorChangeRejected is returned when the backend refuses to
	// enable or disable two-factor verification for the account.
	ErrTwoFactorChangeRejected = errors.New("two-factor change rejected")
	// ErrBackendUnreachable is returned when a request never produced an
	// HTTP response (connection refused, DNS failure, timeout). Make sure
	// the backend is running; these calls are always safe to retry.
	ErrBackendUnreachable = errors.New("backend unreachable")
	// ErrMalformedResponse is returned when the backend answered 2xx but
	// the body could not be interpreted.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrNoPendingLogin is returned by ConfirmLogin when no two-factor
	// challenge is awaiting a code.
	ErrNoPendingLogin = errors.New("no pending login challenge")
	// ErrCodeMalformed is returned when the supplied verification code is
	// not exactly six digits after normalization. No attempt is consumed.
	ErrCodeMalformed = errors.New("malformed verification code")
	// ErrCodeInvalid is returned when the backend rejects a verification
	// code. One attempt is consumed; retry is allowed.
	ErrCodeInvalid = errors.New("invalid verification code")
	// ErrCodeAttemptsExceeded is returned once the client-side attempt
	// ceiling is reached. Terminal for the current challenge; the user must
	// log in again from scratch.
	ErrCodeAttemptsExceeded = errors.New("verification attempts exceeded")
	// ErrLoginCancelled is returned when a verify response completes after
	// the pending challenge was cancelled or superseded. The session is
	// never mutated by such a stale response.
	ErrLoginCancelled = errors.New("login challenge cancelled")
	// ErrSessionStoreUnavailable is returned when the configured session
	// store could not be read or written.
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	// ErrAssertionsDisabled is returned by SessionAssertion when no
	// assertion signer was configured.
	ErrAssertionsDisabled = errors.New("session assertions disabled")
	// ErrNoSession is returned by SessionAssertion when no user is
	// currently authenticated.
	ErrNoSession = errors.New("no authenticated session")
)
