// Package internaldefs holds the metric name table shared by the exporters.
// It is internal plumbing; application code should not depend on it.
package internaldefs

import (
	shopauth "github.com/proshophq/shopauth"
)

// CounterDef ties a core metric ID to its exported name and help text.
type CounterDef struct {
	ID   shopauth.MetricID
	Name string
	Help string
}

// HistogramDef ties a core histogram ID to its exported name and help text.
type HistogramDef struct {
	ID   shopauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: shopauth.MetricLoginSuccess, Name: "shopauth_login_success_total", Help: "Successful login attempts."},
	{ID: shopauth.MetricLoginFailure, Name: "shopauth_login_failure_total", Help: "Login attempts rejected by the backend."},
	{ID: shopauth.MetricLoginNetworkError, Name: "shopauth_login_network_error_total", Help: "Login attempts that never reached the backend."},
	{ID: shopauth.MetricRegisterSuccess, Name: "shopauth_register_success_total", Help: "Successful registrations."},
	{ID: shopauth.MetricRegisterFailure, Name: "shopauth_register_failure_total", Help: "Registrations rejected by the backend."},
	{ID: shopauth.MetricSecondFactorRequired, Name: "shopauth_second_factor_required_total", Help: "Logins parked behind a verification challenge."},
	{ID: shopauth.MetricCodeDispatchFailed, Name: "shopauth_code_dispatch_failed_total", Help: "Verification code deliveries the backend did not accept."},
	{ID: shopauth.MetricVerifySuccess, Name: "shopauth_verify_success_total", Help: "Accepted verification codes."},
	{ID: shopauth.MetricVerifyFailure, Name: "shopauth_verify_failure_total", Help: "Rejected verification codes."},
	{ID: shopauth.MetricVerifyLockedOut, Name: "shopauth_verify_locked_out_total", Help: "Pending logins locked out by the attempt ceiling."},
	{ID: shopauth.MetricVerifyStale, Name: "shopauth_verify_stale_total", Help: "Verification responses discarded after cancellation."},
	{ID: shopauth.MetricVerifyNetworkError, Name: "shopauth_verify_network_error_total", Help: "Verification attempts that never reached the backend."},
	{ID: shopauth.MetricLoginCancelled, Name: "shopauth_login_cancelled_total", Help: "Pending logins abandoned by the operator."},
	{ID: shopauth.MetricCSRFCookieHit, Name: "shopauth_csrf_cookie_hit_total", Help: "CSRF tokens served from the cookie jar."},
	{ID: shopauth.MetricCSRFFetched, Name: "shopauth_csrf_fetched_total", Help: "CSRF tokens obtained from the token endpoint."},
	{ID: shopauth.MetricCSRFTriggered, Name: "shopauth_csrf_triggered_total", Help: "CSRF tokens obtained via the cookie-setting fallback."},
	{ID: shopauth.MetricCSRFUnavailable, Name: "shopauth_csrf_unavailable_total", Help: "Requests sent without a CSRF token."},
	{ID: shopauth.MetricSessionResumed, Name: "shopauth_session_resumed_total", Help: "Sessions adopted from the startup probe."},
	{ID: shopauth.MetricSessionAnonymous, Name: "shopauth_session_anonymous_total", Help: "Startup probes answered anonymous."},
	{ID: shopauth.MetricLogout, Name: "shopauth_logout_total", Help: "Logout operations."},
	{ID: shopauth.MetricTwoFactorEnabled, Name: "shopauth_two_factor_enabled_total", Help: "Accounts that turned on two-factor verification."},
	{ID: shopauth.MetricTwoFactorDisabled, Name: "shopauth_two_factor_disabled_total", Help: "Accounts that turned off two-factor verification."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: shopauth.MetricVerifyLatency, Name: "shopauth_verify_latency_seconds", Help: "Verification round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds in Prometheus label form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds in identifier-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
