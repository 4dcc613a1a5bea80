// Package shopauth is a headless authentication client for the ProShop POS
// backend. It drives the full browser-equivalent login flow (CSRF cookie
// bootstrap, credential submission, the optional two-factor challenge, and
// session resumption) against the backend's JSON API, using a cookie jar in
// place of the browser's cookie store.
//
// The package is intended for Go front ends (CLI dashboards, TUIs) and for
// backend-for-frontend gateways that proxy the single-page app's auth
// traffic. A [Client] models one browser context: one cookie jar, one
// session, at most one pending two-factor challenge.
//
// # Architecture boundaries
//
// shopauth is the public surface. It exposes [Client], [Builder], [Config],
// and value types (LoginResult, TwoFactorStatus, MetricsSnapshot). Session
// persistence lives in the session sub-package, signed session assertions in
// assertion, and audit event plumbing under internal/audit.
//
// # State machine contract
//
// When the backend reports two-factor enabled for an account, accepted
// primary credentials alone never populate the session: only a successful
// [Client.ConfirmLogin] promotes the candidate user. Each pending challenge
// carries a generation tag, so a verify response that lands after
// [Client.CancelLogin] is discarded without touching the session.
package shopauth
