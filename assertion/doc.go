// Package assertion issues signed, short-lived identity assertions for an
// established session, so backend services behind the gateway can verify
// who is logged in without handling the session cookie itself.
package assertion
